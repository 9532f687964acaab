package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/viper"

	"github.com/Veraticus/wealth-advisor/internal/advisor"
	"github.com/Veraticus/wealth-advisor/internal/config"
	"github.com/Veraticus/wealth-advisor/internal/history"
	"github.com/Veraticus/wealth-advisor/internal/llm"
	"github.com/Veraticus/wealth-advisor/internal/storage"
)

func loadSettings() (*config.Settings, error) {
	return config.Load(viper.GetViper())
}

// initStorage opens the catalog and brings its schema up to date.
func initStorage(ctx context.Context, s *config.Settings) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(s.Database.Path)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func initHistory(s *config.Settings) (*history.Store, error) {
	return history.OpenDir(s.Storage.Dir)
}

// app bundles the wired service and the resources it holds open.
type app struct {
	service *advisor.Service
	catalog *storage.SQLiteStorage
	history *history.Store
}

func (a *app) Close() {
	if a.history != nil {
		_ = a.history.Close()
	}
	if a.catalog != nil {
		_ = a.catalog.Close()
	}
}

// initApp wires catalog, history, model client and prompt builder into the
// advisor service.
func initApp(ctx context.Context, s *config.Settings) (*app, error) {
	if err := s.RequireAPIKey(); err != nil {
		return nil, err
	}

	generator, err := llm.NewGenerator(ctx, llm.Config{
		Provider: "gemini",
		APIKey:   s.Gemini.APIKey,
		Model:    s.Gemini.Model,
		BaseURL:  s.Gemini.BaseURL,
		Timeout:  s.Gemini.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create model client: %w", err)
	}

	pb, err := advisor.NewTemplatePromptBuilder()
	if err != nil {
		return nil, err
	}

	a := &app{}
	if a.catalog, err = initStorage(ctx, s); err != nil {
		return nil, err
	}
	if a.history, err = initHistory(s); err != nil {
		a.Close()
		return nil, err
	}

	a.service, err = advisor.NewService(advisor.Deps{
		Catalog:       a.catalog,
		Analyzer:      llm.NewAdapter(generator, llm.WithRetryDelay(s.Gemini.RetryDelay)),
		History:       a.history,
		PromptBuilder: pb,
	}, advisor.Config{
		MaxRetries:  s.Gemini.MaxRetries,
		Institution: s.Advisor.Institution,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	return a, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
