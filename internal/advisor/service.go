// Package advisor turns a client id into a model-backed portfolio analysis.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/wealth-advisor/internal/common"
	"github.com/Veraticus/wealth-advisor/internal/llm"
	"github.com/Veraticus/wealth-advisor/internal/model"
	"github.com/Veraticus/wealth-advisor/internal/service"
)

// Service errors.
var (
	ErrClientNotFound = errors.New("client not found")
	ErrNoProducts     = errors.New("product catalog is empty")
)

// ProgressFunc receives coarse progress updates during an analysis.
type ProgressFunc func(stage string, percent int)

// Deps contains all dependencies required by the advisor service.
type Deps struct {
	// Catalog provides client profiles and products.
	Catalog service.Catalog
	// Analyzer calls the language model.
	Analyzer service.Analyzer
	// History persists successful analyses.
	History service.HistoryStore
	// PromptBuilder renders the analysis prompt.
	PromptBuilder PromptBuilder
}

// Validate ensures all required dependencies are provided.
func (d *Deps) Validate() error {
	if d.Catalog == nil {
		return fmt.Errorf("catalog dependency is required")
	}
	if d.Analyzer == nil {
		return fmt.Errorf("analyzer dependency is required")
	}
	if d.History == nil {
		return fmt.Errorf("history dependency is required")
	}
	if d.PromptBuilder == nil {
		return fmt.Errorf("prompt builder dependency is required")
	}
	return nil
}

// Config holds tunables for the service.
type Config struct {
	// Institution is the brand named in the prompt.
	Institution string
	// MaxRetries is the model call attempt budget.
	MaxRetries int
}

// Service runs analyses and exposes the stored history.
type Service struct {
	deps   Deps
	config Config
}

// NewService creates a new advisor service.
func NewService(deps Deps, cfg Config) (*Service, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = llm.DefaultMaxRetries
	}
	if cfg.Institution == "" {
		cfg.Institution = DefaultInstitution
	}
	return &Service{deps: deps, config: cfg}, nil
}

// Analyze runs one analysis for clientID.
func (s *Service) Analyze(ctx context.Context, clientID string) (*model.Envelope, error) {
	return s.AnalyzeWithProgress(ctx, clientID, nil)
}

// AnalyzeWithProgress runs one analysis, reporting progress as it goes.
//
// A model failure is not a Go error: it yields an envelope with status
// "error" whose analysis carries the failure payload, and nothing is stored.
// Errors are returned only for unknown clients, an empty catalog, and
// catalog failures.
func (s *Service) AnalyzeWithProgress(ctx context.Context, clientID string, progress ProgressFunc) (*model.Envelope, error) {
	if progress == nil {
		progress = func(string, int) {}
	}

	progress("Loading client profile", 10)
	client, err := s.deps.Catalog.GetClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s: %w", ErrClientNotFound, clientID, err)
		}
		return nil, fmt.Errorf("failed to load client %s: %w", clientID, err)
	}

	progress("Loading products", 20)
	products, err := s.deps.Catalog.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	if len(products) == 0 {
		return nil, ErrNoProducts
	}

	progress("Building prompt", 30)
	prompt, err := s.deps.PromptBuilder.BuildAnalysisPrompt(PromptData{
		Client:      *client,
		Products:    products,
		Institution: s.config.Institution,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}

	progress("Waiting for model", 40)
	start := time.Now()
	payload, err := s.deps.Analyzer.Invoke(ctx, prompt, s.config.MaxRetries)
	if err != nil {
		progress("Analysis failed", 100)
		return &model.Envelope{
			Client:     *client,
			AIAnalysis: failurePayload(err),
			Status:     model.StatusError,
		}, nil
	}

	if _, failed := payload["error"]; failed {
		slog.Warn("Model returned an error payload", "client_id", clientID)
		progress("Analysis failed", 100)
		return &model.Envelope{
			Client:     *client,
			AIAnalysis: payload,
			Status:     model.StatusError,
		}, nil
	}

	slog.Info("Analysis completed",
		"client_id", clientID,
		"duration", time.Since(start))

	envelope := &model.Envelope{
		Client:     *client,
		AIAnalysis: payload,
		Status:     model.StatusSuccess,
	}

	progress("Saving analysis", 90)
	record, err := s.deps.History.Store(ctx, clientID, payload)
	if err != nil {
		common.LogError(err, "Failed to persist analysis", common.Fields{"client_id": clientID})
	} else {
		envelope.RecordID = record.ID
	}

	progress("Done", 100)
	return envelope, nil
}

func failurePayload(err error) model.Payload {
	var llmErr *llm.Error
	if errors.As(err, &llmErr) {
		return llmErr.Payload()
	}
	return model.Payload{
		"error":   "Analysis failed",
		"details": err.Error(),
		"status":  llm.StatusUnknownError,
	}
}

// Clients returns every client profile.
func (s *Service) Clients(ctx context.Context) ([]model.ClientProfile, error) {
	return s.deps.Catalog.ListClients(ctx)
}

// Products returns the product catalog.
func (s *Service) Products(ctx context.Context) ([]model.Product, error) {
	return s.deps.Catalog.ListProducts(ctx)
}

// History returns a client's records sorted by timestamp.
func (s *Service) History(ctx context.Context, clientID string) ([]model.AnalysisRecord, error) {
	return s.deps.History.ForClient(ctx, clientID)
}

// LatestAnalysis returns a client's most recent record.
func (s *Service) LatestAnalysis(ctx context.Context, clientID string) (model.AnalysisRecord, error) {
	return s.deps.History.Latest(ctx, clientID)
}

// AllHistory returns every client's stored history.
func (s *Service) AllHistory(ctx context.Context) (map[string]model.HistoryEntry, error) {
	return s.deps.History.All(ctx)
}

// HistoryRange returns records within [start, end] grouped by client.
func (s *Service) HistoryRange(ctx context.Context, r service.DateRange) (map[string][]model.AnalysisRecord, error) {
	return s.deps.History.ByDateRange(ctx, r.Start, r.End)
}

// Stats summarizes the stored history.
func (s *Service) Stats(ctx context.Context) (service.HistoryStats, error) {
	total, err := s.deps.History.Count(ctx)
	if err != nil {
		return service.HistoryStats{}, err
	}
	ids, err := s.deps.History.ClientIDs(ctx)
	if err != nil {
		return service.HistoryStats{}, err
	}
	return service.HistoryStats{TotalAnalyses: total, ClientIDs: ids}, nil
}

// DeleteHistory removes every record for clientID.
func (s *Service) DeleteHistory(ctx context.Context, clientID string) error {
	return s.deps.History.DeleteAll(ctx, clientID)
}

// DeleteAnalysis removes the record with the given timestamp.
func (s *Service) DeleteAnalysis(ctx context.Context, clientID, timestamp string) error {
	return s.deps.History.DeleteOne(ctx, clientID, timestamp)
}

// DeleteRecord removes the record with the given id.
func (s *Service) DeleteRecord(ctx context.Context, clientID, recordID string) error {
	return s.deps.History.DeleteByID(ctx, clientID, recordID)
}
