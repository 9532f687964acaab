// Package server exposes the advisor over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/Veraticus/wealth-advisor/internal/model"
	"github.com/Veraticus/wealth-advisor/internal/service"
)

// Advisor is the application surface the HTTP handlers call.
type Advisor interface {
	Analyze(ctx context.Context, clientID string) (*model.Envelope, error)
	Clients(ctx context.Context) ([]model.ClientProfile, error)
	Products(ctx context.Context) ([]model.Product, error)
	History(ctx context.Context, clientID string) ([]model.AnalysisRecord, error)
	LatestAnalysis(ctx context.Context, clientID string) (model.AnalysisRecord, error)
	AllHistory(ctx context.Context) (map[string]model.HistoryEntry, error)
	HistoryRange(ctx context.Context, r service.DateRange) (map[string][]model.AnalysisRecord, error)
	Stats(ctx context.Context) (service.HistoryStats, error)
	DeleteHistory(ctx context.Context, clientID string) error
	DeleteAnalysis(ctx context.Context, clientID, timestamp string) error
	DeleteRecord(ctx context.Context, clientID, recordID string) error
}

// Config holds listener and response settings.
type Config struct {
	Host            string
	Origin          string
	Title           string
	Version         string
	Port            int
	ShutdownTimeout time.Duration
}

// Server serves the advisor API.
type Server struct {
	advisor Advisor
	config  Config
}

// New creates a server. Zero config values fall back to defaults.
func New(advisor Advisor, cfg Config) *Server {
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.Origin == "" {
		cfg.Origin = "*"
	}
	if cfg.Title == "" {
		cfg.Title = "Wealth Management AI API"
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	return &Server{advisor: advisor, config: cfg}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
}

// Handler returns the routed handler wrapped in middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /clients", s.handleClients)
	mux.HandleFunc("GET /products", s.handleProducts)

	mux.HandleFunc("GET /client_analysis/{client_id}", s.handleAnalyze)
	mux.HandleFunc("GET /client_analysis/history/all", s.handleAllHistory)
	mux.HandleFunc("GET /client_analysis/history/stats", s.handleStats)
	mux.HandleFunc("GET /client_analysis/history/range", s.handleRange)
	mux.HandleFunc("GET /client_analysis/{client_id}/history", s.handleClientHistory)
	mux.HandleFunc("GET /client_analysis/{client_id}/history/latest", s.handleLatest)
	mux.HandleFunc("DELETE /client_analysis/{client_id}/history", s.handleDeleteHistory)
	mux.HandleFunc("DELETE /client_analysis/{client_id}/history/{timestamp}", s.handleDeleteAnalysis)
	mux.HandleFunc("DELETE /client_analysis/{client_id}/history/records/{record_id}", s.handleDeleteRecord)

	return recoverer(logRequests(cors(s.config.Origin, mux)))
}

// Run listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
