// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/wealth-advisor/internal/model"
)

// Catalog is the read side of client profile and product storage.
type Catalog interface {
	GetClient(ctx context.Context, id string) (*model.ClientProfile, error)
	ListClients(ctx context.Context) ([]model.ClientProfile, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
}

// Analyzer sends a fully formed prompt to the language model and returns the
// parsed payload. Failures are returned as *llm.Error values.
type Analyzer interface {
	Invoke(ctx context.Context, prompt string, maxRetries int) (model.Payload, error)
}

// HistoryStore persists analysis records per client.
type HistoryStore interface {
	Store(ctx context.Context, clientID string, data model.Payload) (model.AnalysisRecord, error)
	Latest(ctx context.Context, clientID string) (model.AnalysisRecord, error)
	ForClient(ctx context.Context, clientID string) ([]model.AnalysisRecord, error)
	All(ctx context.Context) (map[string]model.HistoryEntry, error)
	DeleteAll(ctx context.Context, clientID string) error
	DeleteOne(ctx context.Context, clientID, timestamp string) error
	DeleteByID(ctx context.Context, clientID, recordID string) error
	Count(ctx context.Context) (int, error)
	ClientIDs(ctx context.Context) ([]string, error)
	ByDateRange(ctx context.Context, start, end time.Time) (map[string][]model.AnalysisRecord, error)
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// HistoryStats summarizes the analysis history.
type HistoryStats struct {
	ClientIDs     []string `json:"client_ids"`
	TotalAnalyses int      `json:"total_analyses"`
}

// DateRange represents a time period with start and end instants.
type DateRange struct {
	Start time.Time
	End   time.Time
}
