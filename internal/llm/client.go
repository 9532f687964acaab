package llm

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Generator performs a single stateless text completion.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Upstream error classes. Generators wrap provider errors with these so the
// Adapter can classify them without knowing the provider.
var (
	ErrInvalidRequest   = errors.New("invalid request")
	ErrPermissionDenied = errors.New("permission denied")
	ErrQuotaExceeded    = errors.New("quota exceeded")
	ErrUpstreamInternal = errors.New("upstream internal error")
	ErrEmptyResponse    = errors.New("empty response from model")
)

// Config holds language model settings.
type Config struct {
	HTTPClient *http.Client
	Provider   string
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
}
