package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/wealth-advisor/internal/common"
	"github.com/Veraticus/wealth-advisor/internal/model"
	"github.com/Veraticus/wealth-advisor/internal/service"
)

// Failure statuses carried by Error.
const (
	StatusAPIError         = "api_error"
	StatusUnknownError     = "unknown_error"
	StatusInvalidRequest   = "invalid_request"
	StatusPermissionDenied = "permission_denied"
	StatusQuotaExceeded    = "quota_exceeded"
	StatusParseError       = "parse_error"
	StatusMaxRetries       = "max_retries_exceeded"
)

const (
	// DefaultMaxRetries is the attempt budget used when none is configured.
	DefaultMaxRetries = 3
	// DefaultRetryDelay is the fixed pause between attempts.
	DefaultRetryDelay = 2 * time.Second
)

// Error is a classified analysis failure.
type Error struct {
	Err         error
	Message     string
	Details     string
	Status      string
	RawResponse string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s [%s]: %s", e.Message, e.Status, e.Details)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Payload renders the failure as the structured error body returned to callers.
func (e *Error) Payload() model.Payload {
	p := model.Payload{
		"error":   e.Message,
		"details": e.Details,
		"status":  e.Status,
	}
	if e.RawResponse != "" {
		p["raw_response"] = e.RawResponse
	}
	return p
}

// Adapter wraps a Generator with JSON extraction, retry and classification.
type Adapter struct {
	generator  Generator
	retryDelay time.Duration
}

var _ service.Analyzer = (*Adapter)(nil)

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithRetryDelay sets the fixed delay between attempts.
func WithRetryDelay(d time.Duration) AdapterOption {
	return func(a *Adapter) {
		if d >= 0 {
			a.retryDelay = d
		}
	}
}

// NewAdapter creates an Adapter around generator.
func NewAdapter(generator Generator, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		generator:  generator,
		retryDelay: DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Invoke sends prompt to the model and parses the reply as a JSON object.
// Transient failures are retried until maxRetries attempts have been made in
// total; permanent failures return after a single attempt. Every failure is
// returned as *Error.
func (a *Adapter) Invoke(ctx context.Context, prompt string, maxRetries int) (model.Payload, error) {
	if maxRetries < 1 {
		return nil, &Error{
			Err:     common.ErrMaxRetries,
			Message: "Max retries exceeded",
			Details: fmt.Sprintf("retry budget must be at least 1, got %d", maxRetries),
			Status:  StatusMaxRetries,
		}
	}

	var (
		payload model.Payload
		failure *Error
		attempt int
	)

	err := common.WithRetry(ctx, func() error {
		attempt++
		p, callErr := a.attempt(ctx, prompt)
		if callErr == nil {
			payload = p
			return nil
		}

		failure = callErr
		return &common.RetryableError{
			Err:       callErr,
			Retryable: a.retryable(ctx, callErr),
		}
	}, service.RetryOptions{
		MaxAttempts:  maxRetries,
		InitialDelay: a.retryDelay,
		MaxDelay:     a.retryDelay,
		Multiplier:   1,
	})

	if err == nil {
		return payload, nil
	}

	if failure == nil || (ctx.Err() != nil && errors.Is(err, ctx.Err())) {
		failure = &Error{
			Err:     err,
			Message: "Analysis cancelled",
			Details: err.Error(),
			Status:  StatusUnknownError,
		}
	}

	slog.Error("Model call failed",
		"status", failure.Status,
		"attempts", attempt,
		"max_retries", maxRetries,
		"error", failure.Details)

	return nil, failure
}

// attempt performs one model call and parses the result.
func (a *Adapter) attempt(ctx context.Context, prompt string) (model.Payload, *Error) {
	raw, err := a.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, classify(err)
	}

	payload, err := parsePayload(raw)
	if err != nil {
		return nil, &Error{
			Err:         err,
			Message:     "Failed to parse model response as JSON",
			Details:     err.Error(),
			Status:      StatusParseError,
			RawResponse: snippet(raw),
		}
	}

	return payload, nil
}

// retryable reports whether a failed attempt may be repeated.
func (a *Adapter) retryable(ctx context.Context, e *Error) bool {
	if ctx.Err() != nil {
		return false
	}
	return e.Status == StatusAPIError || e.Status == StatusUnknownError
}

// classify maps a Generator error onto a failure status.
func classify(err error) *Error {
	e := &Error{Err: err, Details: err.Error()}

	switch {
	case errors.Is(err, ErrInvalidRequest):
		e.Message = "Invalid request to the model API"
		e.Status = StatusInvalidRequest
	case errors.Is(err, ErrPermissionDenied):
		e.Message = "Permission denied by the model API"
		e.Status = StatusPermissionDenied
	case errors.Is(err, ErrQuotaExceeded):
		e.Message = "Model API quota exceeded"
		e.Status = StatusQuotaExceeded
	case errors.Is(err, ErrUpstreamInternal):
		e.Message = "Model API internal error"
		e.Status = StatusAPIError
	default:
		e.Message = "Unexpected error calling the model API"
		e.Status = StatusUnknownError
	}

	return e
}
