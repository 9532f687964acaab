package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

const (
	defaultGeminiModel   = "gemini-2.0-flash"
	defaultGeminiTimeout = 60 * time.Second
)

// GeminiClient implements Generator using Google's Gen AI SDK.
type GeminiClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

var _ Generator = (*GeminiClient)(nil)

// NewGeminiClient creates a Gemini client. The SDK client is created once and
// reused; each Generate call is an independent request with no history.
func NewGeminiClient(ctx context.Context, cfg Config) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultGeminiTimeout
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.HTTPClient != nil {
		clientConfig.HTTPClient = cfg.HTTPClient
	} else {
		clientConfig.HTTPClient = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiClient{
		client:  client,
		model:   model,
		timeout: timeout,
	}, nil
}

// Model returns the model name requests are sent to.
func (c *GeminiClient) Model() string {
	return c.model
}

// Generate sends prompt as a single user turn and returns the concatenated
// text of the first candidate.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), config)
	if err != nil {
		return "", translateGeminiError(err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			text.WriteString(part.Text)
		}
	}

	if text.Len() == 0 {
		return "", ErrEmptyResponse
	}

	slog.Debug("Gemini response received",
		"model", c.model,
		"duration", time.Since(start),
		"chars", text.Len())

	return text.String(), nil
}

// translateGeminiError maps SDK API errors onto the package's error classes.
// Errors that are not API errors are returned unchanged.
func translateGeminiError(err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		var apiErrPtr *genai.APIError
		if !errors.As(err, &apiErrPtr) || apiErrPtr == nil {
			return err
		}
		apiErr = *apiErrPtr
	}

	class := classifyAPIStatus(apiErr.Code, apiErr.Status)
	if class == nil {
		return fmt.Errorf("gemini API error (%d %s): %s", apiErr.Code, apiErr.Status, apiErr.Message)
	}
	return fmt.Errorf("%w: gemini API error (%d %s): %s", class, apiErr.Code, apiErr.Status, apiErr.Message)
}

// classifyAPIStatus returns the error class for an HTTP code and RPC status,
// or nil when the failure does not fall into a known class.
func classifyAPIStatus(code int, status string) error {
	switch strings.ToUpper(status) {
	case "INVALID_ARGUMENT", "FAILED_PRECONDITION":
		return ErrInvalidRequest
	case "PERMISSION_DENIED", "UNAUTHENTICATED":
		return ErrPermissionDenied
	case "RESOURCE_EXHAUSTED":
		return ErrQuotaExceeded
	case "INTERNAL", "UNAVAILABLE":
		return ErrUpstreamInternal
	}

	switch {
	case code == http.StatusBadRequest:
		return ErrInvalidRequest
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ErrPermissionDenied
	case code == http.StatusTooManyRequests:
		return ErrQuotaExceeded
	case code >= http.StatusInternalServerError:
		return ErrUpstreamInternal
	default:
		return nil
	}
}
