// Package storage provides the SQLite-backed client and product catalog.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/wealth-advisor/internal/model"
)

// Validation errors.
var (
	ErrNilContext     = errors.New("context cannot be nil")
	ErrEmptyString    = errors.New("string parameter cannot be empty")
	ErrNilParameter   = errors.New("parameter cannot be nil")
	ErrInvalidClient  = errors.New("invalid client")
	ErrInvalidProduct = errors.New("invalid product")
	ErrInvalidSeed    = errors.New("invalid seed data")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateClient(client *model.ClientProfile) error {
	if client == nil {
		return fmt.Errorf("%w: client", ErrNilParameter)
	}
	if strings.TrimSpace(client.ID) == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidClient)
	}
	if strings.TrimSpace(client.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidClient)
	}
	if client.Age < 0 || client.Dependents < 0 {
		return fmt.Errorf("%w: age and dependents cannot be negative", ErrInvalidClient)
	}
	return nil
}

func validateProduct(product *model.Product) error {
	if product == nil {
		return fmt.Errorf("%w: product", ErrNilParameter)
	}
	if strings.TrimSpace(product.ID) == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidProduct)
	}
	if strings.TrimSpace(product.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidProduct)
	}
	if !product.RiskLevel.Valid() {
		return fmt.Errorf("%w: unknown risk level %q", ErrInvalidProduct, product.RiskLevel)
	}
	return nil
}
