package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Veraticus/wealth-advisor/internal/common"
	"github.com/Veraticus/wealth-advisor/internal/model"
)

// GetProduct retrieves a product by id.
func (s *SQLiteStorage) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var product model.Product
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, risk_level, description
		FROM products
		WHERE id = ?
	`, id).Scan(&product.ID, &product.Name, &product.RiskLevel, &product.Description)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return &product, nil
}

// ListProducts returns the whole catalog in insertion order.
func (s *SQLiteStorage) ListProducts(ctx context.Context) ([]model.Product, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, risk_level, description
		FROM products
		ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer func() { _ = rows.Close() }()

	products := []model.Product{}
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.RiskLevel, &p.Description); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	return products, rows.Err()
}

// ListProductsByRisk returns the products in one risk band.
func (s *SQLiteStorage) ListProductsByRisk(ctx context.Context, level model.RiskLevel) ([]model.Product, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, risk_level, description
		FROM products
		WHERE risk_level = ?
		ORDER BY rowid
	`, string(level))
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer func() { _ = rows.Close() }()

	products := []model.Product{}
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.RiskLevel, &p.Description); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	return products, rows.Err()
}

// SaveProduct inserts or replaces a product.
func (s *SQLiteStorage) SaveProduct(ctx context.Context, product *model.Product) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateProduct(product); err != nil {
		return err
	}

	return s.saveProductTx(ctx, s.db, product)
}

func (s *SQLiteStorage) saveProductTx(ctx context.Context, q queryable, product *model.Product) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO products (id, name, risk_level, description, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			risk_level = excluded.risk_level,
			description = excluded.description,
			updated_at = CURRENT_TIMESTAMP
	`, product.ID, product.Name, string(product.RiskLevel), product.Description)
	if err != nil {
		return fmt.Errorf("failed to save product %s: %w", product.ID, err)
	}
	return nil
}
