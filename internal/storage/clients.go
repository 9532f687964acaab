package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Veraticus/wealth-advisor/internal/common"
	"github.com/Veraticus/wealth-advisor/internal/model"
)

const clientColumns = `id, name, age, annual_income, risk_profile, investment_goals,
	time_horizon, current_savings, monthly_surplus, dependents,
	employment_status, investment_experience`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (*model.ClientProfile, error) {
	var (
		client model.ClientProfile
		goals  string
	)

	if err := row.Scan(
		&client.ID,
		&client.Name,
		&client.Age,
		&client.AnnualIncome,
		&client.RiskProfile,
		&goals,
		&client.TimeHorizon,
		&client.CurrentSavings,
		&client.MonthlySurplus,
		&client.Dependents,
		&client.EmploymentStatus,
		&client.InvestmentExperience,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(goals), &client.InvestmentGoals); err != nil {
		return nil, fmt.Errorf("%w: investment goals for client %s: %w", common.ErrDatabaseCorrupted, client.ID, err)
	}
	if client.InvestmentGoals == nil {
		client.InvestmentGoals = []string{}
	}

	return &client, nil
}

// GetClient retrieves a client profile by id.
func (s *SQLiteStorage) GetClient(ctx context.Context, id string) (*model.ClientProfile, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = ?`, id)
	client, err := scanClient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("client %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}

	return client, nil
}

// ListClients returns every client profile ordered by id.
func (s *SQLiteStorage) ListClients(ctx context.Context) ([]model.ClientProfile, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer func() { _ = rows.Close() }()

	clients := []model.ClientProfile{}
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, *client)
	}

	return clients, rows.Err()
}

// SaveClient inserts or replaces a client profile.
func (s *SQLiteStorage) SaveClient(ctx context.Context, client *model.ClientProfile) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateClient(client); err != nil {
		return err
	}

	return s.saveClientTx(ctx, s.db, client)
}

func (s *SQLiteStorage) saveClientTx(ctx context.Context, q queryable, client *model.ClientProfile) error {
	goals := client.InvestmentGoals
	if goals == nil {
		goals = []string{}
	}
	encoded, err := json.Marshal(goals)
	if err != nil {
		return fmt.Errorf("failed to encode investment goals: %w", err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO clients (`+clientColumns+`, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			age = excluded.age,
			annual_income = excluded.annual_income,
			risk_profile = excluded.risk_profile,
			investment_goals = excluded.investment_goals,
			time_horizon = excluded.time_horizon,
			current_savings = excluded.current_savings,
			monthly_surplus = excluded.monthly_surplus,
			dependents = excluded.dependents,
			employment_status = excluded.employment_status,
			investment_experience = excluded.investment_experience,
			updated_at = CURRENT_TIMESTAMP
	`,
		client.ID,
		client.Name,
		client.Age,
		client.AnnualIncome,
		client.RiskProfile,
		string(encoded),
		client.TimeHorizon,
		client.CurrentSavings,
		client.MonthlySurplus,
		client.Dependents,
		client.EmploymentStatus,
		client.InvestmentExperience,
	)
	if err != nil {
		return fmt.Errorf("failed to save client %s: %w", client.ID, err)
	}

	return nil
}
