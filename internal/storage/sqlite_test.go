package storage

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Veraticus/wealth-advisor/internal/common"
	"github.com/Veraticus/wealth-advisor/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func testClient(id string) *model.ClientProfile {
	return &model.ClientProfile{
		ID:                   id,
		Name:                 "Jane Doe",
		Age:                  42,
		AnnualIncome:         95000,
		RiskProfile:          "moderate",
		InvestmentGoals:      []string{"retirement", "education"},
		TimeHorizon:          "long-term",
		CurrentSavings:       50000,
		MonthlySurplus:       1200.5,
		Dependents:           2,
		EmploymentStatus:     "employed",
		InvestmentExperience: "intermediate",
	}
}

func TestNewSQLiteStorage_EmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage("")
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)

	// Running again is a no-op.
	require.NoError(t, store.Migrate(ctx))

	var indexCount int
	err = store.db.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='index' AND name='idx_products_risk_level'
	`).Scan(&indexCount)
	require.NoError(t, err)
	assert.Equal(t, 1, indexCount)
}

func TestClients_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	client := testClient("C001")
	require.NoError(t, store.SaveClient(ctx, client))

	got, err := store.GetClient(ctx, "C001")
	require.NoError(t, err)
	assert.Equal(t, client, got)

	// Upsert replaces fields.
	client.Name = "Jane Smith"
	client.InvestmentGoals = nil
	require.NoError(t, store.SaveClient(ctx, client))

	got, err = store.GetClient(ctx, "C001")
	require.NoError(t, err)
	assert.Equal(t, "Jane Smith", got.Name)
	assert.Equal(t, []string{}, got.InvestmentGoals)
}

func TestClients_GetMissing(t *testing.T) {
	store := createTestStorage(t)

	_, err := store.GetClient(context.Background(), "nobody")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = store.GetClient(context.Background(), " ")
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestClients_List(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	clients, err := store.ListClients(ctx)
	require.NoError(t, err)
	assert.Empty(t, clients)

	require.NoError(t, store.SaveClient(ctx, testClient("C002")))
	require.NoError(t, store.SaveClient(ctx, testClient("C001")))

	clients, err = store.ListClients(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 2)
	assert.Equal(t, "C001", clients[0].ID)
	assert.Equal(t, "C002", clients[1].ID)
}

func TestClients_Validation(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	tests := []struct {
		client *model.ClientProfile
		want   error
		name   string
	}{
		{name: "nil", client: nil, want: ErrNilParameter},
		{name: "missing id", client: &model.ClientProfile{Name: "x"}, want: ErrInvalidClient},
		{name: "missing name", client: &model.ClientProfile{ID: "C1"}, want: ErrInvalidClient},
		{name: "negative age", client: &model.ClientProfile{ID: "C1", Name: "x", Age: -1}, want: ErrInvalidClient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, store.SaveClient(ctx, tt.client), tt.want)
		})
	}
}

func TestProducts_SaveGetList(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	products := []model.Product{
		{ID: "P2", Name: "Global Equity Fund", RiskLevel: model.RiskHigh, Description: "Equities"},
		{ID: "P1", Name: "Retirement Fund", RiskLevel: model.RiskLow, Description: "Bonds"},
		{ID: "P3", Name: "Balanced Portfolio", RiskLevel: model.RiskMedium, Description: "Mix"},
	}
	for i := range products {
		require.NoError(t, store.SaveProduct(ctx, &products[i]))
	}

	got, err := store.GetProduct(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, products[1], *got)

	all, err := store.ListProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, products, all)

	low, err := store.ListProductsByRisk(ctx, model.RiskLow)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "P1", low[0].ID)

	_, err = store.GetProduct(ctx, "P9")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestProducts_Validation(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	err := store.SaveProduct(ctx, &model.Product{ID: "P1", Name: "Fund", RiskLevel: "extreme"})
	assert.ErrorIs(t, err, ErrInvalidProduct)

	err = store.SaveProduct(ctx, &model.Product{Name: "Fund", RiskLevel: model.RiskLow})
	assert.ErrorIs(t, err, ErrInvalidProduct)

	assert.ErrorIs(t, store.SaveProduct(ctx, nil), ErrNilParameter)
}

func TestImportSeed(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		seed string
	}{
		{
			name: "flat products",
			seed: `{
				"clients": {
					"C001": {"name": "Alice", "age": 30, "annual_income": 80000, "risk_profile": "moderate",
						"investment_goals": ["house"], "time_horizon": "medium-term"},
					"C002": {"id": "C002", "name": "Bob", "age": 55}
				},
				"products": [
					{"id": 1, "name": "Retirement Fund", "risk_level": "Low", "description": "Bonds"},
					{"id": "2", "name": "Tech Fund", "risk_level": "high", "description": "Equities"}
				]
			}`,
		},
		{
			name: "nested products",
			seed: `{
				"clients": {
					"C001": {"name": "Alice", "age": 30},
					"C002": {"name": "Bob", "age": 55}
				},
				"products": {"products": [
					{"id": "1", "name": "Retirement Fund", "risk_level": "low", "description": "Bonds"},
					{"id": "2", "name": "Tech Fund", "risk_level": "high", "description": "Equities"}
				]}
			}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := createTestStorage(t)

			result, err := store.ImportSeed(ctx, strings.NewReader(tt.seed))
			require.NoError(t, err)
			assert.Equal(t, SeedResult{Clients: 2, Products: 2}, result)

			alice, err := store.GetClient(ctx, "C001")
			require.NoError(t, err)
			assert.Equal(t, "Alice", alice.Name)

			product, err := store.GetProduct(ctx, "1")
			require.NoError(t, err)
			assert.Equal(t, model.RiskLow, product.RiskLevel)
		})
	}
}

func TestImportSeed_RollsBackOnInvalidRow(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	seed := `{
		"clients": {"C001": {"name": "Alice"}},
		"products": [{"id": "1", "name": "Mystery", "risk_level": "unknown"}]
	}`

	_, err := store.ImportSeed(ctx, strings.NewReader(seed))
	assert.ErrorIs(t, err, ErrInvalidProduct)

	clients, err := store.ListClients(ctx)
	require.NoError(t, err)
	assert.Empty(t, clients)
}

func TestImportSeed_Malformed(t *testing.T) {
	store := createTestStorage(t)

	_, err := store.ImportSeed(context.Background(), strings.NewReader(`{"clients": [`))
	assert.ErrorIs(t, err, ErrInvalidSeed)

	_, err = store.ImportSeed(context.Background(), strings.NewReader(`{"products": [{"id": true}]}`))
	assert.ErrorIs(t, err, ErrInvalidSeed)
}
