package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/wealth-advisor/internal/common"
	"github.com/Veraticus/wealth-advisor/internal/history"
	"github.com/Veraticus/wealth-advisor/internal/model"
)

const testSeed = `{
  "clients": {
    "C001": {"name": "Alice Chan", "age": 34, "risk_profile": "aggressive", "investment_goals": ["growth"]},
    "C002": {"name": "Bernard Okafor", "age": 61, "risk_profile": "conservative"}
  },
  "products": [
    {"id": 1, "name": "Retirement Fund", "risk_level": "Low", "description": "Stable income"},
    {"id": 2, "name": "Global Technology Fund", "risk_level": "high", "description": "Growth equities"}
  ]
}`

type testEnv struct {
	dir        string
	configPath string
	historyDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("ADVISOR_GEMINI_API_KEY", "")

	dir := t.TempDir()
	env := &testEnv{
		dir:        dir,
		configPath: filepath.Join(dir, "config.yaml"),
		historyDir: filepath.Join(dir, "records"),
	}
	cfg := fmt.Sprintf("database:\n  path: %s\nstorage:\n  dir: %s\nlogging:\n  level: error\n",
		filepath.Join(dir, "catalog.db"), env.historyDir)
	require.NoError(t, os.WriteFile(env.configPath, []byte(cfg), 0o600))
	return env
}

func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *testEnv) seed(t *testing.T) {
	t.Helper()
	path := filepath.Join(e.dir, "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(testSeed), 0o600))
	out, err := e.run(t, "seed", path)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Imported 2 clients and 2 products")
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "advisor dev\n", out)
}

func TestSeedAndCatalogCommands(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	out, err := env.run(t, "clients", "--json")
	require.NoError(t, err, out)
	var clients []model.ClientProfile
	require.NoError(t, json.Unmarshal([]byte(out), &clients))
	require.Len(t, clients, 2)
	assert.Equal(t, "C001", clients[0].ID)
	assert.Equal(t, []string{"growth"}, clients[0].InvestmentGoals)

	out, err = env.run(t, "products", "--json", "--risk", "high")
	require.NoError(t, err, out)
	var products []model.Product
	require.NoError(t, json.Unmarshal([]byte(out), &products))
	require.Len(t, products, 1)
	assert.Equal(t, "Global Technology Fund", products[0].Name)

	out, err = env.run(t, "products")
	require.NoError(t, err)
	assert.Contains(t, out, "Retirement Fund")

	_, err = env.run(t, "products", "--risk", "extreme")
	assert.Error(t, err)
}

func TestSeed_MissingFile(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "seed", filepath.Join(env.dir, "missing.json"))
	assert.Error(t, err)
}

func TestMigrateStatus(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "migrate")
	require.NoError(t, err, out)
	assert.Contains(t, out, "schema version 2")

	out, err = env.run(t, "migrate", "--status")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Schema version: 2 (latest 2)")
}

func TestAnalyze_RequiresAPIKey(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	_, err := env.run(t, "analyze", "C001", "--no-progress")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMissingConfig)

	_, err = env.run(t, "serve")
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestHistoryCommands(t *testing.T) {
	env := newTestEnv(t)

	store, err := history.OpenDir(env.historyDir)
	require.NoError(t, err)
	first, err := store.Store(context.Background(), "C001", model.Payload{"risk": "low"})
	require.NoError(t, err)
	second, err := store.Store(context.Background(), "C001", model.Payload{"risk": "medium"})
	require.NoError(t, err)
	_, err = store.Store(context.Background(), "C002", model.Payload{"risk": "high"})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	out, err := env.run(t, "history", "list", "C001", "--json")
	require.NoError(t, err, out)
	var records []model.AnalysisRecord
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 2)
	assert.Equal(t, first.ID, records[0].ID)

	out, err = env.run(t, "history", "show", "C001")
	require.NoError(t, err, out)
	var latest model.AnalysisRecord
	require.NoError(t, json.Unmarshal([]byte(out), &latest))
	assert.Equal(t, second.ID, latest.ID)

	out, err = env.run(t, "history", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "C001, C002")

	out, err = env.run(t, "history", "range", "--start", "2000-01-01")
	require.NoError(t, err, out)
	var ranged map[string][]model.AnalysisRecord
	require.NoError(t, json.Unmarshal([]byte(out), &ranged))
	assert.Len(t, ranged["C001"], 2)

	_, err = env.run(t, "history", "delete", "C001", "--record", first.ID, "--timestamp", first.Timestamp)
	assert.Error(t, err)

	out, err = env.run(t, "history", "delete", "C001", "--record", first.ID)
	require.NoError(t, err, out)
	out, err = env.run(t, "history", "delete", "C001", "--timestamp", second.Timestamp)
	require.NoError(t, err, out)

	_, err = env.run(t, "history", "show", "C001")
	assert.ErrorContains(t, err, "no analysis found for client C001")

	out, err = env.run(t, "history", "delete", "C002")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Deleted all analyses for client C002")

	_, err = env.run(t, "history", "delete", "C002")
	assert.ErrorContains(t, err, "nothing to delete")
}
