// Package testutil provides shared fixtures for tests that need a real
// catalog database or history store.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Veraticus/wealth-advisor/internal/history"
	"github.com/Veraticus/wealth-advisor/internal/model"
	"github.com/Veraticus/wealth-advisor/internal/storage"
)

// TestDB represents a migrated catalog database with fixture data.
type TestDB struct {
	Storage  *storage.SQLiteStorage
	t        *testing.T
	Clients  []model.ClientProfile
	Products []model.Product
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	Clients  []model.ClientProfile
	Products []model.Product
}

// SetupTestDB creates a migrated catalog seeded with SampleClients and SampleProducts.
//
// Example:
//
//	db := testutil.SetupTestDB(t)
//	client := db.MustGetClient("C001")
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{
		Clients:  SampleClients(),
		Products: SampleProducts(),
	})
}

// SetupTestDBWithOptions creates a test database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	for i := range opts.Clients {
		if err := store.SaveClient(ctx, &opts.Clients[i]); err != nil {
			t.Fatalf("failed to seed client %q: %v", opts.Clients[i].ID, err)
		}
	}

	for i := range opts.Products {
		if err := store.SaveProduct(ctx, &opts.Products[i]); err != nil {
			t.Fatalf("failed to seed product %q: %v", opts.Products[i].ID, err)
		}
	}

	return &TestDB{
		Storage:  store,
		Clients:  opts.Clients,
		Products: opts.Products,
		t:        t,
	}
}

// MustGetClient returns the stored client with the given id or fails the test.
func (db *TestDB) MustGetClient(id string) *model.ClientProfile {
	db.t.Helper()
	client, err := db.Storage.GetClient(context.Background(), id)
	if err != nil {
		db.t.Fatalf("client %q not found: %v", id, err)
	}
	return client
}

// SetupHistory opens an empty history store in a temporary directory.
func SetupHistory(t *testing.T, opts ...history.Option) *history.Store {
	t.Helper()

	store, err := history.OpenDir(t.TempDir(), opts...)
	if err != nil {
		t.Fatalf("failed to open history store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
