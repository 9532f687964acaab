package storage

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/Veraticus/wealth-advisor/internal/model"
)

// SeedResult reports how many rows an import wrote.
type SeedResult struct {
	Clients  int
	Products int
}

type seedFile struct {
	Clients  map[string]json.RawMessage `json:"clients"`
	Products json.RawMessage            `json:"products"`
}

// seedID accepts ids written either as JSON strings or numbers.
type seedID string

func (id *seedID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = seedID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = seedID(n.String())
	return nil
}

type seedClient struct {
	model.ClientProfile
	ID seedID `json:"id"`
}

type seedProduct struct {
	model.Product
	ID seedID `json:"id"`
}

// ImportSeed loads clients and products from a JSON document shaped as
// {"clients": {"<id>": {...}}, "products": [...]}. The products value may also
// be nested as {"products": [...]}. A client's map key is its id unless the
// record carries its own. Everything is written in a single transaction.
func (s *SQLiteStorage) ImportSeed(ctx context.Context, r io.Reader) (SeedResult, error) {
	if err := validateContext(ctx); err != nil {
		return SeedResult{}, err
	}
	if r == nil {
		return SeedResult{}, fmt.Errorf("%w: reader", ErrNilParameter)
	}

	var file seedFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return SeedResult{}, fmt.Errorf("%w: %w", ErrInvalidSeed, err)
	}

	clients, err := decodeSeedClients(file.Clients)
	if err != nil {
		return SeedResult{}, err
	}

	products, err := decodeSeedProducts(file.Products)
	if err != nil {
		return SeedResult{}, err
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		for i := range clients {
			if err := validateClient(&clients[i]); err != nil {
				return fmt.Errorf("client %s: %w", clients[i].ID, err)
			}
			if err := s.saveClientTx(ctx, tx, &clients[i]); err != nil {
				return err
			}
		}
		for i := range products {
			if err := validateProduct(&products[i]); err != nil {
				return fmt.Errorf("product %s: %w", products[i].ID, err)
			}
			if err := s.saveProductTx(ctx, tx, &products[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return SeedResult{}, fmt.Errorf("failed to import seed data: %w", err)
	}

	result := SeedResult{Clients: len(clients), Products: len(products)}
	slog.Info("Imported seed data", "clients", result.Clients, "products", result.Products)
	return result, nil
}

func decodeSeedClients(raw map[string]json.RawMessage) ([]model.ClientProfile, error) {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	clients := make([]model.ClientProfile, 0, len(keys))
	for _, key := range keys {
		var sc seedClient
		if err := json.Unmarshal(raw[key], &sc); err != nil {
			return nil, fmt.Errorf("%w: client %s: %w", ErrInvalidSeed, key, err)
		}

		client := sc.ClientProfile
		client.ID = strings.TrimSpace(string(sc.ID))
		if client.ID == "" {
			client.ID = key
		}
		clients = append(clients, client)
	}
	return clients, nil
}

func decodeSeedProducts(raw json.RawMessage) ([]model.Product, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	if raw[0] == '{' {
		var nested struct {
			Products json.RawMessage `json:"products"`
		}
		if err := json.Unmarshal(raw, &nested); err != nil {
			return nil, fmt.Errorf("%w: products: %w", ErrInvalidSeed, err)
		}
		return decodeSeedProducts(nested.Products)
	}

	var items []seedProduct
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: products: %w", ErrInvalidSeed, err)
	}

	products := make([]model.Product, 0, len(items))
	for _, item := range items {
		p := item.Product
		p.ID = strings.TrimSpace(string(item.ID))
		p.RiskLevel = model.ParseRiskLevel(string(p.RiskLevel))
		products = append(products, p)
	}
	return products, nil
}
