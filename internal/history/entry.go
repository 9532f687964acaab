package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/wealth-advisor/internal/common"
	"github.com/Veraticus/wealth-advisor/internal/model"
	bolt "go.etcd.io/bbolt"
)

// ErrInvalidDateRange is returned when a range ends before it starts.
var ErrInvalidDateRange = errors.New("start must not be after end")

// readEntry decodes the value stored under clientID. The returned entry owns
// its memory; bbolt values are only valid inside the transaction.
func readEntry(b *bolt.Bucket, clientID string) (model.HistoryEntry, bool, error) {
	raw := b.Get([]byte(clientID))
	if raw == nil {
		return model.HistoryEntry{}, false, nil
	}

	var entry model.HistoryEntry
	if err := entry.UnmarshalJSON(raw); err != nil {
		return model.HistoryEntry{}, false, fmt.Errorf("%w: client %s: %w", common.ErrDatabaseCorrupted, clientID, err)
	}
	return entry, true, nil
}

// writeEntry stores entry under clientID in list shape. Empty entries delete the key.
func writeEntry(b *bolt.Bucket, clientID string, entry model.HistoryEntry) error {
	if entry.Len() == 0 {
		return b.Delete([]byte(clientID))
	}

	data, err := json.Marshal(entry.Records)
	if err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}
	return b.Put([]byte(clientID), data)
}

func validateContext(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("context cannot be nil")
	}
	return ctx.Err()
}

func validate(ctx context.Context, clientID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(clientID) == "" {
		return ErrEmptyClientID
	}
	return nil
}
