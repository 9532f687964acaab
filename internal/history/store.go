// Package history persists analysis records per client in a bbolt file.
//
// Each client id is a key in the analyses bucket. Its value is either a JSON
// array of records or, for data written by older versions, a single record
// object. Writes always leave the array shape behind and never persist an
// empty array; the key is removed instead.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/wealth-advisor/internal/common"
	"github.com/Veraticus/wealth-advisor/internal/model"
	"github.com/Veraticus/wealth-advisor/internal/service"
	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

// FileName is the database file created inside the storage directory.
const FileName = "ai_analysis.db"

var bucketAnalyses = []byte("analyses")

// Errors returned by the store.
var (
	ErrNotFound      = common.ErrNotFound
	ErrEmptyClientID = errors.New("client id cannot be empty")
)

// Store is a bbolt-backed analysis history.
type Store struct {
	db  *bolt.DB
	now func() time.Time
}

var _ service.HistoryStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used to stamp new records.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open opens (creating if needed) the history database at path.
func Open(path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("history path cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketAnalyses)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history bucket: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	slog.Debug("Opened analysis history", "path", path)
	return s, nil
}

// OpenDir opens the history database inside dir.
func OpenDir(dir string, opts ...Option) (*Store, error) {
	return Open(filepath.Join(dir, FileName), opts...)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Store appends a new record for clientID and returns it. A legacy single
// record is upgraded to a two-element list. The read-modify-write happens in
// one bbolt transaction, so concurrent writers cannot lose each other's records.
func (s *Store) Store(ctx context.Context, clientID string, data model.Payload) (model.AnalysisRecord, error) {
	if err := validate(ctx, clientID); err != nil {
		return model.AnalysisRecord{}, err
	}

	var record model.AnalysisRecord
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAnalyses)

		entry, _, err := readEntry(b, clientID)
		if err != nil {
			return err
		}

		record = s.newRecord(clientID, data, entry.Records)
		entry.Records = append(entry.Records, record)
		entry.Legacy = false

		return writeEntry(b, clientID, entry)
	})
	if err != nil {
		common.LogError(err, "Failed to store analysis", common.Fields{"client_id": clientID})
		return model.AnalysisRecord{}, fmt.Errorf("failed to store analysis for %s: %w", clientID, err)
	}

	slog.Info("Stored analysis",
		"client_id", clientID,
		"record_id", record.ID,
		"timestamp", record.Timestamp)

	return record, nil
}

// newRecord stamps a record. The timestamp is kept strictly after the
// newest existing one so per-client timestamps stay unique and ordered.
// Comparison happens at the stored microsecond precision.
func (s *Store) newRecord(clientID string, data model.Payload, existing []model.AnalysisRecord) model.AnalysisRecord {
	now := s.now().UTC().Truncate(time.Microsecond)

	for _, r := range existing {
		prev, err := r.Time()
		if err != nil {
			continue
		}
		if !now.After(prev) {
			now = prev.Add(time.Microsecond)
		}
	}

	ts := model.FormatTimestamp(now)
	return model.AnalysisRecord{
		ID:           uuid.NewString(),
		ClientID:     clientID,
		AnalysisData: data,
		Timestamp:    ts,
		CreatedAt:    ts,
	}
}

// Latest returns the most recently appended record for clientID.
func (s *Store) Latest(ctx context.Context, clientID string) (model.AnalysisRecord, error) {
	if err := validate(ctx, clientID); err != nil {
		return model.AnalysisRecord{}, err
	}

	var latest model.AnalysisRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		entry, ok, err := readEntry(tx.Bucket(bucketAnalyses), clientID)
		if err != nil {
			return err
		}
		if !ok || entry.Len() == 0 {
			return fmt.Errorf("no analysis for client %s: %w", clientID, ErrNotFound)
		}
		latest = entry.Records[entry.Len()-1]
		return nil
	})
	if err != nil {
		return model.AnalysisRecord{}, err
	}

	return latest, nil
}

// All returns every client's stored value in the shape it is stored in.
func (s *Store) All(ctx context.Context) (map[string]model.HistoryEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	out := make(map[string]model.HistoryEntry)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketAnalyses).ForEach(func(k, v []byte) error {
			var entry model.HistoryEntry
			if err := entry.UnmarshalJSON(v); err != nil {
				return fmt.Errorf("%w: client %s: %w", common.ErrDatabaseCorrupted, k, err)
			}
			out[string(k)] = entry
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read analysis history: %w", err)
	}

	return out, nil
}

// ForClient returns clientID's records sorted ascending by timestamp.
// A client with no records yields an empty slice.
func (s *Store) ForClient(ctx context.Context, clientID string) ([]model.AnalysisRecord, error) {
	if err := validate(ctx, clientID); err != nil {
		return nil, err
	}

	records := []model.AnalysisRecord{}
	err := s.db.View(func(tx *bolt.Tx) error {
		entry, ok, err := readEntry(tx.Bucket(bucketAnalyses), clientID)
		if err != nil || !ok {
			return err
		}
		records = append(records, entry.Records...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp < records[j].Timestamp
	})

	return records, nil
}

// DeleteAll removes every record for clientID.
func (s *Store) DeleteAll(ctx context.Context, clientID string) error {
	if err := validate(ctx, clientID); err != nil {
		return err
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAnalyses)
		if b.Get([]byte(clientID)) == nil {
			return fmt.Errorf("no analysis for client %s: %w", clientID, ErrNotFound)
		}
		return b.Delete([]byte(clientID))
	})
	if err != nil {
		return err
	}

	slog.Info("Deleted analysis history", "client_id", clientID)
	return nil
}

// DeleteOne removes the record whose timestamp equals timestamp.
func (s *Store) DeleteOne(ctx context.Context, clientID, timestamp string) error {
	return s.deleteWhere(ctx, clientID, func(r model.AnalysisRecord) bool {
		return r.Timestamp == timestamp
	}, "timestamp", timestamp)
}

// DeleteByID removes the record with the given record id.
func (s *Store) DeleteByID(ctx context.Context, clientID, recordID string) error {
	return s.deleteWhere(ctx, clientID, func(r model.AnalysisRecord) bool {
		return recordID != "" && r.ID == recordID
	}, "record_id", recordID)
}

func (s *Store) deleteWhere(ctx context.Context, clientID string, match func(model.AnalysisRecord) bool, field, value string) error {
	if err := validate(ctx, clientID); err != nil {
		return err
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAnalyses)

		entry, ok, err := readEntry(b, clientID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no analysis for client %s: %w", clientID, ErrNotFound)
		}

		kept := make([]model.AnalysisRecord, 0, entry.Len())
		for _, r := range entry.Records {
			if !match(r) {
				kept = append(kept, r)
			}
		}

		if len(kept) == entry.Len() {
			return fmt.Errorf("no analysis with %s %s for client %s: %w", field, value, clientID, ErrNotFound)
		}

		if len(kept) == 0 {
			return b.Delete([]byte(clientID))
		}

		return writeEntry(b, clientID, model.HistoryEntry{Records: kept})
	})
	if err != nil {
		return err
	}

	slog.Info("Deleted analysis", "client_id", clientID, field, value)
	return nil
}

// Count returns the total number of records across all clients.
func (s *Store) Count(ctx context.Context) (int, error) {
	entries, err := s.All(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, entry := range entries {
		total += entry.Len()
	}
	return total, nil
}

// ClientIDs returns the ids of every client with stored records, sorted.
func (s *Store) ClientIDs(ctx context.Context) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	ids := []string{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketAnalyses).ForEach(func(k, _ []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}

	sort.Strings(ids)
	return ids, nil
}

// ByDateRange returns, per client, the records whose timestamp falls within
// [start, end]. Clients without a matching record are omitted. Records with
// unparseable timestamps are skipped.
func (s *Store) ByDateRange(ctx context.Context, start, end time.Time) (map[string][]model.AnalysisRecord, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end %s is before start %s", ErrInvalidDateRange, end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	entries, err := s.All(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]model.AnalysisRecord)
	for clientID, entry := range entries {
		for _, r := range entry.Records {
			ts, err := r.Time()
			if err != nil {
				slog.Warn("Skipping record with invalid timestamp",
					"client_id", clientID,
					"timestamp", r.Timestamp)
				continue
			}
			if ts.Before(start) || ts.After(end) {
				continue
			}
			out[clientID] = append(out[clientID], r)
		}
	}

	for clientID := range out {
		records := out[clientID]
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].Timestamp < records[j].Timestamp
		})
	}

	return out, nil
}
