package history

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/wealth-advisor/internal/common"
	"github.com/Veraticus/wealth-advisor/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	store, err := OpenDir(t.TempDir(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// fixedClock returns the same instant on every call.
func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

// putRaw writes a value directly, bypassing Store, to simulate older data.
func putRaw(t *testing.T, s *Store, clientID string, value any) {
	t.Helper()
	data, err := json.Marshal(value)
	require.NoError(t, err)
	require.NoError(t, s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketAnalyses).Put([]byte(clientID), data)
	}))
}

func legacyRecord(clientID, ts string) model.AnalysisRecord {
	return model.AnalysisRecord{
		ClientID:     clientID,
		AnalysisData: model.Payload{"legacy": true},
		Timestamp:    ts,
		CreatedAt:    ts,
	}
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}

func TestOpen_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "records")
	store, err := OpenDir(dir)
	require.NoError(t, err)
	require.NoError(t, store.Close())
	assert.FileExists(t, filepath.Join(dir, FileName))
}

func TestStore_StoreAndLatest(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	first, err := store.Store(ctx, "C001", model.Payload{"n": 1.0})
	require.NoError(t, err)
	second, err := store.Store(ctx, "C001", model.Payload{"n": 2.0})
	require.NoError(t, err)

	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "C001", second.ClientID)
	assert.Equal(t, second.Timestamp, second.CreatedAt)

	latest, err := store.Latest(ctx, "C001")
	require.NoError(t, err)
	assert.Equal(t, second, latest)
	assert.Equal(t, 2.0, latest.AnalysisData["n"])

	records, err := store.ForClient(ctx, "C001")
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestStore_TimestampsStrictlyIncrease(t *testing.T) {
	ctx := context.Background()
	tick := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	store := newTestStore(t, WithClock(fixedClock(tick)))

	var stamps []string
	for i := 0; i < 5; i++ {
		rec, err := store.Store(ctx, "C001", model.Payload{"i": i})
		require.NoError(t, err)
		stamps = append(stamps, rec.Timestamp)
	}

	assert.Equal(t, "2025-03-01T09:30:00.000000", stamps[0])
	for i := 1; i < len(stamps); i++ {
		assert.Less(t, stamps[i-1], stamps[i])
	}
}

func TestStore_SubMicrosecondClockKeepsTimestampsUnique(t *testing.T) {
	ctx := context.Background()
	readings := []time.Time{
		time.Date(2025, 3, 1, 9, 30, 0, 1200, time.UTC),
		time.Date(2025, 3, 1, 9, 30, 0, 1500, time.UTC),
	}
	calls := 0
	store := newTestStore(t, WithClock(func() time.Time {
		ts := readings[calls%len(readings)]
		calls++
		return ts
	}))

	first, err := store.Store(ctx, "C001", model.Payload{"i": 1})
	require.NoError(t, err)
	second, err := store.Store(ctx, "C001", model.Payload{"i": 2})
	require.NoError(t, err)

	assert.Equal(t, "2025-03-01T09:30:00.000001", first.Timestamp)
	assert.Equal(t, "2025-03-01T09:30:00.000002", second.Timestamp)

	require.NoError(t, store.DeleteOne(ctx, "C001", first.Timestamp))

	records, err := store.ForClient(ctx, "C001")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, second.ID, records[0].ID)
}

func TestStore_LegacyUpgradedOnAppend(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, WithClock(fixedClock(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))))
	old := legacyRecord("C002", "2024-12-31T10:00:00.000000")
	putRaw(t, store, "C002", old)

	all, err := store.All(ctx)
	require.NoError(t, err)
	require.Contains(t, all, "C002")
	assert.True(t, all["C002"].Legacy)

	// All preserves the stored shape on the wire.
	data, err := json.Marshal(all)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"C002":{`)

	_, err = store.Store(ctx, "C002", model.Payload{"fresh": true})
	require.NoError(t, err)

	all, err = store.All(ctx)
	require.NoError(t, err)
	assert.False(t, all["C002"].Legacy)
	require.Equal(t, 2, all["C002"].Len())
	assert.Equal(t, old.Timestamp, all["C002"].Records[0].Timestamp)
	assert.Equal(t, true, all["C002"].Records[1].AnalysisData["fresh"])
}

func TestStore_LatestMissing(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Latest(context.Background(), "nobody")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestStore_LatestLegacy(t *testing.T) {
	store := newTestStore(t)
	old := legacyRecord("C003", "2024-01-01T00:00:00.000000")
	putRaw(t, store, "C003", old)

	latest, err := store.Latest(context.Background(), "C003")
	require.NoError(t, err)
	assert.Equal(t, old.Timestamp, latest.Timestamp)
}

func TestStore_ForClientSortsAndEmpty(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	records, err := store.ForClient(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)

	putRaw(t, store, "C004", []model.AnalysisRecord{
		legacyRecord("C004", "2025-02-01T00:00:00.000000"),
		legacyRecord("C004", "2025-01-01T00:00:00.000000"),
	})

	records, err = store.ForClient(ctx, "C004")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2025-01-01T00:00:00.000000", records[0].Timestamp)
}

func TestStore_DeleteAll(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Store(ctx, "C001", model.Payload{})
	require.NoError(t, err)

	require.NoError(t, store.DeleteAll(ctx, "C001"))
	assert.ErrorIs(t, store.DeleteAll(ctx, "C001"), common.ErrNotFound)

	ids, err := store.ClientIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestStore_DeleteOne(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	first, err := store.Store(ctx, "C001", model.Payload{"n": 1})
	require.NoError(t, err)
	second, err := store.Store(ctx, "C001", model.Payload{"n": 2})
	require.NoError(t, err)

	assert.ErrorIs(t, store.DeleteOne(ctx, "C001", "1999-01-01T00:00:00.000000"), common.ErrNotFound)
	assert.ErrorIs(t, store.DeleteOne(ctx, "nobody", first.Timestamp), common.ErrNotFound)

	require.NoError(t, store.DeleteOne(ctx, "C001", first.Timestamp))
	records, err := store.ForClient(ctx, "C001")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, second.ID, records[0].ID)

	// Removing the last record removes the client entirely.
	require.NoError(t, store.DeleteOne(ctx, "C001", second.Timestamp))
	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.NotContains(t, all, "C001")
}

func TestStore_DeleteOneLegacy(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	old := legacyRecord("C005", "2024-06-01T12:00:00.000000")
	putRaw(t, store, "C005", old)

	require.NoError(t, store.DeleteOne(ctx, "C005", old.Timestamp))

	ids, err := store.ClientIDs(ctx)
	require.NoError(t, err)
	assert.NotContains(t, ids, "C005")
}

func TestStore_DeleteByID(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	first, err := store.Store(ctx, "C001", model.Payload{})
	require.NoError(t, err)
	_, err = store.Store(ctx, "C001", model.Payload{})
	require.NoError(t, err)

	assert.ErrorIs(t, store.DeleteByID(ctx, "C001", ""), common.ErrNotFound)
	assert.ErrorIs(t, store.DeleteByID(ctx, "C001", "missing"), common.ErrNotFound)
	require.NoError(t, store.DeleteByID(ctx, "C001", first.ID))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStore_CountAndClientIDs(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	putRaw(t, store, "C009", legacyRecord("C009", "2024-01-01T00:00:00.000000"))
	for _, id := range []string{"C002", "C001", "C002"} {
		_, err := store.Store(ctx, id, model.Payload{})
		require.NoError(t, err)
	}

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	ids, err := store.ClientIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"C001", "C002", "C009"}, ids)
}

func TestStore_ByDateRange(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	putRaw(t, store, "C001", []model.AnalysisRecord{
		legacyRecord("C001", "2025-01-05T00:00:00.000000"),
		legacyRecord("C001", "2025-02-05T00:00:00.000000"),
		legacyRecord("C001", "2025-03-05T00:00:00.000000"),
	})
	putRaw(t, store, "C002", legacyRecord("C002", "2025-02-10T08:00:00.000000"))
	putRaw(t, store, "C003", legacyRecord("C003", "2024-02-10T08:00:00.000000"))
	putRaw(t, store, "C004", legacyRecord("C004", "garbage"))

	start := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 2, 28, 23, 59, 59, 0, time.UTC)

	got, err := store.ByDateRange(ctx, start, end)
	require.NoError(t, err)

	require.Len(t, got, 2)
	require.Len(t, got["C001"], 1)
	assert.Equal(t, "2025-02-05T00:00:00.000000", got["C001"][0].Timestamp)
	require.Len(t, got["C002"], 1)
	assert.NotContains(t, got, "C003")
	assert.NotContains(t, got, "C004")

	_, err = store.ByDateRange(ctx, end, start)
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestStore_ByDateRangeInclusiveBounds(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	putRaw(t, store, "C001", legacyRecord("C001", "2025-02-01T00:00:00.000000"))

	at := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	got, err := store.ByDateRange(ctx, at, at)
	require.NoError(t, err)
	assert.Len(t, got["C001"], 1)
}

func TestStore_ConcurrentWritesKeepEveryRecord(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.Store(ctx, "C001", model.Payload{"i": i})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	records, err := store.ForClient(ctx, "C001")
	require.NoError(t, err)
	assert.Len(t, records, writers)

	seen := make(map[string]bool)
	for _, r := range records {
		assert.False(t, seen[r.Timestamp], "duplicate timestamp %s", r.Timestamp)
		seen[r.Timestamp] = true
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := OpenDir(dir)
	require.NoError(t, err)
	rec, err := store.Store(ctx, "C001", model.Payload{"k": "v"})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = OpenDir(dir)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	latest, err := store.Latest(ctx, "C001")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, latest.ID)
	assert.Equal(t, "v", latest.AnalysisData["k"])
}

func TestStore_Validation(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Store(context.Background(), "", model.Payload{})
	assert.ErrorIs(t, err, ErrEmptyClientID)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.Latest(ctx, "C001")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_CorruptValue(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketAnalyses).Put([]byte("C001"), []byte("{not json"))
	}))

	_, err := store.All(context.Background())
	assert.ErrorIs(t, err, common.ErrDatabaseCorrupted)
}
