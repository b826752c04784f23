package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndRecentLookups(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, db.RecordLookup(ctx, LookupRecord{
		RollNumber: "FA21-BCS-001", Kind: KindLookup, Outcome: OutcomeAvailable,
		ClientIP: "10.0.0.1", RequestID: "req-1", CreatedAt: base,
	}))
	require.NoError(t, db.RecordLookup(ctx, LookupRecord{
		RollNumber: "FA21-BCS-001", Kind: KindDownload, Outcome: OutcomeBlocked, CreatedAt: base.Add(time.Minute),
	}))
	require.NoError(t, db.RecordLookup(ctx, LookupRecord{
		RollNumber: "FA21-BCS-002", Kind: KindLookup, Outcome: OutcomeNotFound, CreatedAt: base,
	}))

	recs, err := db.RecentLookups(ctx, "FA21-BCS-001", 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, KindDownload, recs[0].Kind, "newest first")
	assert.Empty(t, recs[0].ClientIP)
	assert.Equal(t, "10.0.0.1", recs[1].ClientIP)
	assert.Equal(t, "req-1", recs[1].RequestID)
	assert.Equal(t, base.Unix(), recs[1].CreatedAt.Unix())

	recs, err = db.RecentLookups(ctx, "FA21-BCS-001", 1)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestRecordLookupsBatch(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	recs := []LookupRecord{
		{RollNumber: "FA21-BCS-001", Kind: KindRange, Outcome: OutcomeAvailable},
		{RollNumber: "FA21-BCS-002", Kind: KindRange, Outcome: OutcomeNotFound},
		{RollNumber: "FA21-BCS-003", Kind: KindRange, Outcome: OutcomeAvailable},
	}
	require.NoError(t, db.RecordLookups(ctx, recs))
	require.NoError(t, db.RecordLookups(ctx, nil))

	stats, err := db.Stats(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []OutcomeCount{
		{Kind: KindRange, Outcome: OutcomeAvailable, Count: 2},
		{Kind: KindRange, Outcome: OutcomeNotFound, Count: 1},
	}, stats)
}

func TestInvalidKindRejected(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)

	err := db.RecordLookup(context.Background(), LookupRecord{RollNumber: "FA21-BCS-001", Kind: "scrape", Outcome: OutcomeAvailable})
	assert.Error(t, err)
}

func TestDeleteLookupsBefore(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, db.RecordLookup(ctx, LookupRecord{RollNumber: "FA21-BCS-001", Kind: KindLookup, Outcome: OutcomeAvailable, CreatedAt: old}))
	require.NoError(t, db.RecordLookup(ctx, LookupRecord{RollNumber: "FA21-BCS-001", Kind: KindLookup, Outcome: OutcomeAvailable}))

	n, err := db.DeleteLookupsBefore(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	recs, err := db.RecentLookups(ctx, "FA21-BCS-001", 10)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}
