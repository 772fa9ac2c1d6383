package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryInsertAndSelect(t *testing.T) {
	ctx := context.Background()
	gw := NewMemory("transactions")

	created, err := gw.Insert(ctx, "transactions", Row{"id": "tx-1", "amount": int64(1000), "status": "pending"})
	require.NoError(t, err)
	assert.Equal(t, "tx-1", created["id"])

	row, err := SelectOne(ctx, gw, "transactions", "tx-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), row["amount"])

	_, err = SelectOne(ctx, gw, "transactions", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryInsertGeneratesID(t *testing.T) {
	gw := NewMemory("leads")

	created, err := gw.Insert(context.Background(), "leads", Row{"name": "Awa"})
	require.NoError(t, err)
	assert.NotEmpty(t, created["id"])
}

func TestMemoryInsertDuplicateKey(t *testing.T) {
	ctx := context.Background()
	gw := NewMemory("transactions")

	_, err := gw.Insert(ctx, "transactions", Row{"id": "tx-1"})
	require.NoError(t, err)

	_, err = gw.Insert(ctx, "transactions", Row{"id": "tx-1"})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Len(t, gw.Rows("transactions"), 1)
}

func TestMemoryMissingTable(t *testing.T) {
	gw := NewMemory()

	_, err := gw.Insert(context.Background(), "promo_leads", Row{"id": "l-1"})
	assert.ErrorIs(t, err, ErrRelationMissing)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "42P01", apiErr.Code)
}

func TestMemoryConditionalUpdate(t *testing.T) {
	ctx := context.Background()
	gw := NewMemory("transactions")
	_, err := gw.Insert(ctx, "transactions", Row{"id": "tx-1", "status": "pending", "amount": int64(500)})
	require.NoError(t, err)

	updated, err := gw.Update(ctx, "transactions", Row{"status": "completed", "id": "hijack"}, Eq("id", "tx-1"), Eq("status", "pending"))
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Equal(t, "completed", updated[0]["status"])
	assert.Equal(t, "tx-1", updated[0]["id"])

	updated, err = gw.Update(ctx, "transactions", Row{"status": "completed"}, Eq("id", "tx-1"), Eq("status", "pending"))
	require.NoError(t, err)
	assert.Empty(t, updated)
}

func TestMemoryRangeFilters(t *testing.T) {
	ctx := context.Background()
	gw := NewMemory("activity_logs")
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := gw.Insert(ctx, "activity_logs", Row{"created_at": base.Add(time.Duration(i) * time.Hour), "weight": i})
		require.NoError(t, err)
	}

	rows, err := gw.Select(ctx, "activity_logs", Gte("created_at", base.Add(time.Hour)), Lte("created_at", base.Add(3*time.Hour)))
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	rows, err = gw.Select(ctx, "activity_logs", Filter{Column: "weight", Op: OpGt, Value: 3})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	rows, err = gw.Select(ctx, "activity_logs", Filter{Column: "weight", Op: OpNeq, Value: 0})
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestMemoryFailureInjection(t *testing.T) {
	ctx := context.Background()
	gw := NewMemory("promo_leads")
	boom := errors.New("boom")

	gw.FailOn("promo_leads", OpInsert, boom)
	_, err := gw.Insert(ctx, "promo_leads", Row{"id": "l-1"})
	assert.ErrorIs(t, err, boom)

	gw.FailOn("promo_leads", OpInsert, nil)
	_, err = gw.Insert(ctx, "promo_leads", Row{"id": "l-1"})
	assert.NoError(t, err)
}

func TestMemoryRejectsBadIdentifiers(t *testing.T) {
	gw := NewMemory("transactions")

	_, err := gw.Select(context.Background(), "transactions", Eq("id; drop table", "x"))
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
}

func TestSortRows(t *testing.T) {
	rows := []Row{
		{"id": "a", "created_at": "2026-01-01T00:00:00Z"},
		{"id": "b", "created_at": "2026-03-01T00:00:00Z"},
		{"id": "c", "created_at": "2026-02-01T00:00:00Z"},
	}

	SortRows(rows, "created_at", true)

	assert.Equal(t, "b", rows[0]["id"])
	assert.Equal(t, "c", rows[1]["id"])
	assert.Equal(t, "a", rows[2]["id"])
}
