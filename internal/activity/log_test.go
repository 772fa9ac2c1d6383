package activity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/gateway"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/models"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordWritesEntry(t *testing.T) {
	gw := gateway.NewMemory(store.ActivityLogsTable)
	l := New(gw)

	res := l.Record(context.Background(), Entry{
		Type:        models.ActivityPaymentVerified,
		Description: "Paiement vérifié",
		Metadata:    map[string]any{"transaction_id": "tx-1"},
	})
	require.True(t, res.Written())
	assert.NotEmpty(t, res.ID)

	rows := gw.Rows(store.ActivityLogsTable)
	require.Len(t, rows, 1)
	assert.Equal(t, models.ActivityPaymentVerified, rows[0]["type"])
}

func TestRecordSwallowsFailure(t *testing.T) {
	gw := gateway.NewMemory(store.ActivityLogsTable)
	gw.FailOn(store.ActivityLogsTable, gateway.OpInsert, errors.New("disk full"))
	l := New(gw)

	res := l.Record(context.Background(), Entry{Type: models.ActivityPaymentVerified})

	assert.False(t, res.Written())
	assert.ErrorContains(t, res.Err, "disk full")
}

func TestRecordWithoutTable(t *testing.T) {
	l := New(gateway.NewMemory())

	res := l.Record(context.Background(), Entry{Type: models.ActivityEcommerceLeadCreated})

	assert.ErrorIs(t, res.Err, gateway.ErrRelationMissing)
}

func TestListFiltersAndOrders(t *testing.T) {
	gw := gateway.NewMemory(store.ActivityLogsTable)
	l := New(gw)
	clock := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	ctx := context.Background()

	l.Record(ctx, Entry{Type: models.ActivityPaymentVerified, Description: "first"})
	l.Record(ctx, Entry{Type: models.ActivityPromoEnrollment, Description: "second"})
	l.Record(ctx, Entry{Type: models.ActivityPaymentVerified, Description: "third"})

	all, err := l.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "third", all[0].Description)

	verified, err := l.List(ctx, models.ActivityPaymentVerified)
	require.NoError(t, err)
	require.Len(t, verified, 2)
	assert.Equal(t, "first", verified[1].Description)
}
