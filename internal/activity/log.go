// Package activity writes the append-only audit trail shown on the dashboard.
// Writes are best effort: a failed entry is logged and counted, never
// returned to the flow that produced it.
package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/gateway"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/metrics"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/models"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/store"
	log "github.com/sirupsen/logrus"
)

// Entry is one event to record
type Entry struct {
	Type        string
	Description string
	Metadata    map[string]any
}

// Result reports what happened to a Record call. Callers may ignore it.
type Result struct {
	ID  string
	Err error
}

// Written reports whether the entry reached the table
func (r Result) Written() bool {
	return r.Err == nil
}

// Log writes entries through a gateway
type Log struct {
	gw  gateway.Gateway
	now func() time.Time
}

// New creates an activity log
func New(gw gateway.Gateway) *Log {
	return &Log{gw: gw, now: time.Now}
}

// Record appends e to the trail
func (l *Log) Record(ctx context.Context, e Entry) Result {
	metadata := e.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	created, err := l.gw.Insert(ctx, store.ActivityLogsTable, gateway.Row{
		"type":        e.Type,
		"description": e.Description,
		"metadata":    metadata,
		"created_at":  l.now().UTC(),
	})
	if err != nil {
		metrics.ActivityLogFailures.WithLabelValues(e.Type).Inc()
		log.WithFields(log.Fields{
			"type":  e.Type,
			"error": err.Error(),
		}).Warn("Activity entry dropped")
		return Result{Err: fmt.Errorf("record activity %s: %w", e.Type, err)}
	}

	id, _ := created[gateway.PrimaryKey].(string)
	return Result{ID: id}
}

// List returns entries newest first, optionally of one type
func (l *Log) List(ctx context.Context, entryType string) ([]models.ActivityEntry, error) {
	var filters []gateway.Filter
	if entryType != "" {
		filters = append(filters, gateway.Eq("type", entryType))
	}
	rows, err := l.gw.Select(ctx, store.ActivityLogsTable, filters...)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	gateway.SortRows(rows, "created_at", true)
	return store.DecodeAll[models.ActivityEntry](rows)
}
