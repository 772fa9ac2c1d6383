package gateway

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Operation names used for failure injection
const (
	OpInsert = "insert"
	OpUpdate = "update"
	OpSelect = "select"
)

// MemoryGateway keeps tables in process memory. Only declared tables exist.
type MemoryGateway struct {
	mu       sync.RWMutex
	tables   map[string]map[string]Row
	order    map[string][]string
	failures map[string]error
}

// NewMemory creates a gateway with the given tables provisioned
func NewMemory(tables ...string) *MemoryGateway {
	m := &MemoryGateway{
		tables:   make(map[string]map[string]Row),
		order:    make(map[string][]string),
		failures: make(map[string]error),
	}
	for _, t := range tables {
		m.tables[t] = make(map[string]Row)
	}
	return m
}

// DropTable removes table and its rows
func (m *MemoryGateway) DropTable(table string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.tables, table)
	delete(m.order, table)
}

// FailOn makes every op on table return err until cleared with a nil err
func (m *MemoryGateway) FailOn(table, op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := table + ":" + op
	if err == nil {
		delete(m.failures, key)
		return
	}
	m.failures[key] = err
}

// Rows returns a snapshot of table in insertion order
func (m *MemoryGateway) Rows(table string) []Row {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Row, 0, len(m.order[table]))
	for _, id := range m.order[table] {
		out = append(out, m.tables[table][id].Clone())
	}
	return out
}

// Insert stores a copy of row, generating an id when none is set
func (m *MemoryGateway) Insert(ctx context.Context, table string, row Row) (Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateIdentifiers(table, nil); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rows, err := m.table(table, OpInsert)
	if err != nil {
		return nil, err
	}

	stored := row.Clone()
	id, _ := stored[PrimaryKey].(string)
	if id == "" {
		id = uuid.New().String()
		stored[PrimaryKey] = id
	}
	if _, exists := rows[id]; exists {
		return nil, fmt.Errorf("%w: %s.%s=%s", ErrConflict, table, PrimaryKey, id)
	}

	rows[id] = stored
	m.order[table] = append(m.order[table], id)
	return stored.Clone(), nil
}

// Update patches every matching row
func (m *MemoryGateway) Update(ctx context.Context, table string, patch Row, filters ...Filter) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateIdentifiers(table, filters); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rows, err := m.table(table, OpUpdate)
	if err != nil {
		return nil, err
	}

	var updated []Row
	for _, id := range m.order[table] {
		row := rows[id]
		if !matchesAll(row, filters) {
			continue
		}
		for k, v := range patch {
			if k == PrimaryKey {
				continue
			}
			row[k] = v
		}
		updated = append(updated, row.Clone())
	}
	return updated, nil
}

// Select returns copies of the matching rows in insertion order
func (m *MemoryGateway) Select(ctx context.Context, table string, filters ...Filter) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateIdentifiers(table, filters); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	rows, err := m.table(table, OpSelect)
	if err != nil {
		return nil, err
	}

	var out []Row
	for _, id := range m.order[table] {
		if row := rows[id]; matchesAll(row, filters) {
			out = append(out, row.Clone())
		}
	}
	return out, nil
}

func (m *MemoryGateway) table(name, op string) (map[string]Row, error) {
	if err := m.failures[name+":"+op]; err != nil {
		return nil, err
	}
	rows, ok := m.tables[name]
	if !ok {
		return nil, NewAPIError(404, codeUndefinedTable, fmt.Sprintf("relation %q does not exist", name))
	}
	return rows, nil
}

func matchesAll(row Row, filters []Filter) bool {
	for _, f := range filters {
		if !matches(row[f.Column], f) {
			return false
		}
	}
	return true
}

func matches(value any, f Filter) bool {
	cmp, ok := compare(value, f.Value)
	switch f.Op {
	case OpEq:
		return ok && cmp == 0
	case OpNeq:
		return !ok || cmp != 0
	case OpGt:
		return ok && cmp > 0
	case OpGte:
		return ok && cmp >= 0
	case OpLt:
		return ok && cmp < 0
	case OpLte:
		return ok && cmp <= 0
	}
	return false
}

// compare orders a and b; ok is false when they are not comparable
func compare(a, b any) (int, bool) {
	if a == nil || b == nil {
		if a == nil && b == nil {
			return 0, true
		}
		return 0, false
	}
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			return sign(af - bf), true
		}
	}
	if at, aok := toTime(a); aok {
		if bt, bok := toTime(b); bok {
			return at.Compare(bt), true
		}
	}
	as, bs := stringOf(a), stringOf(b)
	switch {
	case as < bs:
		return -1, true
	case as > bs:
		return 1, true
	}
	return 0, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		return parsed, err == nil
	}
	return time.Time{}, false
}

func stringOf(v any) string {
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(v)
}

func sign(f float64) int {
	switch {
	case f < 0:
		return -1
	case f > 0:
		return 1
	}
	return 0
}

// SortRows orders rows by column, newest or largest first when desc is set
func SortRows(rows []Row, column string, desc bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		c, _ := compare(rows[i][column], rows[j][column])
		if desc {
			return c > 0
		}
		return c < 0
	})
}
