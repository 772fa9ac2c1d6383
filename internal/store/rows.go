// Package store maps the site's tables onto typed records over a gateway.
package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/gateway"
)

// Table names
const (
	TransactionsTable    = "transactions"
	PromoLeadsTable      = "promo_leads"
	LeadsTable           = "leads"
	EcommerceLeadsTable  = "ecommerce_leads"
	FormationsTable      = "formations"
	JobPostingsTable     = "job_postings"
	JobApplicationsTable = "job_applications"
	ActivityLogsTable    = "activity_logs"
)

// Tables lists every table the service reads or writes
var Tables = []string{
	TransactionsTable,
	PromoLeadsTable,
	LeadsTable,
	EcommerceLeadsTable,
	FormationsTable,
	JobPostingsTable,
	JobApplicationsTable,
	ActivityLogsTable,
}

const createdAt = "created_at"

// decode converts a gateway row into a record through its JSON tags
func decode[T any](row gateway.Row) (T, error) {
	var out T
	b, err := json.Marshal(row)
	if err != nil {
		return out, fmt.Errorf("encode row: %w", err)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("decode row: %w", err)
	}
	return out, nil
}

// DecodeAll decodes every row into T
func DecodeAll[T any](rows []gateway.Row) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		v, err := decode[T](r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// newestFirst orders rows by creation time before decoding
func newestFirst(rows []gateway.Row) []gateway.Row {
	gateway.SortRows(rows, createdAt, true)
	return rows
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

// optional keeps absent values as SQL NULL rather than a typed nil pointer
func optional(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
