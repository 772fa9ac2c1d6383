// Package gateway is the table-level persistence contract the site relies on:
// insert returning the created row, update keyed by primary key and select
// with equality/range filters. Backends are the hosted REST interface, a
// direct Postgres connection and an in-memory store.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
)

// PrimaryKey is the column every table is keyed by
const PrimaryKey = "id"

var (
	// ErrNotFound is returned by lookups that expect exactly one row
	ErrNotFound = errors.New("gateway: row not found")
	// ErrConflict is returned when an insert collides with an existing primary key
	ErrConflict = errors.New("gateway: duplicate key")
	// ErrInvalidInput is returned when the backend rejects a value of the request,
	// such as a malformed uuid or a violated check constraint
	ErrInvalidInput = errors.New("gateway: invalid input")
	// ErrRelationMissing is returned when the target table is not provisioned
	ErrRelationMissing = errors.New("gateway: relation does not exist")
	// ErrUnavailable is returned when the backend is shed by the circuit breaker or bulkhead
	ErrUnavailable = errors.New("gateway: backend unavailable")
	// ErrInvalidIdentifier rejects table or column names that are not plain identifiers
	ErrInvalidIdentifier = errors.New("gateway: invalid identifier")
)

// Row is one record, keyed by column name
type Row map[string]any

// Clone returns a shallow copy of the row
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Op is a filter comparison operator
type Op string

// Supported operators
const (
	OpEq  Op = "eq"
	OpNeq Op = "neq"
	OpGt  Op = "gt"
	OpGte Op = "gte"
	OpLt  Op = "lt"
	OpLte Op = "lte"
)

// Filter restricts a select or update to matching rows
type Filter struct {
	Column string
	Op     Op
	Value  any
}

// Eq matches rows whose column equals value
func Eq(column string, value any) Filter {
	return Filter{Column: column, Op: OpEq, Value: value}
}

// Gt matches rows whose column is greater than value
func Gt(column string, value any) Filter {
	return Filter{Column: column, Op: OpGt, Value: value}
}

// Gte matches rows whose column is greater than or equal to value
func Gte(column string, value any) Filter {
	return Filter{Column: column, Op: OpGte, Value: value}
}

// Lte matches rows whose column is less than or equal to value
func Lte(column string, value any) Filter {
	return Filter{Column: column, Op: OpLte, Value: value}
}

// Gateway is implemented by every persistence backend
type Gateway interface {
	// Insert stores row in table and returns the created row
	Insert(ctx context.Context, table string, row Row) (Row, error)
	// Update applies patch to the rows matching filters and returns them as updated
	Update(ctx context.Context, table string, patch Row, filters ...Filter) ([]Row, error)
	// Select returns the rows of table matching all filters
	Select(ctx context.Context, table string, filters ...Filter) ([]Row, error)
}

// APIError carries the backend's own error code alongside a classified sentinel
type APIError struct {
	Status  int
	Code    string
	Message string
	kind    error
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("gateway: %s (code %s, status %d)", e.Message, e.Code, e.Status)
	}
	return fmt.Sprintf("gateway: %s (status %d)", e.Message, e.Status)
}

// NewAPIError classifies a backend error by its code, then by its HTTP status
func NewAPIError(status int, code, message string) *APIError {
	kind := classify(code)
	if kind == nil {
		kind = classifyStatus(status)
	}
	return &APIError{Status: status, Code: code, Message: message, kind: kind}
}

// Unwrap exposes the classified sentinel to errors.Is
func (e *APIError) Unwrap() error {
	return e.kind
}

// Postgres error codes the gateway classifies
const (
	codeUndefinedTable  = "42P01"
	codeUniqueViolation = "23505"
	codeSchemaCacheMiss = "PGRST205"

	// class 22 is data_exception, 22P02 invalid_text_representation among them
	classDataException = "22"
	codeNotNull        = "23502"
	codeForeignKey     = "23503"
	codeCheck          = "23514"
)

func classify(code string) error {
	switch code {
	case codeUndefinedTable, codeSchemaCacheMiss:
		return ErrRelationMissing
	case codeUniqueViolation:
		return ErrConflict
	case codeNotNull, codeForeignKey, codeCheck:
		return ErrInvalidInput
	}
	if len(code) == 5 && code[:2] == classDataException {
		return ErrInvalidInput
	}
	return nil
}

// classifyStatus treats 4xx answers as a fault of the request, except the
// ones that tell about the backend's load
func classifyStatus(status int) error {
	switch {
	case status == http.StatusConflict:
		return ErrConflict
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests:
		return nil
	case status >= 400 && status < 500:
		return ErrInvalidInput
	}
	return nil
}

// IsClientError reports whether err describes the request rather than backend health
func IsClientError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrRelationMissing) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidIdentifier)
}

// SelectOne returns the single row with the given primary key
func SelectOne(ctx context.Context, gw Gateway, table, id string) (Row, error) {
	rows, err := gw.Select(ctx, table, Eq(PrimaryKey, id))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

var identifier = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

func validateIdentifiers(table string, filters []Filter) error {
	if !identifier.MatchString(table) {
		return fmt.Errorf("%w: table %q", ErrInvalidIdentifier, table)
	}
	for _, f := range filters {
		if !identifier.MatchString(f.Column) {
			return fmt.Errorf("%w: column %q", ErrInvalidIdentifier, f.Column)
		}
		switch f.Op {
		case OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte:
		default:
			return fmt.Errorf("%w: operator %q", ErrInvalidIdentifier, f.Op)
		}
	}
	return nil
}
