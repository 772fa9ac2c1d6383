package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// SQLGateway reaches the same tables through a direct Postgres connection
type SQLGateway struct {
	db *gorm.DB
}

// OpenPostgres connects to dsn
func OpenPostgres(dsn string) (*SQLGateway, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return NewSQL(db), nil
}

// NewSQL wraps an existing gorm handle
func NewSQL(db *gorm.DB) *SQLGateway {
	return &SQLGateway{db: db}
}

// Close releases the underlying connection pool
func (g *SQLGateway) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Insert writes row and reads it back so defaults applied by the database are returned
func (g *SQLGateway) Insert(ctx context.Context, table string, row Row) (Row, error) {
	if err := validateIdentifiers(table, nil); err != nil {
		return nil, err
	}

	values := toColumns(row)
	id, _ := values[PrimaryKey].(string)
	if id == "" {
		id = uuid.New().String()
		values[PrimaryKey] = id
	}

	if err := g.db.WithContext(ctx).Table(table).Create(values).Error; err != nil {
		return nil, translate(fmt.Sprintf("insert into %s", table), err)
	}

	rows, err := g.Select(ctx, table, Eq(PrimaryKey, id))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("insert into %s: row %s not readable after insert", table, id)
	}
	return rows[0], nil
}

// Update locks the matching rows, patches them and returns their new state
func (g *SQLGateway) Update(ctx context.Context, table string, patch Row, filters ...Filter) ([]Row, error) {
	if err := validateIdentifiers(table, filters); err != nil {
		return nil, err
	}
	if len(filters) == 0 {
		return nil, fmt.Errorf("update %s: refusing unfiltered update", table)
	}

	values := toColumns(patch)
	delete(values, PrimaryKey)

	var updated []Row
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		q := applyFilters(tx.Table(table), filters).Clauses(clause.Locking{Strength: "UPDATE"})
		if err := q.Pluck(PrimaryKey, &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		if err := tx.Table(table).Where(PrimaryKey+" IN ?", ids).Updates(values).Error; err != nil {
			return err
		}

		var rows []map[string]any
		if err := tx.Table(table).Where(PrimaryKey+" IN ?", ids).Find(&rows).Error; err != nil {
			return err
		}
		updated = fromColumns(rows)
		return nil
	})
	if err != nil {
		return nil, translate(fmt.Sprintf("update %s", table), err)
	}
	return updated, nil
}

// Select returns the matching rows
func (g *SQLGateway) Select(ctx context.Context, table string, filters ...Filter) ([]Row, error) {
	if err := validateIdentifiers(table, filters); err != nil {
		return nil, err
	}

	var rows []map[string]any
	if err := applyFilters(g.db.WithContext(ctx).Table(table), filters).Find(&rows).Error; err != nil {
		return nil, translate(fmt.Sprintf("select from %s", table), err)
	}
	return fromColumns(rows), nil
}

var sqlOperators = map[Op]string{
	OpEq:  "=",
	OpNeq: "<>",
	OpGt:  ">",
	OpGte: ">=",
	OpLt:  "<",
	OpLte: "<=",
}

// applyFilters expects identifiers already validated
func applyFilters(q *gorm.DB, filters []Filter) *gorm.DB {
	for _, f := range filters {
		if f.Value == nil {
			if f.Op == OpNeq {
				q = q.Where(f.Column + " IS NOT NULL")
			} else {
				q = q.Where(f.Column + " IS NULL")
			}
			continue
		}
		q = q.Where(fmt.Sprintf("%s %s ?", f.Column, sqlOperators[f.Op]), f.Value)
	}
	return q
}

// toColumns stores nested objects as JSON columns
func toColumns(row Row) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		switch v.(type) {
		case map[string]any, []any, []string:
			b, err := json.Marshal(v)
			if err != nil {
				out[k] = v
				continue
			}
			out[k] = datatypes.JSON(b)
		default:
			out[k] = v
		}
	}
	return out
}

// fromColumns turns raw column bytes back into JSON values or text
func fromColumns(rows []map[string]any) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		row := make(Row, len(r))
		for k, v := range r {
			if b, ok := v.([]byte); ok {
				if json.Valid(b) {
					row[k] = json.RawMessage(b)
				} else {
					row[k] = string(b)
				}
				continue
			}
			row[k] = v
		}
		out = append(out, row)
	}
	return out
}

func translate(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%s: %w", op, NewAPIError(http.StatusInternalServerError, pgErr.Code, pgErr.Message))
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s: %w", op, ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}
