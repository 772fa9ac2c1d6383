package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/gateway"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/models"
)

// ErrInvalidFormation is returned for a formation without a positive price
var ErrInvalidFormation = errors.New("formation has no valid price")

// Formations reads the formations table
type Formations struct {
	gw gateway.Gateway
}

// NewFormations creates a formation store
func NewFormations(gw gateway.Gateway) *Formations {
	return &Formations{gw: gw}
}

// Get finds a formation by id, then by slug
func (s *Formations) Get(ctx context.Context, key string) (*models.Formation, error) {
	for _, column := range []string{gateway.PrimaryKey, "slug"} {
		rows, err := s.gw.Select(ctx, FormationsTable, gateway.Eq(column, key))
		if errors.Is(err, gateway.ErrInvalidInput) && column == gateway.PrimaryKey {
			// a slug is not a valid id on a uuid column
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("find formation %s: %w", key, err)
		}
		if len(rows) > 0 {
			f, err := decode[models.Formation](rows[0])
			if err != nil {
				return nil, err
			}
			if f.Price <= 0 {
				return nil, fmt.Errorf("%w: %s", ErrInvalidFormation, key)
			}
			return &f, nil
		}
	}
	return nil, fmt.Errorf("find formation %s: %w", key, gateway.ErrNotFound)
}

// ListActive returns the formations on sale, ordered by price
func (s *Formations) ListActive(ctx context.Context) ([]models.Formation, error) {
	rows, err := s.gw.Select(ctx, FormationsTable, gateway.Eq("active", true), gateway.Gt("price", 0))
	if err != nil {
		return nil, fmt.Errorf("list formations: %w", err)
	}
	gateway.SortRows(rows, "price", false)
	return DecodeAll[models.Formation](rows)
}

// Upsert inserts f, or rewrites it when its id already exists
func (s *Formations) Upsert(ctx context.Context, f models.Formation) error {
	if f.ID == "" {
		return fmt.Errorf("upsert formation: %w: id is required", gateway.ErrInvalidInput)
	}
	if f.Price <= 0 {
		return fmt.Errorf("upsert formation %s: %w", f.ID, ErrInvalidFormation)
	}
	row := gateway.Row{
		"id":          f.ID,
		"slug":        f.Slug,
		"title":       f.Title,
		"price":       f.Price,
		"duration":    f.Duration,
		"description": f.Description,
		"active":      f.Active,
	}
	rows, err := s.gw.Update(ctx, FormationsTable, row, gateway.Eq(gateway.PrimaryKey, f.ID))
	if err != nil {
		return fmt.Errorf("update formation %s: %w", f.ID, err)
	}
	if len(rows) > 0 {
		return nil
	}
	if _, err := s.gw.Insert(ctx, FormationsTable, row); err != nil {
		return fmt.Errorf("insert formation %s: %w", f.ID, err)
	}
	return nil
}
