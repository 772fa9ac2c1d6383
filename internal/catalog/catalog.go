// Package catalog resolves the formations sold on the pricing page, either
// from a YAML file shipped with the service or from the formations table.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/gateway"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/models"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/store"
	"gopkg.in/yaml.v3"
)

// ErrUnknownFormation is returned when no formation matches a key
var ErrUnknownFormation = errors.New("unknown formation")

// Source looks formations up by id or slug
type Source interface {
	Lookup(ctx context.Context, key string) (*models.Formation, error)
	Active(ctx context.Context) ([]models.Formation, error)
}

type fileFormat struct {
	Formations []models.Formation `yaml:"formations"`
}

// File is a catalog read from YAML
type File struct {
	formations []models.Formation
}

// LoadFile reads the catalog at path
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog and checks every entry has an id and a price
func Parse(data []byte) (*File, error) {
	var doc fileFormat
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	seen := make(map[string]bool)
	for i, f := range doc.Formations {
		if f.ID == "" {
			return nil, fmt.Errorf("parse catalog: formation %d has no id", i)
		}
		if f.Price <= 0 {
			return nil, fmt.Errorf("parse catalog: formation %s has no price", f.ID)
		}
		if seen[f.ID] || (f.Slug != "" && seen[f.Slug]) {
			return nil, fmt.Errorf("parse catalog: duplicate formation %s", f.ID)
		}
		seen[f.ID] = true
		if f.Slug != "" {
			seen[f.Slug] = true
		}
	}
	return &File{formations: doc.Formations}, nil
}

// All returns every formation, active or not
func (f *File) All() []models.Formation {
	return append([]models.Formation(nil), f.formations...)
}

// Lookup implements Source; formations that are not on sale are unknown
func (f *File) Lookup(_ context.Context, key string) (*models.Formation, error) {
	for _, formation := range f.formations {
		if formation.ID == key || (formation.Slug != "" && formation.Slug == key) {
			if !formation.Active {
				return nil, fmt.Errorf("%w: %s is not on sale", ErrUnknownFormation, key)
			}
			out := formation
			return &out, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFormation, key)
}

// Active implements Source
func (f *File) Active(_ context.Context) ([]models.Formation, error) {
	var out []models.Formation
	for _, formation := range f.formations {
		if formation.Active {
			out = append(out, formation)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out, nil
}

// Table serves the catalog from the formations table
type Table struct {
	formations *store.Formations
}

// NewTable creates a table-backed catalog
func NewTable(formations *store.Formations) *Table {
	return &Table{formations: formations}
}

// Lookup implements Source
func (t *Table) Lookup(ctx context.Context, key string) (*models.Formation, error) {
	f, err := t.formations.Get(ctx, key)
	if errors.Is(err, gateway.ErrNotFound) || errors.Is(err, store.ErrInvalidFormation) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormation, key)
	}
	if err != nil {
		return nil, err
	}
	if !f.Active {
		return nil, fmt.Errorf("%w: %s is not on sale", ErrUnknownFormation, key)
	}
	return f, nil
}

// Active implements Source
func (t *Table) Active(ctx context.Context) ([]models.Formation, error) {
	return t.formations.ListActive(ctx)
}

// Seed writes every formation of f into the table
func Seed(ctx context.Context, formations *store.Formations, f *File) error {
	for _, formation := range f.formations {
		if err := formations.Upsert(ctx, formation); err != nil {
			return err
		}
	}
	return nil
}
