package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/gateway"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/models"
)

// LeadSource names one of the lead tables exposed to the dashboard
type LeadSource string

// LeadSource values
const (
	LeadSourcePromo     LeadSource = "promo"
	LeadSourceFallback  LeadSource = "fallback"
	LeadSourceEcommerce LeadSource = "ecommerce"
)

// Table returns the table backing the source
func (s LeadSource) Table() (string, bool) {
	switch s {
	case LeadSourcePromo:
		return PromoLeadsTable, true
	case LeadSourceFallback:
		return LeadsTable, true
	case LeadSourceEcommerce:
		return EcommerceLeadsTable, true
	}
	return "", false
}

// Leads reads and writes the promo, generic and e-commerce lead tables
type Leads struct {
	gw gateway.Gateway
}

// NewLeads creates a lead store
func NewLeads(gw gateway.Gateway) *Leads {
	return &Leads{gw: gw}
}

// InsertPromo stores a campaign enrollment and returns its id
func (s *Leads) InsertPromo(ctx context.Context, lead *models.PromoLead) (string, error) {
	now := stamp(lead.CreatedAt)
	return s.insert(ctx, PromoLeadsTable, gateway.Row{
		"full_name":      lead.FullName,
		"email":          lead.Email,
		"phone":          lead.Phone,
		"business_name":  lead.BusinessName,
		"business_type":  lead.BusinessType,
		"country":        lead.Country,
		"city":           lead.City,
		"goals":          lead.Goals,
		"transaction_id": optional(lead.TransactionID),
		"payment_method": lead.PaymentMethod,
		"payment_status": lead.PaymentStatus,
		"amount":         lead.Amount,
		"status":         string(statusOrNew(lead.Status)),
		"created_at":     now,
		"updated_at":     now,
	})
}

// InsertLead stores a row in the generic leads table
func (s *Leads) InsertLead(ctx context.Context, lead *models.Lead) (string, error) {
	now := stamp(lead.CreatedAt)
	metadata := lead.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	return s.insert(ctx, LeadsTable, gateway.Row{
		"name":       lead.Name,
		"email":      lead.Email,
		"phone":      lead.Phone,
		"company":    lead.Company,
		"source":     lead.Source,
		"status":     string(statusOrNew(lead.Status)),
		"metadata":   metadata,
		"created_at": now,
		"updated_at": now,
	})
}

// InsertEcommerce stores an e-commerce build request
func (s *Leads) InsertEcommerce(ctx context.Context, lead *models.EcommerceLead) (string, error) {
	now := stamp(lead.CreatedAt)
	return s.insert(ctx, EcommerceLeadsTable, gateway.Row{
		"name":             lead.Name,
		"email":            lead.Email,
		"phone":            lead.Phone,
		"business_name":    lead.BusinessName,
		"product_category": lead.ProductCategory,
		"budget":           lead.Budget,
		"message":          lead.Message,
		"status":           string(statusOrNew(lead.Status)),
		"created_at":       now,
		"updated_at":       now,
	})
}

func (s *Leads) insert(ctx context.Context, table string, row gateway.Row) (string, error) {
	created, err := s.gw.Insert(ctx, table, row)
	if err != nil {
		return "", fmt.Errorf("insert into %s: %w", table, err)
	}
	id, _ := created[gateway.PrimaryKey].(string)
	if id == "" {
		return "", fmt.Errorf("insert into %s: created row has no id", table)
	}
	return id, nil
}

// ListPromo returns campaign enrollments newest first
func (s *Leads) ListPromo(ctx context.Context) ([]models.PromoLead, error) {
	rows, err := s.gw.Select(ctx, PromoLeadsTable)
	if err != nil {
		return nil, fmt.Errorf("list promo leads: %w", err)
	}
	return DecodeAll[models.PromoLead](newestFirst(rows))
}

// ListLeads returns generic leads newest first
func (s *Leads) ListLeads(ctx context.Context) ([]models.Lead, error) {
	rows, err := s.gw.Select(ctx, LeadsTable)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	return DecodeAll[models.Lead](newestFirst(rows))
}

// ListEcommerce returns e-commerce leads newest first
func (s *Leads) ListEcommerce(ctx context.Context) ([]models.EcommerceLead, error) {
	rows, err := s.gw.Select(ctx, EcommerceLeadsTable)
	if err != nil {
		return nil, fmt.Errorf("list ecommerce leads: %w", err)
	}
	return DecodeAll[models.EcommerceLead](newestFirst(rows))
}

// UpdateStatus changes the status of one lead of the given source
func (s *Leads) UpdateStatus(ctx context.Context, source LeadSource, id string, status models.LeadStatus, at time.Time) error {
	table, ok := source.Table()
	if !ok {
		return fmt.Errorf("unknown lead source %q: %w", source, gateway.ErrNotFound)
	}
	rows, err := s.gw.Update(ctx, table, gateway.Row{
		"status":     string(status),
		"updated_at": stamp(at),
	}, gateway.Eq(gateway.PrimaryKey, id))
	if err != nil {
		return fmt.Errorf("update %s %s: %w", table, id, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("update %s %s: %w", table, id, gateway.ErrNotFound)
	}
	return nil
}

func statusOrNew(s models.LeadStatus) models.LeadStatus {
	if s == "" {
		return models.LeadStatusNew
	}
	return s
}
