package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/gateway"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/models"
)

// Transactions reads and writes the transactions table
type Transactions struct {
	gw gateway.Gateway
}

// NewTransactions creates a transaction store
func NewTransactions(gw gateway.Gateway) *Transactions {
	return &Transactions{gw: gw}
}

// Insert persists tx as given; the caller owns the id. A row the backend
// accepted is never reported as failed.
func (s *Transactions) Insert(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	now := stamp(tx.CreatedAt)
	row := gateway.Row{
		"id":                      tx.ID,
		"amount":                  tx.Amount,
		"payment_option":          string(tx.PaymentOption),
		"status":                  string(tx.Status),
		"provider":                tx.Provider,
		"provider_transaction_id": optional(tx.ProviderTransactionID),
		"customer_data":           tx.CustomerData,
		"formation_id":            optional(tx.FormationID),
		"transaction_type":        tx.TransactionType,
		"lead_id":                 optional(tx.LeadID),
		"created_at":              now,
		"updated_at":              now,
	}

	if _, err := s.gw.Insert(ctx, TransactionsTable, row); err != nil {
		return nil, fmt.Errorf("insert transaction %s: %w", tx.ID, err)
	}

	// the caller owns every column; the backend's representation is not decoded
	out := *tx
	out.CreatedAt, out.UpdatedAt = now, now
	return &out, nil
}

// FindByID returns gateway.ErrNotFound when no record has the id
func (s *Transactions) FindByID(ctx context.Context, id string) (*models.Transaction, error) {
	row, err := gateway.SelectOne(ctx, s.gw, TransactionsTable, id)
	if err != nil {
		return nil, fmt.Errorf("find transaction %s: %w", id, err)
	}
	tx, err := decode[models.Transaction](row)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// Complete moves a pending transaction to completed. It reports false when
// no pending record with that id exists, so two callers can never both
// complete the same record.
func (s *Transactions) Complete(ctx context.Context, id, providerTransactionID string, at time.Time) (bool, error) {
	rows, err := s.gw.Update(ctx, TransactionsTable, gateway.Row{
		"status":                  string(models.TransactionStatusCompleted),
		"provider_transaction_id": providerTransactionID,
		"updated_at":              stamp(at),
	},
		gateway.Eq(gateway.PrimaryKey, id),
		gateway.Eq("status", string(models.TransactionStatusPending)),
	)
	if err != nil {
		return false, fmt.Errorf("complete transaction %s: %w", id, err)
	}
	return len(rows) > 0, nil
}

// LinkLead attaches a lead to the transaction and marks it completed
func (s *Transactions) LinkLead(ctx context.Context, id, leadID string, at time.Time) error {
	rows, err := s.gw.Update(ctx, TransactionsTable, gateway.Row{
		"lead_id":    leadID,
		"status":     string(models.TransactionStatusCompleted),
		"updated_at": stamp(at),
	}, gateway.Eq(gateway.PrimaryKey, id))
	if err != nil {
		return fmt.Errorf("link transaction %s to lead %s: %w", id, leadID, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("link transaction %s: %w", id, gateway.ErrNotFound)
	}
	return nil
}

// List returns transactions newest first, optionally narrowed to one status
func (s *Transactions) List(ctx context.Context, status models.TransactionStatus) ([]models.Transaction, error) {
	var filters []gateway.Filter
	if status != "" {
		filters = append(filters, gateway.Eq("status", string(status)))
	}
	rows, err := s.gw.Select(ctx, TransactionsTable, filters...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return DecodeAll[models.Transaction](newestFirst(rows))
}
