package store

import (
	"context"
	"testing"
	"time"

	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/gateway"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeadsInsertPromo(t *testing.T) {
	ctx := context.Background()
	gw := gateway.NewMemory(Tables...)
	s := NewLeads(gw)
	txID := "tx-1"

	id, err := s.InsertPromo(ctx, &models.PromoLead{
		FullName:      "Awa Diop",
		Email:         "awa@example.com",
		BusinessName:  "Awa Cosmetics",
		TransactionID: &txID,
		Amount:        25000,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	leads, err := s.ListPromo(ctx)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, models.LeadStatusNew, leads[0].Status)
	require.NotNil(t, leads[0].TransactionID)
	assert.Equal(t, "tx-1", *leads[0].TransactionID)
}

func TestLeadsInsertLeadKeepsMetadata(t *testing.T) {
	ctx := context.Background()
	s := NewLeads(gateway.NewMemory(Tables...))

	_, err := s.InsertLead(ctx, &models.Lead{
		Name:     "Awa Diop",
		Email:    "awa@example.com",
		Source:   "ramadan_promo",
		Metadata: map[string]any{"city": "Dakar"},
	})
	require.NoError(t, err)

	leads, err := s.ListLeads(ctx)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "Dakar", leads[0].Metadata["city"])
}

func TestLeadsMissingTable(t *testing.T) {
	gw := gateway.NewMemory(LeadsTable)
	s := NewLeads(gw)

	_, err := s.InsertPromo(context.Background(), &models.PromoLead{FullName: "x", Email: "y", BusinessName: "z"})
	assert.ErrorIs(t, err, gateway.ErrRelationMissing)
}

func TestLeadsUpdateStatus(t *testing.T) {
	ctx := context.Background()
	s := NewLeads(gateway.NewMemory(Tables...))

	id, err := s.InsertEcommerce(ctx, &models.EcommerceLead{Name: "Moussa", Email: "m@example.com"})
	require.NoError(t, err)

	require.NoError(t, s.UpdateStatus(ctx, LeadSourceEcommerce, id, models.LeadStatusContacted, time.Now()))

	leads, err := s.ListEcommerce(ctx)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, models.LeadStatusContacted, leads[0].Status)

	assert.ErrorIs(t, s.UpdateStatus(ctx, LeadSourcePromo, id, models.LeadStatusLost, time.Now()), gateway.ErrNotFound)
	assert.ErrorIs(t, s.UpdateStatus(ctx, LeadSource("crm"), id, models.LeadStatusLost, time.Now()), gateway.ErrNotFound)
}
