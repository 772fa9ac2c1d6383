// Package leads stores marketing funnel submissions: campaign enrollments,
// which fall back to the generic leads table when the campaign table cannot
// take the write, and e-commerce build requests.
package leads

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/activity"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/metrics"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/models"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/store"
	log "github.com/sirupsen/logrus"
)

// Errors returned by the service
var (
	ErrMissingFields = errors.New("required fields are missing")
	ErrNotStored     = errors.New("lead could not be stored")
)

// PromoSource tags fallback rows written for the campaign
const PromoSource = "ramadan_promo"

// WriteOutcome tells where a lead ended up
type WriteOutcome int

const (
	// Failed means neither table took the lead
	Failed WriteOutcome = iota
	// WrittenPrimary means the lead is in its own table
	WrittenPrimary
	// WrittenFallback means the lead is in the generic leads table
	WrittenFallback
)

func (o WriteOutcome) String() string {
	switch o {
	case WrittenPrimary:
		return "primary"
	case WrittenFallback:
		return "fallback"
	}
	return "failed"
}

// Enrollment is the result of a promo finalization
type Enrollment struct {
	LeadID  string
	Outcome WriteOutcome
	// Linked is true when the payment transaction now points at the lead
	Linked bool
}

// Service writes leads
type Service struct {
	leads        *store.Leads
	transactions *store.Transactions
	activity     *activity.Log
	now          func() time.Time
}

// NewService wires a lead service
func NewService(leads *store.Leads, transactions *store.Transactions, activityLog *activity.Log) *Service {
	return &Service{
		leads:        leads,
		transactions: transactions,
		activity:     activityLog,
		now:          time.Now,
	}
}

// FinalizePromo stores a campaign enrollment, links its payment and records the event
func (s *Service) FinalizePromo(ctx context.Context, req models.FinalizePromoRequest) (*Enrollment, error) {
	if blank(req.FullName) || blank(req.Email) || blank(req.BusinessName) {
		return nil, fmt.Errorf("%w: fullName, email and businessName", ErrMissingFields)
	}

	leadID, outcome, err := s.writePromo(ctx, req)
	metrics.LeadWritesTotal.WithLabelValues("promo", outcome.String()).Inc()
	if outcome == Failed {
		return nil, fmt.Errorf("%w: %w", ErrNotStored, err)
	}

	enrollment := &Enrollment{LeadID: leadID, Outcome: outcome}

	if req.TransactionID != "" {
		if err := s.transactions.LinkLead(ctx, req.TransactionID, leadID, s.now()); err != nil {
			log.WithFields(log.Fields{
				"lead_id":        leadID,
				"transaction_id": req.TransactionID,
				"error":          err.Error(),
			}).Warn("Could not link transaction to lead")
		} else {
			enrollment.Linked = true
		}
	}

	s.activity.Record(ctx, activity.Entry{
		Type:        models.ActivityPromoEnrollment,
		Description: fmt.Sprintf("Nouvelle inscription de %s (%s)", req.FullName, req.BusinessName),
		Metadata: map[string]any{
			"lead_id":        leadID,
			"table":          outcome.String(),
			"email":          req.Email,
			"transaction_id": req.TransactionID,
			"amount":         req.Amount,
		},
	})

	log.WithFields(log.Fields{
		"lead_id": leadID,
		"outcome": outcome.String(),
		"linked":  enrollment.Linked,
	}).Info("Promo enrollment finalized")

	return enrollment, nil
}

func (s *Service) writePromo(ctx context.Context, req models.FinalizePromoRequest) (string, WriteOutcome, error) {
	var txID *string
	if req.TransactionID != "" {
		txID = &req.TransactionID
	}
	paymentStatus := req.PaymentStatus
	if paymentStatus == "" {
		paymentStatus = string(models.TransactionStatusPending)
	}

	id, primaryErr := s.leads.InsertPromo(ctx, &models.PromoLead{
		FullName:      req.FullName,
		Email:         req.Email,
		Phone:         req.Phone,
		BusinessName:  req.BusinessName,
		BusinessType:  req.BusinessType,
		Country:       req.Country,
		City:          req.City,
		Goals:         req.Goals,
		TransactionID: txID,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: paymentStatus,
		Amount:        req.Amount,
		CreatedAt:     s.now(),
	})
	if primaryErr == nil {
		return id, WrittenPrimary, nil
	}

	log.WithFields(log.Fields{
		"table": store.PromoLeadsTable,
		"error": primaryErr.Error(),
	}).Warn("Promo lead insert failed, writing to fallback table")

	id, fallbackErr := s.leads.InsertLead(ctx, &models.Lead{
		Name:    req.FullName,
		Email:   req.Email,
		Phone:   req.Phone,
		Company: req.BusinessName,
		Source:  PromoSource,
		Metadata: map[string]any{
			"business_type":  req.BusinessType,
			"country":        req.Country,
			"city":           req.City,
			"goals":          req.Goals,
			"transaction_id": req.TransactionID,
			"payment_method": req.PaymentMethod,
			"payment_status": paymentStatus,
			"amount":         req.Amount,
		},
		CreatedAt: s.now(),
	})
	if fallbackErr != nil {
		log.WithFields(log.Fields{
			"table": store.LeadsTable,
			"error": fallbackErr.Error(),
		}).Error("Fallback lead insert failed")
		return "", Failed, errors.Join(primaryErr, fallbackErr)
	}
	return id, WrittenFallback, nil
}

// CreateEcommerceLead stores an e-commerce build request
func (s *Service) CreateEcommerceLead(ctx context.Context, data models.EcommerceLeadData) (string, error) {
	if blank(data.Name) || blank(data.Email) {
		return "", fmt.Errorf("%w: name and email", ErrMissingFields)
	}

	id, err := s.leads.InsertEcommerce(ctx, &models.EcommerceLead{
		Name:            data.Name,
		Email:           data.Email,
		Phone:           data.Phone,
		BusinessName:    data.BusinessName,
		ProductCategory: data.ProductCategory,
		Budget:          data.Budget,
		Message:         data.Message,
		CreatedAt:       s.now(),
	})
	if err != nil {
		metrics.LeadWritesTotal.WithLabelValues("ecommerce", Failed.String()).Inc()
		log.WithFields(log.Fields{
			"email": data.Email,
			"error": err.Error(),
		}).Error("Failed to store e-commerce lead")
		return "", fmt.Errorf("%w: %w", ErrNotStored, err)
	}
	metrics.LeadWritesTotal.WithLabelValues("ecommerce", WrittenPrimary.String()).Inc()

	s.activity.Record(ctx, activity.Entry{
		Type:        models.ActivityEcommerceLeadCreated,
		Description: fmt.Sprintf("Nouvelle demande e-commerce de %s", data.Name),
		Metadata: map[string]any{
			"lead_id":          id,
			"email":            data.Email,
			"business_name":    data.BusinessName,
			"product_category": data.ProductCategory,
		},
	})
	return id, nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
