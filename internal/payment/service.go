// Package payment implements the checkout lifecycle: a pending transaction is
// recorded, the customer is sent to the provider's hosted page, and the
// browser reports completion on return.
package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/activity"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/catalog"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/gateway"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/metrics"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/models"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/store"
	log "github.com/sirupsen/logrus"
)

// Errors returned by the service
var (
	ErrMissingAmount        = errors.New("amount or formationId is required")
	ErrMissingCustomerData  = errors.New("customerData is required")
	ErrMissingTransactionID = errors.New("transactionId is required")
	ErrUnsupportedProvider  = errors.New("unsupported payment provider")
	ErrFormationNotFound    = errors.New("formation not found")
	ErrPersistence          = errors.New("transaction could not be recorded")
)

// Transaction types written by the service
const (
	TypeFormation = "formation"
	TypeRecovered = "recovered"
)

// Checkout is a payment handed off to the provider
type Checkout struct {
	TransactionID string
	PaymentLink   string
	Amount        int64
	// Recorded is false when the pending record could not be stored
	Recorded bool
}

// VerifyOutcome tells which path a verification took
type VerifyOutcome int

const (
	// Verified completed a pending record
	Verified VerifyOutcome = iota
	// AlreadyCompleted found the record completed and wrote nothing
	AlreadyCompleted
	// CreatedAndVerified stored a completed record for an unknown id
	CreatedAndVerified
	// Unrecorded could not store the record for an unknown id
	Unrecorded
)

func (o VerifyOutcome) String() string {
	switch o {
	case Verified:
		return "verified"
	case AlreadyCompleted:
		return "already_completed"
	case CreatedAndVerified:
		return "created_and_verified"
	case Unrecorded:
		return "unrecorded"
	}
	return "unknown"
}

// Options tunes the service
type Options struct {
	// StrictBookkeeping fails POST /api/transactions when the pending record
	// cannot be written instead of redirecting the customer anyway
	StrictBookkeeping bool
}

// Service runs checkout creation and verification
type Service struct {
	transactions *store.Transactions
	catalog      catalog.Source
	activity     *activity.Log
	provider     Provider
	locker       Locker
	opts         Options
	now          func() time.Time
	newID        func() string
}

// NewService wires a payment service
func NewService(transactions *store.Transactions, formations catalog.Source, activityLog *activity.Log, provider Provider, locker Locker, opts Options) *Service {
	if locker == nil {
		locker = NewKeyedMutex()
	}
	return &Service{
		transactions: transactions,
		catalog:      formations,
		activity:     activityLog,
		provider:     provider,
		locker:       locker,
		opts:         opts,
		now:          time.Now,
		newID:        func() string { return uuid.New().String() },
	}
}

// Create records a pending transaction and returns where to send the customer
func (s *Service) Create(ctx context.Context, req models.CreateTransactionRequest) (*Checkout, error) {
	if req.CustomerData == nil {
		return nil, ErrMissingCustomerData
	}
	if req.ProviderType != "" && req.ProviderType != s.provider.Name {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, req.ProviderType)
	}

	option := normalizeOption(req.PaymentOption)
	amount := req.Amount
	var formationID *string
	if req.FormationID != "" {
		formation, err := s.lookup(ctx, req.FormationID)
		if err != nil {
			return nil, err
		}
		amount = ComputeAmount(formation.Price, option)
		if amount <= 0 {
			return nil, fmt.Errorf("%w: %s has no price", ErrFormationNotFound, formation.ID)
		}
		formationID = &formation.ID
	}
	if amount <= 0 {
		return nil, ErrMissingAmount
	}

	tx := s.pending(amount, option, req.CustomerData, formationID, req.TransactionType)
	checkout := &Checkout{TransactionID: tx.ID, PaymentLink: s.provider.Link(amount), Amount: amount, Recorded: true}

	if _, err := s.transactions.Insert(ctx, tx); err != nil {
		metrics.TransactionsTotal.WithLabelValues("transactions", "unrecorded").Inc()
		log.WithFields(log.Fields{
			"transaction_id": tx.ID,
			"amount":         amount,
			"error":          err.Error(),
		}).Error("Failed to record pending transaction")

		if s.opts.StrictBookkeeping {
			return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
		}
		checkout.Recorded = false
		return checkout, nil
	}

	metrics.TransactionsTotal.WithLabelValues("transactions", "recorded").Inc()
	metrics.PaymentAmount.Observe(float64(amount))
	log.WithFields(log.Fields{
		"transaction_id": tx.ID,
		"amount":         amount,
		"payment_option": option,
	}).Info("Pending transaction recorded")

	return checkout, nil
}

// CreatePaymentLink prices a formation and records the pending transaction.
// Unlike Create, a failed write fails the call.
func (s *Service) CreatePaymentLink(ctx context.Context, req models.CreatePaymentLinkRequest) (*Checkout, error) {
	if req.FormData == nil {
		return nil, ErrMissingCustomerData
	}
	formation, err := s.lookup(ctx, req.FormationID)
	if err != nil {
		return nil, err
	}

	option := normalizeOption(req.PaymentOption)
	amount := ComputeAmount(formation.Price, option)
	if amount <= 0 {
		return nil, fmt.Errorf("%w: %s has no price", ErrFormationNotFound, formation.ID)
	}
	tx := s.pending(amount, option, req.FormData, &formation.ID, TypeFormation)

	if _, err := s.transactions.Insert(ctx, tx); err != nil {
		metrics.TransactionsTotal.WithLabelValues("payment_link", "failed").Inc()
		log.WithFields(log.Fields{
			"transaction_id": tx.ID,
			"formation_id":   formation.ID,
			"error":          err.Error(),
		}).Error("Failed to record payment link transaction")
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	metrics.TransactionsTotal.WithLabelValues("payment_link", "recorded").Inc()
	metrics.PaymentAmount.Observe(float64(amount))
	log.WithFields(log.Fields{
		"transaction_id": tx.ID,
		"formation_id":   formation.ID,
		"amount":         amount,
	}).Info("Payment link created")

	return &Checkout{TransactionID: tx.ID, PaymentLink: s.provider.Link(amount), Amount: amount, Recorded: true}, nil
}

// Verify marks the transaction completed. An id with no record is stored
// directly as completed with a zero amount so a customer who has paid is
// never turned away. Only a failed update of an existing record is an error.
func (s *Service) Verify(ctx context.Context, transactionID, providerTransactionID string) (VerifyOutcome, error) {
	if transactionID == "" {
		return 0, ErrMissingTransactionID
	}
	if providerTransactionID == "" {
		providerTransactionID = transactionID
	}

	unlock, err := s.locker.Lock(ctx, "verify:"+transactionID)
	if err != nil {
		// the conditional update still keeps completion single-shot
		log.WithFields(log.Fields{
			"transaction_id": transactionID,
			"error":          err.Error(),
		}).Warn("Verifying without lock")
	} else {
		defer unlock()
	}

	outcome, err := s.verify(ctx, transactionID, providerTransactionID)
	if err != nil {
		metrics.VerificationsTotal.WithLabelValues("error").Inc()
		return 0, err
	}
	metrics.VerificationsTotal.WithLabelValues(outcome.String()).Inc()
	return outcome, nil
}

func (s *Service) verify(ctx context.Context, transactionID, providerTransactionID string) (VerifyOutcome, error) {
	tx, err := s.transactions.FindByID(ctx, transactionID)
	if err == nil {
		if tx.Status == models.TransactionStatusCompleted {
			return AlreadyCompleted, nil
		}
		return s.complete(ctx, tx, providerTransactionID)
	}
	if !errors.Is(err, gateway.ErrNotFound) {
		log.WithFields(log.Fields{
			"transaction_id": transactionID,
			"error":          err.Error(),
		}).Warn("Transaction lookup failed, recording it as new")
	}

	now := s.now().UTC()
	recovered := &models.Transaction{
		ID:                    transactionID,
		Amount:                0,
		PaymentOption:         models.PaymentOptionFull,
		Status:                models.TransactionStatusCompleted,
		Provider:              s.provider.Name,
		ProviderTransactionID: &providerTransactionID,
		CustomerData:          map[string]any{},
		TransactionType:       TypeRecovered,
		CreatedAt:             now,
	}

	_, err = s.transactions.Insert(ctx, recovered)
	switch {
	case errors.Is(err, gateway.ErrConflict):
		// created by a concurrent request between our lookup and insert
		existing, findErr := s.transactions.FindByID(ctx, transactionID)
		if findErr != nil || existing.Status == models.TransactionStatusCompleted {
			return AlreadyCompleted, nil
		}
		return s.complete(ctx, existing, providerTransactionID)
	case err != nil:
		log.WithFields(log.Fields{
			"transaction_id": transactionID,
			"error":          err.Error(),
		}).Error("Failed to record verified transaction")
		s.activity.Record(ctx, activity.Entry{
			Type:        models.ActivityPaymentCreatedAndVerified,
			Description: fmt.Sprintf("Paiement %s confirmé sans enregistrement", transactionID),
			Metadata: map[string]any{
				"transaction_id":          transactionID,
				"provider_transaction_id": providerTransactionID,
				"recorded":                false,
			},
		})
		return Unrecorded, nil
	}

	log.WithField("transaction_id", transactionID).Warn("Unknown transaction recorded as completed with zero amount")
	s.activity.Record(ctx, activity.Entry{
		Type:        models.ActivityPaymentCreatedAndVerified,
		Description: fmt.Sprintf("Paiement %s créé et vérifié", transactionID),
		Metadata: map[string]any{
			"transaction_id":          transactionID,
			"provider_transaction_id": providerTransactionID,
			"amount":                  0,
			"recorded":                true,
		},
	})
	return CreatedAndVerified, nil
}

func (s *Service) complete(ctx context.Context, tx *models.Transaction, providerTransactionID string) (VerifyOutcome, error) {
	ok, err := s.transactions.Complete(ctx, tx.ID, providerTransactionID, s.now())
	if err != nil {
		log.WithFields(log.Fields{
			"transaction_id": tx.ID,
			"error":          err.Error(),
		}).Error("Failed to complete transaction")
		return 0, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if !ok {
		return AlreadyCompleted, nil
	}

	log.WithFields(log.Fields{
		"transaction_id":          tx.ID,
		"provider_transaction_id": providerTransactionID,
		"amount":                  tx.Amount,
	}).Info("Transaction verified")

	s.activity.Record(ctx, activity.Entry{
		Type:        models.ActivityPaymentVerified,
		Description: fmt.Sprintf("Paiement de %d FCFA vérifié", tx.Amount),
		Metadata: map[string]any{
			"transaction_id":          tx.ID,
			"provider_transaction_id": providerTransactionID,
			"amount":                  tx.Amount,
			"formation_id":            tx.FormationID,
		},
	})
	return Verified, nil
}

func (s *Service) lookup(ctx context.Context, formationID string) (*models.Formation, error) {
	formation, err := s.catalog.Lookup(ctx, formationID)
	if errors.Is(err, catalog.ErrUnknownFormation) {
		return nil, fmt.Errorf("%w: %s", ErrFormationNotFound, formationID)
	}
	if err != nil {
		return nil, fmt.Errorf("look up formation %s: %w", formationID, err)
	}
	return formation, nil
}

func (s *Service) pending(amount int64, option models.PaymentOption, customerData map[string]any, formationID *string, transactionType string) *models.Transaction {
	return &models.Transaction{
		ID:              s.newID(),
		Amount:          amount,
		PaymentOption:   option,
		Status:          models.TransactionStatusPending,
		Provider:        s.provider.Name,
		CustomerData:    customerData,
		FormationID:     formationID,
		TransactionType: transactionType,
		CreatedAt:       s.now().UTC(),
	}
}

func normalizeOption(option models.PaymentOption) models.PaymentOption {
	if option == models.PaymentOptionInstallments {
		return option
	}
	return models.PaymentOptionFull
}
