package models

import "time"

// TransactionStatus is the lifecycle state of a payment attempt
type TransactionStatus string

// TransactionStatus constants
const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
)

// PaymentOption selects how much of a price is collected up front
type PaymentOption string

// PaymentOption constants
const (
	PaymentOptionFull         PaymentOption = "full"
	PaymentOptionInstallments PaymentOption = "installments"
)

// ProviderWave is the only payment rail supported
const ProviderWave = "wave"

// Transaction represents one payment attempt
type Transaction struct {
	ID                    string            `json:"id"`
	Amount                int64             `json:"amount"`
	PaymentOption         PaymentOption     `json:"payment_option"`
	Status                TransactionStatus `json:"status"`
	Provider              string            `json:"provider"`
	ProviderTransactionID *string           `json:"provider_transaction_id"`
	CustomerData          map[string]any    `json:"customer_data"`
	FormationID           *string           `json:"formation_id"`
	TransactionType       string            `json:"transaction_type"`
	LeadID                *string           `json:"lead_id"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
}

// CreateTransactionRequest is the body of POST /api/transactions
type CreateTransactionRequest struct {
	Amount          int64          `json:"amount"`
	FormationID     string         `json:"formationId"`
	PaymentOption   PaymentOption  `json:"paymentOption"`
	ProviderType    string         `json:"providerType"`
	CustomerData    map[string]any `json:"customerData" binding:"required"`
	TransactionType string         `json:"transactionType"`
}

// CreateTransactionResponse is returned when a payment has been initiated
type CreateTransactionResponse struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transactionId"`
	PaymentLink   string `json:"paymentLink"`
}

// VerifyTransactionRequest is the body of POST /api/transactions/verify
type VerifyTransactionRequest struct {
	TransactionID         string `json:"transactionId" binding:"required"`
	ProviderTransactionID string `json:"providerTransactionId"`
}

// CreatePaymentLinkRequest is the body of POST /api/create-payment-link
type CreatePaymentLinkRequest struct {
	FormationID   string         `json:"formationId" binding:"required"`
	PaymentOption PaymentOption  `json:"paymentOption"`
	FormData      map[string]any `json:"formData" binding:"required"`
}

// CreatePaymentLinkResponse is returned by POST /api/create-payment-link
type CreatePaymentLinkResponse struct {
	Success       bool   `json:"success"`
	PaymentLink   string `json:"paymentLink"`
	TransactionID string `json:"transactionId"`
}
