package models

import "time"

// LeadStatus tracks a lead through the sales funnel
type LeadStatus string

// LeadStatus constants
const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusConverted LeadStatus = "converted"
	LeadStatusLost      LeadStatus = "lost"
)

// Valid reports whether s is a known lead status
func (s LeadStatus) Valid() bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusConverted, LeadStatusLost:
		return true
	}
	return false
}

// PromoLead is a promotional campaign enrollment (table promo_leads)
type PromoLead struct {
	ID            string     `json:"id"`
	FullName      string     `json:"full_name"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone"`
	BusinessName  string     `json:"business_name"`
	BusinessType  string     `json:"business_type"`
	Country       string     `json:"country"`
	City          string     `json:"city"`
	Goals         string     `json:"goals"`
	TransactionID *string    `json:"transaction_id"`
	PaymentMethod string     `json:"payment_method"`
	PaymentStatus string     `json:"payment_status"`
	Amount        int64      `json:"amount"`
	Status        LeadStatus `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Lead is the generic lead row (table leads). Funnel specific fields live in Metadata.
type Lead struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Email     string         `json:"email"`
	Phone     string         `json:"phone"`
	Company   string         `json:"company"`
	Source    string         `json:"source"`
	Status    LeadStatus     `json:"status"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// EcommerceLead is a request for an e-commerce build (table ecommerce_leads)
type EcommerceLead struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	BusinessName    string     `json:"business_name"`
	ProductCategory string     `json:"product_category"`
	Budget          string     `json:"budget"`
	Message         string     `json:"message"`
	Status          LeadStatus `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// FinalizePromoRequest is the body of POST /api/ramadan-promo/finalize
type FinalizePromoRequest struct {
	FullName      string `json:"fullName" binding:"required"`
	Email         string `json:"email" binding:"required"`
	Phone         string `json:"phone"`
	BusinessName  string `json:"businessName" binding:"required"`
	BusinessType  string `json:"businessType"`
	Country       string `json:"country"`
	City          string `json:"city"`
	Goals         string `json:"goals"`
	TransactionID string `json:"transactionId"`
	PaymentMethod string `json:"paymentMethod"`
	PaymentStatus string `json:"paymentStatus"`
	Amount        int64  `json:"amount"`
}

// FinalizePromoResponse is returned once an enrollment is stored
type FinalizePromoResponse struct {
	Success bool   `json:"success"`
	LeadID  string `json:"leadId"`
	Message string `json:"message"`
}

// EcommerceLeadData is the leadData object of POST /api/ecommerce/create-lead
type EcommerceLeadData struct {
	Name            string `json:"name" binding:"required"`
	Email           string `json:"email" binding:"required"`
	Phone           string `json:"phone"`
	BusinessName    string `json:"businessName"`
	ProductCategory string `json:"productCategory"`
	Budget          string `json:"budget"`
	Message         string `json:"message"`
}

// CreateEcommerceLeadRequest wraps the submitted lead
type CreateEcommerceLeadRequest struct {
	LeadData *EcommerceLeadData `json:"leadData" binding:"required"`
}

// CreatedLead is the data object returned after an e-commerce lead is stored
type CreatedLead struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// CreateEcommerceLeadResponse is returned by POST /api/ecommerce/create-lead
type CreateEcommerceLeadResponse struct {
	Success bool        `json:"success"`
	Data    CreatedLead `json:"data"`
}

// UpdateStatusRequest changes the status of a lead or application
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
