package models

import "time"

// Activity types written by the checkout and lead flows
const (
	ActivityPaymentVerified           = "payment_verified"
	ActivityPaymentCreatedAndVerified = "payment_created_and_verified"
	ActivityPromoEnrollment           = "ramadan_promo_enrollment"
	ActivityEcommerceLeadCreated      = "ecommerce_lead_created"
	ActivityJobApplication            = "job_application_received"
)

// ActivityEntry is one row of the append-only audit trail
type ActivityEntry struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata"`
	CreatedAt   time.Time      `json:"created_at"`
}
