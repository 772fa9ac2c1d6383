package payment

import (
	"fmt"
	"strconv"

	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/models"
)

// DefaultWaveMerchant is the merchant the site collects payments for
const DefaultWaveMerchant = "M_OfAgT8X_IT6P"

// Provider is a hosted checkout reached by redirect. The amount is the only
// parameter it receives.
type Provider struct {
	Name    string
	BaseURL string
}

// NewWaveProvider returns the checkout of the given Wave merchant
func NewWaveProvider(merchant string) Provider {
	if merchant == "" {
		merchant = DefaultWaveMerchant
	}
	return Provider{
		Name:    models.ProviderWave,
		BaseURL: fmt.Sprintf("https://pay.wave.com/m/%s/c/sn/", merchant),
	}
}

// Link builds the redirect URL for amount
func (p Provider) Link(amount int64) string {
	return p.BaseURL + "?amount=" + strconv.FormatInt(amount, 10)
}

// ComputeAmount returns the amount due now for price: half of it rounded up
// for installments, all of it otherwise
func ComputeAmount(price int64, option models.PaymentOption) int64 {
	if option == models.PaymentOptionInstallments {
		return (price + 1) / 2
	}
	return price
}

// Offer returns f with the amount due for each payment option
func Offer(f models.Formation) models.FormationOffer {
	return models.FormationOffer{
		Formation:         f,
		FullAmount:        ComputeAmount(f.Price, models.PaymentOptionFull),
		InstallmentAmount: ComputeAmount(f.Price, models.PaymentOptionInstallments),
	}
}
