package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/models"
	qrcode "github.com/skip2/go-qrcode"
)

// QRSize is the edge of generated QR codes in pixels
const QRSize = 256

// ErrAlreadyPaid is returned when a QR code is requested for a completed transaction
var ErrAlreadyPaid = errors.New("transaction already completed")

// QRCode renders link as a PNG the customer scans with the provider's app
func QRCode(link string, size int) ([]byte, error) {
	if size <= 0 {
		size = QRSize
	}
	png, err := qrcode.Encode(link, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	return png, nil
}

// PaymentQR returns the QR code of a pending transaction's payment link, for
// customers who pay from a phone while browsing on a desktop
func (s *Service) PaymentQR(ctx context.Context, transactionID string, size int) ([]byte, error) {
	if transactionID == "" {
		return nil, ErrMissingTransactionID
	}
	tx, err := s.transactions.FindByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if tx.Status == models.TransactionStatusCompleted {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyPaid, transactionID)
	}
	return QRCode(s.provider.Link(tx.Amount), size)
}
