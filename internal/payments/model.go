package payments

import (
	"strings"
	"time"

	"github.com/clinicbook/clinicbook-api/internal/identity"
)

// PaymentRecord is the POST /payments body. Amount is in minor currency units.
type PaymentRecord struct {
	BookingID     string `json:"bookingId"`
	TransactionID string `json:"transactionId"`
	Amount        int64  `json:"amount"`
	Email         string `json:"email,omitempty"`
}

// Validate trims the record and checks required fields.
func (p *PaymentRecord) Validate() error {
	p.BookingID = strings.TrimSpace(p.BookingID)
	p.TransactionID = strings.TrimSpace(p.TransactionID)
	p.Email = identity.NormalizeEmail(p.Email)

	switch {
	case p.BookingID == "":
		return ErrBookingIDRequired
	case p.TransactionID == "":
		return ErrTransactionIDRequired
	case p.Amount < 0:
		return ErrInvalidAmount
	}
	return nil
}

// Payment is an append-only record of one confirmation. Confirming the same
// booking twice yields two payments.
type Payment struct {
	ID            string    `json:"id"`
	BookingID     string    `json:"bookingId"`
	TransactionID string    `json:"transactionId"`
	Amount        int64     `json:"amount"`
	Email         string    `json:"email,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// IntentParams describes a payment handle request. Price is in major units.
type IntentParams struct {
	Price     float64
	BookingID string
}

// Intent is the gateway's payment handle.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"clientSecret"`
	AmountCents  int64  `json:"amount"`
	Currency     string `json:"currency"`
}
