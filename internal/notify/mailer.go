package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/clinicbook/clinicbook-api/internal/events"
	"github.com/clinicbook/clinicbook-api/pkg/logging"
)

// ErrNoRecipient is returned when an event carries no email address.
var ErrNoRecipient = errors.New("notify: recipient email required")

// Mailer turns booking and payment events into customer emails.
type Mailer struct {
	sender     EmailSender
	clinicName string
	currency   string
	logger     *logging.Logger
}

// NewMailer creates a mailer. clinicName signs every message.
func NewMailer(sender EmailSender, clinicName string, logger *logging.Logger) *Mailer {
	if sender == nil {
		panic("notify: email sender required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if strings.TrimSpace(clinicName) == "" {
		clinicName = defaultFromName
	}
	return &Mailer{sender: sender, clinicName: clinicName, currency: "usd", logger: logger}
}

// WithCurrency sets the ISO code receipts are printed in.
func (m *Mailer) WithCurrency(code string) *Mailer {
	if code = strings.ToLower(strings.TrimSpace(code)); code != "" {
		m.currency = code
	}
	return m
}

// NotifyBookingConfirmed emails the patient their appointment details.
func (m *Mailer) NotifyBookingConfirmed(ctx context.Context, evt events.BookingConfirmedV1) error {
	if strings.TrimSpace(evt.Email) == "" {
		return ErrNoRecipient
	}
	patient := evt.Patient
	if patient == "" {
		patient = "there"
	}
	data := map[string]string{
		"Patient":         patient,
		"ServiceName":     evt.ServiceName,
		"AppointmentDate": evt.AppointmentDate,
		"Slot":            evt.Slot,
		"ClinicName":      m.clinicName,
	}
	msg, err := m.compose("booking_confirmed", confirmationSubject, confirmationBody, data)
	if err != nil {
		return err
	}
	msg.To = evt.Email
	msg.ToName = evt.Patient
	msg.BookingID = evt.BookingID

	if err := m.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: booking confirmation: %w", err)
	}
	m.logger.Info("booking confirmation sent", "booking_id", evt.BookingID)
	return nil
}

// NotifyPaymentRecorded emails a receipt for a recorded payment.
func (m *Mailer) NotifyPaymentRecorded(ctx context.Context, evt events.PaymentRecordedV1) error {
	if strings.TrimSpace(evt.Email) == "" {
		return ErrNoRecipient
	}
	data := map[string]string{
		"Amount":          formatAmount(evt.AmountCents, m.currency),
		"ServiceName":     evt.ServiceName,
		"AppointmentDate": evt.AppointmentDate,
		"TransactionID":   evt.TransactionID,
		"ClinicName":      m.clinicName,
	}
	msg, err := m.compose("payment_receipt", receiptSubject, receiptBody, data)
	if err != nil {
		return err
	}
	msg.To = evt.Email
	msg.BookingID = evt.BookingID

	if err := m.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: payment receipt: %w", err)
	}
	m.logger.Info("payment receipt sent", "booking_id", evt.BookingID, "payment_id", evt.PaymentID)
	return nil
}

// formatAmount prints minor units as "$50.00" for usd and "50.00 EUR" otherwise.
func formatAmount(cents int64, currency string) string {
	major := fmt.Sprintf("%.2f", float64(cents)/100)
	if currency == "usd" {
		return "$" + major
	}
	return major + " " + strings.ToUpper(currency)
}

func (m *Mailer) compose(name, subjectTmpl, bodyTmpl string, data map[string]string) (EmailMessage, error) {
	subject, err := render(name+"_subject", subjectTmpl, data)
	if err != nil {
		return EmailMessage{}, err
	}
	body, err := render(name+"_body", bodyTmpl, data)
	if err != nil {
		return EmailMessage{}, err
	}
	return EmailMessage{Subject: subject, Body: body, Kind: name}, nil
}
