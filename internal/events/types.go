package events

import "time"

// BookingConfirmedV1 is emitted after a booking row has been persisted.
type BookingConfirmedV1 struct {
	EventID         string    `json:"event_id"`
	BookingID       string    `json:"booking_id"`
	Email           string    `json:"email"`
	Patient         string    `json:"patient,omitempty"`
	ServiceName     string    `json:"service_name"`
	AppointmentDate string    `json:"appointment_date"`
	Slot            string    `json:"slot"`
	Price           float64   `json:"price"`
	ConfirmedAt     time.Time `json:"confirmed_at"`
}

// PaymentRecordedV1 is emitted after a payment has been applied to a booking.
type PaymentRecordedV1 struct {
	EventID         string    `json:"event_id"`
	PaymentID       string    `json:"payment_id"`
	BookingID       string    `json:"booking_id"`
	TransactionID   string    `json:"transaction_id"`
	AmountCents     int64     `json:"amount_cents"`
	Email           string    `json:"email"`
	ServiceName     string    `json:"service_name,omitempty"`
	AppointmentDate string    `json:"appointment_date,omitempty"`
	RecordedAt      time.Time `json:"recorded_at"`
}

func (BookingConfirmedV1) EventType() string { return "booking.confirmed.v1" }

func (PaymentRecordedV1) EventType() string { return "payment.recorded.v1" }
