package bookings

import (
	"strings"
	"time"

	"github.com/clinicbook/clinicbook-api/internal/events"
	"github.com/clinicbook/clinicbook-api/internal/identity"
)

// NewBooking is the POST /bookings body. Price is ignored; the catalog
// price is authoritative.
type NewBooking struct {
	Email           string  `json:"email"`
	Patient         string  `json:"patient"`
	Phone           string  `json:"phone"`
	ServiceName     string  `json:"serviceName"`
	AppointmentDate string  `json:"appointmentDate"`
	Slot            string  `json:"slot"`
	Time            string  `json:"time,omitempty"`
	Price           float64 `json:"price,omitempty"`
}

// Validate normalizes the request and checks required fields. The date is an
// opaque key and is not parsed.
func (n *NewBooking) Validate() error {
	n.Email = identity.NormalizeEmail(n.Email)
	n.Patient = strings.TrimSpace(n.Patient)
	n.Phone = strings.TrimSpace(n.Phone)
	n.ServiceName = strings.TrimSpace(n.ServiceName)
	n.AppointmentDate = strings.TrimSpace(n.AppointmentDate)
	n.Slot = strings.TrimSpace(n.Slot)
	if n.Slot == "" {
		// older clients send the slot label as "time"
		n.Slot = strings.TrimSpace(n.Time)
	}
	n.Time = ""

	switch {
	case n.Email == "" || !strings.Contains(n.Email, "@"):
		return ErrEmailRequired
	case n.ServiceName == "":
		return ErrServiceRequired
	case n.AppointmentDate == "":
		return ErrDateRequired
	case n.Slot == "":
		return ErrSlotRequired
	}
	return nil
}

// Key returns the uniqueness key of the request.
func (n *NewBooking) Key() Key {
	return Key{ServiceName: n.ServiceName, AppointmentDate: n.AppointmentDate, Email: n.Email}
}

// Booking is a confirmed appointment. After creation only Paid and
// TransactionID change, and only through payment confirmation.
type Booking struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Patient         string    `json:"patient,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	ServiceName     string    `json:"serviceName"`
	AppointmentDate string    `json:"appointmentDate"`
	Slot            string    `json:"slot"`
	Price           float64   `json:"price"`
	Paid            bool      `json:"paid"`
	TransactionID   string    `json:"transactionId,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Key returns the booking's uniqueness key.
func (b *Booking) Key() Key {
	return Key{ServiceName: b.ServiceName, AppointmentDate: b.AppointmentDate, Email: b.Email}
}

// ConfirmedEvent builds the confirmation event. The event id is the booking
// id since a booking is confirmed exactly once.
func (b *Booking) ConfirmedEvent() events.BookingConfirmedV1 {
	return events.BookingConfirmedV1{
		EventID:         b.ID,
		BookingID:       b.ID,
		Email:           b.Email,
		Patient:         b.Patient,
		ServiceName:     b.ServiceName,
		AppointmentDate: b.AppointmentDate,
		Slot:            b.Slot,
		Price:           b.Price,
		ConfirmedAt:     b.CreatedAt,
	}
}

// Key identifies the one booking a customer may hold per service and date.
type Key struct {
	ServiceName     string
	AppointmentDate string
	Email           string
}

func (k Key) String() string {
	return k.ServiceName + "|" + k.AppointmentDate + "|" + k.Email
}

// Outcome classifies a create attempt.
type Outcome string

const (
	OutcomeCreated       Outcome = "created"
	OutcomeAlreadyBooked Outcome = "already_booked"
	OutcomeSlotTaken     Outcome = "slot_taken"
)

// CreateResult is returned by Ledger.Create. Rejections are results, not
// errors: Booking is nil and Message explains why.
type CreateResult struct {
	Outcome Outcome
	Booking *Booking
	Message string
}

// Created reports whether a booking was persisted.
func (r CreateResult) Created() bool {
	return r.Outcome == OutcomeCreated
}

func alreadyBooked(date string) CreateResult {
	return CreateResult{
		Outcome: OutcomeAlreadyBooked,
		Message: "You already have booked on this date " + date,
	}
}

func slotTaken(slot, date string) CreateResult {
	return CreateResult{
		Outcome: OutcomeSlotTaken,
		Message: "The " + slot + " slot is no longer available on " + date,
	}
}
