package payments

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clinicbook/clinicbook-api/internal/bookings"
)

// Store applies a payment to its booking. Record must append the payment and
// flip the booking to paid atomically, and fail with
// bookings.ErrBookingNotFound, writing nothing, for an unknown booking.
type Store interface {
	Record(ctx context.Context, rec PaymentRecord) (*Payment, *bookings.Booking, error)
	ListByBooking(ctx context.Context, bookingID string) ([]*Payment, error)
}

// BookingMarker flips a booking to paid. bookings.InMemoryRepository satisfies it.
type BookingMarker interface {
	MarkPaid(ctx context.Context, id, transactionID string) (*bookings.Booking, error)
}

// InMemoryStore keeps payments in process memory next to an in-memory ledger.
type InMemoryStore struct {
	mu       sync.Mutex
	bookings BookingMarker
	payments []*Payment
}

// NewInMemoryStore creates a store that marks bookings through marker.
func NewInMemoryStore(marker BookingMarker) *InMemoryStore {
	if marker == nil {
		panic("payments: booking marker required")
	}
	return &InMemoryStore{bookings: marker}
}

func (s *InMemoryStore) Record(ctx context.Context, rec PaymentRecord) (*Payment, *bookings.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	booking, err := s.bookings.MarkPaid(ctx, rec.BookingID, rec.TransactionID)
	if err != nil {
		return nil, nil, err
	}
	payment := &Payment{
		ID:            uuid.NewString(),
		BookingID:     rec.BookingID,
		TransactionID: rec.TransactionID,
		Amount:        rec.Amount,
		Email:         rec.Email,
		CreatedAt:     time.Now().UTC(),
	}
	s.payments = append(s.payments, payment)
	copied := *payment
	return &copied, booking, nil
}

func (s *InMemoryStore) ListByBooking(ctx context.Context, bookingID string) ([]*Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*Payment{}
	for _, p := range s.payments {
		if p.BookingID == bookingID {
			copied := *p
			out = append(out, &copied)
		}
	}
	return out, nil
}
