package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clinicbook/clinicbook-api/internal/bookings"
	"github.com/clinicbook/clinicbook-api/internal/events"
)

// DB is the subset of pgxpool.Pool used by the store.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresStore writes payments, booking updates and the journal entry in a
// single transaction.
type PostgresStore struct {
	db  DB
	now func() time.Time
}

// NewPostgresStore initializes a store backed by pgxpool.
func NewPostgresStore(db DB) *PostgresStore {
	if db == nil {
		panic("payments: pgx pool required")
	}
	return &PostgresStore{db: db, now: time.Now}
}

func (s *PostgresStore) Record(ctx context.Context, rec PaymentRecord) (*Payment, *bookings.Booking, error) {
	bookingID, err := uuid.Parse(rec.BookingID)
	if err != nil {
		return nil, nil, bookings.ErrBookingNotFound
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("payments: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		booking bookings.Booking
		scanned uuid.UUID
	)
	err = tx.QueryRow(ctx, `
		UPDATE bookings
		SET paid = true, transaction_id = $2
		WHERE id = $1
		RETURNING id, email, service_name, appointment_date, slot, price, paid, transaction_id
	`, bookingID, rec.TransactionID).Scan(
		&scanned, &booking.Email, &booking.ServiceName, &booking.AppointmentDate,
		&booking.Slot, &booking.Price, &booking.Paid, &booking.TransactionID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, bookings.ErrBookingNotFound
		}
		return nil, nil, fmt.Errorf("payments: mark booking paid: %w", err)
	}
	booking.ID = scanned.String()

	payment := &Payment{
		ID:            uuid.NewString(),
		BookingID:     booking.ID,
		TransactionID: rec.TransactionID,
		Amount:        rec.Amount,
		Email:         rec.Email,
		CreatedAt:     s.now().UTC(),
	}
	paymentID := uuid.MustParse(payment.ID)
	if _, err := tx.Exec(ctx, `
		INSERT INTO payments (id, booking_id, transaction_id, amount, email, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, paymentID, bookingID, payment.TransactionID, payment.Amount, payment.Email, payment.CreatedAt); err != nil {
		return nil, nil, fmt.Errorf("payments: insert payment: %w", err)
	}

	if _, err := events.Append(ctx, tx, "booking:"+booking.ID, recordedEvent(payment, &booking),
		events.WithEventID(paymentID), events.WithRecordedAt(payment.CreatedAt)); err != nil {
		return nil, nil, fmt.Errorf("payments: journal: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("payments: commit: %w", err)
	}
	return payment, &booking, nil
}

func (s *PostgresStore) ListByBooking(ctx context.Context, bookingID string) ([]*Payment, error) {
	parsed, err := uuid.Parse(bookingID)
	if err != nil {
		return []*Payment{}, nil
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, booking_id, transaction_id, amount, email, created_at
		FROM payments
		WHERE booking_id = $1
		ORDER BY created_at
	`, parsed)
	if err != nil {
		return nil, fmt.Errorf("payments: list: %w", err)
	}
	defer rows.Close()

	out := []*Payment{}
	for rows.Next() {
		var (
			id, bid uuid.UUID
			p       Payment
		)
		if err := rows.Scan(&id, &bid, &p.TransactionID, &p.Amount, &p.Email, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("payments: scan: %w", err)
		}
		p.ID = id.String()
		p.BookingID = bid.String()
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("payments: iterate: %w", err)
	}
	return out, nil
}

func recordedEvent(p *Payment, b *bookings.Booking) events.PaymentRecordedV1 {
	email := p.Email
	if email == "" {
		email = b.Email
	}
	return events.PaymentRecordedV1{
		EventID:         p.ID,
		PaymentID:       p.ID,
		BookingID:       p.BookingID,
		TransactionID:   p.TransactionID,
		AmountCents:     p.Amount,
		Email:           email,
		ServiceName:     b.ServiceName,
		AppointmentDate: b.AppointmentDate,
		RecordedAt:      p.CreatedAt,
	}
}
