package bookings

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clinicbook/clinicbook-api/internal/events"
	"github.com/clinicbook/clinicbook-api/internal/identity"
)

const (
	uniqueViolation = "23505"

	emailConstraint = "bookings_service_date_email_key"
	slotConstraint  = "bookings_service_date_slot_key"
)

// DB is the subset of pgxpool.Pool used by the repository.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores bookings in the bookings table. Uniqueness is
// enforced by the two unique indexes created in 0001_init.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(db DB) *PostgresRepository {
	if db == nil {
		panic("bookings: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

const bookingColumns = `id, email, patient, phone, service_name, appointment_date, slot,
	price, paid, COALESCE(transaction_id, ''), created_at`

// Insert writes the booking and its confirmation journal entry in one
// transaction.
func (r *PostgresRepository) Insert(ctx context.Context, b *Booking) error {
	id, err := uuid.Parse(b.ID)
	if err != nil {
		return fmt.Errorf("bookings: invalid booking id %q: %w", b.ID, err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("bookings: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO bookings (id, email, patient, phone, service_name, appointment_date, slot, price, paid, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, false, $9)
	`, id, b.Email, b.Patient, b.Phone, b.ServiceName, b.AppointmentDate, b.Slot, b.Price, b.CreatedAt)
	if err != nil {
		return mapInsertError(err)
	}

	if _, err := events.Append(ctx, tx, "booking:"+b.ID, b.ConfirmedEvent(),
		events.WithEventID(id), events.WithRecordedAt(b.CreatedAt)); err != nil {
		return fmt.Errorf("bookings: journal: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("bookings: commit: %w", err)
	}
	return nil
}

func mapInsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if pgErr.ConstraintName == slotConstraint {
			return ErrSlotTaken
		}
		return ErrAlreadyBooked
	}
	return fmt.Errorf("bookings: insert: %w", err)
}

func (r *PostgresRepository) FindByKey(ctx context.Context, key Key) (*Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE appointment_date = $1 AND service_name = $2 AND email = $3
		LIMIT 1`
	b, err := scanBooking(r.db.QueryRow(ctx, query, key.AppointmentDate, key.ServiceName, key.Email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("bookings: find by key: %w", err)
	}
	return b, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*Booking, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrBookingNotFound
	}
	b, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, parsed))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("bookings: get: %w", err)
	}
	return b, nil
}

func (r *PostgresRepository) ListByEmail(ctx context.Context, email string) ([]*Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+`
		FROM bookings
		WHERE email = $1
		ORDER BY created_at, id`, identity.NormalizeEmail(email))
}

func (r *PostgresRepository) ListByDate(ctx context.Context, date string) ([]*Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+`
		FROM bookings
		WHERE appointment_date = $1
		ORDER BY created_at, id`, date)
}

func (r *PostgresRepository) list(ctx context.Context, query string, arg any) ([]*Booking, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("bookings: list: %w", err)
	}
	defer rows.Close()

	out := []*Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("bookings: scan: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookings: iterate: %w", err)
	}
	return out, nil
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var (
		id uuid.UUID
		b  Booking
	)
	err := row.Scan(&id, &b.Email, &b.Patient, &b.Phone, &b.ServiceName, &b.AppointmentDate,
		&b.Slot, &b.Price, &b.Paid, &b.TransactionID, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	b.ID = id.String()
	return &b, nil
}
