package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/clinicbook/clinicbook-api/internal/catalog"
	"github.com/clinicbook/clinicbook-api/internal/events"
	"github.com/clinicbook/clinicbook-api/internal/observability/metrics"
	"github.com/clinicbook/clinicbook-api/pkg/logging"
)

var bookingsTracer = otel.Tracer("clinicbook.internal.bookings")

const defaultNotifyTimeout = 15 * time.Second

// ServiceLookup resolves catalog services by name.
type ServiceLookup interface {
	GetByName(ctx context.Context, name string) (*catalog.Service, error)
}

// Notifier receives confirmed bookings. Failures never affect the booking.
type Notifier interface {
	NotifyBookingConfirmed(ctx context.Context, evt events.BookingConfirmedV1) error
}

// Ledger is the authoritative record of confirmed appointments.
type Ledger struct {
	repo          Repository
	services      ServiceLookup
	locker        Locker
	notifier      Notifier
	notifyTimeout time.Duration
	metrics       *metrics.BookingMetrics
	logger        *logging.Logger
	now           func() time.Time
}

// NewLedger constructs a ledger with an in-process lock and no notifier.
func NewLedger(repo Repository, services ServiceLookup, logger *logging.Logger) *Ledger {
	if repo == nil {
		panic("bookings: repository required")
	}
	if services == nil {
		panic("bookings: service catalog required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Ledger{
		repo:          repo,
		services:      services,
		locker:        NewLocalLocker(),
		notifyTimeout: defaultNotifyTimeout,
		logger:        logger,
		now:           time.Now,
	}
}

// WithLocker swaps the create lock, typically for a RedisLocker.
func (l *Ledger) WithLocker(locker Locker) *Ledger {
	if locker != nil {
		l.locker = locker
	}
	return l
}

// WithNotifier sets the confirmation sink and its per-call timeout.
func (l *Ledger) WithNotifier(n Notifier, timeout time.Duration) *Ledger {
	l.notifier = n
	if timeout > 0 {
		l.notifyTimeout = timeout
	}
	return l
}

// WithMetrics attaches booking counters.
func (l *Ledger) WithMetrics(m *metrics.BookingMetrics) *Ledger {
	l.metrics = m
	return l
}

// Create books a slot. A second booking for the same service, date and email
// yields an AlreadyBooked result without inserting; a slot someone else holds
// yields SlotTaken. Both are results, not errors.
func (l *Ledger) Create(ctx context.Context, req NewBooking) (CreateResult, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.create")
	defer span.End()

	if err := req.Validate(); err != nil {
		l.metrics.ObserveBooking("invalid")
		return CreateResult{}, err
	}
	span.SetAttributes(
		attribute.String("clinic.service_name", req.ServiceName),
		attribute.String("clinic.appointment_date", req.AppointmentDate),
	)

	svc, err := l.services.GetByName(ctx, req.ServiceName)
	if err != nil {
		if errors.Is(err, catalog.ErrServiceNotFound) {
			l.metrics.ObserveBooking("invalid")
			return CreateResult{}, fmt.Errorf("%w: %s", ErrUnknownService, req.ServiceName)
		}
		span.RecordError(err)
		l.metrics.ObserveBooking("error")
		return CreateResult{}, fmt.Errorf("bookings: load service: %w", err)
	}
	if !svc.HasSlot(req.Slot) {
		l.metrics.ObserveBooking("invalid")
		return CreateResult{}, fmt.Errorf("%w: %s", ErrUnknownSlot, req.Slot)
	}

	key := req.Key()
	release, err := l.locker.Acquire(ctx, key.String())
	if err != nil {
		span.RecordError(err)
		l.metrics.ObserveBooking("error")
		return CreateResult{}, err
	}
	defer release()

	if _, err := l.repo.FindByKey(ctx, key); err == nil {
		l.metrics.ObserveBooking(string(OutcomeAlreadyBooked))
		return alreadyBooked(req.AppointmentDate), nil
	} else if !errors.Is(err, ErrBookingNotFound) {
		span.RecordError(err)
		l.metrics.ObserveBooking("error")
		return CreateResult{}, err
	}

	booking := &Booking{
		ID:              uuid.NewString(),
		Email:           req.Email,
		Patient:         req.Patient,
		Phone:           req.Phone,
		ServiceName:     svc.Name,
		AppointmentDate: req.AppointmentDate,
		Slot:            req.Slot,
		Price:           svc.Price,
		CreatedAt:       l.now().UTC(),
	}
	if err := l.repo.Insert(ctx, booking); err != nil {
		switch {
		case errors.Is(err, ErrAlreadyBooked):
			l.metrics.ObserveBooking(string(OutcomeAlreadyBooked))
			return alreadyBooked(req.AppointmentDate), nil
		case errors.Is(err, ErrSlotTaken):
			l.metrics.ObserveBooking(string(OutcomeSlotTaken))
			return slotTaken(req.Slot, req.AppointmentDate), nil
		}
		span.RecordError(err)
		l.metrics.ObserveBooking("error")
		return CreateResult{}, err
	}

	span.SetAttributes(attribute.String("clinic.booking_id", booking.ID))
	l.metrics.ObserveBooking(string(OutcomeCreated))
	l.logger.Info("booking created",
		"booking_id", booking.ID,
		"service_name", booking.ServiceName,
		"appointment_date", booking.AppointmentDate,
		"slot", booking.Slot,
	)
	l.notify(ctx, booking)

	return CreateResult{Outcome: OutcomeCreated, Booking: booking}, nil
}

// notify runs detached from the request so a slow or failing sink never
// delays or fails the booking.
func (l *Ledger) notify(ctx context.Context, b *Booking) {
	if l.notifier == nil {
		return
	}
	evt := b.ConfirmedEvent()
	detached := context.WithoutCancel(ctx)
	go func() {
		nctx, cancel := context.WithTimeout(detached, l.notifyTimeout)
		defer cancel()
		err := l.notifier.NotifyBookingConfirmed(nctx, evt)
		l.metrics.ObserveNotification("booking_confirmation", err)
		if err != nil {
			l.logger.Warn("booking confirmation notification failed", "error", err, "booking_id", evt.BookingID)
		}
	}()
}

// Get returns a booking by id or ErrBookingNotFound.
func (l *Ledger) Get(ctx context.Context, id string) (*Booking, error) {
	return l.repo.Get(ctx, id)
}

// ListByEmail returns a customer's bookings, oldest first.
func (l *Ledger) ListByEmail(ctx context.Context, email string) ([]*Booking, error) {
	return l.repo.ListByEmail(ctx, email)
}

// ListByDate returns every booking on the given date key.
func (l *Ledger) ListByDate(ctx context.Context, date string) ([]*Booking, error) {
	return l.repo.ListByDate(ctx, date)
}
