package payments

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/clinicbook/clinicbook-api/internal/events"
	"github.com/clinicbook/clinicbook-api/internal/observability/metrics"
	"github.com/clinicbook/clinicbook-api/pkg/logging"
)

var paymentsTracer = otel.Tracer("clinicbook.internal.payments")

// ReceiptNotifier receives recorded payments. Failures are logged only.
type ReceiptNotifier interface {
	NotifyPaymentRecorded(ctx context.Context, evt events.PaymentRecordedV1) error
}

// Reconciler applies confirmed gateway payments to bookings.
type Reconciler struct {
	store         Store
	notifier      ReceiptNotifier
	notifyTimeout time.Duration
	metrics       *metrics.BookingMetrics
	logger        *logging.Logger
}

// NewReconciler constructs a reconciler.
func NewReconciler(store Store, logger *logging.Logger) *Reconciler {
	if store == nil {
		panic("payments: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Reconciler{store: store, notifyTimeout: 15 * time.Second, logger: logger}
}

// WithNotifier sets the receipt sink and its per-call timeout.
func (r *Reconciler) WithNotifier(n ReceiptNotifier, timeout time.Duration) *Reconciler {
	r.notifier = n
	if timeout > 0 {
		r.notifyTimeout = timeout
	}
	return r
}

// WithMetrics attaches payment counters.
func (r *Reconciler) WithMetrics(m *metrics.BookingMetrics) *Reconciler {
	r.metrics = m
	return r
}

// Confirm records the payment and marks its booking paid. A repeat
// confirmation appends another payment and overwrites the booking's
// transaction id. Unknown bookings fail with bookings.ErrBookingNotFound.
func (r *Reconciler) Confirm(ctx context.Context, rec PaymentRecord) (*Payment, error) {
	ctx, span := paymentsTracer.Start(ctx, "payments.confirm")
	defer span.End()

	if err := rec.Validate(); err != nil {
		r.metrics.ObservePayment("invalid")
		return nil, err
	}
	span.SetAttributes(
		attribute.String("clinic.booking_id", rec.BookingID),
		attribute.Int64("clinic.amount_cents", rec.Amount),
	)

	payment, booking, err := r.store.Record(ctx, rec)
	if err != nil {
		span.RecordError(err)
		r.metrics.ObservePayment("failed")
		return nil, err
	}

	r.metrics.ObservePayment("recorded")
	r.logger.Info("payment recorded",
		"payment_id", payment.ID,
		"booking_id", payment.BookingID,
		"transaction_id", payment.TransactionID,
		"amount_cents", payment.Amount,
	)

	if r.notifier != nil {
		evt := recordedEvent(payment, booking)
		detached := context.WithoutCancel(ctx)
		go func() {
			nctx, cancel := context.WithTimeout(detached, r.notifyTimeout)
			defer cancel()
			err := r.notifier.NotifyPaymentRecorded(nctx, evt)
			r.metrics.ObserveNotification("payment_receipt", err)
			if err != nil {
				r.logger.Warn("payment receipt notification failed", "error", err, "payment_id", evt.PaymentID)
			}
		}()
	}
	return payment, nil
}

// History lists every payment recorded against a booking.
func (r *Reconciler) History(ctx context.Context, bookingID string) ([]*Payment, error) {
	return r.store.ListByBooking(ctx, bookingID)
}
