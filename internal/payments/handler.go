package payments

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clinicbook/clinicbook-api/internal/bookings"
	"github.com/clinicbook/clinicbook-api/internal/http/respond"
	"github.com/clinicbook/clinicbook-api/pkg/logging"
)

// BookingLookup loads bookings so intents can be priced from the ledger.
type BookingLookup interface {
	Get(ctx context.Context, id string) (*bookings.Booking, error)
}

// Handler serves /create-payment-intent and /payments.
type Handler struct {
	intents    IntentCreator
	reconciler *Reconciler
	bookings   BookingLookup
	logger     *logging.Logger
}

// NewHandler creates a payments handler.
func NewHandler(intents IntentCreator, reconciler *Reconciler, lookup BookingLookup, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{intents: intents, reconciler: reconciler, bookings: lookup, logger: logger}
}

type intentRequest struct {
	Price     float64 `json:"price"`
	BookingID string  `json:"bookingId,omitempty"`
}

type intentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

// CreatePaymentIntent handles POST /create-payment-intent. When bookingId is
// present the booking's stored price is charged instead of the body price.
func (h *Handler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req intentRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	params := IntentParams{Price: req.Price, BookingID: req.BookingID}
	if req.BookingID != "" && h.bookings != nil {
		booking, err := h.bookings.Get(r.Context(), req.BookingID)
		if err != nil {
			if errors.Is(err, bookings.ErrBookingNotFound) {
				respond.Error(w, http.StatusNotFound, err.Error())
				return
			}
			h.logger.Error("failed to load booking for intent", "error", err, "booking_id", req.BookingID)
			respond.Error(w, http.StatusInternalServerError, "failed to load booking")
			return
		}
		params.Price = booking.Price
	}

	intent, err := h.intents.CreateIntent(r.Context(), params)
	if err != nil {
		switch {
		case IsInvalid(err):
			respond.Error(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrGatewayNotConfigured):
			respond.Error(w, http.StatusServiceUnavailable, "payment gateway not configured")
		default:
			h.logger.Error("failed to create payment intent", "error", err)
			respond.Error(w, http.StatusBadGateway, "payment gateway unavailable")
		}
		return
	}
	respond.JSON(w, http.StatusOK, intentResponse{ClientSecret: intent.ClientSecret})
}

// RecordPayment handles POST /payments.
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var rec PaymentRecord
	if err := respond.Decode(r, &rec); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	payment, err := h.reconciler.Confirm(r.Context(), rec)
	if err != nil {
		switch {
		case IsInvalid(err):
			respond.Error(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, bookings.ErrBookingNotFound):
			respond.Error(w, http.StatusNotFound, err.Error())
		default:
			h.logger.Error("failed to record payment", "error", err, "booking_id", rec.BookingID)
			respond.Error(w, http.StatusInternalServerError, "failed to record payment")
		}
		return
	}
	respond.JSON(w, http.StatusOK, respond.Inserted(payment.ID))
}

// ListPayments handles GET /payments/{bookingId}, oldest first.
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	list, err := h.reconciler.History(r.Context(), bookingID)
	if err != nil {
		h.logger.Error("failed to list payments", "error", err, "booking_id", bookingID)
		respond.Error(w, http.StatusInternalServerError, "failed to list payments")
		return
	}
	respond.JSON(w, http.StatusOK, list)
}
