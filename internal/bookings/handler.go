package bookings

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clinicbook/clinicbook-api/internal/http/respond"
	"github.com/clinicbook/clinicbook-api/pkg/logging"
)

// Handler serves the /bookings endpoints. Ownership of GET /bookings is
// enforced by route guards before ListBookings runs.
type Handler struct {
	ledger *Ledger
	logger *logging.Logger
}

// NewHandler creates a bookings handler.
func NewHandler(ledger *Ledger, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{ledger: ledger, logger: logger}
}

// ListBookings handles GET /bookings?email=E.
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	list, err := h.ledger.ListByEmail(r.Context(), email)
	if err != nil {
		h.logger.Error("failed to list bookings", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to list bookings")
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

// GetBooking handles GET /bookings/{id}.
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	booking, err := h.ledger.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			respond.Error(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("failed to load booking", "error", err, "booking_id", id)
		respond.Error(w, http.StatusInternalServerError, "failed to load booking")
		return
	}
	respond.JSON(w, http.StatusOK, booking)
}

// CreateBooking handles POST /bookings.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req NewBooking
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.ledger.Create(r.Context(), req)
	if err != nil {
		switch {
		case IsInvalid(err):
			respond.Error(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrLockBusy):
			respond.Error(w, http.StatusConflict, err.Error())
		default:
			h.logger.Error("failed to create booking", "error", err)
			respond.Error(w, http.StatusInternalServerError, "failed to create booking")
		}
		return
	}
	if !result.Created() {
		respond.JSON(w, http.StatusOK, respond.Rejected(result.Message))
		return
	}
	respond.JSON(w, http.StatusOK, respond.Inserted(result.Booking.ID))
}
