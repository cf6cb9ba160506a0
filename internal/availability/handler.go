package availability

import (
	"net/http"

	"github.com/clinicbook/clinicbook-api/internal/http/respond"
	"github.com/clinicbook/clinicbook-api/pkg/logging"
)

// Handler serves GET /appointmentOptions.
type Handler struct {
	resolver *Resolver
	logger   *logging.Logger
}

// NewHandler creates an availability handler.
func NewHandler(resolver *Resolver, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{resolver: resolver, logger: logger}
}

// ListOptions handles GET /appointmentOptions?date=D.
func (h *Handler) ListOptions(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	options, err := h.resolver.Resolve(r.Context(), date)
	if err != nil {
		h.logger.Error("failed to resolve availability", "error", err, "date", date)
		respond.Error(w, http.StatusInternalServerError, "failed to load appointment options")
		return
	}
	respond.JSON(w, http.StatusOK, options)
}
