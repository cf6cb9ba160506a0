package catalog

import (
	"net/http"

	"github.com/clinicbook/clinicbook-api/internal/http/respond"
	"github.com/clinicbook/clinicbook-api/pkg/logging"
)

// Handler serves the catalog listing.
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a catalog handler.
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// ListSpecialties handles GET /appointmentSpecialty.
func (h *Handler) ListSpecialties(w http.ResponseWriter, r *http.Request) {
	names, err := h.repo.ListNames(r.Context())
	if err != nil {
		h.logger.Error("failed to list services", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to list services")
		return
	}
	respond.JSON(w, http.StatusOK, names)
}
