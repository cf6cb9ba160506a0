package doctors

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clinicbook/clinicbook-api/internal/http/respond"
	"github.com/clinicbook/clinicbook-api/pkg/logging"
)

// Handler serves the admin-only /doctors endpoints.
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a doctors handler.
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// ListDoctors handles GET /doctors.
func (h *Handler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	docs, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list doctors", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to list doctors")
		return
	}
	respond.JSON(w, http.StatusOK, docs)
}

// CreateDoctor handles POST /doctors.
func (h *Handler) CreateDoctor(w http.ResponseWriter, r *http.Request) {
	var req CreateDoctorRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, ErrNameRequired) || errors.Is(err, ErrSpecialtyRequired) {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to create doctor", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to create doctor")
		return
	}

	h.logger.Info("doctor created", "doctor_id", doc.ID, "specialty", doc.Specialty)
	respond.JSON(w, http.StatusOK, respond.Inserted(doc.ID))
}

// DeleteDoctor handles DELETE /doctors/{id}.
func (h *Handler) DeleteDoctor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			respond.Error(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("failed to delete doctor", "error", err, "doctor_id", id)
		respond.Error(w, http.StatusInternalServerError, "failed to delete doctor")
		return
	}

	h.logger.Info("doctor deleted", "doctor_id", id)
	respond.JSON(w, http.StatusOK, respond.Result{Acknowledged: true, DeletedCount: 1})
}
