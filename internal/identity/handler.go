package identity

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clinicbook/clinicbook-api/internal/http/respond"
	"github.com/clinicbook/clinicbook-api/pkg/logging"
)

// Handler serves the /users endpoints.
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a users handler.
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// ListUsers handles GET /users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list users", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	respond.JSON(w, http.StatusOK, users)
}

// IsAdmin handles GET /users/admin/{email}.
func (h *Handler) IsAdmin(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	user, err := h.repo.GetByEmail(r.Context(), email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		h.logger.Error("failed to load user", "error", err, "email", email)
		respond.Error(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]bool{"isAdmin": user.IsAdmin()})
}

// CreateUser handles POST /users. Known emails are acknowledged as no-ops.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, created, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, ErrInvalidEmail) {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to create user", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to create user")
		return
	}
	if !created {
		respond.JSON(w, http.StatusOK, respond.Rejected("user already exists"))
		return
	}

	h.logger.Info("user created", "user_id", user.ID, "email", user.Email)
	respond.JSON(w, http.StatusOK, respond.Inserted(user.ID))
}

// PromoteAdmin handles PUT /users/admin/{id}. Callers must already be
// verified as admins by the route guards.
func (h *Handler) PromoteAdmin(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	user, err := h.repo.PromoteToAdmin(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			respond.Error(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("failed to promote user", "error", err, "user_id", id)
		respond.Error(w, http.StatusInternalServerError, "failed to promote user")
		return
	}

	h.logger.Info("user promoted to admin", "user_id", user.ID, "email", user.Email)
	respond.JSON(w, http.StatusOK, respond.Result{Acknowledged: true, ModifiedCount: 1})
}
