package auth

import (
	"errors"
	"net/http"

	"github.com/clinicbook/clinicbook-api/internal/http/respond"
	"github.com/clinicbook/clinicbook-api/pkg/logging"
)

// Handler serves GET /jwt.
type Handler struct {
	issuer *Issuer
	logger *logging.Logger
}

// NewHandler creates a credential handler.
func NewHandler(issuer *Issuer, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{issuer: issuer, logger: logger}
}

type tokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// IssueCredential handles GET /jwt?email=E.
func (h *Handler) IssueCredential(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	token, err := h.issuer.Issue(r.Context(), email)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnauthenticated):
			respond.Error(w, http.StatusUnauthorized, "unauthorized access")
		case errors.Is(err, ErrSigningDisabled):
			h.logger.Warn("credential requested but signing secret is not configured")
			respond.Error(w, http.StatusServiceUnavailable, err.Error())
		default:
			h.logger.Error("failed to issue credential", "error", err)
			respond.Error(w, http.StatusInternalServerError, "failed to issue credential")
		}
		return
	}
	respond.JSON(w, http.StatusOK, tokenResponse{AccessToken: token})
}
