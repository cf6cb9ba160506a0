package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/clinicbook/clinicbook-api/internal/http/respond"
	"github.com/clinicbook/clinicbook-api/internal/identity"
	"github.com/clinicbook/clinicbook-api/pkg/logging"
)

type contextKey string

const emailKey contextKey = "verifiedEmail"

// Guard inspects a request before the handler runs. It returns the request
// (possibly carrying new context values) or an error that rejects it.
type Guard func(r *http.Request) (*http.Request, error)

// Protect composes guards into chi-compatible middleware. Guards run in
// order and the first failure short-circuits the chain.
func Protect(logger *logging.Logger, guards ...Guard) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, guard := range guards {
				guarded, err := guard(r)
				if err != nil {
					status := StatusFor(err)
					if status == http.StatusInternalServerError {
						logger.Error("request guard failed", "error", err, "path", r.URL.Path)
						respond.Error(w, status, "internal error")
						return
					}
					logger.Debug("request rejected", "reason", err.Error(), "path", r.URL.Path)
					respond.Error(w, status, messageFor(status))
					return
				}
				r = guarded
			}
			next.ServeHTTP(w, r)
		})
	}
}

// StatusFor maps guard errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrInvalidCredential), errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(status int) string {
	if status == http.StatusUnauthorized {
		return "unauthorized access"
	}
	return "forbidden access"
}

// RequireCredential verifies the bearer credential and stores the email in
// the request context.
func RequireCredential(v Verifier) Guard {
	return func(r *http.Request) (*http.Request, error) {
		header := r.Header.Get("Authorization")
		if header == "" {
			return nil, ErrUnauthenticated
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return nil, ErrUnauthenticated
		}
		email, err := v.Verify(strings.TrimSpace(token))
		if err != nil {
			return nil, err
		}
		return r.WithContext(WithEmail(r.Context(), email)), nil
	}
}

// RequireAdmin checks the verified caller's role against the role store.
// The role is read on every call so promotions apply immediately.
func RequireAdmin(users UserLookup) Guard {
	return func(r *http.Request) (*http.Request, error) {
		email, ok := EmailFromContext(r.Context())
		if !ok {
			return nil, ErrUnauthenticated
		}
		user, err := users.GetByEmail(r.Context(), email)
		if err != nil {
			if errors.Is(err, identity.ErrUserNotFound) {
				return nil, ErrForbidden
			}
			return nil, fmt.Errorf("auth: load role: %w", err)
		}
		if !user.IsAdmin() {
			return nil, ErrForbidden
		}
		return r, nil
	}
}

// RequireOwner rejects requests whose query parameter names a different
// email than the verified one.
func RequireOwner(param string) Guard {
	return func(r *http.Request) (*http.Request, error) {
		email, ok := EmailFromContext(r.Context())
		if !ok {
			return nil, ErrUnauthenticated
		}
		requested := identity.NormalizeEmail(r.URL.Query().Get(param))
		if requested != email {
			return nil, ErrForbidden
		}
		return r, nil
	}
}

// WithEmail stores a verified email on the context.
func WithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, emailKey, email)
}

// EmailFromContext returns the verified email, if any.
func EmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(emailKey).(string)
	return email, ok && email != ""
}
