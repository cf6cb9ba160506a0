package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/clinicbook/clinicbook-api/internal/auth"
	"github.com/clinicbook/clinicbook-api/internal/availability"
	"github.com/clinicbook/clinicbook-api/internal/bookings"
	"github.com/clinicbook/clinicbook-api/internal/catalog"
	"github.com/clinicbook/clinicbook-api/internal/doctors"
	httpmiddleware "github.com/clinicbook/clinicbook-api/internal/http/middleware"
	"github.com/clinicbook/clinicbook-api/internal/http/respond"
	"github.com/clinicbook/clinicbook-api/internal/identity"
	"github.com/clinicbook/clinicbook-api/internal/observability/metrics"
	"github.com/clinicbook/clinicbook-api/internal/payments"
	"github.com/clinicbook/clinicbook-api/pkg/logging"
)

// Config holds router configuration. Handlers and the credential verifier are
// required; everything else is optional.
type Config struct {
	Logger *logging.Logger

	Catalog      *catalog.Handler
	Availability *availability.Handler
	Bookings     *bookings.Handler
	Payments     *payments.Handler
	Users        *identity.Handler
	Doctors      *doctors.Handler
	Credentials  *auth.Handler

	Verifier auth.Verifier
	Accounts auth.UserLookup

	HTTPMetrics        *metrics.HTTPMetrics
	MetricsHandler     http.Handler
	RateLimiter        httpmiddleware.Limiter
	CORSAllowedOrigins []string

	// Ready reports store reachability for /health. Nil means always ready.
	Ready func(ctx context.Context) error
}

// New creates the chi router with every route and guard configured.
func New(cfg *Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.RequestLogger(logger, cfg.HTTPMetrics))
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("clinic booking server is running"))
	})
	r.Get("/health", healthCheck(cfg.Ready))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	credential := auth.RequireCredential(cfg.Verifier)
	owner := auth.Protect(logger, credential, auth.RequireOwner("email"))
	admin := auth.Protect(logger, credential, auth.RequireAdmin(cfg.Accounts))

	r.Group(func(api chi.Router) {
		if cfg.RateLimiter != nil {
			api.Use(httpmiddleware.RateLimit(cfg.RateLimiter, logger))
		}

		api.Get("/appointmentSpecialty", cfg.Catalog.ListSpecialties)
		api.Get("/appointmentOptions", cfg.Availability.ListOptions)

		api.Route("/bookings", func(b chi.Router) {
			b.With(owner).Get("/", cfg.Bookings.ListBookings)
			b.Post("/", cfg.Bookings.CreateBooking)
			b.Get("/{id}", cfg.Bookings.GetBooking)
		})

		api.Post("/create-payment-intent", cfg.Payments.CreatePaymentIntent)
		api.Post("/payments", cfg.Payments.RecordPayment)
		api.With(admin).Get("/payments/{bookingId}", cfg.Payments.ListPayments)

		api.Get("/jwt", cfg.Credentials.IssueCredential)

		api.Route("/users", func(u chi.Router) {
			u.Get("/", cfg.Users.ListUsers)
			u.Post("/", cfg.Users.CreateUser)
			u.Get("/admin/{email}", cfg.Users.IsAdmin)
			u.With(admin).Put("/admin/{id}", cfg.Users.PromoteAdmin)
		})

		api.Route("/doctors", func(d chi.Router) {
			d.Use(admin)
			d.Get("/", cfg.Doctors.ListDoctors)
			d.Post("/", cfg.Doctors.CreateDoctor)
			d.Delete("/{id}", cfg.Doctors.DeleteDoctor)
		})
	})

	return r
}

func healthCheck(ready func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ready(ctx); err != nil {
				respond.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
