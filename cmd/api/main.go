package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clinicbook/clinicbook-api/cmd/mainconfig"
	"github.com/clinicbook/clinicbook-api/internal/api/router"
	"github.com/clinicbook/clinicbook-api/internal/app/bootstrap"
	"github.com/clinicbook/clinicbook-api/internal/auth"
	"github.com/clinicbook/clinicbook-api/internal/availability"
	"github.com/clinicbook/clinicbook-api/internal/bookings"
	"github.com/clinicbook/clinicbook-api/internal/catalog"
	appconfig "github.com/clinicbook/clinicbook-api/internal/config"
	"github.com/clinicbook/clinicbook-api/internal/doctors"
	"github.com/clinicbook/clinicbook-api/internal/identity"
	"github.com/clinicbook/clinicbook-api/internal/notify"
	"github.com/clinicbook/clinicbook-api/internal/observability/metrics"
	"github.com/clinicbook/clinicbook-api/internal/payments"
	"github.com/clinicbook/clinicbook-api/pkg/logging"
)

func main() {
	cfg := appconfig.Load()

	logger := logging.NewWithOptions(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logger.Info("starting clinic booking API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	pool, err := bootstrap.BuildPool(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	if pool == nil {
		logger.Warn("DATABASE_URL not set; using in-memory stores")
	} else {
		defer pool.Close()
	}

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	stores := bootstrap.BuildStores(pool)
	metricsHandler, bookingMetrics, httpMetrics := setupMetrics(cfg.MetricsEnabled)

	sender := bootstrap.BuildEmailSender(ctx, cfg, logger, mainconfig.LoadAWSConfig)
	mailer := notify.NewMailer(sender, cfg.ClinicName, logger).WithCurrency(cfg.PaymentCurrency)

	ledger := bookings.NewLedger(stores.Bookings, stores.Services, logger).
		WithLocker(bootstrap.BuildLocker(cfg, redisClient, logger)).
		WithNotifier(mailer, cfg.NotifyTimeout).
		WithMetrics(bookingMetrics)
	reconciler := payments.NewReconciler(stores.Payments, logger).
		WithNotifier(mailer, cfg.NotifyTimeout).
		WithMetrics(bookingMetrics)
	intents := payments.NewStripeIntentClient(cfg.StripeSecretKey, cfg.PaymentCurrency, logger).
		WithBaseURL(cfg.StripeBaseURL).
		WithDryRun(cfg.StripeDryRun).
		WithMetrics(bookingMetrics)
	if cfg.StripeSecretKey == "" && !cfg.StripeDryRun {
		logger.Warn("STRIPE_SECRET_KEY not set; payment intents will be rejected")
	}

	if cfg.AccessTokenSecret == "" {
		logger.Warn("ACCESS_TOKEN_SECRET not set; credential issuance disabled")
	}
	issuer := auth.NewIssuer(cfg.AccessTokenSecret, cfg.CredentialTTL, stores.Users)
	resolver := availability.NewResolver(stores.Services, ledger, bookingMetrics)

	r := router.New(&router.Config{
		Logger:             logger,
		Catalog:            catalog.NewHandler(stores.Services, logger),
		Availability:       availability.NewHandler(resolver, logger),
		Bookings:           bookings.NewHandler(ledger, logger),
		Payments:           payments.NewHandler(intents, reconciler, ledger, logger),
		Users:              identity.NewHandler(stores.Users, logger),
		Doctors:            doctors.NewHandler(stores.Doctors, logger),
		Credentials:        auth.NewHandler(issuer, logger),
		Verifier:           issuer,
		Accounts:           stores.Users,
		HTTPMetrics:        httpMetrics,
		MetricsHandler:     metricsHandler,
		RateLimiter:        bootstrap.BuildRateLimiter(cfg, redisClient, logger),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Ready: func(ctx context.Context) error {
			if pool != nil {
				return pool.Ping(ctx)
			}
			return nil
		},
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		return
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// setupMetrics registers collectors on a private registry. When disabled the
// metric types are nil and every Observe call is a no-op.
func setupMetrics(enabled bool) (http.Handler, *metrics.BookingMetrics, *metrics.HTTPMetrics) {
	if !enabled {
		return nil, nil, nil
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	handler := promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	return handler, metrics.NewBookingMetrics(reg), metrics.NewHTTPMetrics(reg)
}
