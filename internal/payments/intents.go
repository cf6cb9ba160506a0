package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/clinicbook/clinicbook-api/internal/observability/metrics"
	"github.com/clinicbook/clinicbook-api/pkg/logging"
)

var stripeTracer = otel.Tracer("clinicbook.internal.payments.stripe")

// IntentCreator requests payment handles from the gateway.
type IntentCreator interface {
	CreateIntent(ctx context.Context, params IntentParams) (*Intent, error)
}

// StripeIntentClient creates Stripe PaymentIntents. Card data never reaches
// this server; the client completes the charge with the returned secret.
type StripeIntentClient struct {
	secretKey  string
	baseURL    string
	apiVersion string
	currency   string
	httpClient *http.Client
	metrics    *metrics.BookingMetrics
	logger     *logging.Logger
	dryRun     bool
}

// NewStripeIntentClient creates a client for the given secret key and currency.
func NewStripeIntentClient(secretKey, currency string, logger *logging.Logger) *StripeIntentClient {
	if logger == nil {
		logger = logging.Default()
	}
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		currency = "usd"
	}
	return &StripeIntentClient{
		secretKey:  secretKey,
		baseURL:    "https://api.stripe.com",
		apiVersion: "2024-12-18.acacia",
		currency:   currency,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// WithBaseURL overrides the Stripe API base URL (for testing).
func (c *StripeIntentClient) WithBaseURL(baseURL string) *StripeIntentClient {
	if baseURL != "" {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
	return c
}

// WithDryRun returns fake client secrets without calling Stripe.
func (c *StripeIntentClient) WithDryRun(enabled bool) *StripeIntentClient {
	c.dryRun = enabled
	return c
}

// WithMetrics attaches intent counters.
func (c *StripeIntentClient) WithMetrics(m *metrics.BookingMetrics) *StripeIntentClient {
	c.metrics = m
	return c
}

// AmountCents converts a major-unit price into minor units.
func AmountCents(price float64) int64 {
	return int64(math.Round(price * 100))
}

// CreateIntent posts to /v1/payment_intents and returns the client secret.
func (c *StripeIntentClient) CreateIntent(ctx context.Context, params IntentParams) (*Intent, error) {
	ctx, span := stripeTracer.Start(ctx, "stripe.create_payment_intent")
	defer span.End()

	amount := AmountCents(params.Price)
	if params.Price <= 0 || math.IsNaN(params.Price) || math.IsInf(params.Price, 0) || amount <= 0 {
		return nil, ErrInvalidPrice
	}
	span.SetAttributes(
		attribute.Int64("clinic.amount_cents", amount),
		attribute.String("clinic.booking_id", params.BookingID),
	)

	if c.dryRun {
		fakeID := "pi_dryrun_" + uuid.New().String()[:8]
		c.logger.Info("stripe dry run: skipping payment intent creation",
			"booking_id", params.BookingID, "amount_cents", amount)
		c.metrics.ObserveIntent("dry_run")
		return &Intent{
			ID:           fakeID,
			ClientSecret: fakeID + "_secret_dryrun",
			AmountCents:  amount,
			Currency:     c.currency,
		}, nil
	}
	if c.secretKey == "" {
		c.metrics.ObserveIntent("not_configured")
		return nil, ErrGatewayNotConfigured
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amount, 10))
	form.Set("currency", c.currency)
	form.Set("payment_method_types[]", "card")
	if params.BookingID != "" {
		form.Set("metadata[booking_id]", params.BookingID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("payments: stripe request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Stripe-Version", c.apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		c.metrics.ObserveIntent("failed")
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.metrics.ObserveIntent("failed")
		c.logger.Error("stripe payment intent rejected", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("%w: stripe api status %d", ErrGateway, resp.StatusCode)
	}

	var parsed stripePaymentIntent
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		c.metrics.ObserveIntent("failed")
		return nil, fmt.Errorf("%w: decode: %v", ErrGateway, err)
	}
	if parsed.ClientSecret == "" {
		c.metrics.ObserveIntent("failed")
		return nil, fmt.Errorf("%w: response missing client_secret", ErrGateway)
	}

	c.metrics.ObserveIntent("created")
	c.logger.Info("stripe payment intent created", "intent_id", parsed.ID, "booking_id", params.BookingID, "amount_cents", parsed.Amount)
	return &Intent{
		ID:           parsed.ID,
		ClientSecret: parsed.ClientSecret,
		AmountCents:  parsed.Amount,
		Currency:     parsed.Currency,
	}, nil
}

type stripePaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}
