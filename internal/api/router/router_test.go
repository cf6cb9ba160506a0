package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicbook/clinicbook-api/internal/auth"
	"github.com/clinicbook/clinicbook-api/internal/availability"
	"github.com/clinicbook/clinicbook-api/internal/bookings"
	"github.com/clinicbook/clinicbook-api/internal/catalog"
	"github.com/clinicbook/clinicbook-api/internal/doctors"
	"github.com/clinicbook/clinicbook-api/internal/identity"
	"github.com/clinicbook/clinicbook-api/internal/observability/metrics"
	"github.com/clinicbook/clinicbook-api/internal/payments"
	"github.com/clinicbook/clinicbook-api/pkg/logging"
)

const testSecret = "router-test-secret"

type testApp struct {
	handler http.Handler
	users   *identity.InMemoryRepository
}

func newTestApp(t *testing.T, ready func(context.Context) error) testApp {
	t.Helper()

	logger := logging.NewWithOptions(logging.Options{Output: io.Discard})
	reg := prometheus.NewRegistry()
	bookingMetrics := metrics.NewBookingMetrics(reg)

	users := identity.NewInMemoryRepository()
	services := catalog.NewInMemoryRepository(catalog.DefaultServices()...)
	bookingRepo := bookings.NewInMemoryRepository()
	ledger := bookings.NewLedger(bookingRepo, services, logger).WithMetrics(bookingMetrics)
	reconciler := payments.NewReconciler(payments.NewInMemoryStore(bookingRepo), logger).WithMetrics(bookingMetrics)
	intents := payments.NewStripeIntentClient("", "usd", logger).WithDryRun(true)
	issuer := auth.NewIssuer(testSecret, time.Hour, users)

	handler := New(&Config{
		Logger:             logger,
		Catalog:            catalog.NewHandler(services, logger),
		Availability:       availability.NewHandler(availability.NewResolver(services, ledger, bookingMetrics), logger),
		Bookings:           bookings.NewHandler(ledger, logger),
		Payments:           payments.NewHandler(intents, reconciler, ledger, logger),
		Users:              identity.NewHandler(users, logger),
		Doctors:            doctors.NewHandler(doctors.NewInMemoryRepository(), logger),
		Credentials:        auth.NewHandler(issuer, logger),
		Verifier:           issuer,
		Accounts:           users,
		HTTPMetrics:        metrics.NewHTTPMetrics(reg),
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: []string{"*"},
		Ready:              ready,
	})
	return testApp{handler: handler, users: users}
}

func (a testApp) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestRouterLiveness(t *testing.T) {
	app := newTestApp(t, nil)

	rec := app.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "clinic booking server is running", rec.Body.String())

	rec = app.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])

	down := newTestApp(t, func(context.Context) error { return errors.New("db down") })
	rec = down.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouterBookingFlow(t *testing.T) {
	app := newTestApp(t, nil)
	const date = "May 1, 2024"
	const slot = "09.00 AM - 09.30 AM"

	rec := app.do(t, http.MethodGet, "/appointmentSpecialty", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]catalog.ServiceName](t, rec), 6)

	rec = app.do(t, http.MethodPost, "/users", "", map[string]string{"email": "A@X.com", "name": "Ana"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode[map[string]any](t, rec)["acknowledged"])

	rec = app.do(t, http.MethodPost, "/users", "", map[string]string{"email": "a@x.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode[map[string]any](t, rec)["acknowledged"])

	rec = app.do(t, http.MethodGet, "/jwt?email=a@x.com", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	token := decode[map[string]string](t, rec)["accessToken"]
	require.NotEmpty(t, token)

	booking := map[string]any{
		"email": "a@x.com", "patient": "Ana", "serviceName": "Teeth Cleaning",
		"appointmentDate": date, "time": slot, "price": 1,
	}
	rec = app.do(t, http.MethodPost, "/bookings", "", booking)
	require.Equal(t, http.StatusOK, rec.Code)
	created := decode[map[string]any](t, rec)
	require.Equal(t, true, created["acknowledged"])
	bookingID, _ := created["insertedId"].(string)
	require.NotEmpty(t, bookingID)

	rec = app.do(t, http.MethodPost, "/bookings", "", booking)
	require.Equal(t, http.StatusOK, rec.Code)
	again := decode[map[string]any](t, rec)
	assert.Equal(t, false, again["acknowledged"])
	assert.Equal(t, "You already have booked on this date "+date, again["message"])

	rec = app.do(t, http.MethodGet, "/appointmentOptions?date=May%201,%202024", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, svc := range decode[[]catalog.Service](t, rec) {
		if svc.Name == "Teeth Cleaning" {
			assert.NotContains(t, svc.Slots, slot)
			assert.Len(t, svc.Slots, 11)
		} else {
			assert.Len(t, svc.Slots, 12)
		}
	}

	rec = app.do(t, http.MethodGet, "/bookings?email=a@x.com", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = app.do(t, http.MethodGet, "/bookings?email=b@x.com", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = app.do(t, http.MethodGet, "/bookings?email=a@x.com", "garbage", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = app.do(t, http.MethodGet, "/bookings?email=a@x.com", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]bookings.Booking](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, 50.0, list[0].Price)

	rec = app.do(t, http.MethodPost, "/create-payment-intent", "", map[string]any{"price": 1, "bookingId": bookingID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[map[string]string](t, rec)["clientSecret"])

	rec = app.do(t, http.MethodPost, "/payments", "", map[string]any{"bookingId": bookingID, "transactionId": "tx1", "amount": 5000})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodGet, "/bookings/"+bookingID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	paid := decode[bookings.Booking](t, rec)
	assert.True(t, paid.Paid)
	assert.Equal(t, "tx1", paid.TransactionID)

	rec = app.do(t, http.MethodGet, "/bookings/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = app.do(t, http.MethodPost, "/payments", "", map[string]any{"bookingId": "missing", "transactionId": "tx1", "amount": 5000})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouterAdminRoutes(t *testing.T) {
	app := newTestApp(t, nil)
	ctx := context.Background()

	admin, _, err := app.users.Create(ctx, &identity.CreateUserRequest{Email: "admin@x.com"})
	require.NoError(t, err)
	member, _, err := app.users.Create(ctx, &identity.CreateUserRequest{Email: "member@x.com"})
	require.NoError(t, err)
	_, err = app.users.PromoteToAdmin(ctx, admin.ID)
	require.NoError(t, err)

	adminToken := decode[map[string]string](t, app.do(t, http.MethodGet, "/jwt?email=admin@x.com", "", nil))["accessToken"]
	memberToken := decode[map[string]string](t, app.do(t, http.MethodGet, "/jwt?email=member@x.com", "", nil))["accessToken"]

	rec := app.do(t, http.MethodGet, "/doctors", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = app.do(t, http.MethodGet, "/doctors", memberToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.do(t, http.MethodPost, "/doctors", adminToken, map[string]any{"name": "Dr. Lee", "specialty": "Oral Surgery"})
	require.Equal(t, http.StatusOK, rec.Code)
	doctorID, _ := decode[map[string]any](t, rec)["insertedId"].(string)

	rec = app.do(t, http.MethodGet, "/doctors", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]doctors.Doctor](t, rec), 1)

	rec = app.do(t, http.MethodDelete, "/doctors/"+doctorID, adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodGet, "/users/admin/member@x.com", "", nil)
	assert.Equal(t, false, decode[map[string]bool](t, rec)["isAdmin"])

	rec = app.do(t, http.MethodPut, "/users/admin/"+member.ID, memberToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = app.do(t, http.MethodPut, "/users/admin/"+member.ID, adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodGet, "/users/admin/member@x.com", "", nil)
	assert.Equal(t, true, decode[map[string]bool](t, rec)["isAdmin"])

	// The promoted member gains admin access with the credential issued before promotion.
	rec = app.do(t, http.MethodGet, "/doctors", memberToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterMetricsAndPreflight(t *testing.T) {
	app := newTestApp(t, nil)
	app.do(t, http.MethodGet, "/appointmentSpecialty", "", nil)

	rec := app.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `clinicbook_http_requests_total{code="200",method="GET",route="/appointmentSpecialty"}`)

	req := httptest.NewRequest(http.MethodOptions, "/doctors", nil)
	req.Header.Set("Origin", "https://clinic.example")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec = httptest.NewRecorder()
	app.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
