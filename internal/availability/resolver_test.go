package availability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicbook/clinicbook-api/internal/bookings"
	"github.com/clinicbook/clinicbook-api/internal/catalog"
	"github.com/clinicbook/clinicbook-api/internal/observability/metrics"
)

func fixture() (*catalog.InMemoryRepository, *bookings.Ledger, *Resolver) {
	services := catalog.NewInMemoryRepository(
		catalog.Service{ID: "1", Name: "Cleaning", Price: 50, Slots: []string{"9am", "10am"}},
		catalog.Service{ID: "2", Name: "Surgery", Price: 200, Slots: []string{"9am", "11am", "1pm"}},
	)
	ledger := bookings.NewLedger(bookings.NewInMemoryRepository(), services, nil)
	resolver := NewResolver(services, ledger, metrics.NewBookingMetrics(prometheus.NewRegistry()))
	return services, ledger, resolver
}

func slotsFor(t *testing.T, options []catalog.Service, name string) []string {
	t.Helper()
	for _, svc := range options {
		if svc.Name == name {
			return svc.Slots
		}
	}
	t.Fatalf("service %s missing from options", name)
	return nil
}

func TestResolveExcludesBookedSlots(t *testing.T) {
	_, ledger, resolver := fixture()
	ctx := context.Background()

	result, err := ledger.Create(ctx, bookings.NewBooking{
		Email: "a@x.com", ServiceName: "Cleaning", AppointmentDate: "2024-05-01", Slot: "9am",
	})
	require.NoError(t, err)
	require.True(t, result.Created())

	options, err := resolver.Resolve(ctx, "2024-05-01")
	require.NoError(t, err)
	require.Len(t, options, 2)
	assert.Equal(t, []string{"10am"}, slotsFor(t, options, "Cleaning"))
	assert.Equal(t, []string{"9am", "11am", "1pm"}, slotsFor(t, options, "Surgery"))

	other, err := resolver.Resolve(ctx, "2024-05-02")
	require.NoError(t, err)
	assert.Equal(t, []string{"9am", "10am"}, slotsFor(t, other, "Cleaning"))
}

func TestResolvePreservesTemplateOrder(t *testing.T) {
	_, ledger, resolver := fixture()
	ctx := context.Background()

	_, err := ledger.Create(ctx, bookings.NewBooking{
		Email: "a@x.com", ServiceName: "Surgery", AppointmentDate: "d", Slot: "11am",
	})
	require.NoError(t, err)

	options, err := resolver.Resolve(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, []string{"9am", "1pm"}, slotsFor(t, options, "Surgery"))
}

func TestResolveEverySlotMatchesLedger(t *testing.T) {
	services, ledger, resolver := fixture()
	ctx := context.Background()

	booked := map[string]map[string]bool{
		"Cleaning": {"10am": true},
		"Surgery":  {"9am": true, "1pm": true},
	}
	i := 0
	for svc, slots := range booked {
		for slot := range slots {
			i++
			_, err := ledger.Create(ctx, bookings.NewBooking{
				Email:           "p" + string(rune('a'+i)) + "@x.com",
				ServiceName:     svc,
				AppointmentDate: "2024-06-01",
				Slot:            slot,
			})
			require.NoError(t, err)
		}
	}

	options, err := resolver.Resolve(ctx, "2024-06-01")
	require.NoError(t, err)
	catalogServices, err := services.ListServices(ctx)
	require.NoError(t, err)
	for _, svc := range catalogServices {
		free := slotsFor(t, options, svc.Name)
		for _, slot := range svc.Slots {
			assert.Equal(t, !booked[svc.Name][slot], contains(free, slot), "%s %s", svc.Name, slot)
		}
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

type brokenBookings struct{}

func (brokenBookings) ListByDate(context.Context, string) ([]*bookings.Booking, error) {
	return nil, errors.New("db down")
}

func TestResolvePropagatesStoreFailure(t *testing.T) {
	services, _, _ := fixture()
	resolver := NewResolver(services, brokenBookings{}, nil)

	_, err := resolver.Resolve(context.Background(), "d")
	assert.Error(t, err)

	rec := httptest.NewRecorder()
	NewHandler(resolver, nil).ListOptions(rec, httptest.NewRequest(http.MethodGet, "/appointmentOptions?date=d", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestListOptionsHandler(t *testing.T) {
	_, ledger, resolver := fixture()
	_, err := ledger.Create(context.Background(), bookings.NewBooking{
		Email: "a@x.com", ServiceName: "Cleaning", AppointmentDate: "2024-05-01", Slot: "9am",
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	NewHandler(resolver, nil).ListOptions(rec, httptest.NewRequest(http.MethodGet, "/appointmentOptions?date=2024-05-01", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var options []catalog.Service
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &options))
	assert.Equal(t, []string{"10am"}, slotsFor(t, options, "Cleaning"))
	assert.Equal(t, 50.0, options[0].Price)
}
