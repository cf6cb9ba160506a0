package bookings

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicbook/clinicbook-api/internal/catalog"
	"github.com/clinicbook/clinicbook-api/internal/events"
	"github.com/clinicbook/clinicbook-api/internal/observability/metrics"
)

func testCatalog() *catalog.InMemoryRepository {
	return catalog.NewInMemoryRepository(catalog.Service{
		ID:    "svc-cleaning",
		Name:  "Cleaning",
		Price: 50,
		Slots: []string{"9am", "10am"},
	})
}

func cleaningRequest(email, slot string) NewBooking {
	return NewBooking{
		Email:           email,
		Patient:         "Ann",
		ServiceName:     "Cleaning",
		AppointmentDate: "2024-05-01",
		Slot:            slot,
	}
}

type recordingNotifier struct {
	events chan events.BookingConfirmedV1
	err    error
}

func newRecordingNotifier(err error) *recordingNotifier {
	return &recordingNotifier{events: make(chan events.BookingConfirmedV1, 8), err: err}
}

func (n *recordingNotifier) NotifyBookingConfirmed(ctx context.Context, evt events.BookingConfirmedV1) error {
	n.events <- evt
	return n.err
}

func TestCreateThenDuplicateIsAlreadyBooked(t *testing.T) {
	repo := NewInMemoryRepository()
	ledger := NewLedger(repo, testCatalog(), nil)
	ctx := context.Background()

	first, err := ledger.Create(ctx, cleaningRequest("a@x.com", "9am"))
	require.NoError(t, err)
	require.True(t, first.Created())
	assert.Equal(t, 50.0, first.Booking.Price)
	assert.False(t, first.Booking.Paid)

	second, err := ledger.Create(ctx, cleaningRequest("A@x.com", "10am"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyBooked, second.Outcome)
	assert.Nil(t, second.Booking)
	assert.Equal(t, "You already have booked on this date 2024-05-01", second.Message)

	list, err := ledger.ListByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCreateSameSlotDifferentCustomerIsSlotTaken(t *testing.T) {
	ledger := NewLedger(NewInMemoryRepository(), testCatalog(), nil)
	ctx := context.Background()

	_, err := ledger.Create(ctx, cleaningRequest("a@x.com", "9am"))
	require.NoError(t, err)

	result, err := ledger.Create(ctx, cleaningRequest("b@x.com", "9am"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSlotTaken, result.Outcome)
	assert.Contains(t, result.Message, "9am")

	byDate, err := ledger.ListByDate(ctx, "2024-05-01")
	require.NoError(t, err)
	assert.Len(t, byDate, 1)
}

func TestCreateValidation(t *testing.T) {
	ledger := NewLedger(NewInMemoryRepository(), testCatalog(), nil)
	ctx := context.Background()

	tests := []struct {
		name string
		req  NewBooking
		want error
	}{
		{name: "missing email", req: NewBooking{ServiceName: "Cleaning", AppointmentDate: "d", Slot: "9am"}, want: ErrEmailRequired},
		{name: "missing service", req: NewBooking{Email: "a@x.com", AppointmentDate: "d", Slot: "9am"}, want: ErrServiceRequired},
		{name: "missing date", req: NewBooking{Email: "a@x.com", ServiceName: "Cleaning", Slot: "9am"}, want: ErrDateRequired},
		{name: "missing slot", req: NewBooking{Email: "a@x.com", ServiceName: "Cleaning", AppointmentDate: "d"}, want: ErrSlotRequired},
		{name: "unknown service", req: NewBooking{Email: "a@x.com", ServiceName: "Whitening", AppointmentDate: "d", Slot: "9am"}, want: ErrUnknownService},
		{name: "unknown slot", req: NewBooking{Email: "a@x.com", ServiceName: "Cleaning", AppointmentDate: "d", Slot: "7pm"}, want: ErrUnknownSlot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ledger.Create(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsInvalid(err))
		})
	}
}

func TestCreateAcceptsLegacyTimeField(t *testing.T) {
	ledger := NewLedger(NewInMemoryRepository(), testCatalog(), nil)

	req := cleaningRequest("a@x.com", "")
	req.Time = "10am"
	result, err := ledger.Create(context.Background(), req)
	require.NoError(t, err)
	require.True(t, result.Created())
	assert.Equal(t, "10am", result.Booking.Slot)
}

func TestCreateIgnoresClientPrice(t *testing.T) {
	ledger := NewLedger(NewInMemoryRepository(), testCatalog(), nil)

	req := cleaningRequest("a@x.com", "9am")
	req.Price = 1
	result, err := ledger.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 50.0, result.Booking.Price)
}

func TestConcurrentCreatesYieldOneBooking(t *testing.T) {
	repo := NewInMemoryRepository()
	ledger := NewLedger(repo, testCatalog(), nil)
	ctx := context.Background()

	const attempts = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := ledger.Create(ctx, cleaningRequest("race@x.com", "9am"))
			if err != nil {
				t.Error(err)
				return
			}
			if result.Created() {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	list, err := repo.ListByEmail(ctx, "race@x.com")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCreateNotifiesAsynchronously(t *testing.T) {
	notifier := newRecordingNotifier(nil)
	ledger := NewLedger(NewInMemoryRepository(), testCatalog(), nil).
		WithNotifier(notifier, time.Second)

	result, err := ledger.Create(context.Background(), cleaningRequest("a@x.com", "9am"))
	require.NoError(t, err)

	select {
	case evt := <-notifier.events:
		assert.Equal(t, result.Booking.ID, evt.BookingID)
		assert.Equal(t, "Cleaning", evt.ServiceName)
		assert.Equal(t, "9am", evt.Slot)
	case <-time.After(2 * time.Second):
		t.Fatal("expected confirmation notification")
	}
}

func TestNotificationFailureDoesNotFailBooking(t *testing.T) {
	reg := prometheus.NewRegistry()
	notifier := newRecordingNotifier(errors.New("mail provider down"))
	ledger := NewLedger(NewInMemoryRepository(), testCatalog(), nil).
		WithNotifier(notifier, time.Second).
		WithMetrics(metrics.NewBookingMetrics(reg))

	ctx, cancel := context.WithCancel(context.Background())
	result, err := ledger.Create(ctx, cleaningRequest("a@x.com", "9am"))
	cancel()
	require.NoError(t, err)
	assert.True(t, result.Created())

	select {
	case <-notifier.events:
	case <-time.After(2 * time.Second):
		t.Fatal("notification should still run after the request context is cancelled")
	}
}

type failingRepository struct {
	*InMemoryRepository
	findErr   error
	insertErr error
}

func (f failingRepository) FindByKey(ctx context.Context, key Key) (*Booking, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.InMemoryRepository.FindByKey(ctx, key)
}

func (f failingRepository) Insert(ctx context.Context, b *Booking) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	return f.InMemoryRepository.Insert(ctx, b)
}

func TestCreateMapsStoreErrors(t *testing.T) {
	ctx := context.Background()

	storeDown := errors.New("store down")
	ledger := NewLedger(failingRepository{InMemoryRepository: NewInMemoryRepository(), findErr: storeDown}, testCatalog(), nil)
	_, err := ledger.Create(ctx, cleaningRequest("a@x.com", "9am"))
	assert.ErrorIs(t, err, storeDown)

	// the unique index wins a race the pre-check missed
	ledger = NewLedger(failingRepository{InMemoryRepository: NewInMemoryRepository(), insertErr: ErrAlreadyBooked}, testCatalog(), nil)
	result, err := ledger.Create(ctx, cleaningRequest("a@x.com", "9am"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyBooked, result.Outcome)
}

func TestGetUnknownBooking(t *testing.T) {
	ledger := NewLedger(NewInMemoryRepository(), testCatalog(), nil)
	_, err := ledger.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestInMemoryMarkPaidOverwritesTransaction(t *testing.T) {
	repo := NewInMemoryRepository()
	ledger := NewLedger(repo, testCatalog(), nil)
	ctx := context.Background()

	result, err := ledger.Create(ctx, cleaningRequest("a@x.com", "9am"))
	require.NoError(t, err)

	_, err = repo.MarkPaid(ctx, result.Booking.ID, "tx1")
	require.NoError(t, err)
	paid, err := repo.MarkPaid(ctx, result.Booking.ID, "tx2")
	require.NoError(t, err)
	assert.True(t, paid.Paid)
	assert.Equal(t, "tx2", paid.TransactionID)

	_, err = repo.MarkPaid(ctx, "missing", "tx3")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}
