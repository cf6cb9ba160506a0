package bookings

import (
	"context"
	"sort"
	"sync"

	"github.com/clinicbook/clinicbook-api/internal/identity"
)

// Repository persists bookings. Insert must enforce both uniqueness rules
// atomically: (service, date, email) and (service, date, slot).
type Repository interface {
	Insert(ctx context.Context, b *Booking) error
	FindByKey(ctx context.Context, key Key) (*Booking, error)
	Get(ctx context.Context, id string) (*Booking, error)
	ListByEmail(ctx context.Context, email string) ([]*Booking, error)
	ListByDate(ctx context.Context, date string) ([]*Booking, error)
}

type slotKey struct {
	serviceName     string
	appointmentDate string
	slot            string
}

// InMemoryRepository keeps bookings in process memory.
type InMemoryRepository struct {
	mu     sync.RWMutex
	byID   map[string]*Booking
	byKey  map[Key]string
	bySlot map[slotKey]string
}

// NewInMemoryRepository creates an empty ledger store.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		byID:   make(map[string]*Booking),
		byKey:  make(map[Key]string),
		bySlot: make(map[slotKey]string),
	}
}

func (r *InMemoryRepository) Insert(ctx context.Context, b *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := b.Key()
	if _, ok := r.byKey[key]; ok {
		return ErrAlreadyBooked
	}
	sk := slotKey{b.ServiceName, b.AppointmentDate, b.Slot}
	if _, ok := r.bySlot[sk]; ok {
		return ErrSlotTaken
	}

	stored := *b
	r.byID[b.ID] = &stored
	r.byKey[key] = b.ID
	r.bySlot[sk] = b.ID
	return nil
}

func (r *InMemoryRepository) FindByKey(ctx context.Context, key Key) (*Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byKey[key]
	if !ok {
		return nil, ErrBookingNotFound
	}
	copied := *r.byID[id]
	return &copied, nil
}

func (r *InMemoryRepository) Get(ctx context.Context, id string) (*Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.byID[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	copied := *b
	return &copied, nil
}

func (r *InMemoryRepository) ListByEmail(ctx context.Context, email string) ([]*Booking, error) {
	email = identity.NormalizeEmail(email)
	return r.filter(func(b *Booking) bool { return b.Email == email }), nil
}

func (r *InMemoryRepository) ListByDate(ctx context.Context, date string) ([]*Booking, error) {
	return r.filter(func(b *Booking) bool { return b.AppointmentDate == date }), nil
}

// MarkPaid flips the paid flag and overwrites the transaction id.
func (r *InMemoryRepository) MarkPaid(ctx context.Context, id, transactionID string) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.byID[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	b.Paid = true
	b.TransactionID = transactionID
	copied := *b
	return &copied, nil
}

func (r *InMemoryRepository) filter(keep func(*Booking) bool) []*Booking {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*Booking{}
	for _, b := range r.byID {
		if keep(b) {
			copied := *b
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
