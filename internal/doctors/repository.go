package doctors

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository stores the doctor registry.
type Repository interface {
	List(ctx context.Context) ([]*Doctor, error)
	Create(ctx context.Context, req *CreateDoctorRequest) (*Doctor, error)
	Delete(ctx context.Context, id string) error
}

// InMemoryRepository keeps doctors in process memory.
type InMemoryRepository struct {
	mu      sync.RWMutex
	order   []string
	doctors map[string]*Doctor
}

// NewInMemoryRepository creates an empty registry.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{doctors: make(map[string]*Doctor)}
}

func (r *InMemoryRepository) List(ctx context.Context) ([]*Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Doctor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, clone(r.doctors[id]))
	}
	return out, nil
}

func (r *InMemoryRepository) Create(ctx context.Context, req *CreateDoctorRequest) (*Doctor, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	doc := &Doctor{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Email:     req.Email,
		Specialty: req.Specialty,
		Services:  slices.Clone(req.Services),
		Image:     req.Image,
		CreatedAt: time.Now().UTC(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.doctors[doc.ID] = doc
	r.order = append(r.order, doc.ID)
	return clone(doc), nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.doctors[id]; !ok {
		return ErrDoctorNotFound
	}
	delete(r.doctors, id)
	r.order = slices.DeleteFunc(r.order, func(v string) bool { return v == id })
	return nil
}

func clone(d *Doctor) *Doctor {
	c := *d
	c.Services = slices.Clone(d.Services)
	if c.Services == nil {
		c.Services = []string{}
	}
	return &c
}
