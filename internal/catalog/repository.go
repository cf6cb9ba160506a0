package catalog

import (
	"context"
	"strings"
	"sync"
)

// Repository reads the service catalog.
type Repository interface {
	ListServices(ctx context.Context) ([]Service, error)
	ListNames(ctx context.Context) ([]ServiceName, error)
	GetByName(ctx context.Context, name string) (*Service, error)
}

// InMemoryRepository serves a fixed catalog from memory, in insertion order.
type InMemoryRepository struct {
	mu       sync.RWMutex
	services []Service
}

// NewInMemoryRepository creates a catalog holding copies of services.
func NewInMemoryRepository(services ...Service) *InMemoryRepository {
	repo := &InMemoryRepository{}
	for _, s := range services {
		repo.services = append(repo.services, s.Clone())
	}
	return repo
}

func (r *InMemoryRepository) ListServices(ctx context.Context) ([]Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Service, 0, len(r.services))
	for _, s := range r.services {
		out = append(out, s.Clone())
	}
	return out, nil
}

func (r *InMemoryRepository) ListNames(ctx context.Context) ([]ServiceName, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ServiceName, 0, len(r.services))
	for _, s := range r.services {
		out = append(out, ServiceName{ID: s.ID, Name: s.Name})
	}
	return out, nil
}

func (r *InMemoryRepository) GetByName(ctx context.Context, name string) (*Service, error) {
	name = strings.TrimSpace(name)
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.services {
		if s.Name == name {
			clone := s.Clone()
			return &clone, nil
		}
	}
	return nil, ErrServiceNotFound
}
