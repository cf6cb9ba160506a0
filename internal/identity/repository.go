package identity

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for user and role storage.
type Repository interface {
	// Create inserts the user unless the email is already known. The returned
	// bool is false when an existing user was found instead.
	Create(ctx context.Context, req *CreateUserRequest) (*User, bool, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	PromoteToAdmin(ctx context.Context, id string) (*User, error)
}

// InMemoryRepository keeps users in process memory.
type InMemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*User
	byEmail map[string]string
}

// NewInMemoryRepository creates an empty in-memory user store.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		byID:    make(map[string]*User),
		byEmail: make(map[string]string),
	}
}

func (r *InMemoryRepository) Create(ctx context.Context, req *CreateUserRequest) (*User, bool, error) {
	if err := req.Validate(); err != nil {
		return nil, false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byEmail[req.Email]; ok {
		existing := *r.byID[id]
		return &existing, false, nil
	}
	user := &User{
		ID:        uuid.New().String(),
		Email:     req.Email,
		Name:      req.Name,
		Role:      RoleNone,
		CreatedAt: time.Now().UTC(),
	}
	r.byID[user.ID] = user
	r.byEmail[user.Email] = user.ID

	out := *user
	return &out, true, nil
}

func (r *InMemoryRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[NormalizeEmail(email)]
	if !ok {
		return nil, ErrUserNotFound
	}
	out := *r.byID[id]
	return &out, nil
}

func (r *InMemoryRepository) List(ctx context.Context) ([]*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*User, 0, len(r.byID))
	for _, u := range r.byID {
		cp := *u
		users = append(users, &cp)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

func (r *InMemoryRepository) PromoteToAdmin(ctx context.Context, id string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	user.Role = RoleAdmin
	out := *user
	return &out, nil
}
