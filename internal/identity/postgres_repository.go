package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DB is the subset of pgxpool.Pool used by the repository.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores users in the relational database.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(db DB) *PostgresRepository {
	if db == nil {
		panic("identity: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, req *CreateUserRequest) (*User, bool, error) {
	if err := req.Validate(); err != nil {
		return nil, false, err
	}

	query := `
		INSERT INTO users (id, email, name, role)
		VALUES ($1, $2, $3, '')
		ON CONFLICT (email) DO NOTHING
		RETURNING id, email, name, role, created_at
	`
	user, err := scanUser(r.db.QueryRow(ctx, query, uuid.New(), req.Email, req.Name))
	if err == nil {
		return user, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("identity: insert user: %w", err)
	}

	existing, err := r.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, email, name, role, created_at
		FROM users
		WHERE email = $1
	`
	user, err := scanUser(r.db.QueryRow(ctx, query, NormalizeEmail(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("identity: select user: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*User, error) {
	query := `
		SELECT id, email, name, role, created_at
		FROM users
		ORDER BY created_at
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("identity: list users: %w", err)
	}
	defer rows.Close()

	users := []*User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("identity: scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *PostgresRepository) PromoteToAdmin(ctx context.Context, id string) (*User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	query := `
		UPDATE users SET role = 'admin'
		WHERE id = $1
		RETURNING id, email, name, role, created_at
	`
	user, err := scanUser(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("identity: promote user: %w", err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*User, error) {
	var (
		user User
		id   uuid.UUID
		role string
	)
	if err := row.Scan(&id, &user.Email, &user.Name, &role, &user.CreatedAt); err != nil {
		return nil, err
	}
	user.ID = id.String()
	user.Role = Role(role)
	return &user, nil
}
