package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DB is the subset of pgxpool.Pool used by the repository.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository reads services from the services table.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(db DB) *PostgresRepository {
	if db == nil {
		panic("catalog: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListServices(ctx context.Context) ([]Service, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, price, slots
		FROM services
		ORDER BY sort_order, name
	`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list services: %w", err)
	}
	defer rows.Close()

	var services []Service
	for rows.Next() {
		var (
			id uuid.UUID
			s  Service
		)
		if err := rows.Scan(&id, &s.Name, &s.Price, &s.Slots); err != nil {
			return nil, fmt.Errorf("catalog: scan service: %w", err)
		}
		s.ID = id.String()
		services = append(services, s.Clone())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: iterate services: %w", err)
	}
	return services, nil
}

func (r *PostgresRepository) ListNames(ctx context.Context) ([]ServiceName, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM services ORDER BY sort_order, name`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list names: %w", err)
	}
	defer rows.Close()

	names := []ServiceName{}
	for rows.Next() {
		var (
			id   uuid.UUID
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("catalog: scan name: %w", err)
		}
		names = append(names, ServiceName{ID: id.String(), Name: name})
	}
	return names, rows.Err()
}

func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*Service, error) {
	var (
		id uuid.UUID
		s  Service
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, name, price, slots
		FROM services
		WHERE name = $1
	`, strings.TrimSpace(name)).Scan(&id, &s.Name, &s.Price, &s.Slots)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("catalog: get service: %w", err)
	}
	s.ID = id.String()
	s = s.Clone()
	return &s, nil
}
