package doctors

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool used by the repository.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores doctors in the doctors table.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(db DB) *PostgresRepository {
	if db == nil {
		panic("doctors: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context) ([]*Doctor, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, email, specialty, services, image, created_at
		FROM doctors
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("doctors: list: %w", err)
	}
	defer rows.Close()

	out := []*Doctor{}
	for rows.Next() {
		doc, err := scanDoctor(rows)
		if err != nil {
			return nil, fmt.Errorf("doctors: scan: %w", err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("doctors: iterate: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Create(ctx context.Context, req *CreateDoctorRequest) (*Doctor, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO doctors (id, name, email, specialty, services, image)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, name, email, specialty, services, image, created_at
	`
	doc, err := scanDoctor(r.db.QueryRow(ctx, query,
		uuid.New(), req.Name, req.Email, req.Specialty, req.Services, req.Image))
	if err != nil {
		return nil, fmt.Errorf("doctors: insert: %w", err)
	}
	return doc, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return ErrDoctorNotFound
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM doctors WHERE id = $1`, parsed)
	if err != nil {
		return fmt.Errorf("doctors: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDoctorNotFound
	}
	return nil
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var (
		id  uuid.UUID
		doc Doctor
	)
	if err := row.Scan(&id, &doc.Name, &doc.Email, &doc.Specialty, &doc.Services, &doc.Image, &doc.CreatedAt); err != nil {
		return nil, err
	}
	doc.ID = id.String()
	if doc.Services == nil {
		doc.Services = []string{}
	}
	return &doc, nil
}
