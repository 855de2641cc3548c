package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const nameConstraint = "services_name_key"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanService(row pgx.Row) (*Service, error) {
	var s Service

	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Price,
		&s.Duration,
		&s.Active,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}

	return &s, nil
}

func mapNameConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == nameConstraint {
		return ErrNameTaken
	}
	return err
}

func (r *PgRepository) CreateService(ctx context.Context, s Service) (*Service, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO services (id, name, price, duration, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING id, name, price, duration, active, created_at, updated_at
	`, uuid.New(), s.Name, s.Price, s.Duration, s.Active)

	created, err := scanService(row)
	if err != nil {
		return nil, mapNameConflict(err)
	}
	return created, nil
}

func (r *PgRepository) UpdateService(ctx context.Context, s Service) (*Service, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE services
		SET name = $2,
		    price = $3,
		    duration = $4,
		    active = $5,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, name, price, duration, active, created_at, updated_at
	`, s.ID, s.Name, s.Price, s.Duration, s.Active)

	updated, err := scanService(row)
	if err != nil {
		return nil, mapNameConflict(err)
	}
	return updated, nil
}

func (r *PgRepository) DeleteService(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM services
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrServiceNotFound
	}
	return nil
}

func (r *PgRepository) GetServiceByID(ctx context.Context, id uuid.UUID) (*Service, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, price, duration, active, created_at, updated_at
		FROM services
		WHERE id = $1
	`, id)
	return scanService(row)
}

func (r *PgRepository) ListServices(ctx context.Context, activeOnly bool) ([]Service, error) {
	query := `
		SELECT id, name, price, duration, active, created_at, updated_at
		FROM services
		ORDER BY name
	`
	if activeOnly {
		query = `
			SELECT id, name, price, duration, active, created_at, updated_at
			FROM services
			WHERE active
			ORDER BY name
		`
	}

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return collectServices(rows)
}

func (r *PgRepository) GetServicesByIDs(ctx context.Context, ids []uuid.UUID) ([]Service, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, price, duration, active, created_at, updated_at
		FROM services
		WHERE id = ANY($1)
		ORDER BY name
	`, ids)
	if err != nil {
		return nil, err
	}
	return collectServices(rows)
}

func collectServices(rows pgx.Rows) ([]Service, error) {
	defer rows.Close()

	var result []Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
