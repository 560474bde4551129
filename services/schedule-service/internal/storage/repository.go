package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/minerva-salon/salonbook/libs/db"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicateSlug = errors.New("service slug already exists")
)

type Service struct {
	ID              string `json:"id"`
	Slug            string `json:"slug"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	Price           string `json:"price"`
	DurationMinutes int    `json:"durationMinutes"`
	Active          bool   `json:"active"`
}

// ServicePatch holds the fields of an update; nil fields are left unchanged.
type ServicePatch struct {
	Name            *string
	Description     *string
	Price           *string
	DurationMinutes *int
	Active          *bool
}

type WorkingHours struct {
	Weekday   int    `json:"weekday"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Active    bool   `json:"active"`
}

type Repository struct {
	conn db.Querier
}

func NewRepository(conn db.Querier) *Repository {
	return &Repository{conn: conn}
}

const serviceColumns = `id::text, slug, name, description, price::text, duration_minutes, active`

func scanService(row pgx.Row) (Service, error) {
	var s Service
	err := row.Scan(&s.ID, &s.Slug, &s.Name, &s.Description, &s.Price, &s.DurationMinutes, &s.Active)
	return s, err
}

func (r *Repository) ListServices(ctx context.Context) ([]Service, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT `+serviceColumns+`
		FROM services
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Service{}
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *Repository) CreateService(ctx context.Context, s Service) (Service, error) {
	out, err := scanService(r.conn.QueryRow(ctx, `
		INSERT INTO services (slug, name, description, price, duration_minutes, active)
		VALUES ($1, $2, $3, $4::numeric, $5, $6)
		RETURNING `+serviceColumns,
		s.Slug, s.Name, s.Description, s.Price, s.DurationMinutes, s.Active))
	if err != nil {
		if db.HasCode(err, db.CodeUniqueViolation) {
			return Service{}, ErrDuplicateSlug
		}
		return Service{}, fmt.Errorf("insert service: %w", err)
	}
	return out, nil
}

func (r *Repository) UpdateService(ctx context.Context, id string, p ServicePatch) (Service, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Service{}, ErrNotFound
	}
	out, err := scanService(r.conn.QueryRow(ctx, `
		UPDATE services
		SET name = COALESCE($2, name),
			description = COALESCE($3, description),
			price = COALESCE($4::numeric, price),
			duration_minutes = COALESCE($5, duration_minutes),
			active = COALESCE($6, active),
			updated_at = now()
		WHERE id = $1
		RETURNING `+serviceColumns,
		id, p.Name, p.Description, p.Price, p.DurationMinutes, p.Active))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Service{}, ErrNotFound
		}
		return Service{}, fmt.Errorf("update service: %w", err)
	}
	return out, nil
}

func (r *Repository) ListWorkingHours(ctx context.Context) ([]WorkingHours, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT weekday, start_time, end_time, active
		FROM working_hours
		ORDER BY weekday ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []WorkingHours{}
	for rows.Next() {
		var wh WorkingHours
		if err := rows.Scan(&wh.Weekday, &wh.StartTime, &wh.EndTime, &wh.Active); err != nil {
			return nil, err
		}
		out = append(out, wh)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *Repository) UpsertWorkingHours(ctx context.Context, wh WorkingHours) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO working_hours (weekday, start_time, end_time, active)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (weekday) DO UPDATE
		SET start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			active = EXCLUDED.active,
			updated_at = now()
	`, wh.Weekday, wh.StartTime, wh.EndTime, wh.Active)
	return err
}
