package storage

import (
	"context"
	"fmt"

	"github.com/minerva-salon/salonbook/libs/db"
	"github.com/minerva-salon/salonbook/services/booking-service/internal/model"
	"github.com/minerva-salon/salonbook/services/booking-service/internal/schedule"
)

// ScheduleRepository reads services and working_hours. It implements schedule.Store.
type ScheduleRepository struct {
	conn db.Querier
}

func NewScheduleRepository(conn db.Querier) *ScheduleRepository {
	return &ScheduleRepository{conn: conn}
}

const serviceColumns = `id::text, slug, name, description, price::text, duration_minutes, active`

func (r *ScheduleRepository) ServiceBySlug(ctx context.Context, slug string) (model.Service, error) {
	return r.oneService(ctx, `SELECT `+serviceColumns+` FROM services WHERE slug = $1`, slug)
}

func (r *ScheduleRepository) ServiceByID(ctx context.Context, id string) (model.Service, error) {
	if !validUUID(id) {
		return model.Service{}, schedule.ErrServiceNotFound
	}
	return r.oneService(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = $1`, id)
}

func (r *ScheduleRepository) oneService(ctx context.Context, query, arg string) (model.Service, error) {
	var s model.Service
	err := r.conn.QueryRow(ctx, query, arg).Scan(&s.ID, &s.Slug, &s.Name, &s.Description, &s.Price, &s.DurationMinutes, &s.Active)
	if err != nil {
		if IsNotFound(err) {
			return model.Service{}, schedule.ErrServiceNotFound
		}
		return model.Service{}, fmt.Errorf("select service: %w", err)
	}
	return s, nil
}

func (r *ScheduleRepository) ListActiveServices(ctx context.Context) ([]model.Service, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT `+serviceColumns+`
		FROM services
		WHERE active
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	out := []model.Service{}
	for rows.Next() {
		var s model.Service
		if err := rows.Scan(&s.ID, &s.Slug, &s.Name, &s.Description, &s.Price, &s.DurationMinutes, &s.Active); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *ScheduleRepository) WorkingHoursFor(ctx context.Context, weekday int) (model.WorkingHours, bool, error) {
	h := model.WorkingHours{Weekday: weekday}
	err := r.conn.QueryRow(ctx, `
		SELECT start_time, end_time, active
		FROM working_hours
		WHERE weekday = $1
	`, weekday).Scan(&h.Open, &h.Close, &h.Active)
	if err != nil {
		if IsNotFound(err) {
			return model.WorkingHours{}, false, nil
		}
		return model.WorkingHours{}, false, fmt.Errorf("select working hours: %w", err)
	}
	return h, true, nil
}

var _ schedule.Store = (*ScheduleRepository)(nil)
