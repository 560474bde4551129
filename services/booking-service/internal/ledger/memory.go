package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/minerva-salon/salonbook/services/booking-service/internal/model"
)

// Memory keeps appointments in process. One mutex guards check-and-insert.
type Memory struct {
	mu    sync.Mutex
	byID  map[string]model.Appointment
	byKey map[string]string
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		byID:  map[string]model.Appointment{},
		byKey: map[string]string{},
		now:   time.Now,
	}
}

func (m *Memory) Occupied(_ context.Context, serviceID, date string) ([]model.Interval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.occupiedLocked(serviceID, date)
}

func (m *Memory) occupiedLocked(serviceID, date string) ([]model.Interval, error) {
	var out []model.Interval
	for _, a := range m.byID {
		if a.ServiceID != serviceID || a.Date != date || !a.Occupies() {
			continue
		}
		iv, err := IntervalOf(a)
		if err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	return out, nil
}

func (m *Memory) Reserve(_ context.Context, r Reservation) (model.Appointment, bool, error) {
	appt := r.Appointment
	want, err := IntervalOf(appt)
	if err != nil {
		return model.Appointment{}, false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if r.IdempotencyKey != "" {
		if id, ok := m.byKey[r.IdempotencyKey]; ok {
			return m.byID[id], true, nil
		}
	}

	busy, err := m.occupiedLocked(appt.ServiceID, appt.Date)
	if err != nil {
		return model.Appointment{}, false, err
	}
	for _, iv := range busy {
		if iv.Overlaps(want) {
			return model.Appointment{}, false, ErrSlotTaken
		}
	}

	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	appt.CreatedAt = m.now().UTC()
	m.byID[appt.ID] = appt
	if r.IdempotencyKey != "" {
		m.byKey[r.IdempotencyKey] = appt.ID
	}
	return appt, false, nil
}

func (m *Memory) Get(_ context.Context, id string) (model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return model.Appointment{}, ErrNotFound
	}
	return a, nil
}

func (m *Memory) ByIdempotencyKey(_ context.Context, key string) (model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byKey[key]
	if !ok {
		return model.Appointment{}, ErrNotFound
	}
	return m.byID[id], nil
}

func (m *Memory) Cancel(_ context.Context, id, reason string) (model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return model.Appointment{}, ErrNotFound
	}
	if a.Status == model.StatusCancelled {
		return a, ErrAlreadyCancelled
	}
	at := m.now().UTC()
	a.Status = model.StatusCancelled
	a.CancelledAt = &at
	a.CancelReason = reason
	m.byID[id] = a
	return a, nil
}

var _ Ledger = (*Memory)(nil)
