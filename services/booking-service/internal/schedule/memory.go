package schedule

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/minerva-salon/salonbook/services/booking-service/internal/model"
)

type MemoryStore struct {
	mu       sync.RWMutex
	services map[string]model.Service // by slug
	hours    map[int]model.WorkingHours
}

func NewMemoryStore(services []model.Service, hours []model.WorkingHours) *MemoryStore {
	s := &MemoryStore{
		services: make(map[string]model.Service, len(services)),
		hours:    make(map[int]model.WorkingHours, len(hours)),
	}
	for _, svc := range services {
		s.PutService(svc)
	}
	for _, h := range hours {
		s.PutWorkingHours(h)
	}
	return s
}

// NewDefaultMemoryStore is seeded with the same catalog as the seed migration.
func NewDefaultMemoryStore() *MemoryStore {
	return NewMemoryStore(DefaultServices(), DefaultWorkingHours())
}

func (s *MemoryStore) PutService(svc model.Service) model.Service {
	if svc.ID == "" {
		svc.ID = uuid.NewString()
	}
	s.mu.Lock()
	s.services[svc.Slug] = svc
	s.mu.Unlock()
	return svc
}

func (s *MemoryStore) PutWorkingHours(h model.WorkingHours) {
	s.mu.Lock()
	s.hours[h.Weekday] = h
	s.mu.Unlock()
}

func (s *MemoryStore) ServiceBySlug(_ context.Context, slug string) (model.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	svc, ok := s.services[slug]
	if !ok {
		return model.Service{}, ErrServiceNotFound
	}
	return svc, nil
}

func (s *MemoryStore) ServiceByID(_ context.Context, id string) (model.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, svc := range s.services {
		if svc.ID == id {
			return svc, nil
		}
	}
	return model.Service{}, ErrServiceNotFound
}

func (s *MemoryStore) ListActiveServices(_ context.Context) ([]model.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Service, 0, len(s.services))
	for _, svc := range s.services {
		if svc.Active {
			out = append(out, svc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) WorkingHoursFor(_ context.Context, weekday int) (model.WorkingHours, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.hours[weekday]
	return h, ok, nil
}

var _ Store = (*MemoryStore)(nil)
