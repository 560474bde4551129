package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"github.com/minerva-salon/salonbook/services/schedule-service/internal/storage"
)

type memoryStore struct {
	mu       sync.Mutex
	services map[string]storage.Service
	hours    map[int]storage.WorkingHours
	nextID   int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{services: map[string]storage.Service{}, hours: map[int]storage.WorkingHours{}}
}

func (m *memoryStore) ListServices(context.Context) ([]storage.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []storage.Service{}
	for _, s := range m.services {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memoryStore) CreateService(_ context.Context, s storage.Service) (storage.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.services {
		if existing.Slug == s.Slug {
			return storage.Service{}, storage.ErrDuplicateSlug
		}
	}
	m.nextID++
	s.ID = "svc-" + string(rune('0'+m.nextID))
	m.services[s.ID] = s
	return s, nil
}

func (m *memoryStore) UpdateService(_ context.Context, id string, p storage.ServicePatch) (storage.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.services[id]
	if !ok {
		return storage.Service{}, storage.ErrNotFound
	}
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.DurationMinutes != nil {
		s.DurationMinutes = *p.DurationMinutes
	}
	if p.Active != nil {
		s.Active = *p.Active
	}
	m.services[id] = s
	return s, nil
}

func (m *memoryStore) ListWorkingHours(context.Context) ([]storage.WorkingHours, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []storage.WorkingHours{}
	for _, wh := range m.hours {
		out = append(out, wh)
	}
	return out, nil
}

func (m *memoryStore) UpsertWorkingHours(_ context.Context, wh storage.WorkingHours) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hours[wh.Weekday] = wh
	return nil
}

func serve(t *testing.T, mux *http.ServeMux, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(method, path, &buf))
	return rr
}

func newMux(store Store) *http.ServeMux {
	mux := http.NewServeMux()
	New(store, nil).Register(mux, nil)
	return mux
}

func TestCreateAndUpdateService(t *testing.T) {
	store := newMemoryStore()
	mux := newMux(store)

	rr := serve(t, mux, http.MethodPost, "/api/admin/services", map[string]any{
		"slug": "Perm", "name": "Perm", "price": "80.00", "durationMinutes": 120,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var created storage.Service
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Slug != "perm" || !created.Active {
		t.Fatalf("unexpected service %+v", created)
	}

	rr = serve(t, mux, http.MethodPost, "/api/admin/services", map[string]any{
		"slug": "perm", "name": "Perm again", "durationMinutes": 60,
	})
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate slug, got %d", rr.Code)
	}

	rr = serve(t, mux, http.MethodPatch, "/api/admin/services/"+created.ID, map[string]any{"active": false, "durationMinutes": 90})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if got := store.services[created.ID]; got.Active || got.DurationMinutes != 90 {
		t.Fatalf("patch not applied: %+v", got)
	}

	rr = serve(t, mux, http.MethodPatch, "/api/admin/services/missing", map[string]any{"active": true})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestCreateServiceValidation(t *testing.T) {
	mux := newMux(newMemoryStore())
	cases := []map[string]any{
		{"slug": "bad slug", "name": "x", "durationMinutes": 30},
		{"slug": "ok", "name": "", "durationMinutes": 30},
		{"slug": "ok", "name": "x", "durationMinutes": 0},
		{"slug": "ok", "name": "x", "durationMinutes": 30, "price": "12.345"},
	}
	for _, body := range cases {
		if rr := serve(t, mux, http.MethodPost, "/api/admin/services", body); rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %v, got %d", body, rr.Code)
		}
	}
}

func TestUpsertWorkingHours(t *testing.T) {
	store := newMemoryStore()
	mux := newMux(store)

	rr := serve(t, mux, http.MethodPut, "/api/admin/working-hours/0", map[string]any{
		"startTime": "10:00", "endTime": "16:00", "active": true,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if wh := store.hours[0]; !wh.Active || wh.EndTime != "16:00" {
		t.Fatalf("unexpected hours %+v", wh)
	}

	bad := []struct {
		path string
		body map[string]any
	}{
		{"/api/admin/working-hours/7", map[string]any{"startTime": "10:00", "endTime": "16:00"}},
		{"/api/admin/working-hours/x", map[string]any{"startTime": "10:00", "endTime": "16:00"}},
		{"/api/admin/working-hours/1", map[string]any{"startTime": "9:00", "endTime": "16:00"}},
		{"/api/admin/working-hours/1", map[string]any{"startTime": "16:00", "endTime": "09:00"}},
	}
	for _, tc := range bad {
		if rr := serve(t, mux, http.MethodPut, tc.path, tc.body); rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s %v, got %d", tc.path, tc.body, rr.Code)
		}
	}

	rr = serve(t, mux, http.MethodGet, "/api/admin/working-hours", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestRoutesAreWrapped(t *testing.T) {
	mux := http.NewServeMux()
	New(newMemoryStore(), nil).Register(mux, func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		})
	})
	for _, path := range []string{"/api/admin/services", "/api/admin/working-hours"} {
		if rr := serve(t, mux, http.MethodGet, path, nil); rr.Code != http.StatusForbidden {
			t.Fatalf("expected wrapper to guard %s, got %d", path, rr.Code)
		}
	}
}
