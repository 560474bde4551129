package main

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/minerva-salon/salonbook/libs/auth"
)

type upstreamHits struct {
	path string
	role string
}

func newUpstream(t *testing.T, name string, hits chan<- upstreamHits) *url.URL {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits <- upstreamHits{path: name + r.URL.Path, role: r.Header.Get("X-Role")}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return u
}

func TestRoutesProxyToUpstreams(t *testing.T) {
	const secret = "test-secret"
	hits := make(chan upstreamHits, 8)
	mux := http.NewServeMux()
	registerRoutes(mux, upstreams{
		booking:  newUpstream(t, "booking", hits),
		schedule: newUpstream(t, "schedule", hits),
	}, secret)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/availability?date=2026-03-02&service=haircut", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := <-hits; got.path != "booking/api/availability" {
		t.Fatalf("unexpected upstream %q", got.path)
	}

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/admin/services", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rr.Code)
	}

	staff, err := auth.SignHS256("user-2", "stylist", secret, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/admin/services", nil)
	req.Header.Set("Authorization", "Bearer "+staff)
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin role, got %d", rr.Code)
	}

	owner, err := auth.SignHS256("user-1", "owner", secret, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req = httptest.NewRequest(http.MethodPut, "/api/admin/working-hours/1", nil)
	req.Header.Set("Authorization", "Bearer "+owner)
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := <-hits; got.path != "schedule/api/admin/working-hours/1" || got.role != "owner" {
		t.Fatalf("unexpected upstream hit %+v", got)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/admin/appointments/abc/cancel", nil)
	req.Header.Set("Authorization", "Bearer "+owner)
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if got := <-hits; got.path != "booking/api/admin/appointments/abc/cancel" {
		t.Fatalf("unexpected upstream %q", got.path)
	}
}

func TestUnavailableUpstreamIsBadGateway(t *testing.T) {
	mux := http.NewServeMux()
	dead := &url.URL{Scheme: "http", Host: "127.0.0.1:1"}
	registerRoutes(mux, upstreams{booking: dead, schedule: dead}, "s")

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/services", nil))
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rr.Code)
	}
}
