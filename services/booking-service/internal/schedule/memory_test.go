package schedule

import (
	"context"
	"errors"
	"testing"

	"github.com/minerva-salon/salonbook/services/booking-service/internal/model"
)

func TestDefaultMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewDefaultMemoryStore()

	svc, err := s.ServiceBySlug(ctx, "coloring")
	if err != nil || svc.DurationMinutes != 120 || svc.ID == "" {
		t.Fatalf("coloring = %+v, %v", svc, err)
	}
	byID, err := s.ServiceByID(ctx, svc.ID)
	if err != nil || byID.Slug != "coloring" {
		t.Fatalf("ServiceByID = %+v, %v", byID, err)
	}
	if _, err := s.ServiceBySlug(ctx, "massage"); !errors.Is(err, ErrServiceNotFound) {
		t.Fatalf("expected ErrServiceNotFound, got %v", err)
	}

	sunday, ok, _ := s.WorkingHoursFor(ctx, 0)
	if !ok || sunday.Active {
		t.Fatalf("sunday should exist and be inactive: %+v", sunday)
	}
	monday, ok, _ := s.WorkingHoursFor(ctx, 1)
	if !ok || !monday.Active || monday.Open != "08:00" || monday.Close != "21:00" {
		t.Fatalf("monday = %+v", monday)
	}
}

func TestListActiveServicesSortedByName(t *testing.T) {
	s := NewMemoryStore([]model.Service{
		{Slug: "b", Name: "Beta", DurationMinutes: 30, Active: true},
		{Slug: "a", Name: "Alpha", DurationMinutes: 30, Active: true},
		{Slug: "z", Name: "Zed", DurationMinutes: 30, Active: false},
	}, nil)
	got, err := s.ListActiveServices(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Name != "Alpha" || got[1].Name != "Beta" {
		t.Fatalf("unexpected services %+v", got)
	}
}
