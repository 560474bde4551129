// Package availability computes the bookable start times of a service on a date.
package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/minerva-salon/salonbook/services/booking-service/internal/clock"
	"github.com/minerva-salon/salonbook/services/booking-service/internal/ledger"
	"github.com/minerva-salon/salonbook/services/booking-service/internal/schedule"
)

var ErrServiceNotFound = schedule.ErrServiceNotFound

// Calculator reads the schedule and the ledger on every call and caches nothing.
type Calculator struct {
	store  schedule.Store
	ledger ledger.Ledger
	loc    *time.Location
	step   int
}

func NewCalculator(store schedule.Store, l ledger.Ledger, loc *time.Location) *Calculator {
	if loc == nil {
		loc = time.UTC
	}
	return &Calculator{store: store, ledger: l, loc: loc, step: DefaultStep}
}

func (c *Calculator) Location() *time.Location {
	return c.loc
}

// ComputeSlots returns the slots of serviceSlug on date as seen at now. A closed day yields an
// empty list, a missing or inactive service yields ErrServiceNotFound.
func (c *Calculator) ComputeSlots(ctx context.Context, date, serviceSlug string, now time.Time) ([]Slot, error) {
	svc, err := c.store.ServiceBySlug(ctx, serviceSlug)
	if err != nil {
		return nil, err
	}
	if !svc.Active {
		return nil, ErrServiceNotFound
	}

	weekday, err := clock.WeekdayOf(date)
	if err != nil {
		return nil, err
	}
	hours, ok, err := c.store.WorkingHoursFor(ctx, weekday)
	if err != nil {
		return nil, fmt.Errorf("load working hours: %w", err)
	}
	if !ok || !hours.Active {
		return []Slot{}, nil
	}
	open, err := clock.ToMinutes(hours.Open)
	if err != nil {
		return nil, fmt.Errorf("working hours open for weekday %d: %w", weekday, err)
	}
	closeAt, err := clock.ToMinutes(hours.Close)
	if err != nil {
		return nil, fmt.Errorf("working hours close for weekday %d: %w", weekday, err)
	}

	busy, err := c.ledger.Occupied(ctx, svc.ID, date)
	if err != nil {
		return nil, fmt.Errorf("load appointments: %w", err)
	}

	return Slots(open, closeAt, svc.DurationMinutes, c.step, busy, PastCutoff(date, now, c.loc)), nil
}

// PastCutoff is the first minute of date that is not before now in loc. It is 0 for future
// dates and MinutesPerDay for dates already over.
func PastCutoff(date string, now time.Time, loc *time.Location) int {
	local := now.In(loc)
	today := local.Format(clock.DateLayout)
	switch {
	case date > today:
		return 0
	case date < today:
		return clock.MinutesPerDay
	}
	cutoff := local.Hour()*60 + local.Minute()
	if local.Second() > 0 || local.Nanosecond() > 0 {
		cutoff++
	}
	return cutoff
}
