package availability

import (
	"github.com/minerva-salon/salonbook/services/booking-service/internal/clock"
	"github.com/minerva-salon/salonbook/services/booking-service/internal/model"
)

// DefaultStep is the spacing between candidate start times.
const DefaultStep = 30

type Slot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// Slots enumerates candidate starts in [open, close) every step minutes while start+duration fits
// before close. Starts before pastCutoff are omitted. A candidate is unavailable when
// [start, start+duration) overlaps any busy interval.
//
// All values are minutes since midnight on the same day.
func Slots(open, close, duration, step int, busy []model.Interval, pastCutoff int) []Slot {
	if duration <= 0 || step <= 0 || close <= open {
		return []Slot{}
	}

	slots := []Slot{}
	for start := open; start+duration <= close; start += step {
		if start < pastCutoff {
			continue
		}
		label, err := clock.ToClockTime(start)
		if err != nil {
			break
		}
		slots = append(slots, Slot{
			Time:      label,
			Available: !overlapsAny(model.Interval{Start: start, End: start + duration}, busy),
		})
	}
	return slots
}

func overlapsAny(candidate model.Interval, busy []model.Interval) bool {
	for _, b := range busy {
		if candidate.Overlaps(b) {
			return true
		}
	}
	return false
}

// AvailableTimes keeps only the bookable start times.
func AvailableTimes(slots []Slot) []string {
	out := []string{}
	for _, s := range slots {
		if s.Available {
			out = append(out, s.Time)
		}
	}
	return out
}
