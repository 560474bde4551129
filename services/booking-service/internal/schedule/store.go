// Package schedule holds the salon's service catalog and weekly working hours.
package schedule

import (
	"context"
	"errors"

	"github.com/minerva-salon/salonbook/services/booking-service/internal/model"
)

var ErrServiceNotFound = errors.New("service not found")

// Store is read by the availability calculator and the booking manager. Lookups return
// inactive services too; callers decide what inactive means for them.
type Store interface {
	ServiceBySlug(ctx context.Context, slug string) (model.Service, error)
	ServiceByID(ctx context.Context, id string) (model.Service, error)
	ListActiveServices(ctx context.Context) ([]model.Service, error)
	// WorkingHoursFor reports ok=false when the weekday has no row.
	WorkingHoursFor(ctx context.Context, weekday int) (hours model.WorkingHours, ok bool, err error)
}
