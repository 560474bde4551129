// Package booking commits appointments to the ledger and informs the notification dispatcher.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/minerva-salon/salonbook/libs/events"
	"github.com/minerva-salon/salonbook/services/booking-service/internal/clock"
	"github.com/minerva-salon/salonbook/services/booking-service/internal/ledger"
	"github.com/minerva-salon/salonbook/services/booking-service/internal/metrics"
	"github.com/minerva-salon/salonbook/services/booking-service/internal/model"
	"github.com/minerva-salon/salonbook/services/booking-service/internal/notify"
	"github.com/minerva-salon/salonbook/services/booking-service/internal/schedule"
)

var (
	ErrServiceNotFound  = schedule.ErrServiceNotFound
	ErrSlotTaken        = ledger.ErrSlotTaken
	ErrNotFound         = ledger.ErrNotFound
	ErrAlreadyCancelled = ledger.ErrAlreadyCancelled

	ErrIdempotencyKeyReused = errors.New("idempotency key was already used for a different booking")
)

// unknownService labels metrics for requests that never resolved to a catalogue service.
const unknownService = "unknown"

// Dispatcher accepts events after commit. *notify.Queue implements it.
type Dispatcher interface {
	Enqueue(ctx context.Context, msg notify.Message) error
}

type Manager struct {
	store      schedule.Store
	ledger     ledger.Ledger
	dispatcher Dispatcher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	loc        *time.Location
	now        func() time.Time
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

func NewManager(store schedule.Store, l ledger.Ledger, dispatcher Dispatcher, logger *slog.Logger, loc *time.Location, opts ...Option) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	m := &Manager{
		store:      store,
		ledger:     l,
		dispatcher: dispatcher,
		logger:     logger,
		loc:        loc,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Result of a successful Book. Replayed is true when an Idempotency-Key matched an earlier booking.
type Result struct {
	Appointment model.AppointmentDetails
	Replayed    bool
}

// Book validates req, reserves the slot atomically and schedules the confirmation.
func (m *Manager) Book(ctx context.Context, req Request) (Result, error) {
	if err := Validate(req); err != nil {
		m.metrics.ObserveBooking(unknownService, "invalid")
		return Result{}, err
	}
	req = req.normalized()

	// A retried request is answered from the stored appointment, even once its start has passed.
	if req.IdempotencyKey != "" {
		appt, err := m.ledger.ByIdempotencyKey(ctx, req.IdempotencyKey)
		switch {
		case err == nil:
			return m.replay(ctx, req, appt)
		case !errors.Is(err, ErrNotFound):
			return Result{}, fmt.Errorf("look up idempotency key: %w", err)
		}
	}

	svc, err := m.activeService(ctx, req.Service)
	if err != nil {
		return Result{}, err
	}

	start, _ := clock.ToMinutes(req.Time)
	endTime, err := clock.ToClockTime(start + svc.DurationMinutes)
	if err != nil {
		m.metrics.ObserveBooking(svc.Slug, "invalid")
		return Result{}, invalid("time", "Appointment must end before midnight")
	}
	past, err := clock.IsInPast(req.Date, req.Time, m.now(), m.loc)
	if err != nil {
		return Result{}, err
	}
	if past {
		m.metrics.ObserveBooking(svc.Slug, "invalid")
		return Result{}, invalid("time", "Time slot is in the past")
	}

	reservation := ledger.Reservation{
		IdempotencyKey: req.IdempotencyKey,
		Appointment: model.Appointment{
			ServiceID: svc.ID,
			Date:      req.Date,
			StartTime: req.Time,
			EndTime:   endTime,
			Customer:  req.Customer,
			Notes:     req.Notes,
			Status:    model.StatusConfirmed,
			Source:    req.Source,
		},
	}

	began := time.Now()
	appt, replayed, err := m.ledger.Reserve(ctx, reservation)
	if errors.Is(err, ledger.ErrTransient) {
		m.logger.Warn("ledger reservation aborted, retrying once", "service", svc.Slug, "date", req.Date, "time", req.Time, "err", err)
		appt, replayed, err = m.ledger.Reserve(ctx, reservation)
	}
	m.metrics.ObserveCommit(time.Since(began).Seconds())
	if err != nil {
		if errors.Is(err, ErrSlotTaken) {
			m.metrics.ObserveBooking(svc.Slug, "conflict")
			return Result{}, ErrSlotTaken
		}
		m.metrics.ObserveBooking(svc.Slug, "error")
		return Result{}, fmt.Errorf("reserve appointment: %w", err)
	}

	if replayed {
		return m.replay(ctx, req, appt)
	}
	details := detailsOf(appt, svc)
	m.metrics.ObserveBooking(svc.Slug, "created")
	m.dispatch(ctx, events.AppointmentConfirmed, details)
	return Result{Appointment: details}, nil
}

// Get returns the appointment joined with its service.
func (m *Manager) Get(ctx context.Context, id string) (model.AppointmentDetails, error) {
	appt, err := m.ledger.Get(ctx, id)
	if err != nil {
		return model.AppointmentDetails{}, err
	}
	svc, err := m.store.ServiceByID(ctx, appt.ServiceID)
	if err != nil && !errors.Is(err, ErrServiceNotFound) {
		return model.AppointmentDetails{}, fmt.Errorf("load service %s: %w", appt.ServiceID, err)
	}
	return detailsOf(appt, svc), nil
}

// Cancel frees the slot and schedules the cancellation email.
func (m *Manager) Cancel(ctx context.Context, id, reason string) (model.AppointmentDetails, error) {
	appt, err := m.ledger.Cancel(ctx, id, reason)
	if err != nil {
		return model.AppointmentDetails{}, err
	}
	svc, err := m.store.ServiceByID(ctx, appt.ServiceID)
	if err != nil && !errors.Is(err, ErrServiceNotFound) {
		m.logger.Warn("cancelled appointment has no service", "appointment_id", id, "err", err)
	}
	details := detailsOf(appt, svc)
	m.dispatch(ctx, events.AppointmentCancelled, details)
	return details, nil
}

// replay answers a request whose idempotency key already committed an appointment. The
// appointment keeps its own service; a key reused for a different slot is rejected.
func (m *Manager) replay(ctx context.Context, req Request, appt model.Appointment) (Result, error) {
	svc, err := m.store.ServiceByID(ctx, appt.ServiceID)
	if err != nil && !errors.Is(err, ErrServiceNotFound) {
		return Result{}, fmt.Errorf("load service %s: %w", appt.ServiceID, err)
	}
	if (svc.Slug != "" && svc.Slug != req.Service) || appt.Date != req.Date || appt.StartTime != req.Time {
		m.metrics.ObserveBooking(unknownService, "key_reused")
		return Result{}, ErrIdempotencyKeyReused
	}
	label := svc.Slug
	if label == "" {
		label = unknownService
	}
	m.metrics.ObserveBooking(label, "replayed")
	return Result{Appointment: detailsOf(appt, svc), Replayed: true}, nil
}

// activeService resolves slug. Unresolved slugs are counted under unknownService.
func (m *Manager) activeService(ctx context.Context, slug string) (model.Service, error) {
	svc, err := m.store.ServiceBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, ErrServiceNotFound) {
			m.metrics.ObserveBooking(unknownService, "service_not_found")
		}
		return model.Service{}, err
	}
	if !svc.Active {
		m.metrics.ObserveBooking(unknownService, "service_not_found")
		return model.Service{}, ErrServiceNotFound
	}
	return svc, nil
}

// dispatch never fails the caller; a failed hand-off is logged and counted.
func (m *Manager) dispatch(ctx context.Context, eventType string, d model.AppointmentDetails) {
	if m.dispatcher == nil {
		return
	}
	err := m.dispatcher.Enqueue(ctx, notify.Message{
		AggregateType: "appointment",
		AggregateID:   d.ID,
		EventType:     eventType,
		Payload:       EventOf(d),
	})
	if err != nil {
		m.metrics.ObserveNotification(eventType, "failed")
		m.logger.Error("notification dispatch failed", "event_type", eventType, "appointment_id", d.ID, "err", err)
	}
}

func detailsOf(a model.Appointment, svc model.Service) model.AppointmentDetails {
	return model.AppointmentDetails{
		Appointment:     a,
		ServiceSlug:     svc.Slug,
		ServiceName:     svc.Name,
		DurationMinutes: svc.DurationMinutes,
	}
}

// EventOf builds the appointment event payload.
func EventOf(d model.AppointmentDetails) events.Appointment {
	return events.Appointment{
		AppointmentID:   d.ID,
		ServiceSlug:     d.ServiceSlug,
		ServiceName:     d.ServiceName,
		DurationMinutes: d.DurationMinutes,
		Date:            d.Date,
		StartTime:       d.StartTime,
		EndTime:         d.EndTime,
		DisplayDate:     clock.FormatDate(d.Date),
		DisplayTime:     clock.Format12h(d.StartTime),
		Customer: events.Customer{
			FirstName: d.Customer.FirstName,
			LastName:  d.Customer.LastName,
			Phone:     d.Customer.Phone,
			Email:     d.Customer.Email,
		},
		Notes:        d.Notes,
		Source:       d.Source,
		Status:       d.Status,
		CancelReason: d.CancelReason,
	}
}
