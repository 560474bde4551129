package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/minerva-salon/salonbook/services/booking-service/internal/ledger"
	"github.com/minerva-salon/salonbook/services/booking-service/internal/model"
	"github.com/minerva-salon/salonbook/services/booking-service/internal/schedule"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	serviceID     = "11111111-1111-1111-1111-111111111111"
	appointmentID = "22222222-2222-2222-2222-222222222222"
	monday        = "2026-03-02"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func reservation(key string) ledger.Reservation {
	return ledger.Reservation{
		IdempotencyKey: key,
		Appointment: model.Appointment{
			ServiceID: serviceID,
			Date:      monday,
			StartTime: "14:00",
			EndTime:   "15:00",
			Customer:  model.Customer{FirstName: "Ada", LastName: "Lovelace", Phone: "5551234567", Email: "ada@example.com"},
			Status:    model.StatusConfirmed,
			Source:    model.DefaultSource,
		},
	}
}

var appointmentCols = []string{
	"id", "service_id", "appointment_date", "start_time", "end_time",
	"customer_first", "customer_last", "customer_phone", "customer_email", "notes", "status", "source",
	"created_at", "cancelled_at", "cancellation_reason",
}

func appointmentRow(status string, cancelledAt *time.Time) *pgxmock.Rows {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var cancelled any
	if cancelledAt != nil {
		cancelled = cancelledAt
	}
	return pgxmock.NewRows(appointmentCols).AddRow(
		appointmentID, serviceID, monday, "14:00", "15:00",
		"Ada", "Lovelace", "5551234567", "ada@example.com", "", status, "booking-page",
		created, cancelled, "",
	)
}

func expectReserveHead(mock pgxmock.PgxPoolIface) {
	mock.ExpectExec("pg_advisory_xact_lock").
		WithArgs(serviceID + "|" + monday).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
}

func TestReserveInsertsWhenFree(t *testing.T) {
	mock := newMock(t)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	expectReserveHead(mock)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(serviceID, monday, 840, 900).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(pgxmock.AnyArg(), serviceID, monday, "14:00", "15:00", 840, 900,
			"Ada", "Lovelace", "5551234567", "ada@example.com", "", model.StatusConfirmed, model.DefaultSource).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(created))
	mock.ExpectCommit()

	repo := NewBookingRepository(mock)
	appt, replayed, err := repo.Reserve(context.Background(), reservation(""))
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.NotEmpty(t, appt.ID)
	assert.Equal(t, created, appt.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveOverlapIsSlotTaken(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBegin()
	expectReserveHead(mock)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(serviceID, monday, 840, 900).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, _, err := NewBookingRepository(mock).Reserve(context.Background(), reservation(""))
	assert.ErrorIs(t, err, ledger.ErrSlotTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveExclusionViolationIsSlotTaken(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBegin()
	expectReserveHead(mock)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(serviceID, monday, 840, 900).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(anyArgs(14)...).
		WillReturnError(&pgconn.PgError{Code: "23P01", ConstraintName: "appointments_no_overlap"})
	mock.ExpectRollback()

	_, _, err := NewBookingRepository(mock).Reserve(context.Background(), reservation(""))
	assert.ErrorIs(t, err, ledger.ErrSlotTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveSerializationFailureIsTransient(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBegin()
	expectReserveHead(mock)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(anyArgs(4)...).
		WillReturnError(&pgconn.PgError{Code: "40001"})
	mock.ExpectRollback()

	_, _, err := NewBookingRepository(mock).Reserve(context.Background(), reservation(""))
	assert.ErrorIs(t, err, ledger.ErrTransient)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveReplaysIdempotencyKey(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO booking_idempotency_keys").
		WithArgs("key-1").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectQuery("FROM booking_idempotency_keys").
		WithArgs("key-1").
		WillReturnRows(pgxmock.NewRows([]string{"appointment_id"}).AddRow(appointmentID))
	mock.ExpectQuery("FROM appointments WHERE id").
		WithArgs(appointmentID).
		WillReturnRows(appointmentRow(model.StatusConfirmed, nil))
	mock.ExpectCommit()

	appt, replayed, err := NewBookingRepository(mock).Reserve(context.Background(), reservation("key-1"))
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, appointmentID, appt.ID)
	assert.Nil(t, appt.CancelledAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveRecordsNewIdempotencyKey(t *testing.T) {
	mock := newMock(t)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO booking_idempotency_keys").
		WithArgs("key-2").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery("FROM booking_idempotency_keys").
		WithArgs("key-2").
		WillReturnRows(pgxmock.NewRows([]string{"appointment_id"}).AddRow(""))
	expectReserveHead(mock)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(anyArgs(4)...).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(anyArgs(14)...).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(created))
	mock.ExpectExec("UPDATE booking_idempotency_keys").
		WithArgs("key-2", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	_, replayed, err := NewBookingRepository(mock).Reserve(context.Background(), reservation("key-2"))
	require.NoError(t, err)
	assert.False(t, replayed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOccupied(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("SELECT start_minute, end_minute").
		WithArgs(serviceID, monday).
		WillReturnRows(pgxmock.NewRows([]string{"start_minute", "end_minute"}).AddRow(600, 660).AddRow(840, 900))

	got, err := NewBookingRepository(mock).Occupied(context.Background(), serviceID, monday)
	require.NoError(t, err)
	assert.Equal(t, []model.Interval{{Start: 600, End: 660}, {Start: 840, End: 900}}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGet(t *testing.T) {
	mock := newMock(t)
	repo := NewBookingRepository(mock)

	_, err := repo.Get(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	mock.ExpectQuery("FROM appointments WHERE id").
		WithArgs(appointmentID).
		WillReturnError(pgx.ErrNoRows)
	_, err = repo.Get(context.Background(), appointmentID)
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	mock.ExpectQuery("FROM appointments WHERE id").
		WithArgs(appointmentID).
		WillReturnRows(appointmentRow(model.StatusConfirmed, nil))
	appt, err := repo.Get(context.Background(), appointmentID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", appt.Customer.Email)
	assert.Equal(t, "15:00", appt.EndTime)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestByIdempotencyKey(t *testing.T) {
	mock := newMock(t)
	repo := NewBookingRepository(mock)

	mock.ExpectQuery("booking_idempotency_keys WHERE idempotency_key").
		WithArgs("key-1").
		WillReturnRows(appointmentRow(model.StatusConfirmed, nil))
	appt, err := repo.ByIdempotencyKey(context.Background(), "key-1")
	require.NoError(t, err)
	assert.Equal(t, appointmentID, appt.ID)

	mock.ExpectQuery("booking_idempotency_keys WHERE idempotency_key").
		WithArgs("key-2").
		WillReturnError(pgx.ErrNoRows)
	_, err = repo.ByIdempotencyKey(context.Background(), "key-2")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancel(t *testing.T) {
	mock := newMock(t)
	repo := NewBookingRepository(mock)
	at := time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)

	mock.ExpectQuery("UPDATE appointments").
		WithArgs(appointmentID, "sick").
		WillReturnRows(appointmentRow(model.StatusCancelled, &at))
	appt, err := repo.Cancel(context.Background(), appointmentID, "sick")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, appt.Status)
	require.NotNil(t, appt.CancelledAt)

	mock.ExpectQuery("UPDATE appointments").
		WithArgs(appointmentID, "again").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("FROM appointments WHERE id").
		WithArgs(appointmentID).
		WillReturnRows(appointmentRow(model.StatusCancelled, &at))
	_, err = repo.Cancel(context.Background(), appointmentID, "again")
	assert.ErrorIs(t, err, ledger.ErrAlreadyCancelled)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepository(t *testing.T) {
	mock := newMock(t)
	repo := NewScheduleRepository(mock)
	cols := []string{"id", "slug", "name", "description", "price", "duration_minutes", "active"}

	mock.ExpectQuery("FROM services WHERE slug").
		WithArgs("haircut").
		WillReturnRows(pgxmock.NewRows(cols).AddRow(serviceID, "haircut", "Haircut", "", "45.00", 60, true))
	svc, err := repo.ServiceBySlug(context.Background(), "haircut")
	require.NoError(t, err)
	assert.Equal(t, 60, svc.DurationMinutes)

	mock.ExpectQuery("FROM services WHERE slug").
		WithArgs("massage").
		WillReturnError(pgx.ErrNoRows)
	_, err = repo.ServiceBySlug(context.Background(), "massage")
	assert.ErrorIs(t, err, schedule.ErrServiceNotFound)

	_, err = repo.ServiceByID(context.Background(), "bogus")
	assert.ErrorIs(t, err, schedule.ErrServiceNotFound)

	mock.ExpectQuery("FROM working_hours").
		WithArgs(0).
		WillReturnError(pgx.ErrNoRows)
	_, ok, err := repo.WorkingHoursFor(context.Background(), 0)
	require.NoError(t, err)
	assert.False(t, ok)

	mock.ExpectQuery("FROM working_hours").
		WithArgs(1).
		WillReturnRows(pgxmock.NewRows([]string{"start_time", "end_time", "active"}).AddRow("08:00", "21:00", true))
	hours, ok, err := repo.WorkingHoursFor(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, model.WorkingHours{Weekday: 1, Open: "08:00", Close: "21:00", Active: true}, hours)

	mock.ExpectQuery("FROM services").
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow(serviceID, "haircut", "Haircut", "", "45.00", 60, true).
			AddRow("33333333-3333-3333-3333-333333333333", "treatment", "Hair Treatment", "", "55.00", 60, true))
	list, err := repo.ListActiveServices(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestErrorClassification(t *testing.T) {
	assert.True(t, IsConflict(&pgconn.PgError{Code: "23P01"}))
	assert.False(t, IsConflict(&pgconn.PgError{Code: "23505"}))
	assert.True(t, IsRetryable(&pgconn.PgError{Code: "40P01"}))
	assert.True(t, IsNotFound(pgx.ErrNoRows))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}
