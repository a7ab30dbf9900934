package provider

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var providerCols = []string{"id", "weekly_schedule", "appointment_duration", "timezone", "created_at", "updated_at"}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func scheduleJSON(t *testing.T, ws WeeklySchedule) []byte {
	t.Helper()
	raw, err := json.Marshal(ws)
	require.NoError(t, err)
	return raw
}

func TestPgGetByID_DecodesSchedule(t *testing.T) {
	mock := newMock(t)
	repo := NewPgRepository(mock)

	id := uuid.New()
	now := time.Now().UTC()
	ws := WeeklySchedule{Monday: window("09:00", "17:00")}

	mock.ExpectQuery("FROM providers").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(providerCols).
			AddRow(id, scheduleJSON(t, ws), 30, "UTC", now, now))

	got, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, id, got.ID)
	assert.Equal(t, 30, got.AppointmentDuration)
	require.NotNil(t, got.WeeklySchedule.Monday)
	assert.Equal(t, "09:00", got.WeeklySchedule.Monday.Start)
	assert.Nil(t, got.WeeklySchedule.Sunday)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPgGetByID_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewPgRepository(mock)
	id := uuid.New()

	mock.ExpectQuery("FROM providers").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(providerCols))

	_, err := repo.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPgCreate_AppliesDefaults(t *testing.T) {
	mock := newMock(t)
	repo := NewPgRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery("INSERT INTO providers").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), DefaultAppointmentDuration, DefaultTimezone).
		WillReturnRows(pgxmock.NewRows(providerCols).
			AddRow(uuid.New(), scheduleJSON(t, WeeklySchedule{}), DefaultAppointmentDuration, DefaultTimezone, now, now))

	got, err := repo.Create(context.Background(), Provider{})
	require.NoError(t, err)

	assert.Equal(t, DefaultAppointmentDuration, got.AppointmentDuration)
	assert.Equal(t, DefaultTimezone, got.Timezone)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPgUpdate_PartialFields(t *testing.T) {
	mock := newMock(t)
	repo := NewPgRepository(mock)

	id := uuid.New()
	now := time.Now().UTC()
	duration := 45

	// Only the duration is set; schedule and timezone stay NULL and fall back
	// to the stored values via COALESCE.
	mock.ExpectQuery("UPDATE providers").
		WithArgs(id, []byte(nil), &duration, (*string)(nil)).
		WillReturnRows(pgxmock.NewRows(providerCols).
			AddRow(id, scheduleJSON(t, WeeklySchedule{}), duration, "UTC", now, now))

	got, err := repo.Update(context.Background(), id, UpdateParams{AppointmentDuration: &duration})
	require.NoError(t, err)
	assert.Equal(t, 45, got.AppointmentDuration)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPgDelete(t *testing.T) {
	mock := newMock(t)
	repo := NewPgRepository(mock)
	id := uuid.New()

	mock.ExpectExec("DELETE FROM providers").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, repo.Delete(context.Background(), id))

	mock.ExpectExec("DELETE FROM providers").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), id), ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPgGetAll_Ordering(t *testing.T) {
	mock := newMock(t)
	repo := NewPgRepository(mock)

	first := uuid.New()
	second := uuid.New()
	early := time.Now().UTC().Add(-time.Hour)
	late := time.Now().UTC()

	mock.ExpectQuery("ORDER BY created_at ASC").
		WillReturnRows(pgxmock.NewRows(providerCols).
			AddRow(first, scheduleJSON(t, WeeklySchedule{}), 30, "UTC", early, early).
			AddRow(second, scheduleJSON(t, WeeklySchedule{}), 30, "UTC", late, late))

	got, err := repo.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, first, got[0].ID)
	assert.Equal(t, second, got[1].ID)
}
