package appointments

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odontosorriso/booking-platform/internal/clinic"
)

var apptColumns = []string{
	"id", "patient_name", "patient_phone", "treatment", "slot_date",
	"slot_time", "scheduled_for", "channel", "status", "notes", "created_at",
}

func TestPostgresRepositoryCreate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	scheduled := time.Date(2026, 9, 2, 14, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO appointments").
		WithArgs("a1", "Maria Silva", "5511999990000", "limpeza", "2026-09-02",
			"14:00", scheduled, ChannelChat, StatusConfirmed, "", now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), &Appointment{
		ID:           "a1",
		PatientName:  "Maria Silva",
		PatientPhone: "5511999990000",
		Treatment:    clinic.TreatmentLimpeza,
		Date:         "2026-09-02",
		Time:         "14:00",
		ScheduledFor: scheduled,
		Channel:      ChannelChat,
		Status:       StatusConfirmed,
		CreatedAt:    now,
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositoryGetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	scheduled := time.Date(2026, 9, 2, 14, 0, 0, 0, time.UTC)
	created := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM appointments").
		WithArgs("a1").
		WillReturnRows(pgxmock.NewRows(apptColumns).
			AddRow("a1", "Maria Silva", "5511999990000", "limpeza", "2026-09-02",
				"14:00", scheduled, ChannelChat, StatusConfirmed, "", created))

	appt, err := repo.GetByID(context.Background(), "a1")

	require.NoError(t, err)
	assert.Equal(t, clinic.TreatmentLimpeza, appt.Treatment)
	assert.Equal(t, "2026-09-02", appt.Date)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositoryGetByIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)

	mock.ExpectQuery("SELECT (.+) FROM appointments").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.GetByID(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositoryUpdateStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)

	mock.ExpectExec("UPDATE appointments SET status").
		WithArgs("a1", StatusCancelled).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "a1", StatusCancelled))

	mock.ExpectExec("UPDATE appointments SET status").
		WithArgs("missing", StatusCancelled).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = repo.UpdateStatus(context.Background(), "missing", StatusCancelled)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositoryList(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	scheduled := time.Date(2026, 9, 2, 14, 0, 0, 0, time.UTC)
	created := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM appointments").
		WillReturnRows(pgxmock.NewRows(apptColumns).
			AddRow("a2", "João Costa", "5511888880000", "canal", "2026-09-03",
				"09:00", scheduled, ChannelWeb, StatusConfirmed, "", created.Add(time.Hour)).
			AddRow("a1", "Maria Silva", "5511999990000", "limpeza", "2026-09-02",
				"14:00", scheduled, ChannelChat, StatusConfirmed, "", created))

	appts, err := repo.List(context.Background())

	require.NoError(t, err)
	require.Len(t, appts, 2)
	assert.Equal(t, "a2", appts[0].ID)
	assert.Equal(t, clinic.TreatmentCanal, appts[0].Treatment)
	assert.NoError(t, mock.ExpectationsWereMet())
}
