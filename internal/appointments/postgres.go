package appointments

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/odontosorriso/booking-platform/internal/clinic"
)

// pgxQuerier is the slice of pgxpool.Pool the repository needs; tests
// substitute a pgxmock pool.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository persists appointments with pgx.
type PostgresRepository struct {
	db pgxQuerier
}

// NewPostgresRepository creates a repository over a pgx pool.
func NewPostgresRepository(db pgxQuerier) *PostgresRepository {
	if db == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

// Create inserts a new appointment row.
func (r *PostgresRepository) Create(ctx context.Context, appt *Appointment) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO appointments
			(id, patient_name, patient_phone, treatment, slot_date, slot_time,
			 scheduled_for, channel, status, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, appt.ID, appt.PatientName, appt.PatientPhone, string(appt.Treatment),
		appt.Date, appt.Time, appt.ScheduledFor, appt.Channel, appt.Status,
		appt.Notes, appt.CreatedAt)
	if err != nil {
		return fmt.Errorf("appointments: insert: %w", err)
	}
	return nil
}

// GetByID loads one appointment.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, patient_name, patient_phone, treatment, slot_date, slot_time,
		       scheduled_for, channel, status, notes, created_at
		FROM appointments
		WHERE id = $1
	`, id)

	appt, err := scanAppointment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("appointments: load: %w", err)
	}
	return appt, nil
}

// List returns all appointments, newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]*Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, patient_name, patient_phone, treatment, slot_date, slot_time,
		       scheduled_for, channel, status, notes, created_at
		FROM appointments
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("appointments: list: %w", err)
	}
	defer rows.Close()

	var out []*Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan: %w", err)
		}
		out = append(out, appt)
	}
	return out, rows.Err()
}

// UpdateStatus changes the status of an existing appointment.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id, status string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE appointments SET status = $2 WHERE id = $1
	`, id, status)
	if err != nil {
		return fmt.Errorf("appointments: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var appt Appointment
	var treatment string
	err := row.Scan(&appt.ID, &appt.PatientName, &appt.PatientPhone, &treatment,
		&appt.Date, &appt.Time, &appt.ScheduledFor, &appt.Channel, &appt.Status,
		&appt.Notes, &appt.CreatedAt)
	if err != nil {
		return nil, err
	}
	appt.Treatment = clinic.Treatment(treatment)
	return &appt, nil
}
