package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/slotwise/appointment-scheduling/internal/db"
	"github.com/slotwise/appointment-scheduling/internal/event"
)

const appointmentColumns = `id, provider_id, patient_id, start_time, end_time, status, created_at, updated_at`

// PgRepository implements Repository on Postgres. Every write runs inside a
// transaction that first takes a provider-scoped advisory lock, so conflicting
// writers for the same provider serialize while different providers proceed in
// parallel.
type PgRepository struct {
	conn db.Conn
}

func NewPgRepository(conn db.Conn) *PgRepository {
	return &PgRepository{conn: conn}
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.ProviderID,
		&a.PatientID,
		&a.StartTime,
		&a.EndTime,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &a, nil
}

// inTx runs fn inside a transaction. A context deadline hit while the
// transaction is in flight surfaces as ErrStoreBusy; the transaction itself is
// rolled back, leaving no partial write.
func (r *PgRepository) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.conn.Begin(ctx)
	if err != nil {
		return transient(fmt.Errorf("begin tx: %w", err))
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return transient(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return transient(fmt.Errorf("commit tx: %w", err))
	}

	return nil
}

func transient(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrStoreBusy, err)
	}
	return err
}

// lockProvider serializes all booking writes for one provider for the
// duration of the surrounding transaction. It blocks until any in-flight
// transaction for the same provider commits or rolls back.
func lockProvider(ctx context.Context, tx pgx.Tx, providerID uuid.UUID) error {
	_, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, providerID.String())
	if err != nil {
		return fmt.Errorf("acquire provider lock: %w", err)
	}
	return nil
}

// findConflict probes for a non-cancelled appointment of the provider whose
// interval collides with [start, end] under the inclusive boundary rule
// (start_time <= end AND end_time >= start). exclude removes the rescheduled
// appointment's own row from consideration.
func findConflict(ctx context.Context, tx pgx.Tx, providerID uuid.UUID, start, end time.Time, exclude *uuid.UUID) (bool, error) {
	row := tx.QueryRow(ctx, `
		SELECT id
		FROM appointments
		WHERE provider_id = $1
		  AND status <> 'CANCELLED'
		  AND start_time <= $3
		  AND end_time >= $2
		  AND ($4::uuid IS NULL OR id <> $4)
		LIMIT 1
	`, providerID, start, end, exclude)

	var id uuid.UUID
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("conflict probe: %w", err)
	}

	return true, nil
}

func getForUpdateCheck(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*Appointment, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

// CreateConfirmed inserts a CONFIRMED appointment if and only if no
// non-cancelled appointment of the same provider overlaps the candidate
// interval. The check and the insert commit as one unit.
func (r *PgRepository) CreateConfirmed(ctx context.Context, appt Appointment) (*Appointment, error) {
	if appt.ID == uuid.Nil {
		appt.ID = uuid.New()
	}
	appt.Status = StatusConfirmed

	var created *Appointment
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		if err := lockProvider(ctx, tx, appt.ProviderID); err != nil {
			return err
		}

		conflict, err := findConflict(ctx, tx, appt.ProviderID, appt.StartTime, appt.EndTime, nil)
		if err != nil {
			return err
		}
		if conflict {
			return ErrSlotTaken
		}

		row := tx.QueryRow(ctx, `
			INSERT INTO appointments (id, provider_id, patient_id, start_time, end_time, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, now(), now())
			RETURNING `+appointmentColumns+`
		`, appt.ID, appt.ProviderID, appt.PatientID, appt.StartTime, appt.EndTime, appt.Status)

		created, err = scanAppointment(row)
		return err
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// Reschedule moves an appointment to a new interval. Inside the provider's
// critical section it re-checks that the appointment still exists, is not
// cancelled, and that the new interval is free (ignoring the appointment's own
// prior interval).
func (r *PgRepository) Reschedule(ctx context.Context, id uuid.UUID, newStart, newEnd time.Time) (*Appointment, error) {
	var updated *Appointment
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		current, err := getForUpdateCheck(ctx, tx, id)
		if err != nil {
			return err
		}

		if err := lockProvider(ctx, tx, current.ProviderID); err != nil {
			return err
		}

		// Re-check inside the critical section: a concurrent cancel or
		// reschedule may have committed while we waited on the lock.
		current, err = getForUpdateCheck(ctx, tx, id)
		if err != nil {
			return err
		}
		if current.Status == StatusCancelled {
			return ErrRescheduleCancelled
		}

		conflict, err := findConflict(ctx, tx, current.ProviderID, newStart, newEnd, &id)
		if err != nil {
			return err
		}
		if conflict {
			return ErrSlotTaken
		}

		row := tx.QueryRow(ctx, `
			UPDATE appointments
			SET start_time = $2,
			    end_time   = $3,
			    status     = 'CONFIRMED',
			    updated_at = now()
			WHERE id = $1
			RETURNING `+appointmentColumns+`
		`, id, newStart, newEnd)

		updated, err = scanAppointment(row)
		return err
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Cancel marks an appointment CANCELLED. A second cancel is a conflict, not a
// no-op.
func (r *PgRepository) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	var cancelled *Appointment
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		current, err := getForUpdateCheck(ctx, tx, id)
		if err != nil {
			return err
		}

		if err := lockProvider(ctx, tx, current.ProviderID); err != nil {
			return err
		}

		current, err = getForUpdateCheck(ctx, tx, id)
		if err != nil {
			return err
		}
		if current.Status == StatusCancelled {
			return ErrAlreadyCancelled
		}

		row := tx.QueryRow(ctx, `
			UPDATE appointments
			SET status     = 'CANCELLED',
			    updated_at = now()
			WHERE id = $1
			RETURNING `+appointmentColumns+`
		`, id)

		cancelled, err = scanAppointment(row)
		return err
	})
	if err != nil {
		return nil, err
	}

	return cancelled, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.conn.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

// List returns appointments matching the filter, ordered by ascending start
// time. Date bounds are inclusive on both ends.
func (r *PgRepository) List(ctx context.Context, f Filter) ([]Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments`

	var conds []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.ProviderID != nil {
		add("provider_id = $%d", *f.ProviderID)
	}
	if f.PatientID != nil {
		add("patient_id = $%d", *f.PatientID)
	}
	if f.Status != nil {
		add("status = $%d", *f.Status)
	}
	if f.StartDate != nil {
		add("start_time >= $%d", *f.StartDate)
	}
	if f.EndDate != nil {
		add("start_time <= $%d", *f.EndDate)
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY start_time ASC"

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// InsertEventLog appends a delivered lifecycle event to event_logs. It is
// called by the bus persister after commit, outside any booking transaction.
func (r *PgRepository) InsertEventLog(ctx context.Context, rec event.LogRecord) error {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.conn.Exec(ctx, `
		INSERT INTO event_logs (event_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4)
	`, rec.EventID, string(rec.Type), rec.Payload, createdAt)
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}
