package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/slotwise/appointment-scheduling/internal/db"
)

type PgRepository struct {
	conn db.Conn
}

func NewPgRepository(conn db.Conn) *PgRepository {
	return &PgRepository{conn: conn}
}

func scanProvider(row pgx.Row) (*Provider, error) {
	var p Provider
	var schedule []byte

	err := row.Scan(
		&p.ID,
		&schedule,
		&p.AppointmentDuration,
		&p.Timezone,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if len(schedule) > 0 {
		if err := json.Unmarshal(schedule, &p.WeeklySchedule); err != nil {
			return nil, fmt.Errorf("decode weekly schedule for provider %s: %w", p.ID, err)
		}
	}

	return &p, nil
}

func (r *PgRepository) GetAll(ctx context.Context) ([]Provider, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, weekly_schedule, appointment_duration, timezone, created_at, updated_at
		FROM providers
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Provider, error) {
	row := r.conn.QueryRow(ctx, `
		SELECT id, weekly_schedule, appointment_duration, timezone, created_at, updated_at
		FROM providers
		WHERE id = $1
	`, id)
	return scanProvider(row)
}

func (r *PgRepository) Create(ctx context.Context, p Provider) (*Provider, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.AppointmentDuration <= 0 {
		p.AppointmentDuration = DefaultAppointmentDuration
	}
	if p.Timezone == "" {
		p.Timezone = DefaultTimezone
	}

	schedule, err := json.Marshal(p.WeeklySchedule)
	if err != nil {
		return nil, fmt.Errorf("encode weekly schedule: %w", err)
	}

	row := r.conn.QueryRow(ctx, `
		INSERT INTO providers (id, weekly_schedule, appointment_duration, timezone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING id, weekly_schedule, appointment_duration, timezone, created_at, updated_at
	`, p.ID, schedule, p.AppointmentDuration, p.Timezone)

	return scanProvider(row)
}

func (r *PgRepository) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*Provider, error) {
	var schedule []byte
	if params.WeeklySchedule != nil {
		var err error
		schedule, err = json.Marshal(params.WeeklySchedule)
		if err != nil {
			return nil, fmt.Errorf("encode weekly schedule: %w", err)
		}
	}

	row := r.conn.QueryRow(ctx, `
		UPDATE providers
		SET weekly_schedule      = COALESCE($2, weekly_schedule),
		    appointment_duration = COALESCE($3, appointment_duration),
		    timezone             = COALESCE($4, timezone),
		    updated_at           = now()
		WHERE id = $1
		RETURNING id, weekly_schedule, appointment_duration, timezone, created_at, updated_at
	`, id, schedule, params.AppointmentDuration, params.Timezone)

	return scanProvider(row)
}

func (r *PgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn.Exec(ctx, `DELETE FROM providers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
