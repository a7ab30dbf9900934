package main

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/slotwise/appointment-scheduling/internal/availability"
	"github.com/slotwise/appointment-scheduling/internal/config"
	"github.com/slotwise/appointment-scheduling/internal/db"
	"github.com/slotwise/appointment-scheduling/internal/provider"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	providerIDs, err := seedProviders(context.Background(), pool, 50)
	if err != nil {
		log.Fatalf("seed providers: %v", err)
	}
	if err := seedAppointments(context.Background(), pool, providerIDs, 2000); err != nil {
		log.Fatalf("seed appointments: %v", err)
	}

	log.Println("seed complete")
}

func window(start, end string) *availability.DailySchedule {
	return &availability.DailySchedule{Start: start, End: end}
}

func seedProviders(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d providers", count)

	durations := []int{15, 30, 45, 60}
	timezones := []string{"UTC", "America/New_York", "Europe/London", "Asia/Tokyo"}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()

		schedule := provider.WeeklySchedule{
			Monday:    window("09:00", "17:00"),
			Tuesday:   window("09:00", "17:00"),
			Wednesday: window("09:00", "17:00"),
			Thursday:  window("09:00", "17:00"),
			Friday:    window("09:00", "13:00"),
		}
		if gofakeit.Bool() {
			schedule.Saturday = window("10:00", "14:00")
		}

		raw, err := json.Marshal(schedule)
		if err != nil {
			return nil, err
		}

		duration := durations[gofakeit.Number(0, len(durations)-1)]
		tz := timezones[gofakeit.Number(0, len(timezones)-1)]

		_, err = tx.Exec(ctx, `
			INSERT INTO providers (id, weekly_schedule, appointment_duration, timezone, created_at, updated_at)
			VALUES ($1, $2, $3, $4, now(), now())
		`, id, raw, duration, tz)
		if err != nil {
			return nil, err
		}

		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("providers seeded")
	return ids, nil
}

// seedAppointments books sequential non-overlapping slots per provider across
// the coming weekdays, so the data obeys the same no-overlap rule the API
// enforces.
func seedAppointments(ctx context.Context, pool *pgxpool.Pool, providerIDs []uuid.UUID, count int) error {
	log.Printf("seeding %d appointments", count)

	const batchSize = 500
	perProvider := count / len(providerIDs)
	if perProvider == 0 {
		perProvider = 1
	}

	day := time.Now().UTC().AddDate(0, 0, 1).Truncate(24 * time.Hour)

	inserted := 0
	for _, providerID := range providerIDs {
		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		slot := day.Add(9 * time.Hour)
		for i := 0; i < perProvider; i++ {
			start := slot
			end := start.Add(30 * time.Minute)
			slot = end

			// Roll past the end of the working day.
			if slot.Hour() >= 17 {
				day = day.AddDate(0, 0, 1)
				slot = day.Add(9 * time.Hour)
			}

			_, err := tx.Exec(ctx, `
				INSERT INTO appointments (id, provider_id, patient_id, start_time, end_time, status, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, 'CONFIRMED', now(), now())
			`, uuid.New(), providerID, uuid.New(), start, end)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}

			inserted++
			if inserted%batchSize == 0 {
				log.Printf("seeded %d appointments", inserted)
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}
	}

	log.Println("appointments seeded")
	return nil
}
