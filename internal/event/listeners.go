package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// LogListener writes one structured line per lifecycle event.
func LogListener(ctx context.Context, ev Event) error {
	l := log.With().
		Str("component", "event.listener").
		Str("event_id", ev.ID).
		Str("event_type", string(ev.Type)).
		Logger()

	switch p := ev.Payload.(type) {
	case AppointmentConfirmed:
		l.Info().
			Str("appointment_id", p.AppointmentID.String()).
			Str("provider_id", p.ProviderID.String()).
			Time("appointment_time", p.AppointmentTime).
			Msg("appointment confirmed")
	case AppointmentRescheduled:
		l.Info().
			Str("appointment_id", p.AppointmentID.String()).
			Time("previous_time", p.PreviousAppointmentTime).
			Time("new_time", p.NewAppointmentTime).
			Msg("appointment rescheduled")
	case AppointmentCancelled:
		l.Info().
			Str("appointment_id", p.AppointmentID.String()).
			Str("reason", string(p.Reason)).
			Msg("appointment cancelled")
	case ProviderScheduleUpdated:
		l.Info().
			Str("provider_id", p.ProviderID.String()).
			Int("appointment_duration", p.AppointmentDuration).
			Msg("provider schedule updated")
	case ProviderAvailabilityChecked:
		l.Info().
			Str("provider_id", p.ProviderID.String()).
			Str("date", p.Date).
			Int("slot_count", len(p.AvailableSlots)).
			Msg("provider availability checked")
	default:
		l.Info().Msg("event received")
	}

	return nil
}

// LogRecord is a persisted copy of a delivered event.
type LogRecord struct {
	EventID   string
	Type      Type
	Payload   []byte
	CreatedAt time.Time
}

// LogStore persists event log records.
type LogStore interface {
	InsertEventLog(ctx context.Context, rec LogRecord) error
}

// NewLogPersister returns a handler that appends every event to the event_logs
// table. Failures are reported to the bus (which logs them) and never affect
// the committed state change that produced the event.
func NewLogPersister(store LogStore) Handler {
	return func(ctx context.Context, ev Event) error {
		payload, err := json.Marshal(ev.Payload)
		if err != nil {
			return fmt.Errorf("marshal event payload: %w", err)
		}

		return store.InsertEventLog(ctx, LogRecord{
			EventID:   ev.ID,
			Type:      ev.Type,
			Payload:   payload,
			CreatedAt: ev.Timestamp,
		})
	}
}
