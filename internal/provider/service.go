package provider

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/slotwise/appointment-scheduling/internal/availability"
	"github.com/slotwise/appointment-scheduling/internal/event"
)

// ValidationError marks malformed caller input (schedule shape, time format).
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

type publisher interface {
	Publish(eventType event.Type, payload any) event.Event
}

type Service struct {
	repo Repository
	bus  publisher
	log  zerolog.Logger
}

func NewService(repo Repository, bus publisher) *Service {
	return &Service{
		repo: repo,
		bus:  bus,
		log:  log.With().Str("component", "provider.service").Logger(),
	}
}

func (s *Service) GetAll(ctx context.Context) ([]Provider, error) {
	return s.repo.GetAll(ctx)
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Provider, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, p Provider) (*Provider, error) {
	if err := ValidateWeeklySchedule(p.WeeklySchedule); err != nil {
		return nil, err
	}
	if p.AppointmentDuration < 0 {
		return nil, validationError("appointment duration must be positive, got %d", p.AppointmentDuration)
	}

	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("provider_id", created.ID.String()).Msg("provider created")
	return created, nil
}

// Update applies a partial update. A schedule change is announced on the bus
// so downstream listeners can react to the new template.
func (s *Service) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*Provider, error) {
	if params.WeeklySchedule != nil {
		if err := ValidateWeeklySchedule(*params.WeeklySchedule); err != nil {
			return nil, err
		}
	}
	if params.AppointmentDuration != nil && *params.AppointmentDuration <= 0 {
		return nil, validationError("appointment duration must be positive, got %d", *params.AppointmentDuration)
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, id, params)
	if err != nil {
		return nil, err
	}

	if params.WeeklySchedule != nil && s.bus != nil {
		s.bus.Publish(event.TypeProviderScheduleUpdated, event.ProviderScheduleUpdated{
			ProviderID:          updated.ID,
			WeeklySchedule:      updated.WeeklySchedule.Days(),
			AppointmentDuration: updated.AppointmentDuration,
			Timezone:            updated.Timezone,
		})
	}

	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// ValidateWeeklySchedule checks every configured day for HH:MM format and
// start < end.
func ValidateWeeklySchedule(ws WeeklySchedule) error {
	for day, daily := range ws.Days() {
		start, err := availability.ParseClock(daily.Start)
		if err != nil {
			return validationError("invalid schedule for %s: %v", day, err)
		}
		end, err := availability.ParseClock(daily.End)
		if err != nil {
			return validationError("invalid schedule for %s: %v", day, err)
		}
		if start >= end {
			return validationError("invalid schedule for %s: end time must be after start time", day)
		}
	}
	return nil
}
