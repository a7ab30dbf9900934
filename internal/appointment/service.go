package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/slotwise/appointment-scheduling/internal/availability"
	"github.com/slotwise/appointment-scheduling/internal/event"
	"github.com/slotwise/appointment-scheduling/internal/observability/metrics"
	"github.com/slotwise/appointment-scheduling/internal/provider"
)

const dateLayout = "2006-01-02"

// ValidationError marks malformed caller input.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// ProviderDirectory resolves providers for booking and availability checks.
type ProviderDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*provider.Provider, error)
}

type publisher interface {
	Publish(eventType event.Type, payload any) event.Event
}

// Cache is the best-effort availability cache. All methods must tolerate
// backend failure without surfacing an error.
type Cache interface {
	Get(ctx context.Context, providerID uuid.UUID, date string) ([]string, bool)
	Set(ctx context.Context, providerID uuid.UUID, date string, slots []string)
	Invalidate(ctx context.Context, providerID uuid.UUID, dates ...string)
}

// CreateParams carries a booking request. The end time is derived from the
// provider's configured appointment duration.
type CreateParams struct {
	ProviderID uuid.UUID
	PatientID  uuid.UUID
	StartTime  time.Time
}

// Service implements the appointment lifecycle. Conflict decisions live in the
// repository's transaction; the service derives intervals, bounds write
// latency, and emits lifecycle events after a write commits.
type Service struct {
	repo      Repository
	providers ProviderDirectory
	bus       publisher
	cache     Cache
	metrics   *metrics.SchedulingMetrics
	txTimeout time.Duration
	log       zerolog.Logger
}

func NewService(repo Repository, providers ProviderDirectory, bus publisher, cache Cache, m *metrics.SchedulingMetrics, txTimeout time.Duration) *Service {
	return &Service{
		repo:      repo,
		providers: providers,
		bus:       bus,
		cache:     cache,
		metrics:   m,
		txTimeout: txTimeout,
		log:       log.With().Str("component", "appointment.service").Logger(),
	}
}

func (s *Service) writeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.txTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.txTimeout)
}

func bookingOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrSlotTaken),
		errors.Is(err, ErrRescheduleCancelled),
		errors.Is(err, ErrAlreadyCancelled):
		return "conflict"
	case errors.Is(err, ErrNotFound), errors.Is(err, provider.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func dateOf(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

// Create books a CONFIRMED appointment at the requested start time. The end
// time is startTime plus the provider's appointment duration; the interval is
// admitted only if it conflicts with no other non-cancelled appointment of the
// provider.
func (s *Service) Create(ctx context.Context, params CreateParams) (appt *Appointment, err error) {
	defer func() { s.metrics.ObserveBooking("create", bookingOutcome(err)) }()

	if params.StartTime.IsZero() {
		return nil, validationError("startTime is required")
	}

	prov, err := s.providers.GetByID(ctx, params.ProviderID)
	if err != nil {
		return nil, err
	}

	end := params.StartTime.Add(time.Duration(prov.AppointmentDuration) * time.Minute)

	writeCtx, cancel := s.writeCtx(ctx)
	defer cancel()

	appt, err = s.repo.CreateConfirmed(writeCtx, Appointment{
		ProviderID: params.ProviderID,
		PatientID:  params.PatientID,
		StartTime:  params.StartTime.UTC(),
		EndTime:    end.UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, appt.ProviderID, dateOf(appt.StartTime))
	s.publish(event.TypeAppointmentConfirmed, event.AppointmentConfirmed{
		AppointmentID:   appt.ID,
		PatientID:       appt.PatientID,
		ProviderID:      appt.ProviderID,
		AppointmentTime: appt.StartTime,
	})

	s.log.Info().
		Str("appointment_id", appt.ID.String()).
		Str("provider_id", appt.ProviderID.String()).
		Time("start_time", appt.StartTime).
		Msg("appointment created")

	return appt, nil
}

// Reschedule moves an appointment to a new start time, preserving its
// provider-configured duration. A cancelled appointment cannot be rescheduled.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, newStart time.Time) (appt *Appointment, err error) {
	defer func() { s.metrics.ObserveBooking("reschedule", bookingOutcome(err)) }()

	if newStart.IsZero() {
		return nil, validationError("startTime is required")
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previousStart := current.StartTime

	prov, err := s.providers.GetByID(ctx, current.ProviderID)
	if err != nil {
		return nil, err
	}

	newEnd := newStart.Add(time.Duration(prov.AppointmentDuration) * time.Minute)

	writeCtx, cancel := s.writeCtx(ctx)
	defer cancel()

	appt, err = s.repo.Reschedule(writeCtx, id, newStart.UTC(), newEnd.UTC())
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, appt.ProviderID, dateOf(previousStart), dateOf(appt.StartTime))
	s.publish(event.TypeAppointmentRescheduled, event.AppointmentRescheduled{
		AppointmentID:           appt.ID,
		PatientID:               appt.PatientID,
		ProviderID:              appt.ProviderID,
		NewAppointmentTime:      appt.StartTime,
		PreviousAppointmentTime: previousStart,
	})

	s.log.Info().
		Str("appointment_id", appt.ID.String()).
		Time("previous_start", previousStart).
		Time("new_start", appt.StartTime).
		Msg("appointment rescheduled")

	return appt, nil
}

// Cancel marks an appointment CANCELLED. Cancelling an already cancelled
// appointment is rejected as a conflict.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason event.CancelReason) (appt *Appointment, err error) {
	defer func() { s.metrics.ObserveBooking("cancel", bookingOutcome(err)) }()

	switch reason {
	case "":
		reason = event.ReasonPatientRequest
	case event.ReasonPatientRequest, event.ReasonProviderRequest, event.ReasonSystemCancellation:
	default:
		return nil, validationError("unknown cancellation reason %q", reason)
	}

	writeCtx, cancel := s.writeCtx(ctx)
	defer cancel()

	appt, err = s.repo.Cancel(writeCtx, id)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, appt.ProviderID, dateOf(appt.StartTime))
	s.publish(event.TypeAppointmentCancelled, event.AppointmentCancelled{
		AppointmentID: appt.ID,
		Reason:        reason,
	})

	s.log.Info().
		Str("appointment_id", appt.ID.String()).
		Str("reason", string(reason)).
		Msg("appointment cancelled")

	return appt, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter) ([]Appointment, error) {
	return s.repo.List(ctx, f)
}

// Availability computes the free slots of a provider on a calendar date:
// the provider's weekly template for that weekday, stepped by the appointment
// duration, minus every slot whose interval touches a CONFIRMED appointment.
func (s *Service) Availability(ctx context.Context, providerID uuid.UUID, date string) (*AvailabilityResult, error) {
	day, err := time.ParseInLocation(dateLayout, date, time.UTC)
	if err != nil {
		return nil, validationError("date must be formatted YYYY-MM-DD")
	}

	prov, err := s.providers.GetByID(ctx, providerID)
	if err != nil {
		return nil, err
	}

	result := &AvailabilityResult{
		ProviderID:     providerID,
		Date:           date,
		AvailableSlots: []string{},
	}

	if s.cache != nil {
		if slots, ok := s.cache.Get(ctx, providerID, date); ok {
			result.AvailableSlots = slots
			s.publishChecked(result)
			return result, nil
		}
	}

	daily := prov.WeeklySchedule.ForWeekday(day.Weekday())
	if daily == nil {
		s.publishChecked(result)
		return result, nil
	}

	booked, err := s.bookedSpans(ctx, providerID, day)
	if err != nil {
		return nil, err
	}

	slots, err := availability.Generate(daily, prov.AppointmentDuration, booked)
	if err != nil {
		return nil, validationError("invalid provider schedule: %v", err)
	}
	result.AvailableSlots = slots

	if s.cache != nil {
		s.cache.Set(ctx, providerID, date, slots)
	}
	s.publishChecked(result)

	return result, nil
}

// bookedSpans loads the provider's CONFIRMED appointments starting on the given
// UTC day and projects them to minute-of-day intervals.
func (s *Service) bookedSpans(ctx context.Context, providerID uuid.UUID, day time.Time) ([]availability.Span, error) {
	status := StatusConfirmed
	dayEnd := day.Add(24*time.Hour - time.Nanosecond)

	appts, err := s.repo.List(ctx, Filter{
		ProviderID: &providerID,
		Status:     &status,
		StartDate:  &day,
		EndDate:    &dayEnd,
	})
	if err != nil {
		return nil, err
	}

	spans := make([]availability.Span, 0, len(appts))
	for _, a := range appts {
		start := a.StartTime.UTC()
		end := a.EndTime.UTC()
		startMin := start.Hour()*60 + start.Minute()
		endMin := end.Hour()*60 + end.Minute()
		// An appointment running past midnight blocks the rest of its start
		// day; without the clamp its end minute would wrap below its start.
		if endMin <= startMin {
			endMin = 24 * 60
		}
		spans = append(spans, availability.Span{Start: startMin, End: endMin})
	}

	return spans, nil
}

func (s *Service) publishChecked(result *AvailabilityResult) {
	s.metrics.ObserveBooking("availability", "success")
	s.publish(event.TypeProviderAvailabilityChecked, event.ProviderAvailabilityChecked{
		ProviderID:     result.ProviderID,
		Date:           result.Date,
		AvailableSlots: result.AvailableSlots,
	})
}

func (s *Service) publish(eventType event.Type, payload any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventType, payload)
}

func (s *Service) invalidate(ctx context.Context, providerID uuid.UUID, dates ...string) {
	if s.cache == nil {
		return
	}
	s.cache.Invalidate(ctx, providerID, dates...)
}
