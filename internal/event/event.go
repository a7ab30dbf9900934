// Package event carries lifecycle facts out of the scheduling core. Events
// are published only after the triggering state change has committed and are
// fanned out asynchronously to explicitly registered subscribers.
package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/slotwise/appointment-scheduling/internal/availability"
)

type Type string

const (
	TypeAppointmentConfirmed        Type = "APPOINTMENT_CONFIRMED"
	TypeAppointmentRescheduled      Type = "APPOINTMENT_RESCHEDULED"
	TypeAppointmentCancelled        Type = "APPOINTMENT_CANCELLED"
	TypeProviderScheduleUpdated     Type = "PROVIDER_SCHEDULE_UPDATED"
	TypeProviderAvailabilityChecked Type = "PROVIDER_AVAILABILITY_CHECKED"
)

type CancelReason string

const (
	ReasonPatientRequest     CancelReason = "PATIENT_REQUEST"
	ReasonProviderRequest    CancelReason = "PROVIDER_REQUEST"
	ReasonSystemCancellation CancelReason = "SYSTEM_CANCELLATION"
)

// Event is an immutable fact about a committed state transition. ID and
// Timestamp are assigned at publish time.
type Event struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

type AppointmentConfirmed struct {
	AppointmentID   uuid.UUID `json:"appointmentId"`
	PatientID       uuid.UUID `json:"patientId"`
	ProviderID      uuid.UUID `json:"providerId"`
	AppointmentTime time.Time `json:"appointmentTime"`
}

type AppointmentRescheduled struct {
	AppointmentID           uuid.UUID `json:"appointmentId"`
	PatientID               uuid.UUID `json:"patientId"`
	ProviderID              uuid.UUID `json:"providerId"`
	NewAppointmentTime      time.Time `json:"newAppointmentTime"`
	PreviousAppointmentTime time.Time `json:"previousAppointmentTime"`
}

type AppointmentCancelled struct {
	AppointmentID uuid.UUID    `json:"appointmentId"`
	Reason        CancelReason `json:"reason"`
}

type ProviderScheduleUpdated struct {
	ProviderID          uuid.UUID                              `json:"providerId"`
	WeeklySchedule      map[string]*availability.DailySchedule `json:"weeklySchedule"`
	AppointmentDuration int                                    `json:"appointmentDuration"`
	Timezone            string                                 `json:"timezone"`
}

type ProviderAvailabilityChecked struct {
	ProviderID     uuid.UUID `json:"providerId"`
	Date           string    `json:"date"`
	AvailableSlots []string  `json:"availableSlots"`
}
