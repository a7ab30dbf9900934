package appointment

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

// Appointment is a time-boxed booking of one patient against one provider.
// ID, ProviderID and PatientID are immutable after creation; only StartTime,
// EndTime and Status change, and only through the lifecycle service.
type Appointment struct {
	ID         uuid.UUID
	ProviderID uuid.UUID
	PatientID  uuid.UUID
	StartTime  time.Time
	EndTime    time.Time
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Filter narrows a listing. Date bounds apply to StartTime, inclusive on both
// ends.
type Filter struct {
	ProviderID *uuid.UUID
	PatientID  *uuid.UUID
	Status     *Status
	StartDate  *time.Time
	EndDate    *time.Time
}

// AvailabilityResult is the answer to an availability query.
type AvailabilityResult struct {
	ProviderID     uuid.UUID `json:"providerId"`
	Date           string    `json:"date"`
	AvailableSlots []string  `json:"availableSlots"`
}
