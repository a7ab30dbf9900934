package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound            = errors.New("appointment not found")
	ErrSlotTaken           = errors.New("time slot is not available")
	ErrRescheduleCancelled = errors.New("cannot reschedule a cancelled appointment")
	ErrAlreadyCancelled    = errors.New("appointment is already cancelled")

	// ErrStoreBusy marks a transient store failure (timeout, aborted
	// transaction). Callers may retry; it is never a booking conflict.
	ErrStoreBusy = errors.New("store is busy, retry")
)

// Repository contains all DB interactions needed by the lifecycle service.
// CreateConfirmed, Reschedule and Cancel each execute their status/overlap
// checks and the write as one atomic unit serialized per provider.
type Repository interface {
	CreateConfirmed(ctx context.Context, appt Appointment) (*Appointment, error)
	Reschedule(ctx context.Context, id uuid.UUID, newStart, newEnd time.Time) (*Appointment, error)
	Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error)

	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	List(ctx context.Context, f Filter) ([]Appointment, error)
}
