package provider

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("provider not found")

// UpdateParams carries a partial update; nil fields are left untouched.
type UpdateParams struct {
	WeeklySchedule      *WeeklySchedule
	AppointmentDuration *int
	Timezone            *string
}

// Repository contains the provider DB interactions needed by the service.
type Repository interface {
	GetAll(ctx context.Context) ([]Provider, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Provider, error)
	Create(ctx context.Context, p Provider) (*Provider, error)
	Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*Provider, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
