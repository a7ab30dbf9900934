package api

import (
	"time"

	"github.com/slotwise/appointment-scheduling/internal/appointment"
	"github.com/slotwise/appointment-scheduling/internal/provider"
)

type createAppointmentRequest struct {
	ProviderID string    `json:"providerId"`
	PatientID  string    `json:"patientId"`
	StartTime  time.Time `json:"startTime"`
}

type rescheduleAppointmentRequest struct {
	StartTime time.Time `json:"startTime"`
}

type cancelAppointmentRequest struct {
	Reason string `json:"reason"`
}

type appointmentResponse struct {
	ID         string    `json:"id"`
	ProviderID string    `json:"providerId"`
	PatientID  string    `json:"patientId"`
	StartTime  time.Time `json:"startTime"`
	EndTime    time.Time `json:"endTime"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func toAppointmentResponse(a *appointment.Appointment) appointmentResponse {
	return appointmentResponse{
		ID:         a.ID.String(),
		ProviderID: a.ProviderID.String(),
		PatientID:  a.PatientID.String(),
		StartTime:  a.StartTime,
		EndTime:    a.EndTime,
		Status:     string(a.Status),
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

type createProviderRequest struct {
	WeeklySchedule      *provider.WeeklySchedule `json:"weeklySchedule"`
	AppointmentDuration *int                     `json:"appointmentDuration"`
	Timezone            *string                  `json:"timezone"`
}

type updateProviderRequest struct {
	WeeklySchedule      *provider.WeeklySchedule `json:"weeklySchedule"`
	AppointmentDuration *int                     `json:"appointmentDuration"`
	Timezone            *string                  `json:"timezone"`
}

type providerResponse struct {
	ID                  string                   `json:"id"`
	WeeklySchedule      *provider.WeeklySchedule `json:"weeklySchedule"`
	AppointmentDuration int                      `json:"appointmentDuration"`
	Timezone            string                   `json:"timezone"`
	CreatedAt           time.Time                `json:"createdAt"`
	UpdatedAt           time.Time                `json:"updatedAt"`
}

func toProviderResponse(p *provider.Provider) providerResponse {
	ws := p.WeeklySchedule
	return providerResponse{
		ID:                  p.ID.String(),
		WeeklySchedule:      &ws,
		AppointmentDuration: p.AppointmentDuration,
		Timezone:            p.Timezone,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}
