package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/slotwise/appointment-scheduling/internal/appointment"
	"github.com/slotwise/appointment-scheduling/internal/event"
)

// AppointmentService is the slice of the appointment service the HTTP layer
// needs.
type AppointmentService interface {
	Create(ctx context.Context, params appointment.CreateParams) (*appointment.Appointment, error)
	Reschedule(ctx context.Context, id uuid.UUID, newStart time.Time) (*appointment.Appointment, error)
	Cancel(ctx context.Context, id uuid.UUID, reason event.CancelReason) (*appointment.Appointment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	List(ctx context.Context, f appointment.Filter) ([]appointment.Appointment, error)
	Availability(ctx context.Context, providerID uuid.UUID, date string) (*appointment.AvailabilityResult, error)
}

type appointmentHandler struct {
	svc AppointmentService
}

func (h *appointmentHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	providerID, err := uuid.Parse(req.ProviderID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "providerId must be a valid UUID")
		return
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "patientId must be a valid UUID")
		return
	}

	appt, err := h.svc.Create(r.Context(), appointment.CreateParams{
		ProviderID: providerID,
		PatientID:  patientID,
		StartTime:  req.StartTime,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
}

func (h *appointmentHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "id must be a valid UUID")
		return
	}

	appt, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

func (h *appointmentHandler) list(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	appts, err := h.svc.List(r.Context(), f)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]appointmentResponse, 0, len(appts))
	for i := range appts {
		out = append(out, toAppointmentResponse(&appts[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *appointmentHandler) reschedule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "id must be a valid UUID")
		return
	}

	var req rescheduleAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	appt, err := h.svc.Reschedule(r.Context(), id, req.StartTime)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

func (h *appointmentHandler) cancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "id must be a valid UUID")
		return
	}

	// Body is optional; an empty reason defaults to a patient request.
	var req cancelAppointmentRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if _, err := h.svc.Cancel(r.Context(), id, event.CancelReason(req.Reason)); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *appointmentHandler) availability(w http.ResponseWriter, r *http.Request) {
	providerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "id must be a valid UUID")
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		writeError(w, http.StatusBadRequest, "date query parameter is required")
		return
	}

	result, err := h.svc.Availability(r.Context(), providerID, date)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func filterFromQuery(r *http.Request) (appointment.Filter, error) {
	var f appointment.Filter
	q := r.URL.Query()

	if v := q.Get("providerId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return f, errInvalidQuery("providerId must be a valid UUID")
		}
		f.ProviderID = &id
	}
	if v := q.Get("patientId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return f, errInvalidQuery("patientId must be a valid UUID")
		}
		f.PatientID = &id
	}
	if v := q.Get("status"); v != "" {
		status := appointment.Status(v)
		if status != appointment.StatusConfirmed && status != appointment.StatusCancelled {
			return f, errInvalidQuery("status must be CONFIRMED or CANCELLED")
		}
		f.Status = &status
	}
	if v := q.Get("startDate"); v != "" {
		t, err := time.ParseInLocation("2006-01-02", v, time.UTC)
		if err != nil {
			return f, errInvalidQuery("startDate must be formatted YYYY-MM-DD")
		}
		f.StartDate = &t
	}
	if v := q.Get("endDate"); v != "" {
		t, err := time.ParseInLocation("2006-01-02", v, time.UTC)
		if err != nil {
			return f, errInvalidQuery("endDate must be formatted YYYY-MM-DD")
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		f.EndDate = &end
	}

	return f, nil
}

type queryError string

func (e queryError) Error() string { return string(e) }

func errInvalidQuery(msg string) error { return queryError(msg) }
