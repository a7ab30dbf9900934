package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/slotwise/appointment-scheduling/internal/appointment"
	"github.com/slotwise/appointment-scheduling/internal/availability"
	"github.com/slotwise/appointment-scheduling/internal/event"
	"github.com/slotwise/appointment-scheduling/internal/provider"
)

type stubAppointmentService struct {
	createFn       func(ctx context.Context, params appointment.CreateParams) (*appointment.Appointment, error)
	rescheduleFn   func(ctx context.Context, id uuid.UUID, newStart time.Time) (*appointment.Appointment, error)
	cancelFn       func(ctx context.Context, id uuid.UUID, reason event.CancelReason) (*appointment.Appointment, error)
	getByIDFn      func(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	listFn         func(ctx context.Context, f appointment.Filter) ([]appointment.Appointment, error)
	availabilityFn func(ctx context.Context, providerID uuid.UUID, date string) (*appointment.AvailabilityResult, error)
}

func (s *stubAppointmentService) Create(ctx context.Context, params appointment.CreateParams) (*appointment.Appointment, error) {
	return s.createFn(ctx, params)
}

func (s *stubAppointmentService) Reschedule(ctx context.Context, id uuid.UUID, newStart time.Time) (*appointment.Appointment, error) {
	return s.rescheduleFn(ctx, id, newStart)
}

func (s *stubAppointmentService) Cancel(ctx context.Context, id uuid.UUID, reason event.CancelReason) (*appointment.Appointment, error) {
	return s.cancelFn(ctx, id, reason)
}

func (s *stubAppointmentService) GetByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	return s.getByIDFn(ctx, id)
}

func (s *stubAppointmentService) List(ctx context.Context, f appointment.Filter) ([]appointment.Appointment, error) {
	return s.listFn(ctx, f)
}

func (s *stubAppointmentService) Availability(ctx context.Context, providerID uuid.UUID, date string) (*appointment.AvailabilityResult, error) {
	return s.availabilityFn(ctx, providerID, date)
}

type stubProviderService struct {
	getAllFn  func(ctx context.Context) ([]provider.Provider, error)
	getByIDFn func(ctx context.Context, id uuid.UUID) (*provider.Provider, error)
	createFn  func(ctx context.Context, p provider.Provider) (*provider.Provider, error)
	updateFn  func(ctx context.Context, id uuid.UUID, params provider.UpdateParams) (*provider.Provider, error)
	deleteFn  func(ctx context.Context, id uuid.UUID) error
}

func (s *stubProviderService) GetAll(ctx context.Context) ([]provider.Provider, error) {
	return s.getAllFn(ctx)
}

func (s *stubProviderService) GetByID(ctx context.Context, id uuid.UUID) (*provider.Provider, error) {
	return s.getByIDFn(ctx, id)
}

func (s *stubProviderService) Create(ctx context.Context, p provider.Provider) (*provider.Provider, error) {
	return s.createFn(ctx, p)
}

func (s *stubProviderService) Update(ctx context.Context, id uuid.UUID, params provider.UpdateParams) (*provider.Provider, error) {
	return s.updateFn(ctx, id, params)
}

func (s *stubProviderService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.deleteFn(ctx, id)
}

func newTestRouter(appts AppointmentService, providers ProviderService) http.Handler {
	return NewRouter(RouterDeps{
		Appointments: appts,
		Providers:    providers,
	})
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateAppointment_Created(t *testing.T) {
	providerID := uuid.New()
	patientID := uuid.New()
	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)

	svc := &stubAppointmentService{
		createFn: func(_ context.Context, params appointment.CreateParams) (*appointment.Appointment, error) {
			return &appointment.Appointment{
				ID:         uuid.New(),
				ProviderID: params.ProviderID,
				PatientID:  params.PatientID,
				StartTime:  params.StartTime,
				EndTime:    params.StartTime.Add(30 * time.Minute),
				Status:     appointment.StatusConfirmed,
			}, nil
		},
	}
	router := newTestRouter(svc, &stubProviderService{})

	rec := doRequest(t, router, http.MethodPost, "/appointments", map[string]any{
		"providerId": providerID.String(),
		"patientId":  patientID.String(),
		"startTime":  start.Format(time.RFC3339),
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var resp appointmentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.ProviderID != providerID.String() {
		t.Errorf("providerId = %q, want %q", resp.ProviderID, providerID)
	}
	if resp.Status != "CONFIRMED" {
		t.Errorf("status = %q, want CONFIRMED", resp.Status)
	}
}

func TestCreateAppointment_Conflict(t *testing.T) {
	svc := &stubAppointmentService{
		createFn: func(_ context.Context, _ appointment.CreateParams) (*appointment.Appointment, error) {
			return nil, appointment.ErrSlotTaken
		},
	}
	router := newTestRouter(svc, &stubProviderService{})

	rec := doRequest(t, router, http.MethodPost, "/appointments", map[string]any{
		"providerId": uuid.NewString(),
		"patientId":  uuid.NewString(),
		"startTime":  time.Now().UTC().Format(time.RFC3339),
	})

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "not available") {
		t.Errorf("body = %s, want conflict message", rec.Body.String())
	}
}

func TestCreateAppointment_BadProviderID(t *testing.T) {
	router := newTestRouter(&stubAppointmentService{}, &stubProviderService{})

	rec := doRequest(t, router, http.MethodPost, "/appointments", map[string]any{
		"providerId": "not-a-uuid",
		"patientId":  uuid.NewString(),
		"startTime":  time.Now().UTC().Format(time.RFC3339),
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGetAppointment_NotFound(t *testing.T) {
	svc := &stubAppointmentService{
		getByIDFn: func(_ context.Context, _ uuid.UUID) (*appointment.Appointment, error) {
			return nil, appointment.ErrNotFound
		},
	}
	router := newTestRouter(svc, &stubProviderService{})

	rec := doRequest(t, router, http.MethodGet, "/appointments/"+uuid.NewString(), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestRescheduleAppointment_CancelledConflict(t *testing.T) {
	svc := &stubAppointmentService{
		rescheduleFn: func(_ context.Context, _ uuid.UUID, _ time.Time) (*appointment.Appointment, error) {
			return nil, appointment.ErrRescheduleCancelled
		},
	}
	router := newTestRouter(svc, &stubProviderService{})

	rec := doRequest(t, router, http.MethodPut, "/appointments/"+uuid.NewString(), map[string]any{
		"startTime": time.Now().UTC().Format(time.RFC3339),
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestCancelAppointment_NoContent(t *testing.T) {
	var gotReason event.CancelReason
	svc := &stubAppointmentService{
		cancelFn: func(_ context.Context, id uuid.UUID, reason event.CancelReason) (*appointment.Appointment, error) {
			gotReason = reason
			return &appointment.Appointment{ID: id, Status: appointment.StatusCancelled}, nil
		},
	}
	router := newTestRouter(svc, &stubProviderService{})

	rec := doRequest(t, router, http.MethodDelete, "/appointments/"+uuid.NewString(), map[string]string{
		"reason": "PROVIDER_REQUEST",
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if gotReason != event.ReasonProviderRequest {
		t.Errorf("reason = %q, want PROVIDER_REQUEST", gotReason)
	}
}

func TestCancelAppointment_AlreadyCancelled(t *testing.T) {
	svc := &stubAppointmentService{
		cancelFn: func(_ context.Context, _ uuid.UUID, _ event.CancelReason) (*appointment.Appointment, error) {
			return nil, appointment.ErrAlreadyCancelled
		},
	}
	router := newTestRouter(svc, &stubProviderService{})

	rec := doRequest(t, router, http.MethodDelete, "/appointments/"+uuid.NewString(), nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestCreateAppointment_StoreBusy(t *testing.T) {
	svc := &stubAppointmentService{
		createFn: func(_ context.Context, _ appointment.CreateParams) (*appointment.Appointment, error) {
			return nil, appointment.ErrStoreBusy
		},
	}
	router := newTestRouter(svc, &stubProviderService{})

	rec := doRequest(t, router, http.MethodPost, "/appointments", map[string]any{
		"providerId": uuid.NewString(),
		"patientId":  uuid.NewString(),
		"startTime":  time.Now().UTC().Format(time.RFC3339),
	})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestListAppointments_ParsesFilter(t *testing.T) {
	providerID := uuid.New()

	var gotFilter appointment.Filter
	svc := &stubAppointmentService{
		listFn: func(_ context.Context, f appointment.Filter) ([]appointment.Appointment, error) {
			gotFilter = f
			return nil, nil
		},
	}
	router := newTestRouter(svc, &stubProviderService{})

	rec := doRequest(t, router, http.MethodGet,
		"/appointments?providerId="+providerID.String()+"&status=CONFIRMED&startDate=2026-09-01&endDate=2026-09-30", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	if gotFilter.ProviderID == nil || *gotFilter.ProviderID != providerID {
		t.Errorf("filter provider = %v, want %s", gotFilter.ProviderID, providerID)
	}
	if gotFilter.Status == nil || *gotFilter.Status != appointment.StatusConfirmed {
		t.Errorf("filter status = %v, want CONFIRMED", gotFilter.Status)
	}
	if gotFilter.StartDate == nil || gotFilter.EndDate == nil {
		t.Error("filter dates should be set")
	}
}

func TestListAppointments_BadStatus(t *testing.T) {
	router := newTestRouter(&stubAppointmentService{}, &stubProviderService{})

	rec := doRequest(t, router, http.MethodGet, "/appointments?status=PENDING", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAvailability_ReturnsSlots(t *testing.T) {
	providerID := uuid.New()
	svc := &stubAppointmentService{
		availabilityFn: func(_ context.Context, gotID uuid.UUID, date string) (*appointment.AvailabilityResult, error) {
			return &appointment.AvailabilityResult{
				ProviderID:     gotID,
				Date:           date,
				AvailableSlots: []string{"09:00", "09:30"},
			}, nil
		},
	}
	router := newTestRouter(svc, &stubProviderService{})

	rec := doRequest(t, router, http.MethodGet, "/providers/"+providerID.String()+"/availability?date=2026-09-07", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp appointment.AvailabilityResult
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.AvailableSlots) != 2 || resp.AvailableSlots[0] != "09:00" {
		t.Errorf("slots = %v, want [09:00 09:30]", resp.AvailableSlots)
	}
}

func TestAvailability_MissingDate(t *testing.T) {
	router := newTestRouter(&stubAppointmentService{}, &stubProviderService{})

	rec := doRequest(t, router, http.MethodGet, "/providers/"+uuid.NewString()+"/availability", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCreateProvider_ValidationErrorMapsTo400(t *testing.T) {
	badSchedule := provider.WeeklySchedule{
		Monday: &availability.DailySchedule{Start: "9:00", End: "17:00"},
	}
	validationErr := provider.ValidateWeeklySchedule(badSchedule)
	if validationErr == nil {
		t.Fatal("expected schedule to be invalid")
	}

	svc := &stubProviderService{
		createFn: func(_ context.Context, _ provider.Provider) (*provider.Provider, error) {
			return nil, validationErr
		},
	}
	router := newTestRouter(&stubAppointmentService{}, svc)

	rec := doRequest(t, router, http.MethodPost, "/providers", map[string]any{
		"weeklySchedule": map[string]any{"monday": map[string]string{"start": "9:00", "end": "17:00"}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
	}
}

func TestUpdateProviderSchedule_OK(t *testing.T) {
	id := uuid.New()
	var gotParams provider.UpdateParams

	svc := &stubProviderService{
		updateFn: func(_ context.Context, gotID uuid.UUID, params provider.UpdateParams) (*provider.Provider, error) {
			if gotID != id {
				t.Errorf("id = %s, want %s", gotID, id)
			}
			gotParams = params
			return &provider.Provider{ID: id, WeeklySchedule: *params.WeeklySchedule, AppointmentDuration: 30, Timezone: "UTC"}, nil
		},
	}
	router := newTestRouter(&stubAppointmentService{}, svc)

	rec := doRequest(t, router, http.MethodPost, "/providers/"+id.String()+"/schedule", map[string]any{
		"friday": map[string]string{"start": "08:00", "end": "12:00"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	if gotParams.WeeklySchedule == nil || gotParams.WeeklySchedule.Friday == nil {
		t.Fatal("schedule update should carry the friday window")
	}
	if gotParams.AppointmentDuration != nil || gotParams.Timezone != nil {
		t.Error("schedule endpoint must not touch duration or timezone")
	}
}

func TestDeleteProvider_NotFound(t *testing.T) {
	svc := &stubProviderService{
		deleteFn: func(_ context.Context, _ uuid.UUID) error {
			return provider.ErrNotFound
		},
	}
	router := newTestRouter(&stubAppointmentService{}, svc)

	rec := doRequest(t, router, http.MethodDelete, "/providers/"+uuid.NewString(), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(&stubAppointmentService{}, &stubProviderService{})

	rec := doRequest(t, router, http.MethodGet, "/health/live", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	svc := &stubAppointmentService{
		listFn: func(_ context.Context, _ appointment.Filter) ([]appointment.Appointment, error) {
			return nil, nil
		},
	}
	router := newTestRouter(svc, &stubProviderService{})

	req := httptest.NewRequest(http.MethodGet, "/appointments", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "req-123" {
		t.Fatalf("X-Request-ID = %q, want %q", got, "req-123")
	}
}
