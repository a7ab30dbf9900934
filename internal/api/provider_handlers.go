package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/slotwise/appointment-scheduling/internal/provider"
)

// ProviderService is the slice of the provider service the HTTP layer needs.
type ProviderService interface {
	GetAll(ctx context.Context) ([]provider.Provider, error)
	GetByID(ctx context.Context, id uuid.UUID) (*provider.Provider, error)
	Create(ctx context.Context, p provider.Provider) (*provider.Provider, error)
	Update(ctx context.Context, id uuid.UUID, params provider.UpdateParams) (*provider.Provider, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type providerHandler struct {
	svc ProviderService
}

func (h *providerHandler) list(w http.ResponseWriter, r *http.Request) {
	providers, err := h.svc.GetAll(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]providerResponse, 0, len(providers))
	for i := range providers {
		out = append(out, toProviderResponse(&providers[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *providerHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "id must be a valid UUID")
		return
	}

	p, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProviderResponse(p))
}

func (h *providerHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createProviderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p := provider.Provider{}
	if req.WeeklySchedule != nil {
		p.WeeklySchedule = *req.WeeklySchedule
	}
	if req.AppointmentDuration != nil {
		p.AppointmentDuration = *req.AppointmentDuration
	}
	if req.Timezone != nil {
		p.Timezone = *req.Timezone
	}

	created, err := h.svc.Create(r.Context(), p)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toProviderResponse(created))
}

func (h *providerHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "id must be a valid UUID")
		return
	}

	var req updateProviderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.svc.Update(r.Context(), id, provider.UpdateParams{
		WeeklySchedule:      req.WeeklySchedule,
		AppointmentDuration: req.AppointmentDuration,
		Timezone:            req.Timezone,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProviderResponse(p))
}

// updateSchedule replaces the weekly template only, leaving duration and
// timezone untouched.
func (h *providerHandler) updateSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "id must be a valid UUID")
		return
	}

	var schedule provider.WeeklySchedule
	if err := json.NewDecoder(r.Body).Decode(&schedule); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.svc.Update(r.Context(), id, provider.UpdateParams{
		WeeklySchedule: &schedule,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProviderResponse(p))
}

func (h *providerHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "id must be a valid UUID")
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
