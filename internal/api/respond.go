package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/slotwise/appointment-scheduling/internal/appointment"
	"github.com/slotwise/appointment-scheduling/internal/provider"
)

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps domain errors onto HTTP statuses: missing resources
// to 404, booking conflicts to 409, malformed input to 400, a saturated store
// to 503, anything else to 500.
func writeServiceError(w http.ResponseWriter, err error) {
	var apptValidation *appointment.ValidationError
	var provValidation *provider.ValidationError

	switch {
	case errors.Is(err, appointment.ErrNotFound), errors.Is(err, provider.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, appointment.ErrSlotTaken),
		errors.Is(err, appointment.ErrRescheduleCancelled),
		errors.Is(err, appointment.ErrAlreadyCancelled):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &apptValidation), errors.As(err, &provValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, appointment.ErrStoreBusy):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			Error:   "store is busy, retry later",
			Details: err.Error(),
		})
	default:
		log.Error().Err(err).Msg("unhandled service error")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
