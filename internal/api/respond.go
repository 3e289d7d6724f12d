package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/webmarket/dental-scheduling/internal/directory"
	"github.com/webmarket/dental-scheduling/internal/scheduling"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

// writeDomainError maps the scheduling and directory sentinels onto
// HTTP statuses. Conflict-class failures (lost races, state-machine
// violations) are 409 so clients know a retry with fresh state may help.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scheduling.ErrSlotNotFound):
		writeError(w, http.StatusNotFound, "slot_not_found", err.Error())
	case errors.Is(err, scheduling.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, scheduling.ErrPatientNotFound),
		errors.Is(err, directory.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, scheduling.ErrDentistNotFound),
		errors.Is(err, directory.ErrDentistNotFound):
		writeError(w, http.StatusNotFound, "dentist_not_found", err.Error())
	case errors.Is(err, scheduling.ErrSlotUnavailable):
		writeError(w, http.StatusConflict, "slot_unavailable", err.Error())
	case errors.Is(err, scheduling.ErrDentistMismatch):
		writeError(w, http.StatusConflict, "dentist_mismatch", err.Error())
	case errors.Is(err, scheduling.ErrDentistDoubleBooked):
		writeError(w, http.StatusConflict, "dentist_double_booked", err.Error())
	case errors.Is(err, scheduling.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, scheduling.ErrAppointmentTerminal):
		writeError(w, http.StatusConflict, "appointment_terminal", err.Error())
	case errors.Is(err, scheduling.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	case errors.Is(err, scheduling.ErrInvalidSlotWindow):
		writeError(w, http.StatusBadRequest, "invalid_slot_window", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
