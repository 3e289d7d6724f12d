package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/webmarket/dental-scheduling/internal/directory"
	"github.com/webmarket/dental-scheduling/internal/scheduling"
)

func createAppointmentHandler(svc *scheduling.Service, validate *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}

		patientID, _ := uuid.Parse(req.PatientID)
		dentistID, _ := uuid.Parse(req.DentistID)
		slotID, _ := uuid.Parse(req.SlotID)

		appt, err := svc.Create(r.Context(), patientID, dentistID, slotID, req.Reason)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func rescheduleAppointmentHandler(svc *scheduling.Service, validate *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		var req RescheduleAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}

		slotID, _ := uuid.Parse(req.SlotID)

		appt, err := svc.Reschedule(r.Context(), id, slotID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func transitionHandler(fn func(r *http.Request, id uuid.UUID) (*scheduling.Appointment, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		appt, err := fn(r, id)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func getAppointmentHandler(queries *scheduling.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		appt, err := queries.Appointment(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func listAppointmentsHandler(queries *scheduling.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		ctx := r.Context()

		var (
			appts []scheduling.Appointment
			err   error
		)

		switch {
		case q.Get("patient_id") != "":
			id, parseErr := uuid.Parse(q.Get("patient_id"))
			if parseErr != nil {
				writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
				return
			}
			appts, err = queries.AppointmentsByPatient(ctx, id)
		case q.Get("dentist_id") != "":
			id, parseErr := uuid.Parse(q.Get("dentist_id"))
			if parseErr != nil {
				writeError(w, http.StatusBadRequest, "invalid_dentist_id", "dentist_id must be a valid UUID")
				return
			}
			appts, err = queries.AppointmentsByDentist(ctx, id)
		case q.Get("date") != "":
			date, parseErr := time.Parse("2006-01-02", q.Get("date"))
			if parseErr != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
				return
			}
			appts, err = queries.AppointmentsByDate(ctx, date)
		case q.Get("status") != "":
			appts, err = queries.AppointmentsByStatus(ctx, scheduling.AppointmentStatus(q.Get("status")))
		case q.Get("reason") != "":
			appts, err = queries.AppointmentsByReason(ctx, q.Get("reason"))
		default:
			writeError(w, http.StatusBadRequest, "missing_filter", "provide one of patient_id, dentist_id, date, status, reason")
			return
		}

		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponses(appts))
	}
}

func createSlotHandler(svc *scheduling.Service, validate *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateSlotRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}

		dentistID, _ := uuid.Parse(req.DentistID)
		date, _ := time.Parse("2006-01-02", req.Date)
		start, _ := time.Parse("15:04", req.StartTime)
		end, _ := time.Parse("15:04", req.EndTime)

		slot, err := svc.CreateSlot(r.Context(), dentistID, date, start, end)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toSlotResponse(slot))
	}
}

func getSlotHandler(queries *scheduling.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		slot, err := queries.Slot(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toSlotResponse(slot))
	}
}

func listSlotsHandler(queries *scheduling.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		ctx := r.Context()

		var (
			slots []scheduling.Slot
			err   error
		)

		switch {
		case q.Get("dentist_id") != "":
			id, parseErr := uuid.Parse(q.Get("dentist_id"))
			if parseErr != nil {
				writeError(w, http.StatusBadRequest, "invalid_dentist_id", "dentist_id must be a valid UUID")
				return
			}
			slots, err = queries.SlotsByDentist(ctx, id)
		case q.Get("date") != "":
			date, parseErr := time.Parse("2006-01-02", q.Get("date"))
			if parseErr != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
				return
			}
			slots, err = queries.SlotsByDate(ctx, date)
		case q.Get("available") != "":
			available, parseErr := strconv.ParseBool(q.Get("available"))
			if parseErr != nil {
				writeError(w, http.StatusBadRequest, "invalid_available", "available must be true or false")
				return
			}
			slots, err = queries.SlotsByAvailability(ctx, available)
		default:
			writeError(w, http.StatusBadRequest, "missing_filter", "provide one of dentist_id, date, available")
			return
		}

		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toSlotResponses(slots))
	}
}

func getPatientHandler(store directory.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		p, err := store.GetPatient(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toPatientResponse(p))
	}
}

func deletePatientHandler(store directory.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		if err := store.DeletePatient(r.Context(), id); err != nil {
			writeDomainError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func getDentistHandler(store directory.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		d, err := store.GetDentist(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toDentistResponse(d))
	}
}

func deleteDentistHandler(store directory.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		if err := store.DeleteDentist(r.Context(), id); err != nil {
			writeDomainError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func parseIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}
