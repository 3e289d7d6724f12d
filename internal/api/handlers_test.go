package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/webmarket/dental-scheduling/internal/directory"
	"github.com/webmarket/dental-scheduling/internal/scheduling"
)

type testEnv struct {
	handler   http.Handler
	store     *scheduling.MemoryStore
	dir       *directory.MemoryStore
	patientID uuid.UUID
	dentistID uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := scheduling.NewMemoryStore()
	dir := directory.NewMemoryStore()
	engine := scheduling.NewEngine(store, scheduling.NewLocalLocker(), nil)
	lookup := directory.NewLookup(dir)
	svc := scheduling.NewService(store, store, engine, lookup, lookup, nil)
	queries := scheduling.NewQueries(store, store)

	patientID := uuid.New()
	dentistID := uuid.New()
	ctx := context.Background()

	_, err := dir.CreatePatient(ctx, &directory.Patient{
		ID:        patientID,
		Cedula:    "1102345678",
		FirstName: "Maria",
		LastName:  "Lopez",
		Phone:     "0991234567",
		Email:     "maria@example.com",
		BirthDate: time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC),
		Address:   "Av. Loja 12-34",
	}, &directory.User{ID: uuid.New(), Username: "maria", PasswordHash: "x"})
	if err != nil {
		t.Fatalf("create patient: %v", err)
	}

	_, err = dir.CreateDentist(ctx, &directory.Dentist{
		ID:        dentistID,
		Cedula:    "1109876543",
		FirstName: "Carlos",
		LastName:  "Vega",
		Phone:     "0997654321",
		Email:     "carlos@example.com",
		Address:   "Calle Bolivar 5-67",
	}, &directory.User{ID: uuid.New(), Username: "carlos", PasswordHash: "x"})
	if err != nil {
		t.Fatalf("create dentist: %v", err)
	}

	handler := NewRouter(RouterConfig{
		Service:   svc,
		Queries:   queries,
		Directory: dir,
		Env:       "test",
		Version:   "test",
	})

	return &testEnv{
		handler:   handler,
		store:     store,
		dir:       dir,
		patientID: patientID,
		dentistID: dentistID,
	}
}

func (e *testEnv) newSlot(t *testing.T, hour int) *scheduling.Slot {
	t.Helper()
	day := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	slot, err := e.store.SaveSlot(context.Background(), &scheduling.Slot{
		ID:        uuid.New(),
		DentistID: e.dentistID,
		Date:      day,
		StartTime: time.Date(2026, 9, 10, hour, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 9, 10, hour+1, 0, 0, 0, time.UTC),
		Available: true,
	})
	if err != nil {
		t.Fatalf("save slot: %v", err)
	}
	return slot
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func (e *testEnv) book(t *testing.T, slotID uuid.UUID) AppointmentResponse {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/appointments", CreateAppointmentRequest{
		PatientID: e.patientID.String(),
		DentistID: e.dentistID.String(),
		SlotID:    slotID.String(),
		Reason:    "checkup",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create appointment: status %d, body %s", rec.Code, rec.Body.String())
	}
	return decodeBody[AppointmentResponse](t, rec)
}

func TestCreateAppointmentEndpoint(t *testing.T) {
	e := newTestEnv(t)
	slot := e.newSlot(t, 9)

	appt := e.book(t, slot.ID)
	if appt.Status != "pending" {
		t.Fatalf("status = %q, want pending", appt.Status)
	}
	if appt.SlotID != slot.ID {
		t.Fatalf("slot id = %s, want %s", appt.SlotID, slot.ID)
	}

	rec := e.do(t, http.MethodPost, "/appointments", CreateAppointmentRequest{
		PatientID: e.patientID.String(),
		DentistID: e.dentistID.String(),
		SlotID:    slot.ID.String(),
		Reason:    "cleaning",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("double booking: status %d, want 409", rec.Code)
	}
	if body := decodeBody[ErrorResponse](t, rec); body.Error != "slot_unavailable" {
		t.Fatalf("double booking error = %q, want slot_unavailable", body.Error)
	}
}

func TestCreateAppointmentValidation(t *testing.T) {
	e := newTestEnv(t)
	slot := e.newSlot(t, 9)

	cases := []struct {
		name string
		req  CreateAppointmentRequest
	}{
		{"missing reason", CreateAppointmentRequest{
			PatientID: e.patientID.String(),
			DentistID: e.dentistID.String(),
			SlotID:    slot.ID.String(),
		}},
		{"malformed patient id", CreateAppointmentRequest{
			PatientID: "not-a-uuid",
			DentistID: e.dentistID.String(),
			SlotID:    slot.ID.String(),
			Reason:    "checkup",
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := e.do(t, http.MethodPost, "/appointments", tc.req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status %d, want 400", rec.Code)
			}
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/appointments", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("truncated JSON: status %d, want 400", rec.Code)
	}

	unknown := CreateAppointmentRequest{
		PatientID: uuid.New().String(),
		DentistID: e.dentistID.String(),
		SlotID:    slot.ID.String(),
		Reason:    "checkup",
	}
	if rec := e.do(t, http.MethodPost, "/appointments", unknown); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown patient: status %d, want 404", rec.Code)
	}
}

func TestAppointmentLifecycleEndpoints(t *testing.T) {
	e := newTestEnv(t)
	slot := e.newSlot(t, 9)
	appt := e.book(t, slot.ID)

	rec := e.do(t, http.MethodPost, fmt.Sprintf("/appointments/%s/confirm", appt.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("confirm: status %d, body %s", rec.Code, rec.Body.String())
	}
	if got := decodeBody[AppointmentResponse](t, rec); got.Status != "confirmed" {
		t.Fatalf("status after confirm = %q", got.Status)
	}

	rec = e.do(t, http.MethodPost, fmt.Sprintf("/appointments/%s/complete", appt.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete: status %d, body %s", rec.Code, rec.Body.String())
	}

	rec = e.do(t, http.MethodPost, fmt.Sprintf("/appointments/%s/cancel", appt.ID), nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("cancel completed: status %d, want 409", rec.Code)
	}
	if body := decodeBody[ErrorResponse](t, rec); body.Error != "invalid_status_transition" {
		t.Fatalf("cancel completed error = %q, want invalid_status_transition", body.Error)
	}

	rec = e.do(t, http.MethodGet, fmt.Sprintf("/appointments/%s", appt.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status %d", rec.Code)
	}
	if got := decodeBody[AppointmentResponse](t, rec); got.Status != "completed" {
		t.Fatalf("final status = %q, want completed", got.Status)
	}

	if rec := e.do(t, http.MethodGet, fmt.Sprintf("/appointments/%s", uuid.New()), nil); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown appointment: status %d, want 404", rec.Code)
	}
	if rec := e.do(t, http.MethodGet, "/appointments/nope", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed id: status %d, want 400", rec.Code)
	}
}

func TestCancelReleasesSlotEndpoint(t *testing.T) {
	e := newTestEnv(t)
	slot := e.newSlot(t, 9)
	appt := e.book(t, slot.ID)

	rec := e.do(t, http.MethodPost, fmt.Sprintf("/appointments/%s/cancel", appt.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel: status %d, body %s", rec.Code, rec.Body.String())
	}

	rec = e.do(t, http.MethodGet, fmt.Sprintf("/slots/%s", slot.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get slot: status %d", rec.Code)
	}
	if got := decodeBody[SlotResponse](t, rec); !got.Available {
		t.Fatal("slot should be available after cancel")
	}
}

func TestRescheduleEndpoint(t *testing.T) {
	e := newTestEnv(t)
	oldSlot := e.newSlot(t, 9)
	newSlot := e.newSlot(t, 11)
	appt := e.book(t, oldSlot.ID)

	rec := e.do(t, http.MethodPut, fmt.Sprintf("/appointments/%s/slot", appt.ID), RescheduleAppointmentRequest{
		SlotID: newSlot.ID.String(),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("reschedule: status %d, body %s", rec.Code, rec.Body.String())
	}
	if got := decodeBody[AppointmentResponse](t, rec); got.SlotID != newSlot.ID {
		t.Fatalf("slot id = %s, want %s", got.SlotID, newSlot.ID)
	}

	rec = e.do(t, http.MethodGet, fmt.Sprintf("/slots/%s", oldSlot.ID), nil)
	if got := decodeBody[SlotResponse](t, rec); !got.Available {
		t.Fatal("old slot should be released after reschedule")
	}
}

func TestListAppointmentsEndpoint(t *testing.T) {
	e := newTestEnv(t)
	slot := e.newSlot(t, 9)
	e.book(t, slot.ID)

	rec := e.do(t, http.MethodGet, "/appointments?patient_id="+e.patientID.String(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list by patient: status %d", rec.Code)
	}
	if got := decodeBody[[]AppointmentResponse](t, rec); len(got) != 1 {
		t.Fatalf("list by patient: got %d, want 1", len(got))
	}

	rec = e.do(t, http.MethodGet, "/appointments?status=pending", nil)
	if got := decodeBody[[]AppointmentResponse](t, rec); len(got) != 1 {
		t.Fatalf("list by status: got %d, want 1", len(got))
	}

	if rec := e.do(t, http.MethodGet, "/appointments", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing filter: status %d, want 400", rec.Code)
	}
	if rec := e.do(t, http.MethodGet, "/appointments?patient_id=nope", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad patient_id: status %d, want 400", rec.Code)
	}
}

func TestSlotEndpoints(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/slots", CreateSlotRequest{
		DentistID: e.dentistID.String(),
		Date:      "2026-09-10",
		StartTime: "09:00",
		EndTime:   "10:00",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create slot: status %d, body %s", rec.Code, rec.Body.String())
	}
	created := decodeBody[SlotResponse](t, rec)
	if !created.Available {
		t.Fatal("new slot should be available")
	}
	if created.StartTime != "09:00" || created.EndTime != "10:00" {
		t.Fatalf("slot window = %s-%s", created.StartTime, created.EndTime)
	}

	rec = e.do(t, http.MethodPost, "/slots", CreateSlotRequest{
		DentistID: e.dentistID.String(),
		Date:      "2026-09-10",
		StartTime: "10:00",
		EndTime:   "09:00",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("inverted window: status %d, want 400", rec.Code)
	}
	if body := decodeBody[ErrorResponse](t, rec); body.Error != "invalid_slot_window" {
		t.Fatalf("inverted window error = %q, want invalid_slot_window", body.Error)
	}

	rec = e.do(t, http.MethodPost, "/slots", CreateSlotRequest{
		DentistID: uuid.New().String(),
		Date:      "2026-09-10",
		StartTime: "09:00",
		EndTime:   "10:00",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown dentist: status %d, want 404", rec.Code)
	}

	rec = e.do(t, http.MethodGet, "/slots?available=true", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list slots: status %d", rec.Code)
	}
	if got := decodeBody[[]SlotResponse](t, rec); len(got) != 1 {
		t.Fatalf("available slots: got %d, want 1", len(got))
	}

	if rec := e.do(t, http.MethodGet, "/slots", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing filter: status %d, want 400", rec.Code)
	}
}

func TestPatientEndpoints(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodGet, fmt.Sprintf("/patients/%s", e.patientID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get patient: status %d", rec.Code)
	}
	p := decodeBody[PatientResponse](t, rec)
	if p.Cedula != "1102345678" || p.FirstName != "Maria" {
		t.Fatalf("patient = %+v", p)
	}

	stored, err := e.dir.GetPatient(context.Background(), e.patientID)
	if err != nil {
		t.Fatalf("get patient from store: %v", err)
	}

	rec = e.do(t, http.MethodDelete, fmt.Sprintf("/patients/%s", e.patientID), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete patient: status %d", rec.Code)
	}

	if rec := e.do(t, http.MethodGet, fmt.Sprintf("/patients/%s", e.patientID), nil); rec.Code != http.StatusNotFound {
		t.Fatalf("get deleted patient: status %d, want 404", rec.Code)
	}
	// The linked user account goes with the patient.
	if _, err := e.dir.GetUser(context.Background(), stored.UserID); err == nil {
		t.Fatal("user should be deleted along with the patient")
	}

	if rec := e.do(t, http.MethodDelete, fmt.Sprintf("/patients/%s", uuid.New()), nil); rec.Code != http.StatusNotFound {
		t.Fatalf("delete unknown patient: status %d, want 404", rec.Code)
	}
}

func TestDentistEndpoints(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodGet, fmt.Sprintf("/dentists/%s", e.dentistID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get dentist: status %d", rec.Code)
	}
	d := decodeBody[DentistResponse](t, rec)
	if d.Cedula != "1109876543" || d.LastName != "Vega" {
		t.Fatalf("dentist = %+v", d)
	}

	rec = e.do(t, http.MethodDelete, fmt.Sprintf("/dentists/%s", e.dentistID), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete dentist: status %d", rec.Code)
	}
	if rec := e.do(t, http.MethodGet, fmt.Sprintf("/dentists/%s", e.dentistID), nil); rec.Code != http.StatusNotFound {
		t.Fatalf("get deleted dentist: status %d, want 404", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodGet, "/health/live", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("liveness: status %d", rec.Code)
	}
	rec = e.do(t, http.MethodGet, "/health/ready", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("readiness: status %d, body %s", rec.Code, rec.Body.String())
	}
}
