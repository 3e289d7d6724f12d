package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/webmarket/dental-scheduling/internal/directory"
	"github.com/webmarket/dental-scheduling/internal/scheduling"
)

type CreateAppointmentRequest struct {
	PatientID string `json:"patient_id" validate:"required,uuid"`
	DentistID string `json:"dentist_id" validate:"required,uuid"`
	SlotID    string `json:"slot_id" validate:"required,uuid"`
	Reason    string `json:"reason" validate:"required,max=500"`
}

type RescheduleAppointmentRequest struct {
	SlotID string `json:"slot_id" validate:"required,uuid"`
}

type CreateSlotRequest struct {
	DentistID string `json:"dentist_id" validate:"required,uuid"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"required,datetime=15:04"`
}

type AppointmentResponse struct {
	ID          uuid.UUID `json:"id"`
	PatientID   uuid.UUID `json:"patient_id"`
	DentistID   uuid.UUID `json:"dentist_id"`
	SlotID      uuid.UUID `json:"slot_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Status      string    `json:"status"`
	Reason      string    `json:"reason"`
}

func toAppointmentResponse(a *scheduling.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:          a.ID,
		PatientID:   a.PatientID,
		DentistID:   a.DentistID,
		SlotID:      a.SlotID,
		ScheduledAt: a.ScheduledAt,
		Status:      string(a.Status),
		Reason:      a.Reason,
	}
}

func toAppointmentResponses(appts []scheduling.Appointment) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(appts))
	for i := range appts {
		out = append(out, toAppointmentResponse(&appts[i]))
	}
	return out
}

type SlotResponse struct {
	ID        uuid.UUID `json:"id"`
	DentistID uuid.UUID `json:"dentist_id"`
	Date      string    `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Available bool      `json:"available"`
}

func toSlotResponse(s *scheduling.Slot) SlotResponse {
	return SlotResponse{
		ID:        s.ID,
		DentistID: s.DentistID,
		Date:      s.Date.Format("2006-01-02"),
		StartTime: s.StartTime.Format("15:04"),
		EndTime:   s.EndTime.Format("15:04"),
		Available: s.Available,
	}
}

func toSlotResponses(slots []scheduling.Slot) []SlotResponse {
	out := make([]SlotResponse, 0, len(slots))
	for i := range slots {
		out = append(out, toSlotResponse(&slots[i]))
	}
	return out
}

type PatientResponse struct {
	ID        uuid.UUID `json:"id"`
	Cedula    string    `json:"cedula"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	BirthDate string    `json:"birth_date"`
	Address   string    `json:"address"`
}

func toPatientResponse(p *directory.Patient) PatientResponse {
	return PatientResponse{
		ID:        p.ID,
		Cedula:    p.Cedula,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Phone:     p.Phone,
		Email:     p.Email,
		BirthDate: p.BirthDate.Format("2006-01-02"),
		Address:   p.Address,
	}
}

type DentistResponse struct {
	ID        uuid.UUID `json:"id"`
	Cedula    string    `json:"cedula"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Address   string    `json:"address"`
}

func toDentistResponse(d *directory.Dentist) DentistResponse {
	return DentistResponse{
		ID:        d.ID,
		Cedula:    d.Cedula,
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Phone:     d.Phone,
		Email:     d.Email,
		Address:   d.Address,
	}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
