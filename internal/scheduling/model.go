package scheduling

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// Active reports whether the status still holds its slot. Completed and
// cancelled appointments have released or consumed theirs.
func (s AppointmentStatus) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Terminal reports whether no further transitions are allowed.
func (s AppointmentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Slot is a bookable time window belonging to one dentist on one date
// (the original system calls this a "horario"). Available is flipped by
// the availability engine only.
type Slot struct {
	ID        uuid.UUID
	DentistID uuid.UUID
	Date      time.Time
	StartTime time.Time
	EndTime   time.Time
	Available bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StartsAt combines the slot's calendar date with its start time. The
// result is what appointments duplicate as ScheduledAt.
func (s Slot) StartsAt() time.Time {
	return time.Date(
		s.Date.Year(), s.Date.Month(), s.Date.Day(),
		s.StartTime.Hour(), s.StartTime.Minute(), s.StartTime.Second(), 0,
		s.Date.Location(),
	)
}

// Appointment books a patient into exactly one slot with one dentist
// (a "cita"). ScheduledAt is copied from the slot for query convenience
// and kept in sync on reschedule.
type Appointment struct {
	ID          uuid.UUID
	PatientID   uuid.UUID
	DentistID   uuid.UUID
	SlotID      uuid.UUID
	ScheduledAt time.Time
	Status      AppointmentStatus
	Reason      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}
