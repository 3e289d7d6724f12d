package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSlotNotFound        = errors.New("slot not found")
	ErrSlotUnavailable     = errors.New("slot is not available")
	ErrDentistMismatch     = errors.New("slot belongs to a different dentist")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrAppointmentTerminal = errors.New("appointment is already completed or cancelled")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrDentistDoubleBooked = errors.New("dentist already has an active appointment at that time")
)

// SlotStore is the durable record of bookable windows. AcquireSlot and
// ReleaseSlot are the conditional primitives the availability engine is
// built on; a plain get-then-save of the availability flag is never
// performed anywhere in this package.
type SlotStore interface {
	GetSlot(ctx context.Context, id uuid.UUID) (*Slot, error)
	ListSlotsByDentist(ctx context.Context, dentistID uuid.UUID) ([]Slot, error)
	ListSlotsByDate(ctx context.Context, date time.Time) ([]Slot, error)
	ListSlotsByAvailability(ctx context.Context, available bool) ([]Slot, error)

	// SaveSlot inserts or updates, keyed by ID.
	SaveSlot(ctx context.Context, slot *Slot) (*Slot, error)

	// AcquireSlot flips the availability flag from true to false as a
	// single conditional update. It returns ErrSlotNotFound if the slot
	// does not exist and ErrSlotUnavailable if the flag is already false.
	AcquireSlot(ctx context.Context, id uuid.UUID) (*Slot, error)

	// ReleaseSlot flips the availability flag to true. Releasing an
	// already-available slot is a no-op, not an error.
	ReleaseSlot(ctx context.Context, id uuid.UUID) (*Slot, error)
}

// AppointmentStore is the durable record of bookings.
type AppointmentStore interface {
	GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error)
	CreateAppointment(ctx context.Context, appt *Appointment) (*Appointment, error)

	// UpdateAppointmentStatus moves id from one status to another as a
	// compare-and-set. It returns ErrInvalidTransition when the row
	// exists but is no longer in the expected status.
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error)

	// UpdateAppointmentSlot repoints an appointment at a new slot and
	// scheduled time (reschedule).
	UpdateAppointmentSlot(ctx context.Context, id, slotID uuid.UUID, scheduledAt time.Time) (*Appointment, error)

	// ActiveAppointmentForSlot returns the pending or confirmed
	// appointment holding the slot, or ErrAppointmentNotFound.
	ActiveAppointmentForSlot(ctx context.Context, slotID uuid.UUID) (*Appointment, error)

	// ActiveAppointmentAt returns the pending or confirmed appointment a
	// dentist has at the exact scheduled time, or ErrAppointmentNotFound.
	ActiveAppointmentAt(ctx context.Context, dentistID uuid.UUID, at time.Time) (*Appointment, error)

	ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error)
	ListAppointmentsByDentist(ctx context.Context, dentistID uuid.UUID) ([]Appointment, error)
	ListAppointmentsByDate(ctx context.Context, date time.Time) ([]Appointment, error)
	ListAppointmentsByStatus(ctx context.Context, status AppointmentStatus) ([]Appointment, error)
	ListAppointmentsByReason(ctx context.Context, reason string) ([]Appointment, error)

	// FindStalePending lists pending appointments whose scheduled time is
	// already in the past. Used by the sweep worker.
	FindStalePending(ctx context.Context, now time.Time) ([]Appointment, error)

	InsertEvent(ctx context.Context, ev EventLog) error
}
