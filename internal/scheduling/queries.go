package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Queries is the read-only façade over the two stores. Nothing here
// mutates state or participates in the state machine.
type Queries struct {
	appts AppointmentStore
	slots SlotStore
}

func NewQueries(appts AppointmentStore, slots SlotStore) *Queries {
	return &Queries{appts: appts, slots: slots}
}

func (q *Queries) Appointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return q.appts.GetAppointment(ctx, id)
}

func (q *Queries) AppointmentsByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error) {
	return q.appts.ListAppointmentsByPatient(ctx, patientID)
}

func (q *Queries) AppointmentsByDentist(ctx context.Context, dentistID uuid.UUID) ([]Appointment, error) {
	return q.appts.ListAppointmentsByDentist(ctx, dentistID)
}

func (q *Queries) AppointmentsByDate(ctx context.Context, date time.Time) ([]Appointment, error) {
	return q.appts.ListAppointmentsByDate(ctx, date)
}

func (q *Queries) AppointmentsByStatus(ctx context.Context, status AppointmentStatus) ([]Appointment, error) {
	return q.appts.ListAppointmentsByStatus(ctx, status)
}

func (q *Queries) AppointmentsByReason(ctx context.Context, reason string) ([]Appointment, error) {
	return q.appts.ListAppointmentsByReason(ctx, reason)
}

func (q *Queries) Slot(ctx context.Context, id uuid.UUID) (*Slot, error) {
	return q.slots.GetSlot(ctx, id)
}

func (q *Queries) SlotsByDentist(ctx context.Context, dentistID uuid.UUID) ([]Slot, error) {
	return q.slots.ListSlotsByDentist(ctx, dentistID)
}

func (q *Queries) SlotsByDate(ctx context.Context, date time.Time) ([]Slot, error) {
	return q.slots.ListSlotsByDate(ctx, date)
}

func (q *Queries) SlotsByAvailability(ctx context.Context, available bool) ([]Slot, error) {
	return q.slots.ListSlotsByAvailability(ctx, available)
}
