package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	EventAppointmentCreated     = "APPOINTMENT_CREATED"
	EventAppointmentConfirmed   = "APPOINTMENT_CONFIRMED"
	EventAppointmentCompleted   = "APPOINTMENT_COMPLETED"
	EventAppointmentCancelled   = "APPOINTMENT_CANCELLED"
	EventAppointmentRescheduled = "APPOINTMENT_RESCHEDULED"
	EventSlotCreated            = "SLOT_CREATED"
)

var (
	ErrPatientNotFound   = errors.New("patient not found")
	ErrDentistNotFound   = errors.New("dentist not found")
	ErrInvalidSlotWindow = errors.New("slot start time must be before end time")
)

// PatientDirectory and DentistDirectory are the reference-entity lookups
// the workflow needs. Registration and credentials live elsewhere.
type PatientDirectory interface {
	PatientExists(ctx context.Context, id uuid.UUID) (bool, error)
}

type DentistDirectory interface {
	DentistExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Service is the booking workflow. It drives the appointment state
// machine (pending -> confirmed -> completed, pending/confirmed ->
// cancelled) and is the only writer of the appointment store. All slot
// flag mutations go through the availability engine.
type Service struct {
	appts    AppointmentStore
	slots    SlotStore
	engine   *Engine
	patients PatientDirectory
	dentists DentistDirectory
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(appts AppointmentStore, slots SlotStore, engine *Engine, patients PatientDirectory, dentists DentistDirectory, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		appts:    appts,
		slots:    slots,
		engine:   engine,
		patients: patients,
		dentists: dentists,
		logger:   logger,
		now:      time.Now,
	}
}

// Create books a patient into a slot. The slot is reserved first; if the
// double-booking check or the appointment insert fails afterwards, the
// reservation is compensated by releasing the slot, so no slot stays
// unavailable without a live appointment.
func (s *Service) Create(ctx context.Context, patientID, dentistID, slotID uuid.UUID, reason string) (*Appointment, error) {
	ok, err := s.patients.PatientExists(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("load patient: %w", err)
	}
	if !ok {
		return nil, ErrPatientNotFound
	}

	ok, err = s.dentists.DentistExists(ctx, dentistID)
	if err != nil {
		return nil, fmt.Errorf("load dentist: %w", err)
	}
	if !ok {
		return nil, ErrDentistNotFound
	}

	slot, err := s.engine.Reserve(ctx, slotID, dentistID)
	if err != nil {
		return nil, err
	}

	scheduledAt := slot.StartsAt()

	// The dentist may own another slot at the same instant. One active
	// appointment per (dentist, time) is the double-booking rule, so the
	// conflict check covers all of the dentist's slots, not just this one.
	if conflictErr := s.checkDentistFree(ctx, dentistID, scheduledAt, uuid.Nil); conflictErr != nil {
		s.compensateReserve(ctx, slotID)
		return nil, conflictErr
	}

	appt := &Appointment{
		ID:          uuid.New(),
		PatientID:   patientID,
		DentistID:   dentistID,
		SlotID:      slotID,
		ScheduledAt: scheduledAt,
		Status:      StatusPending,
		Reason:      reason,
	}

	created, err := s.appts.CreateAppointment(ctx, appt)
	if err != nil {
		s.compensateReserve(ctx, slotID)
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	s.logEvent(ctx, created.ID, EventAppointmentCreated, map[string]any{
		"slot_id":      slotID.String(),
		"patient_id":   patientID.String(),
		"dentist_id":   dentistID.String(),
		"scheduled_at": scheduledAt,
	})

	return created, nil
}

// Reschedule moves an appointment onto a new slot. The new slot is
// reserved before the old one is released, so a failed reservation never
// leaves the patient holding nothing.
func (s *Service) Reschedule(ctx context.Context, appointmentID, newSlotID uuid.UUID) (*Appointment, error) {
	appt, err := s.appts.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt.Status.Terminal() {
		return nil, ErrAppointmentTerminal
	}
	if appt.SlotID == newSlotID {
		return appt, nil
	}

	newSlot, err := s.engine.Reserve(ctx, newSlotID, appt.DentistID)
	if err != nil {
		return nil, err
	}

	scheduledAt := newSlot.StartsAt()

	if conflictErr := s.checkDentistFree(ctx, appt.DentistID, scheduledAt, appt.ID); conflictErr != nil {
		s.compensateReserve(ctx, newSlotID)
		return nil, conflictErr
	}

	updated, err := s.appts.UpdateAppointmentSlot(ctx, appt.ID, newSlotID, scheduledAt)
	if err != nil {
		s.compensateReserve(ctx, newSlotID)
		return nil, fmt.Errorf("update appointment slot: %w", err)
	}

	oldSlotID := appt.SlotID
	if err := s.engine.Release(ctx, oldSlotID); err != nil {
		// The appointment already points at the new slot; the old slot
		// staying blocked is recoverable, failing the reschedule is not.
		s.logger.Warn("release of previous slot failed",
			zap.String("slot_id", oldSlotID.String()),
			zap.Error(err),
		)
	}

	s.logEvent(ctx, updated.ID, EventAppointmentRescheduled, map[string]any{
		"old_slot_id":  oldSlotID.String(),
		"new_slot_id":  newSlotID.String(),
		"scheduled_at": scheduledAt,
	})

	return updated, nil
}

// Confirm moves a pending appointment to confirmed.
func (s *Service) Confirm(ctx context.Context, appointmentID uuid.UUID) (*Appointment, error) {
	updated, err := s.appts.UpdateAppointmentStatus(ctx, appointmentID, StatusPending, StatusConfirmed)
	if err != nil {
		return nil, err
	}
	s.logEvent(ctx, updated.ID, EventAppointmentConfirmed, map[string]any{})
	return updated, nil
}

// Complete moves a confirmed appointment to completed. The slot is not
// released: its window has been consumed.
func (s *Service) Complete(ctx context.Context, appointmentID uuid.UUID) (*Appointment, error) {
	updated, err := s.appts.UpdateAppointmentStatus(ctx, appointmentID, StatusConfirmed, StatusCompleted)
	if err != nil {
		return nil, err
	}
	s.logEvent(ctx, updated.ID, EventAppointmentCompleted, map[string]any{})
	return updated, nil
}

// Cancel moves a pending or confirmed appointment to cancelled and
// releases its slot. Cancellation is the soft form of deletion: the row
// stays for audit history. A slot-release failure is logged but never
// fails the cancellation, release being idempotent and retriable.
func (s *Service) Cancel(ctx context.Context, appointmentID uuid.UUID) (*Appointment, error) {
	appt, err := s.appts.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt.Status.Terminal() {
		return nil, ErrInvalidTransition
	}

	updated, err := s.appts.UpdateAppointmentStatus(ctx, appt.ID, appt.Status, StatusCancelled)
	if err != nil {
		return nil, err
	}

	if err := s.engine.Release(ctx, updated.SlotID); err != nil {
		s.logger.Warn("slot release after cancel failed",
			zap.String("slot_id", updated.SlotID.String()),
			zap.Error(err),
		)
	}

	s.logEvent(ctx, updated.ID, EventAppointmentCancelled, map[string]any{
		"slot_id": updated.SlotID.String(),
	})

	return updated, nil
}

// CreateSlot registers a new bookable window for a dentist. Clinic staff
// call this ahead of time; slots always start out available.
func (s *Service) CreateSlot(ctx context.Context, dentistID uuid.UUID, date, start, end time.Time) (*Slot, error) {
	if !start.Before(end) {
		return nil, ErrInvalidSlotWindow
	}

	ok, err := s.dentists.DentistExists(ctx, dentistID)
	if err != nil {
		return nil, fmt.Errorf("load dentist: %w", err)
	}
	if !ok {
		return nil, ErrDentistNotFound
	}

	slot := &Slot{
		ID:        uuid.New(),
		DentistID: dentistID,
		Date:      date,
		StartTime: start,
		EndTime:   end,
		Available: true,
	}

	saved, err := s.slots.SaveSlot(ctx, slot)
	if err != nil {
		return nil, fmt.Errorf("save slot: %w", err)
	}

	s.logEvent(ctx, uuid.Nil, EventSlotCreated, map[string]any{
		"slot_id":    saved.ID.String(),
		"dentist_id": dentistID.String(),
	})

	return saved, nil
}

// SweepStalePending cancels pending appointments whose slot time has
// already passed and releases their slots. Intended to be called
// periodically by the sweep worker.
func (s *Service) SweepStalePending(ctx context.Context) (int, error) {
	stale, err := s.appts.FindStalePending(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("find stale pending appointments: %w", err)
	}

	swept := 0
	for _, appt := range stale {
		updated, err := s.appts.UpdateAppointmentStatus(ctx, appt.ID, StatusPending, StatusCancelled)
		if err != nil {
			if !errors.Is(err, ErrInvalidTransition) && !errors.Is(err, ErrAppointmentNotFound) {
				s.logger.Warn("failed to sweep appointment",
					zap.String("appointment_id", appt.ID.String()),
					zap.Error(err),
				)
			}
			continue
		}
		if err := s.engine.Release(ctx, updated.SlotID); err != nil {
			s.logger.Warn("slot release during sweep failed",
				zap.String("slot_id", updated.SlotID.String()),
				zap.Error(err),
			)
		}
		s.logEvent(ctx, updated.ID, EventAppointmentCancelled, map[string]any{
			"reason": "sweep",
		})
		swept++
	}

	return swept, nil
}

// checkDentistFree enforces uniqueness of (dentist, scheduled time) among
// active appointments. exclude skips the appointment being rescheduled.
func (s *Service) checkDentistFree(ctx context.Context, dentistID uuid.UUID, at time.Time, exclude uuid.UUID) error {
	existing, err := s.appts.ActiveAppointmentAt(ctx, dentistID, at)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil
		}
		return fmt.Errorf("check dentist conflicts: %w", err)
	}
	if existing.ID == exclude {
		return nil
	}
	return ErrDentistDoubleBooked
}

func (s *Service) compensateReserve(ctx context.Context, slotID uuid.UUID) {
	if err := s.engine.Release(ctx, slotID); err != nil {
		s.logger.Error("compensating slot release failed",
			zap.String("slot_id", slotID.String()),
			zap.Error(err),
		)
	}
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("failed to marshal event payload", zap.String("event", eventType), zap.Error(err))
		data = nil
	}

	ev := EventLog{
		EventType: eventType,
		Payload:   data,
		CreatedAt: s.now(),
	}
	if appointmentID != uuid.Nil {
		id := appointmentID
		ev.AppointmentID = &id
	}

	if err := s.appts.InsertEvent(ctx, ev); err != nil {
		s.logger.Warn("failed to insert event log",
			zap.String("event", eventType),
			zap.Error(err),
		)
	}
}
