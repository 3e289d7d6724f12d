package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// PgStore implements SlotStore and AppointmentStore on Postgres.
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// Helpers

const slotColumns = `id, dentist_id, date, start_time, end_time, available, created_at, updated_at`

func scanSlot(row pgx.Row) (*Slot, error) {
	var s Slot
	err := row.Scan(
		&s.ID,
		&s.DentistID,
		&s.Date,
		&s.StartTime,
		&s.EndTime,
		&s.Available,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	return &s, nil
}

const apptColumns = `id, patient_id, dentist_id, slot_id, scheduled_at, status, reason, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.DentistID,
		&a.SlotID,
		&a.ScheduledAt,
		&a.Status,
		&a.Reason,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

func collectSlots(rows pgx.Rows) ([]Slot, error) {
	defer rows.Close()
	var result []Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()
	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// SlotStore

func (r *PgStore) GetSlot(ctx context.Context, id uuid.UUID) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+slotColumns+`
		FROM slots
		WHERE id = $1
	`, id)
	return scanSlot(row)
}

func (r *PgStore) ListSlotsByDentist(ctx context.Context, dentistID uuid.UUID) ([]Slot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+slotColumns+`
		FROM slots
		WHERE dentist_id = $1
		ORDER BY id
	`, dentistID)
	if err != nil {
		return nil, err
	}
	return collectSlots(rows)
}

func (r *PgStore) ListSlotsByDate(ctx context.Context, date time.Time) ([]Slot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+slotColumns+`
		FROM slots
		WHERE date = $1::date
		ORDER BY id
	`, date)
	if err != nil {
		return nil, err
	}
	return collectSlots(rows)
}

func (r *PgStore) ListSlotsByAvailability(ctx context.Context, available bool) ([]Slot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+slotColumns+`
		FROM slots
		WHERE available = $1
		ORDER BY id
	`, available)
	if err != nil {
		return nil, err
	}
	return collectSlots(rows)
}

func (r *PgStore) SaveSlot(ctx context.Context, slot *Slot) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO slots (id, dentist_id, date, start_time, end_time, available, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		ON CONFLICT (id) DO UPDATE
		SET dentist_id = EXCLUDED.dentist_id,
		    date       = EXCLUDED.date,
		    start_time = EXCLUDED.start_time,
		    end_time   = EXCLUDED.end_time,
		    updated_at = now()
		RETURNING `+slotColumns+`
	`, slot.ID, slot.DentistID, slot.Date, slot.StartTime, slot.EndTime, slot.Available)
	return scanSlot(row)
}

// AcquireSlot is the conditional flip backing the availability engine:
// it succeeds only when the flag is currently true, in a single
// statement, so concurrent acquirers cannot both win.
func (r *PgStore) AcquireSlot(ctx context.Context, id uuid.UUID) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE slots
		SET available  = false,
		    updated_at = now()
		WHERE id = $1
		  AND available = true
		RETURNING `+slotColumns+`
	`, id)

	slot, err := scanSlot(row)
	if err == nil {
		return slot, nil
	}
	if !errors.Is(err, ErrSlotNotFound) {
		return nil, err
	}

	// No row matched: either the slot is gone or someone else holds it.
	if _, getErr := r.GetSlot(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, ErrSlotUnavailable
}

func (r *PgStore) ReleaseSlot(ctx context.Context, id uuid.UUID) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE slots
		SET available  = true,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+slotColumns+`
	`, id)
	return scanSlot(row)
}

// AppointmentStore

func (r *PgStore) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+apptColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgStore) CreateAppointment(ctx context.Context, appt *Appointment) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, dentist_id, slot_id, scheduled_at, status, reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING `+apptColumns+`
	`, appt.ID, appt.PatientID, appt.DentistID, appt.SlotID, appt.ScheduledAt, appt.Status, appt.Reason)

	created, err := scanAppointment(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			// The partial unique indexes are the database-level backstop
			// for the double-booking rules.
			if pgErr.ConstraintName == "appointments_active_slot_idx" {
				return nil, ErrSlotUnavailable
			}
			return nil, ErrDentistDoubleBooked
		}
		return nil, err
	}
	return created, nil
}

func (r *PgStore) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status     = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+apptColumns+`
	`, id, to, from)

	appt, err := scanAppointment(row)
	if err == nil {
		return appt, nil
	}
	if !errors.Is(err, ErrAppointmentNotFound) {
		return nil, err
	}

	if _, getErr := r.GetAppointment(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, ErrInvalidTransition
}

func (r *PgStore) UpdateAppointmentSlot(ctx context.Context, id, slotID uuid.UUID, scheduledAt time.Time) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET slot_id      = $2,
		    scheduled_at = $3,
		    updated_at   = now()
		WHERE id = $1
		RETURNING `+apptColumns+`
	`, id, slotID, scheduledAt)
	return scanAppointment(row)
}

func (r *PgStore) ActiveAppointmentForSlot(ctx context.Context, slotID uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+apptColumns+`
		FROM appointments
		WHERE slot_id = $1
		  AND status IN ('pending', 'confirmed')
	`, slotID)
	return scanAppointment(row)
}

func (r *PgStore) ActiveAppointmentAt(ctx context.Context, dentistID uuid.UUID, at time.Time) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+apptColumns+`
		FROM appointments
		WHERE dentist_id = $1
		  AND scheduled_at = $2
		  AND status IN ('pending', 'confirmed')
	`, dentistID, at)
	return scanAppointment(row)
}

func (r *PgStore) ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+apptColumns+`
		FROM appointments
		WHERE patient_id = $1
		ORDER BY id
	`, patientID)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgStore) ListAppointmentsByDentist(ctx context.Context, dentistID uuid.UUID) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+apptColumns+`
		FROM appointments
		WHERE dentist_id = $1
		ORDER BY id
	`, dentistID)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgStore) ListAppointmentsByDate(ctx context.Context, date time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+apptColumns+`
		FROM appointments
		WHERE scheduled_at::date = $1::date
		ORDER BY id
	`, date)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgStore) ListAppointmentsByStatus(ctx context.Context, status AppointmentStatus) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+apptColumns+`
		FROM appointments
		WHERE status = $1
		ORDER BY id
	`, status)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgStore) ListAppointmentsByReason(ctx context.Context, reason string) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+apptColumns+`
		FROM appointments
		WHERE reason = $1
		ORDER BY id
	`, reason)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgStore) FindStalePending(ctx context.Context, now time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+apptColumns+`
		FROM appointments
		WHERE status = 'pending'
		  AND scheduled_at < $1
		ORDER BY id
	`, now)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgStore) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}
	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
