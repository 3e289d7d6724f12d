package scheduling

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore implements SlotStore and AppointmentStore in process
// memory. It backs single-process deployments and the test suite; the
// conditional-flip contract of AcquireSlot holds here the same way it
// does in Postgres, guarded by the store mutex.
type MemoryStore struct {
	mu     sync.Mutex
	slots  map[uuid.UUID]Slot
	appts  map[uuid.UUID]Appointment
	events []EventLog
	nextEv int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		slots: make(map[uuid.UUID]Slot),
		appts: make(map[uuid.UUID]Appointment),
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func sortSlots(s []Slot) []Slot {
	sort.Slice(s, func(i, j int) bool { return s[i].ID.String() < s[j].ID.String() })
	return s
}

func sortAppointments(a []Appointment) []Appointment {
	sort.Slice(a, func(i, j int) bool { return a[i].ID.String() < a[j].ID.String() })
	return a
}

// SlotStore

func (m *MemoryStore) GetSlot(ctx context.Context, id uuid.UUID) (*Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	slot, ok := m.slots[id]
	if !ok {
		return nil, ErrSlotNotFound
	}
	return &slot, nil
}

func (m *MemoryStore) ListSlotsByDentist(ctx context.Context, dentistID uuid.UUID) ([]Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []Slot
	for _, s := range m.slots {
		if s.DentistID == dentistID {
			result = append(result, s)
		}
	}
	return sortSlots(result), nil
}

func (m *MemoryStore) ListSlotsByDate(ctx context.Context, date time.Time) ([]Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []Slot
	for _, s := range m.slots {
		if sameDay(s.Date, date) {
			result = append(result, s)
		}
	}
	return sortSlots(result), nil
}

func (m *MemoryStore) ListSlotsByAvailability(ctx context.Context, available bool) ([]Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []Slot
	for _, s := range m.slots {
		if s.Available == available {
			result = append(result, s)
		}
	}
	return sortSlots(result), nil
}

func (m *MemoryStore) SaveSlot(ctx context.Context, slot *Slot) (*Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	stored := *slot
	if existing, ok := m.slots[slot.ID]; ok {
		stored.Available = existing.Available
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	m.slots[slot.ID] = stored

	out := stored
	return &out, nil
}

func (m *MemoryStore) AcquireSlot(ctx context.Context, id uuid.UUID) (*Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	slot, ok := m.slots[id]
	if !ok {
		return nil, ErrSlotNotFound
	}
	if !slot.Available {
		return nil, ErrSlotUnavailable
	}
	slot.Available = false
	slot.UpdatedAt = time.Now()
	m.slots[id] = slot

	out := slot
	return &out, nil
}

func (m *MemoryStore) ReleaseSlot(ctx context.Context, id uuid.UUID) (*Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	slot, ok := m.slots[id]
	if !ok {
		return nil, ErrSlotNotFound
	}
	if !slot.Available {
		slot.Available = true
		slot.UpdatedAt = time.Now()
		m.slots[id] = slot
	}

	out := slot
	return &out, nil
}

// AppointmentStore

func (m *MemoryStore) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	appt, ok := m.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return &appt, nil
}

func (m *MemoryStore) CreateAppointment(ctx context.Context, appt *Appointment) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.appts {
		if !existing.Status.Active() {
			continue
		}
		if existing.SlotID == appt.SlotID {
			return nil, ErrSlotUnavailable
		}
		if existing.DentistID == appt.DentistID && existing.ScheduledAt.Equal(appt.ScheduledAt) {
			return nil, ErrDentistDoubleBooked
		}
	}

	now := time.Now()
	stored := *appt
	stored.CreatedAt = now
	stored.UpdatedAt = now
	m.appts[stored.ID] = stored

	out := stored
	return &out, nil
}

func (m *MemoryStore) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	appt, ok := m.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	if appt.Status != from {
		return nil, ErrInvalidTransition
	}
	appt.Status = to
	appt.UpdatedAt = time.Now()
	m.appts[id] = appt

	out := appt
	return &out, nil
}

func (m *MemoryStore) UpdateAppointmentSlot(ctx context.Context, id, slotID uuid.UUID, scheduledAt time.Time) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	appt, ok := m.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	appt.SlotID = slotID
	appt.ScheduledAt = scheduledAt
	appt.UpdatedAt = time.Now()
	m.appts[id] = appt

	out := appt
	return &out, nil
}

func (m *MemoryStore) ActiveAppointmentForSlot(ctx context.Context, slotID uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.appts {
		if a.SlotID == slotID && a.Status.Active() {
			out := a
			return &out, nil
		}
	}
	return nil, ErrAppointmentNotFound
}

func (m *MemoryStore) ActiveAppointmentAt(ctx context.Context, dentistID uuid.UUID, at time.Time) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.appts {
		if a.DentistID == dentistID && a.ScheduledAt.Equal(at) && a.Status.Active() {
			out := a
			return &out, nil
		}
	}
	return nil, ErrAppointmentNotFound
}

func (m *MemoryStore) ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error) {
	return m.filterAppointments(func(a Appointment) bool { return a.PatientID == patientID })
}

func (m *MemoryStore) ListAppointmentsByDentist(ctx context.Context, dentistID uuid.UUID) ([]Appointment, error) {
	return m.filterAppointments(func(a Appointment) bool { return a.DentistID == dentistID })
}

func (m *MemoryStore) ListAppointmentsByDate(ctx context.Context, date time.Time) ([]Appointment, error) {
	return m.filterAppointments(func(a Appointment) bool { return sameDay(a.ScheduledAt, date) })
}

func (m *MemoryStore) ListAppointmentsByStatus(ctx context.Context, status AppointmentStatus) ([]Appointment, error) {
	return m.filterAppointments(func(a Appointment) bool { return a.Status == status })
}

func (m *MemoryStore) ListAppointmentsByReason(ctx context.Context, reason string) ([]Appointment, error) {
	return m.filterAppointments(func(a Appointment) bool { return a.Reason == reason })
}

func (m *MemoryStore) FindStalePending(ctx context.Context, now time.Time) ([]Appointment, error) {
	return m.filterAppointments(func(a Appointment) bool {
		return a.Status == StatusPending && a.ScheduledAt.Before(now)
	})
}

func (m *MemoryStore) filterAppointments(keep func(Appointment) bool) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []Appointment
	for _, a := range m.appts {
		if keep(a) {
			result = append(result, a)
		}
	}
	return sortAppointments(result), nil
}

func (m *MemoryStore) InsertEvent(ctx context.Context, ev EventLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextEv++
	ev.ID = m.nextEv
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	m.events = append(m.events, ev)
	return nil
}

// Events returns a copy of the recorded event log.
func (m *MemoryStore) Events() []EventLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EventLog, len(m.events))
	copy(out, m.events)
	return out
}
