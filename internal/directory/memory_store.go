package directory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is the in-process Store used by tests and the local
// deployment mode.
type MemoryStore struct {
	mu       sync.Mutex
	patients map[uuid.UUID]Patient
	dentists map[uuid.UUID]Dentist
	users    map[uuid.UUID]User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		patients: make(map[uuid.UUID]Patient),
		dentists: make(map[uuid.UUID]Dentist),
		users:    make(map[uuid.UUID]User),
	}
}

func (m *MemoryStore) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	return &p, nil
}

func (m *MemoryStore) GetPatientByCedula(ctx context.Context, cedula string) (*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.patients {
		if p.Cedula == cedula {
			out := p
			return &out, nil
		}
	}
	return nil, ErrPatientNotFound
}

func (m *MemoryStore) ListPatients(ctx context.Context) ([]Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]Patient, 0, len(m.patients))
	for _, p := range m.patients {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID.String() < result[j].ID.String() })
	return result, nil
}

func (m *MemoryStore) CreatePatient(ctx context.Context, patient *Patient, user *User) (*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	u := *user
	u.IsDentist = false
	u.CreatedAt = now
	u.UpdatedAt = now
	m.users[u.ID] = u

	p := *patient
	p.UserID = u.ID
	p.CreatedAt = now
	p.UpdatedAt = now
	m.patients[p.ID] = p

	out := p
	return &out, nil
}

func (m *MemoryStore) DeletePatient(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return ErrPatientNotFound
	}
	delete(m.patients, id)
	delete(m.users, p.UserID)
	return nil
}

func (m *MemoryStore) GetDentist(ctx context.Context, id uuid.UUID) (*Dentist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.dentists[id]
	if !ok {
		return nil, ErrDentistNotFound
	}
	return &d, nil
}

func (m *MemoryStore) GetDentistByCedula(ctx context.Context, cedula string) (*Dentist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.dentists {
		if d.Cedula == cedula {
			out := d
			return &out, nil
		}
	}
	return nil, ErrDentistNotFound
}

func (m *MemoryStore) ListDentists(ctx context.Context) ([]Dentist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]Dentist, 0, len(m.dentists))
	for _, d := range m.dentists {
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID.String() < result[j].ID.String() })
	return result, nil
}

func (m *MemoryStore) CreateDentist(ctx context.Context, dentist *Dentist, user *User) (*Dentist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	u := *user
	u.IsDentist = true
	u.CreatedAt = now
	u.UpdatedAt = now
	m.users[u.ID] = u

	d := *dentist
	d.UserID = u.ID
	d.CreatedAt = now
	d.UpdatedAt = now
	m.dentists[d.ID] = d

	out := d
	return &out, nil
}

func (m *MemoryStore) DeleteDentist(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.dentists[id]
	if !ok {
		return ErrDentistNotFound
	}
	delete(m.dentists, id)
	delete(m.users, d.UserID)
	return nil
}

func (m *MemoryStore) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}
