package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound = errors.New("patient not found")
	ErrDentistNotFound = errors.New("dentist not found")
	ErrUserNotFound    = errors.New("user not found")
)

// Store holds the reference entities. The delete operations remove the
// principal and its linked user as an explicit two-step sequence inside
// one transaction; there is no implicit cascade anywhere in the schema.
type Store interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetPatientByCedula(ctx context.Context, cedula string) (*Patient, error)
	ListPatients(ctx context.Context) ([]Patient, error)
	CreatePatient(ctx context.Context, patient *Patient, user *User) (*Patient, error)
	DeletePatient(ctx context.Context, id uuid.UUID) error

	GetDentist(ctx context.Context, id uuid.UUID) (*Dentist, error)
	GetDentistByCedula(ctx context.Context, cedula string) (*Dentist, error)
	ListDentists(ctx context.Context) ([]Dentist, error)
	CreateDentist(ctx context.Context, dentist *Dentist, user *User) (*Dentist, error)
	DeleteDentist(ctx context.Context, id uuid.UUID) error

	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
}
