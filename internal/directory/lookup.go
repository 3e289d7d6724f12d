package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Lookup adapts a Store to the existence checks the booking workflow
// performs before reserving a slot.
type Lookup struct {
	store Store
}

func NewLookup(store Store) *Lookup {
	return &Lookup{store: store}
}

func (l *Lookup) PatientExists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := l.store.GetPatient(ctx, id)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (l *Lookup) DentistExists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := l.store.GetDentist(ctx, id)
	if err != nil {
		if errors.Is(err, ErrDentistNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
