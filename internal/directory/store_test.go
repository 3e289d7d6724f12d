package directory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func seedPatient(t *testing.T, store *MemoryStore) *Patient {
	t.Helper()
	p, err := store.CreatePatient(context.Background(), &Patient{
		ID:        uuid.New(),
		Cedula:    "1102345678",
		FirstName: "Maria",
		LastName:  "Lopez",
		Email:     "maria@example.com",
		BirthDate: time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC),
	}, &User{ID: uuid.New(), Username: "maria", PasswordHash: "x"})
	if err != nil {
		t.Fatalf("create patient: %v", err)
	}
	return p
}

func seedDentist(t *testing.T, store *MemoryStore) *Dentist {
	t.Helper()
	d, err := store.CreateDentist(context.Background(), &Dentist{
		ID:        uuid.New(),
		Cedula:    "1109876543",
		FirstName: "Carlos",
		LastName:  "Vega",
		Email:     "carlos@example.com",
	}, &User{ID: uuid.New(), Username: "carlos", PasswordHash: "x"})
	if err != nil {
		t.Fatalf("create dentist: %v", err)
	}
	return d
}

func TestCreateLinksUserAccount(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	p := seedPatient(t, store)
	u, err := store.GetUser(ctx, p.UserID)
	if err != nil {
		t.Fatalf("get patient user: %v", err)
	}
	if u.IsDentist {
		t.Error("patient's user must not be flagged as dentist")
	}

	d := seedDentist(t, store)
	u, err = store.GetUser(ctx, d.UserID)
	if err != nil {
		t.Fatalf("get dentist user: %v", err)
	}
	if !u.IsDentist {
		t.Error("dentist's user must be flagged as dentist")
	}
}

func TestDeletePatientRemovesUser(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	p := seedPatient(t, store)

	if err := store.DeletePatient(ctx, p.ID); err != nil {
		t.Fatalf("delete patient: %v", err)
	}
	if _, err := store.GetPatient(ctx, p.ID); !errors.Is(err, ErrPatientNotFound) {
		t.Fatalf("get deleted patient: got %v, want ErrPatientNotFound", err)
	}
	if _, err := store.GetUser(ctx, p.UserID); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("get orphaned user: got %v, want ErrUserNotFound", err)
	}

	if err := store.DeletePatient(ctx, p.ID); !errors.Is(err, ErrPatientNotFound) {
		t.Fatalf("second delete: got %v, want ErrPatientNotFound", err)
	}
}

func TestDeleteDentistRemovesUser(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	d := seedDentist(t, store)

	if err := store.DeleteDentist(ctx, d.ID); err != nil {
		t.Fatalf("delete dentist: %v", err)
	}
	if _, err := store.GetDentist(ctx, d.ID); !errors.Is(err, ErrDentistNotFound) {
		t.Fatalf("get deleted dentist: got %v, want ErrDentistNotFound", err)
	}
	if _, err := store.GetUser(ctx, d.UserID); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("get orphaned user: got %v, want ErrUserNotFound", err)
	}
}

func TestGetByCedula(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	p := seedPatient(t, store)
	d := seedDentist(t, store)

	got, err := store.GetPatientByCedula(ctx, p.Cedula)
	if err != nil {
		t.Fatalf("patient by cedula: %v", err)
	}
	if got.ID != p.ID {
		t.Fatalf("patient id = %s, want %s", got.ID, p.ID)
	}

	gotD, err := store.GetDentistByCedula(ctx, d.Cedula)
	if err != nil {
		t.Fatalf("dentist by cedula: %v", err)
	}
	if gotD.ID != d.ID {
		t.Fatalf("dentist id = %s, want %s", gotD.ID, d.ID)
	}

	if _, err := store.GetPatientByCedula(ctx, "0000000000"); !errors.Is(err, ErrPatientNotFound) {
		t.Fatalf("unknown cedula: got %v, want ErrPatientNotFound", err)
	}
}

func TestLookupExistenceChecks(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	p := seedPatient(t, store)
	d := seedDentist(t, store)
	lookup := NewLookup(store)

	ok, err := lookup.PatientExists(ctx, p.ID)
	if err != nil || !ok {
		t.Fatalf("patient exists = %v, %v", ok, err)
	}
	ok, err = lookup.DentistExists(ctx, d.ID)
	if err != nil || !ok {
		t.Fatalf("dentist exists = %v, %v", ok, err)
	}

	ok, err = lookup.PatientExists(ctx, uuid.New())
	if err != nil {
		t.Fatalf("unknown patient lookup: %v", err)
	}
	if ok {
		t.Error("unknown patient reported as existing")
	}
	ok, err = lookup.DentistExists(ctx, uuid.New())
	if err != nil {
		t.Fatalf("unknown dentist lookup: %v", err)
	}
	if ok {
		t.Error("unknown dentist reported as existing")
	}
}
