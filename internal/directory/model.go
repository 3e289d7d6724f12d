package directory

import (
	"time"

	"github.com/google/uuid"
)

// Patient and Dentist are the reference entities the scheduling core
// points at. Each owns exactly one user account.
type Patient struct {
	ID        uuid.UUID
	Cedula    string
	FirstName string
	LastName  string
	Phone     string
	Email     string
	BirthDate time.Time
	Address   string
	UserID    uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Dentist struct {
	ID        uuid.UUID
	Cedula    string
	FirstName string
	LastName  string
	Phone     string
	Email     string
	Address   string
	UserID    uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// User is the login identity linked to a patient or dentist. Credential
// handling is out of scope here: the hash is stored opaquely and never
// computed or verified by this service.
type User struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	IsDentist    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
