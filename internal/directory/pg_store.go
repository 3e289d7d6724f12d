package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

const patientColumns = `id, cedula, first_name, last_name, phone, email, birth_date, address, user_id, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID, &p.Cedula, &p.FirstName, &p.LastName, &p.Phone, &p.Email,
		&p.BirthDate, &p.Address, &p.UserID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return &p, nil
}

const dentistColumns = `id, cedula, first_name, last_name, phone, email, address, user_id, created_at, updated_at`

func scanDentist(row pgx.Row) (*Dentist, error) {
	var d Dentist
	err := row.Scan(
		&d.ID, &d.Cedula, &d.FirstName, &d.LastName, &d.Phone, &d.Email,
		&d.Address, &d.UserID, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDentistNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *PgStore) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgStore) GetPatientByCedula(ctx context.Context, cedula string) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE cedula = $1
	`, cedula)
	return scanPatient(row)
}

func (r *PgStore) ListPatients(ctx context.Context) ([]Patient, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

func (r *PgStore) CreatePatient(ctx context.Context, patient *Patient, user *User) (*Patient, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO users (id, username, password_hash, is_dentist, created_at, updated_at)
		VALUES ($1, $2, $3, false, now(), now())
	`, user.ID, user.Username, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO patients (id, cedula, first_name, last_name, phone, email, birth_date, address, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING `+patientColumns+`
	`, patient.ID, patient.Cedula, patient.FirstName, patient.LastName,
		patient.Phone, patient.Email, patient.BirthDate, patient.Address, user.ID)

	created, err := scanPatient(row)
	if err != nil {
		return nil, fmt.Errorf("insert patient: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return created, nil
}

// DeletePatient removes the patient and then its linked user, both in
// the same transaction. Dependent first, principal's user second: the
// ownership and failure semantics stay visible here instead of hiding
// behind a schema cascade.
func (r *PgStore) DeletePatient(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var userID uuid.UUID
	err = tx.QueryRow(ctx, `
		DELETE FROM patients
		WHERE id = $1
		RETURNING user_id
	`, id).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrPatientNotFound
		}
		return fmt.Errorf("delete patient: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID); err != nil {
		return fmt.Errorf("delete linked user: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *PgStore) GetDentist(ctx context.Context, id uuid.UUID) (*Dentist, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+dentistColumns+`
		FROM dentists
		WHERE id = $1
	`, id)
	return scanDentist(row)
}

func (r *PgStore) GetDentistByCedula(ctx context.Context, cedula string) (*Dentist, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+dentistColumns+`
		FROM dentists
		WHERE cedula = $1
	`, cedula)
	return scanDentist(row)
}

func (r *PgStore) ListDentists(ctx context.Context) ([]Dentist, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+dentistColumns+`
		FROM dentists
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Dentist
	for rows.Next() {
		d, err := scanDentist(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	return result, rows.Err()
}

func (r *PgStore) CreateDentist(ctx context.Context, dentist *Dentist, user *User) (*Dentist, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO users (id, username, password_hash, is_dentist, created_at, updated_at)
		VALUES ($1, $2, $3, true, now(), now())
	`, user.ID, user.Username, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO dentists (id, cedula, first_name, last_name, phone, email, address, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING `+dentistColumns+`
	`, dentist.ID, dentist.Cedula, dentist.FirstName, dentist.LastName,
		dentist.Phone, dentist.Email, dentist.Address, user.ID)

	created, err := scanDentist(row)
	if err != nil {
		return nil, fmt.Errorf("insert dentist: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return created, nil
}

func (r *PgStore) DeleteDentist(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var userID uuid.UUID
	err = tx.QueryRow(ctx, `
		DELETE FROM dentists
		WHERE id = $1
		RETURNING user_id
	`, id).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrDentistNotFound
		}
		return fmt.Errorf("delete dentist: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID); err != nil {
		return fmt.Errorf("delete linked user: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *PgStore) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	var u User
	err := r.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, is_dentist, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsDentist, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}
