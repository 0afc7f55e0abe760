// Package users implements the credential store over PostgreSQL: user rows
// with hashed secrets, role, company scope and the active flag. Accounts are
// deactivated rather than deleted to preserve referential history.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/truckwise/fleet-server/pkg/auth"
)

var (
	// ErrNotFound indicates no row matched the lookup
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail indicates the email is already registered
	ErrDuplicateEmail = errors.New("user with this email already exists")
)

// Store is the credential-store surface the rest of the service depends on
type Store interface {
	// GetIdentity looks a user up by id with the password hash excluded.
	// This is the standard verifier's fallback lookup.
	GetIdentity(ctx context.Context, id int64) (auth.Identity, error)

	// GetByEmail looks a user up by unique email, including the password
	// hash, for login verification
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Create inserts a new user and fills in the generated id and timestamps
	Create(ctx context.Context, u *User) error

	// List returns users, optionally restricted to one company, without
	// password hashes
	List(ctx context.Context, companyID *int64) ([]User, error)

	// Update applies administrative profile mutations
	Update(ctx context.Context, id int64, params UpdateParams) error

	// Deactivate soft-deletes a user
	Deactivate(ctx context.Context, id int64) error

	// TouchLastLogin records a successful login timestamp
	TouchLastLogin(ctx context.Context, id int64) error
}

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const identityColumns = `id, email, role, company_id, first_name, last_name, active`

// GetIdentity looks a user up by id. The password hash is excluded from the
// projection entirely.
func (s *PostgresStore) GetIdentity(ctx context.Context, id int64) (auth.Identity, error) {
	query := `
		SELECT ` + identityColumns + `
		FROM users
		WHERE id = $1
	`
	var (
		identity  auth.Identity
		companyID sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&identity.ID, &identity.Email, &identity.Role, &companyID,
		&identity.FirstName, &identity.LastName, &identity.Active,
	)
	if err == sql.ErrNoRows {
		return auth.Identity{}, ErrNotFound
	}
	if err != nil {
		return auth.Identity{}, fmt.Errorf("failed to get user %d: %w", id, err)
	}

	if companyID.Valid {
		cid := companyID.Int64
		identity.CompanyID = &cid
	}
	identity.Role = identity.Role.Normalize()

	return identity, nil
}

// GetByEmail looks a user up by unique email, including the password hash
func (s *PostgresStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, first_name, last_name, email, password_hash, role, company_id,
		       active, last_login, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	u := &User{}
	var (
		companyID sql.NullInt64
		lastLogin sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query, email).Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash,
		&u.Role, &companyID, &u.Active, &lastLogin, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	if companyID.Valid {
		cid := companyID.Int64
		u.CompanyID = &cid
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}

	return u, nil
}

// Create inserts a new user row
func (s *PostgresStore) Create(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (first_name, last_name, email, password_hash, role, company_id, active)
		VALUES ($1, $2, $3, $4, $5, $6, true)
		RETURNING id, active, created_at, updated_at
	`
	err := s.db.QueryRowContext(ctx, query,
		u.FirstName, u.LastName, u.Email, u.PasswordHash, u.Role, u.CompanyID,
	).Scan(&u.ID, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// List returns users without password hashes, optionally restricted to one
// company
func (s *PostgresStore) List(ctx context.Context, companyID *int64) ([]User, error) {
	query := `
		SELECT id, first_name, last_name, email, role, company_id, active,
		       last_login, created_at, updated_at
		FROM users
	`
	args := []interface{}{}
	if companyID != nil {
		query += ` WHERE company_id = $1`
		args = append(args, *companyID)
	}
	query += ` ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var (
			u         User
			cid       sql.NullInt64
			lastLogin sql.NullTime
		)
		if err := rows.Scan(
			&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Role, &cid,
			&u.Active, &lastLogin, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		if cid.Valid {
			v := cid.Int64
			u.CompanyID = &v
		}
		if lastLogin.Valid {
			t := lastLogin.Time
			u.LastLogin = &t
		}
		out = append(out, u)
	}

	return out, rows.Err()
}

// Update applies administrative profile mutations. Promoting to super_admin
// clears the company scope so the stored row keeps the companyId-iff-scoped
// invariant.
func (s *PostgresStore) Update(ctx context.Context, id int64, params UpdateParams) error {
	if params.Empty() {
		return nil
	}

	query := `UPDATE users SET updated_at = NOW()`
	args := []interface{}{}
	n := 0
	set := func(column string, value interface{}) {
		n++
		query += fmt.Sprintf(", %s = $%d", column, n)
		args = append(args, value)
	}

	if params.FirstName != nil {
		set("first_name", *params.FirstName)
	}
	if params.LastName != nil {
		set("last_name", *params.LastName)
	}
	if params.Role != nil {
		set("role", *params.Role)
		if params.Role.Normalize() == auth.RoleSuperAdmin {
			query += ", company_id = NULL"
		}
	}
	if params.CompanyID != nil {
		set("company_id", *params.CompanyID)
	}
	if params.Active != nil {
		set("active", *params.Active)
	}

	n++
	query += fmt.Sprintf(" WHERE id = $%d", n)
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user %d: %w", id, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Deactivate soft-deletes a user by clearing the active flag
func (s *PostgresStore) Deactivate(ctx context.Context, id int64) error {
	active := false
	return s.Update(ctx, id, UpdateParams{Active: &active})
}

// TouchLastLogin records a successful login timestamp
func (s *PostgresStore) TouchLastLogin(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET last_login = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to update last login for user %d: %w", id, err)
	}
	return nil
}
