package users

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truckwise/fleet-server/pkg/auth"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewPostgresStore(db), mock, db
}

func TestGetIdentity(t *testing.T) {
	store, mock, db := newMockStore(t)
	defer db.Close()

	t.Run("success", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{
			"id", "email", "role", "company_id", "first_name", "last_name", "active",
		}).AddRow(42, "admin@example.com", "company_admin", 1, "Ada", "Lovelace", true)

		mock.ExpectQuery(`SELECT id, email, role, company_id, first_name, last_name, active
		FROM users
		WHERE id = \$1`).
			WithArgs(int64(42)).
			WillReturnRows(rows)

		identity, err := store.GetIdentity(context.Background(), 42)
		require.NoError(t, err)
		assert.Equal(t, int64(42), identity.ID)
		assert.Equal(t, auth.RoleCompanyAdmin, identity.Role)
		require.NotNil(t, identity.CompanyID)
		assert.Equal(t, int64(1), *identity.CompanyID)
		assert.True(t, identity.Active)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("legacy admin role normalized", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{
			"id", "email", "role", "company_id", "first_name", "last_name", "active",
		}).AddRow(7, "legacy@example.com", "admin", 2, "Old", "Admin", true)

		mock.ExpectQuery(`SELECT id, email, role`).
			WithArgs(int64(7)).
			WillReturnRows(rows)

		identity, err := store.GetIdentity(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, auth.RoleCompanyAdmin, identity.Role)
	})

	t.Run("super admin has nil company", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{
			"id", "email", "role", "company_id", "first_name", "last_name", "active",
		}).AddRow(1, "root@example.com", "super_admin", nil, "Root", "Admin", true)

		mock.ExpectQuery(`SELECT id, email, role`).
			WithArgs(int64(1)).
			WillReturnRows(rows)

		identity, err := store.GetIdentity(context.Background(), 1)
		require.NoError(t, err)
		assert.Nil(t, identity.CompanyID)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, email, role`).
			WithArgs(int64(99)).
			WillReturnError(sql.ErrNoRows)

		_, err := store.GetIdentity(context.Background(), 99)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("query error surfaces", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, email, role`).
			WithArgs(int64(5)).
			WillReturnError(fmt.Errorf("connection refused"))

		_, err := store.GetIdentity(context.Background(), 5)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotFound)
	})
}

func TestGetByEmail(t *testing.T) {
	store, mock, db := newMockStore(t)
	defer db.Close()

	t.Run("success includes password hash", func(t *testing.T) {
		now := time.Now()
		rows := sqlmock.NewRows([]string{
			"id", "first_name", "last_name", "email", "password_hash", "role",
			"company_id", "active", "last_login", "created_at", "updated_at",
		}).AddRow(42, "Ada", "Lovelace", "admin@example.com", "$2a$10$hash", "company_admin",
			1, true, now, now, now)

		mock.ExpectQuery(`FROM users
		WHERE email = \$1`).
			WithArgs("admin@example.com").
			WillReturnRows(rows)

		u, err := store.GetByEmail(context.Background(), "admin@example.com")
		require.NoError(t, err)
		assert.Equal(t, "$2a$10$hash", u.PasswordHash)
		require.NotNil(t, u.LastLogin)

		identity := u.Identity()
		assert.Equal(t, auth.RoleCompanyAdmin, identity.Role)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(`FROM users
		WHERE email = \$1`).
			WithArgs("nobody@example.com").
			WillReturnError(sql.ErrNoRows)

		_, err := store.GetByEmail(context.Background(), "nobody@example.com")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestCreate(t *testing.T) {
	store, mock, db := newMockStore(t)
	defer db.Close()

	t.Run("success", func(t *testing.T) {
		now := time.Now()
		companyID := int64(1)
		u := &User{
			FirstName:    "New",
			LastName:     "User",
			Email:        "new@example.com",
			PasswordHash: "$2a$10$hash",
			Role:         auth.RoleUser,
			CompanyID:    &companyID,
		}

		mock.ExpectQuery(`INSERT INTO users`).
			WithArgs("New", "User", "new@example.com", "$2a$10$hash", auth.RoleUser, companyID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "active", "created_at", "updated_at"}).
				AddRow(7, true, now, now))

		require.NoError(t, store.Create(context.Background(), u))
		assert.Equal(t, int64(7), u.ID)
		assert.True(t, u.Active)
	})

	t.Run("duplicate email", func(t *testing.T) {
		companyID := int64(1)
		u := &User{Email: "dup@example.com", Role: auth.RoleUser, CompanyID: &companyID}

		mock.ExpectQuery(`INSERT INTO users`).
			WillReturnError(&pq.Error{Code: "23505"})

		err := store.Create(context.Background(), u)
		assert.ErrorIs(t, err, ErrDuplicateEmail)
	})
}

func TestList(t *testing.T) {
	store, mock, db := newMockStore(t)
	defer db.Close()

	now := time.Now()

	t.Run("all users", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{
			"id", "first_name", "last_name", "email", "role", "company_id",
			"active", "last_login", "created_at", "updated_at",
		}).
			AddRow(1, "Root", "Admin", "root@example.com", "super_admin", nil, true, nil, now, now).
			AddRow(2, "Ada", "Lovelace", "admin@example.com", "company_admin", 1, true, now, now, now)

		mock.ExpectQuery(`FROM users
	 ORDER BY id ASC`).WillReturnRows(rows)

		list, err := store.List(context.Background(), nil)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Nil(t, list[0].CompanyID)
		require.NotNil(t, list[1].CompanyID)
		assert.Equal(t, int64(1), *list[1].CompanyID)
	})

	t.Run("scoped to company", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{
			"id", "first_name", "last_name", "email", "role", "company_id",
			"active", "last_login", "created_at", "updated_at",
		}).AddRow(2, "Ada", "Lovelace", "admin@example.com", "company_admin", 1, true, nil, now, now)

		mock.ExpectQuery(`WHERE company_id = \$1`).
			WithArgs(int64(1)).
			WillReturnRows(rows)

		companyID := int64(1)
		list, err := store.List(context.Background(), &companyID)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})
}

func TestUpdate(t *testing.T) {
	store, mock, db := newMockStore(t)
	defer db.Close()

	t.Run("role change", func(t *testing.T) {
		role := auth.RoleManager
		mock.ExpectExec(`UPDATE users SET updated_at = NOW\(\), role = \$1 WHERE id = \$2`).
			WithArgs(role, int64(42)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := store.Update(context.Background(), 42, UpdateParams{Role: &role})
		require.NoError(t, err)
	})

	t.Run("promotion to super_admin clears company scope", func(t *testing.T) {
		role := auth.RoleSuperAdmin
		mock.ExpectExec(`UPDATE users SET updated_at = NOW\(\), role = \$1, company_id = NULL WHERE id = \$2`).
			WithArgs(role, int64(42)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := store.Update(context.Background(), 42, UpdateParams{Role: &role})
		require.NoError(t, err)
	})

	t.Run("no rows affected", func(t *testing.T) {
		active := false
		mock.ExpectExec(`UPDATE users SET updated_at = NOW\(\), active = \$1 WHERE id = \$2`).
			WithArgs(active, int64(99)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := store.Update(context.Background(), 99, UpdateParams{Active: &active})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("empty update is a no-op", func(t *testing.T) {
		err := store.Update(context.Background(), 42, UpdateParams{})
		require.NoError(t, err)
	})
}

func TestDeactivate(t *testing.T) {
	store, mock, db := newMockStore(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE users SET updated_at = NOW\(\), active = \$1 WHERE id = \$2`).
		WithArgs(false, int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Deactivate(context.Background(), 42))
}

func TestTouchLastLogin(t *testing.T) {
	store, mock, db := newMockStore(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE users SET last_login = NOW\(\) WHERE id = \$1`).
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.TouchLastLogin(context.Background(), 42))
}
