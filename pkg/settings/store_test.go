package settings

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresListByCompany(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{
		"company_id", "category", "setting_key", "setting_value", "setting_type",
	}).
		AddRow(1, "display", "timezone", "Europe/Vilnius", TypeString).
		AddRow(1, "notifications", "email_enabled", "true", TypeBoolean)

	mock.ExpectQuery(`FROM platform_settings
		WHERE company_id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(rows)

	settings, err := NewPostgresStore(db).ListByCompany(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, settings, 2)
	assert.Equal(t, "timezone", settings[0].Key)
}

func TestPostgresUpsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO platform_settings`).
		WithArgs(int64(1), "notifications", "email_enabled", "false", TypeBoolean).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = NewPostgresStore(db).Upsert(context.Background(), Setting{
		CompanyID: 1, Category: "notifications", Key: "email_enabled",
		Value: "false", Type: TypeBoolean,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
