package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_DSN(t *testing.T) {
	cfg := Config{Host: "db", Port: "5432", User: "bikes", Password: "secret", DBName: "bikeshare", SSLMode: "disable"}

	assert.Equal(t, "host=db port=5432 user=bikes password=secret dbname=bikeshare sslmode=disable", cfg.DSN())
}

func TestMigrate_AppliesSchema(t *testing.T) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := sqlx.NewDb(raw, "postgres")
	defer db.Close()

	mock.ExpectExec("CREATE UNIQUE INDEX IF NOT EXISTS rides_one_open_per_bike").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_ReportsFailure(t *testing.T) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := sqlx.NewDb(raw, "postgres")
	defer db.Close()

	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))

	err = Migrate(context.Background(), db)
	assert.ErrorContains(t, err, "permission denied")
}

func TestSchema_DeclaresOpenRideConstraints(t *testing.T) {
	assert.Contains(t, schema, "rides_one_open_per_member")
	assert.Contains(t, schema, "rides_one_open_per_bike")
	assert.Contains(t, schema, "WHERE start_time IS NOT NULL AND end_time IS NULL")
}

func TestSchema_EndTimeStrictlyAfterStart(t *testing.T) {
	assert.Contains(t, schema, "end_time IS NULL OR end_time > start_time")
	assert.NotContains(t, schema, "end_time >= start_time")
}
