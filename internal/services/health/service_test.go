package health

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusWithoutDatabase(t *testing.T) {
	got := NewService(nil, nil).Status(context.Background())
	assert.Equal(t, Status{OK: true, Storage: "memory"}, got)
}

func TestStatusReportsSchemaVersion(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectPing()

	svc := NewService(db, func(context.Context, *sql.DB) (int64, error) { return 3, nil })
	got := svc.Status(context.Background())
	assert.Equal(t, Status{OK: true, Storage: "postgres", Database: "ok", SchemaVersion: 3}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatusUnreachable(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	got := NewService(db, nil).Status(context.Background())
	assert.False(t, got.OK)
	assert.Equal(t, "unreachable", got.Database)
}
