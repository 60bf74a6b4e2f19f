package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubOpen swaps openDB for a sqlmock-backed opener. Each call hands out a
// fresh mock whose ping expectation is set by ping.
func stubOpen(t *testing.T, ping func(mock sqlmock.Sqlmock)) *int {
	t.Helper()
	calls := 0
	prev := openDB
	openDB = func(driverName, dsn string) (*sql.DB, error) {
		calls++
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		if err != nil {
			return nil, err
		}
		ping(mock)
		return db, nil
	}
	t.Cleanup(func() { openDB = prev })
	return &calls
}

func resetSingleton(t *testing.T) {
	t.Helper()
	reset := func() {
		singletonMu.Lock()
		singletonDB = nil
		singletonInFly = false
		singletonMu.Unlock()
	}
	reset()
	t.Cleanup(reset)
}

func TestConnectRejectsEmptyURL(t *testing.T) {
	_, err := Connect(context.Background(), "  ", DefaultServerOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestConnectAppliesEnvOverrides(t *testing.T) {
	stubOpen(t, func(mock sqlmock.Sqlmock) { mock.ExpectPing() })

	t.Setenv("DB_MAX_OPEN_CONNS", "7")
	t.Setenv("DB_MAX_IDLE_CONNS", "3")
	t.Setenv("DB_CONN_MAX_LIFETIME", "20m")
	t.Setenv("DB_CONN_MAX_IDLE_TIME", "45s")
	t.Setenv("DB_PING_TIMEOUT", "1s")

	opts := OptionsFromEnv(DefaultServerOptions())
	assert.Equal(t, Options{
		MaxOpenConns:    7,
		MaxIdleConns:    3,
		ConnMaxLifetime: 20 * time.Minute,
		ConnMaxIdleTime: 45 * time.Second,
		PingTimeout:     time.Second,
	}, opts)

	db, err := Connect(context.Background(), "postgres://allie", opts)
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, 7, db.Stats().MaxOpenConnections)
}

func TestOptionsFromEnvIgnoresMalformedValues(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "many")
	t.Setenv("DB_PING_TIMEOUT", "soon")

	opts := OptionsFromEnv(DefaultLambdaOptions())
	assert.Equal(t, DefaultLambdaOptions(), opts)
}

func TestConnectReportsPingFailure(t *testing.T) {
	stubOpen(t, func(mock sqlmock.Sqlmock) {
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	})

	_, err := Connect(context.Background(), "postgres://allie", DefaultMigrateOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping database")
}

func TestGetSingletonReturnsSameHandle(t *testing.T) {
	resetSingleton(t)
	calls := stubOpen(t, func(mock sqlmock.Sqlmock) { mock.ExpectPing() })

	db1, err := GetSingleton(context.Background(), "postgres://allie", DefaultLambdaOptions())
	require.NoError(t, err)
	db2, err := GetSingleton(context.Background(), "postgres://allie", DefaultLambdaOptions())
	require.NoError(t, err)

	assert.Same(t, db1, db2)
	assert.Equal(t, 1, *calls)
}

func TestGetSingletonRetriesAfterFailure(t *testing.T) {
	resetSingleton(t)
	attempt := 0
	calls := stubOpen(t, func(mock sqlmock.Sqlmock) {
		attempt++
		if attempt == 1 {
			mock.ExpectPing().WillReturnError(errors.New("cold start"))
			return
		}
		mock.ExpectPing()
	})

	_, err := GetSingleton(context.Background(), "postgres://allie", DefaultLambdaOptions())
	require.Error(t, err)

	db, err := GetSingleton(context.Background(), "postgres://allie", DefaultLambdaOptions())
	require.NoError(t, err)
	assert.NotNil(t, db)
	assert.Equal(t, 2, *calls)
}
