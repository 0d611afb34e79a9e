package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/osamikoyo/loanflow/config"
	apperrors "github.com/osamikoyo/loanflow/errors"
	"github.com/osamikoyo/loanflow/logger"
	"github.com/osamikoyo/loanflow/querybuilder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testConfig(driver, dsn string) config.StoreConfig {
	return config.StoreConfig{
		Driver:          driver,
		DSN:             dsn,
		ReadTimeout:     config.Seconds(2),
		WriteTimeout:    config.Seconds(2),
		QueueSize:       1,
		ConnectAttempts: 1,
	}
}

func mockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	s, err := New(db, testConfig("pgx", ""), "qa", logger.New(zaptest.NewLogger(t)))
	require.NoError(t, err)

	s.Run(context.Background())
	t.Cleanup(func() { s.Close() })

	return s, mock
}

func TestNewValidates(t *testing.T) {
	log := logger.New(zaptest.NewLogger(t))

	_, err := New(nil, testConfig("sqlite3", ""), "", log)
	assert.ErrorIs(t, err, apperrors.ErrEmptyStage)

	_, err = New(nil, testConfig("oracle", ""), "dev", log)
	assert.ErrorIs(t, err, apperrors.ErrUnknownDriver)

	_, err = New(nil, testConfig("sqlite3", ""), "dev", nil)
	assert.ErrorIs(t, err, apperrors.ErrNilLogger)
}

func TestTableAndDialect(t *testing.T) {
	s, _ := mockStore(t)

	assert.Equal(t, "loan_qa", s.Table())
	assert.Equal(t, querybuilder.Dollar, s.Dialect())
}

func TestFetchAndCommitThroughDaemons(t *testing.T) {
	s, mock := mockStore(t)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT \* FROM loan_qa WHERE user_id = \$1`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("u1"))

	rows, err := s.Fetch(ctx, "SELECT * FROM loan_qa WHERE user_id = $1", "u1")
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	driverErr := errors.New(`pq: relation "loan_qa" does not exist`)
	mock.ExpectExec("UPDATE loan_qa").WillReturnError(driverErr)

	err = s.Commit(ctx, "UPDATE loan_qa SET loan_tenure = $1", 12)
	assert.Equal(t, driverErr, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClosedStore(t *testing.T) {
	s, mock := mockStore(t)
	mock.ExpectClose()

	require.NoError(t, s.Close())

	_, err := s.Fetch(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, apperrors.ErrStoreClosed)
	assert.ErrorIs(t, s.Commit(context.Background(), "SELECT 1"), apperrors.ErrStoreClosed)
}

func TestConnectUnknownDriver(t *testing.T) {
	_, err := Connect(context.Background(), testConfig("oracle", "x"), "dev", logger.New(zaptest.NewLogger(t)))
	assert.ErrorIs(t, err, apperrors.ErrUnknownDriver)
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := Connect(ctx, testConfig("sqlite", ":memory:"), "dev", logger.New(zaptest.NewLogger(t)))
	require.NoError(t, err)
	defer s.Close()

	s.Run(ctx)

	require.NoError(t, s.EnsureSchema(ctx))
	require.NoError(t, s.EnsureSchema(ctx))
	require.NoError(t, s.Ping(ctx))

	insert, err := querybuilder.NewInsert(s.Table(), querybuilder.MustAllowList("user_id", "loan_id", "loan_tenure"), s.Dialect()).
		Values(map[string]any{"user_id": "u1", "loan_id": "l1", "loan_tenure": 12}).
		Build()
	require.NoError(t, err)
	require.NoError(t, s.Commit(ctx, insert.SQL, insert.Args...))

	update, err := querybuilder.NewUpdate(s.Table(), querybuilder.MustAllowList("loan_tenure"), s.Dialect()).
		Set(map[string]any{"loan_tenure": 60}).
		Where(querybuilder.Eq{Column: "user_id", Value: "u1"}, querybuilder.Eq{Column: "loan_id", Value: "l1"}).
		Build()
	require.NoError(t, err)
	require.NoError(t, s.Commit(ctx, update.SQL, update.Args...))

	sel, err := querybuilder.Select(s.Table(), s.Dialect(), querybuilder.Eq{Column: "user_id", Value: "u1"})
	require.NoError(t, err)

	rows, err := s.Fetch(ctx, sel.SQL, sel.Args...)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "l1", rows[0]["loan_id"])
	assert.EqualValues(t, 60, rows[0]["loan_tenure"])

	err = s.Commit(ctx, "INSERT INTO missing_table (a) VALUES (?)", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such table")
}
