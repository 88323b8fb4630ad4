package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockSQLExecutor is a mock implementation of SQLExecutor interface
type MockSQLExecutor struct {
	mock.Mock
}

func (m *MockSQLExecutor) DB() *sql.DB {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*sql.DB)
}

func (m *MockSQLExecutor) WithTransaction(ctx context.Context, isolation sql.IsolationLevel, fn TxFunc) error {
	args := m.Called(ctx, isolation, fn)
	return args.Error(0)
}

func (m *MockSQLExecutor) ExecContext(ctx context.Context, query string, queryArgs ...any) (sql.Result, error) {
	args := m.Called(ctx, query, queryArgs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(sql.Result), args.Error(1)
}

func (m *MockSQLExecutor) QueryContext(ctx context.Context, query string, queryArgs ...any) (*sql.Rows, error) {
	args := m.Called(ctx, query, queryArgs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sql.Rows), args.Error(1)
}

func (m *MockSQLExecutor) QueryRowContext(ctx context.Context, query string, queryArgs ...any) *sql.Row {
	args := m.Called(ctx, query, queryArgs)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*sql.Row)
}

// MockResult is a mock implementation of sql.Result
type MockResult struct {
	mock.Mock
}

func (m *MockResult) LastInsertId() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockResult) RowsAffected() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

// accountPruner demonstrates SQLExecutor usage against the mocks
type accountPruner struct {
	db SQLExecutor
}

func (p *accountPruner) DeleteAccount(ctx context.Context, appleUID string) error {
	query := "DELETE FROM users WHERE apple_uid = $1"
	_, err := p.db.ExecContext(ctx, query, appleUID)
	return err
}

func (p *accountPruner) DeleteAccountWithTransaction(ctx context.Context, appleUID string) error {
	return p.db.WithTransaction(ctx, sql.LevelReadCommitted, func(ctx context.Context, tx *sql.Tx) error {
		query := "DELETE FROM users WHERE apple_uid = $1"
		_, err := tx.ExecContext(ctx, query, appleUID)
		return err
	})
}

func TestAccountPruner_DeleteAccount(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockDB := new(MockSQLExecutor)
		mockResult := new(MockResult)
		pruner := &accountPruner{db: mockDB}

		ctx := context.Background()
		query := "DELETE FROM users WHERE apple_uid = $1"

		mockResult.On("RowsAffected").Return(int64(1), nil)
		mockDB.On("ExecContext", ctx, query, []any{"U1"}).Return(mockResult, nil)

		err := pruner.DeleteAccount(ctx, "U1")

		assert.NoError(t, err)
		mockDB.AssertExpectations(t)
	})

	t.Run("database error", func(t *testing.T) {
		mockDB := new(MockSQLExecutor)
		pruner := &accountPruner{db: mockDB}

		ctx := context.Background()
		query := "DELETE FROM users WHERE apple_uid = $1"
		expectedErr := errors.New("database connection failed")

		mockDB.On("ExecContext", ctx, query, []any{"U1"}).Return(nil, expectedErr)

		err := pruner.DeleteAccount(ctx, "U1")

		assert.Error(t, err)
		assert.Equal(t, expectedErr, err)
		mockDB.AssertExpectations(t)
	})
}

func TestAccountPruner_DeleteAccountWithTransaction(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockDB := new(MockSQLExecutor)
		pruner := &accountPruner{db: mockDB}

		ctx := context.Background()

		mockDB.On("WithTransaction", ctx, sql.LevelReadCommitted, mock.AnythingOfType("db.TxFunc")).
			Return(nil)

		err := pruner.DeleteAccountWithTransaction(ctx, "U1")

		assert.NoError(t, err)
		mockDB.AssertExpectations(t)
	})

	t.Run("transaction fails", func(t *testing.T) {
		mockDB := new(MockSQLExecutor)
		pruner := &accountPruner{db: mockDB}

		ctx := context.Background()
		expectedErr := errors.New("transaction failed")

		mockDB.On("WithTransaction", ctx, sql.LevelReadCommitted, mock.AnythingOfType("db.TxFunc")).
			Return(expectedErr)

		err := pruner.DeleteAccountWithTransaction(ctx, "U1")

		assert.Error(t, err)
		assert.Equal(t, expectedErr, err)
		mockDB.AssertExpectations(t)
	})
}
