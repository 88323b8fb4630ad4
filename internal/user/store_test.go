package user

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"applesso/pkg/apple"
	"applesso/pkg/db"
)

// MockSQLExecutor is a mock implementation of the db.SQLExecutor interface
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

func (m *MockSQLExecutor) WithTransaction(ctx context.Context, isolation sql.IsolationLevel, fn db.TxFunc) error {
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

type staticIDs struct {
	id int64
}

func (g *staticIDs) GenerateID() int64 {
	return g.id
}

func authResult(uid string) *apple.AuthResult {
	return &apple.AuthResult{
		Provider: "apple",
		UID:      uid,
		Info: apple.Info{
			Email:     "a@b.com",
			FirstName: "Jane",
			LastName:  "Doe",
		},
	}
}

func TestUpsert_PassesProfileFields(t *testing.T) {
	executor := &MockSQLExecutor{}
	executor.On("ExecContext", mock.Anything, mock.Anything,
		[]any{int64(42), "U1", "a@b.com", "Jane", "Doe"},
	).Return(nil, nil)

	store := NewStore(executor, &staticIDs{id: 42})
	err := store.Upsert(context.Background(), authResult("U1"))

	assert.NoError(t, err)
	executor.AssertExpectations(t)
}

func TestUpsert_RequiresUID(t *testing.T) {
	executor := &MockSQLExecutor{}
	store := NewStore(executor, &staticIDs{id: 42})

	err := store.Upsert(context.Background(), authResult(""))

	assert.Error(t, err)
	executor.AssertNotCalled(t, "ExecContext", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpsert_WrapsDBError(t *testing.T) {
	dbErr := errors.New("connection reset")
	executor := &MockSQLExecutor{}
	executor.On("ExecContext", mock.Anything, mock.Anything, mock.Anything).Return(nil, dbErr)

	store := NewStore(executor, &staticIDs{id: 42})
	err := store.Upsert(context.Background(), authResult("U1"))

	assert.ErrorIs(t, err, dbErr)
}
