package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "task-tracker/internal/errors"
)

// MockResult implements sql.Result for testing
type MockResult struct {
	lastInsertID int64
	rowsAffected int64
	insertErr    error
	rowsErr      error
}

func (mr *MockResult) LastInsertId() (int64, error) {
	return mr.lastInsertID, mr.insertErr
}

func (mr *MockResult) RowsAffected() (int64, error) {
	return mr.rowsAffected, mr.rowsErr
}

func TestHandleDatabaseError(t *testing.T) {
	originalErr := errors.New("database connection failed")
	result := HandleDatabaseError("test operation", originalErr)

	assert.NotNil(t, result)
	assert.Contains(t, result.Error(), "test operation")
	assert.Contains(t, result.Error(), "database connection failed")
	assert.True(t, apperrors.IsErrorType(result, apperrors.ErrorTypeDatabase))
}

func TestHandleDatabaseError_KeepsAppErrors(t *testing.T) {
	notFound := apperrors.NewNotFoundError("task", "1")

	result := HandleDatabaseError("scan task", notFound)

	assert.Same(t, notFound, result)
}

func TestHandleNoRowsError(t *testing.T) {
	tests := []struct {
		name           string
		inputErr       error
		expectNotFound bool
	}{
		{name: "ErrNoRows should return NotFoundError", inputErr: sql.ErrNoRows, expectNotFound: true},
		{name: "Other error should return as-is", inputErr: errors.New("some other error")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := HandleNoRowsError(tt.inputErr, "task", "123")

			if tt.expectNotFound {
				assert.True(t, apperrors.IsErrorType(result, apperrors.ErrorTypeNotFound))
				assert.Contains(t, result.Error(), "task not found: 123")
			} else {
				assert.Equal(t, tt.inputErr, result)
			}
		})
	}
}

func TestValidateRowsAffected(t *testing.T) {
	tests := []struct {
		name           string
		result         sql.Result
		expectError    bool
		expectNotFound bool
	}{
		{name: "Successful update", result: &MockResult{rowsAffected: 1}},
		{name: "No rows affected", result: &MockResult{rowsAffected: 0}, expectError: true, expectNotFound: true},
		{name: "Error getting rows affected", result: &MockResult{rowsErr: errors.New("database error")}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateRowsAffected(tt.result, "action", "123")

			if tt.expectError {
				assert.Error(t, result)
				if tt.expectNotFound {
					assert.Contains(t, result.Error(), "not found")
				} else {
					assert.Contains(t, result.Error(), "database error")
				}
			} else {
				assert.NoError(t, result)
			}
		})
	}
}

func TestQueryHelpers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	db := store.db

	id, err := ExecuteWithLastInsertID(ctx, db,
		`INSERT INTO tasks (title, status, created_at, updated_at) VALUES ('x', 'undone', '2024-01-01T00:00:00Z', '2024-01-01T00:00:00Z')`)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	exists, err := QueryExists(ctx, db, "check", `SELECT EXISTS(SELECT 1 FROM tasks WHERE id = ?)`, id)
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = QuerySingle(ctx, db, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, ScanTask, "task", "99", 99)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound))

	err = ExecuteWithRowsAffected(ctx, db, `DELETE FROM tasks WHERE id = ?`, "task", "99", 99)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound))

	_, err = QueryMultiple(ctx, db, `SELECT nope FROM tasks`, ScanIDs, "tasks")
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeDatabase))
}
