package sqlite

import (
	"context"
	"database/sql"
	stderrors "errors"

	"task-tracker/internal/errors"
)

// Executor is the subset of *sql.DB and *sql.Tx the repositories use, so the
// same repository code runs inside and outside a transaction.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// HandleDatabaseError converts database errors to structured app errors.
// Errors that already are app errors pass through unchanged.
func HandleDatabaseError(operation string, err error) error {
	if errors.IsAppError(err) {
		return err
	}
	return errors.NewDatabaseError(operation, err)
}

// HandleNoRowsError handles sql.ErrNoRows errors consistently
func HandleNoRowsError(err error, entityType string, id string) error {
	if stderrors.Is(err, sql.ErrNoRows) {
		return errors.NewNotFoundError(entityType, id)
	}
	return err
}

// ValidateRowsAffected checks if a database operation affected the expected number of rows
func ValidateRowsAffected(result sql.Result, entityType string, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return HandleDatabaseError("get rows affected", err)
	}
	if rows == 0 {
		return errors.NewNotFoundError(entityType, id)
	}
	return nil
}

// Execute runs a statement that returns no rows.
func Execute(ctx context.Context, ex Executor, operation string, query string, args ...interface{}) (sql.Result, error) {
	result, err := ex.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, HandleDatabaseError(operation, err)
	}
	return result, nil
}

// ExecuteWithLastInsertID executes a query and returns the last insert ID
func ExecuteWithLastInsertID(ctx context.Context, ex Executor, query string, args ...interface{}) (int64, error) {
	result, err := ex.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, HandleDatabaseError("execute query", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, HandleDatabaseError("get last insert ID", err)
	}

	return id, nil
}

// ExecuteWithRowsAffected executes a query and validates that rows were affected
func ExecuteWithRowsAffected(ctx context.Context, ex Executor, query string, entityType string, id string, args ...interface{}) error {
	result, err := ex.ExecContext(ctx, query, args...)
	if err != nil {
		return HandleDatabaseError("execute query", err)
	}

	return ValidateRowsAffected(result, entityType, id)
}

// QuerySingle executes a query that returns a single row and scans it
func QuerySingle[T any](ctx context.Context, ex Executor, query string, scanFunc func(Scanner) (*T, error), entityType string, id string, args ...interface{}) (*T, error) {
	row := ex.QueryRowContext(ctx, query, args...)
	result, err := scanFunc(row)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError(entityType, id)
		}
		return nil, HandleDatabaseError("scan "+entityType, err)
	}
	return result, nil
}

// QueryMultiple executes a query that returns multiple rows and scans them
func QueryMultiple[T any](ctx context.Context, ex Executor, query string, scanFunc func(Rows) ([]T, error), entityType string, args ...interface{}) ([]T, error) {
	rows, err := ex.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, HandleDatabaseError("query "+entityType, err)
	}
	defer rows.Close()

	results, err := scanFunc(rows)
	if err != nil {
		return nil, HandleDatabaseError("scan "+entityType, err)
	}

	return results, nil
}

// QueryExists runs a SELECT EXISTS(...) style query.
func QueryExists(ctx context.Context, ex Executor, operation string, query string, args ...interface{}) (bool, error) {
	var exists bool
	if err := ex.QueryRowContext(ctx, query, args...).Scan(&exists); err != nil {
		return false, HandleDatabaseError(operation, err)
	}
	return exists, nil
}
