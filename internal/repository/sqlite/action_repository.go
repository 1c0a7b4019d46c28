package sqlite

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"task-tracker/internal/domain"
	"task-tracker/internal/errors"
)

// ActionRepository is the action ledger. Unrestored records form the undo
// stack (newest on top); restored records form the redo stack, the oldest
// restored record being the most recently undone one.
type ActionRepository struct {
	ex Executor
}

func actionKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

// Append records op as applied and discards the redo branch.
func (r *ActionRepository) Append(ctx context.Context, op domain.Operation, now time.Time) (int64, error) {
	blob, err := domain.EncodeOperation(op)
	if err != nil {
		return 0, errors.NewInvalidInputError("operation", fmt.Sprintf("%T", op), err.Error())
	}

	id, err := ExecuteWithLastInsertID(ctx, r.ex,
		`INSERT INTO actions (op_blob, restored, created_at) VALUES (?, 0, ?)`, blob, FormatTimeForDB(now))
	if err != nil {
		return 0, err
	}

	if _, err := Execute(ctx, r.ex, "discard redo branch", `DELETE FROM actions WHERE restored = 1`); err != nil {
		return 0, err
	}
	return id, nil
}

// Replace overwrites the payload and restored flag of an existing record.
func (r *ActionRepository) Replace(ctx context.Context, id int64, op domain.Operation, restored bool) error {
	blob, err := domain.EncodeOperation(op)
	if err != nil {
		return errors.NewInvalidInputError("operation", fmt.Sprintf("%T", op), err.Error())
	}
	return ExecuteWithRowsAffected(ctx, r.ex,
		`UPDATE actions SET op_blob = ?, restored = ? WHERE id = ?`,
		"action", actionKey(id), blob, restored, id)
}

// Get retrieves a record by id.
func (r *ActionRepository) Get(ctx context.Context, id int64) (*domain.Action, error) {
	row, err := QuerySingle(ctx, r.ex, `SELECT `+actionColumns+` FROM actions WHERE id = ?`,
		ScanActionRow, "action", actionKey(id), id)
	if err != nil {
		return nil, err
	}
	return decodeAction(row)
}

// UndoTarget returns the newest unrestored record.
func (r *ActionRepository) UndoTarget(ctx context.Context) (*domain.Action, error) {
	return r.target(ctx,
		`SELECT `+actionColumns+` FROM actions WHERE restored = 0 ORDER BY id DESC LIMIT 1`,
		errors.NewNothingToUndoError)
}

// RedoTarget returns the oldest restored record.
func (r *ActionRepository) RedoTarget(ctx context.Context) (*domain.Action, error) {
	return r.target(ctx,
		`SELECT `+actionColumns+` FROM actions WHERE restored = 1 ORDER BY id ASC LIMIT 1`,
		errors.NewNothingToRedoError)
}

func (r *ActionRepository) target(ctx context.Context, query string, empty func() *errors.AppError) (*domain.Action, error) {
	rows, err := QueryMultiple(ctx, r.ex, query, ScanActionRows, "actions")
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, empty()
	}
	return decodeAction(rows[0])
}

// List returns records newest first. A limit of zero or less returns all.
func (r *ActionRepository) List(ctx context.Context, limit int) ([]*domain.Action, error) {
	query := `SELECT ` + actionColumns + ` FROM actions ORDER BY id DESC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := QueryMultiple(ctx, r.ex, query, ScanActionRows, "actions", args...)
	if err != nil {
		return nil, err
	}

	actions := make([]*domain.Action, 0, len(rows))
	for _, row := range rows {
		action, err := decodeAction(row)
		if err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}
	return actions, nil
}

// Count returns the number of unrestored and restored records.
func (r *ActionRepository) Count(ctx context.Context) (unrestored, restored int, err error) {
	err = r.ex.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(restored = 0), 0), COALESCE(SUM(restored = 1), 0) FROM actions`).
		Scan(&unrestored, &restored)
	if err != nil {
		return 0, 0, HandleDatabaseError("count actions", err)
	}
	return unrestored, restored, nil
}

// Clear deletes every record and returns how many were removed.
func (r *ActionRepository) Clear(ctx context.Context) (int64, error) {
	result, err := Execute(ctx, r.ex, "clear actions", `DELETE FROM actions`)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, HandleDatabaseError("get rows affected", err)
	}
	return n, nil
}

func decodeAction(row *actionRow) (*domain.Action, error) {
	op, err := domain.DecodeOperation(row.Blob)
	if err != nil {
		return nil, errors.NewCorruptionError(row.ID, err)
	}
	createdAt, err := ParseTimeFromDB(row.CreatedAt)
	if err != nil {
		return nil, errors.NewCorruptionError(row.ID, err)
	}
	return &domain.Action{
		ID:        row.ID,
		Op:        op,
		Restored:  row.Restored,
		CreatedAt: createdAt,
	}, nil
}
