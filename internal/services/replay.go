package services

import (
	"context"
	"fmt"

	"task-tracker/internal/domain"
	"task-tracker/internal/errors"
	"task-tracker/internal/repository/sqlite"
)

// replay applies the reverse of the mutation recorded in action and returns
// the operation describing what it just applied. Undo and redo share it: the
// record always names the mutation currently in effect.
//
// A missing task or category, or a task id that is already taken, means the
// ledger and the stored state disagree. Those are invariant violations.
func replay(ctx context.Context, tx *sqlite.Tx, action *domain.Action, direction string) (domain.Operation, error) {
	reverse, err := reverseOf(ctx, tx, action.Op)
	if err != nil {
		if !errors.IsAppError(err) ||
			errors.IsErrorType(err, errors.ErrorTypeNotFound) ||
			errors.IsErrorType(err, errors.ErrorTypeDuplicate) {
			return nil, errors.NewInvariantError(action.ID, direction, err)
		}
		return nil, err
	}
	return reverse, nil
}

func reverseOf(ctx context.Context, tx *sqlite.Tx, recorded domain.Operation) (domain.Operation, error) {
	categories := tx.Categories()

	switch o := recorded.(type) {
	case domain.TaskOp:
		return reverseTaskOp(ctx, tx, o)

	case domain.CategoryOp:
		if err := requireTask(ctx, tx, o.TaskID); err != nil {
			return nil, err
		}
		switch o.Type {
		case domain.ActionCreate:
			if err := categories.Unassign(ctx, o.TaskID, o.Category); err != nil {
				return nil, err
			}
			return domain.CategoryOp{Type: domain.ActionDelete, TaskID: o.TaskID, Category: o.Category}, nil
		case domain.ActionDelete:
			if err := categories.Assign(ctx, o.TaskID, o.Category); err != nil {
				return nil, err
			}
			return domain.CategoryOp{Type: domain.ActionCreate, TaskID: o.TaskID, Category: o.Category}, nil
		}

	case domain.RenameCategoryOp:
		if err := requireTask(ctx, tx, o.TaskID); err != nil {
			return nil, err
		}
		if err := categories.Rename(ctx, o.TaskID, o.To, o.From); err != nil {
			return nil, err
		}
		return domain.RenameCategoryOp{TaskID: o.TaskID, From: o.To, To: o.From}, nil

	case domain.BatchCategoryCreateOp:
		for _, id := range o.TaskIDs {
			if err := requireTask(ctx, tx, id); err != nil {
				return nil, err
			}
			if err := categories.Unassign(ctx, id, o.Category); err != nil {
				return nil, err
			}
		}
		return domain.BatchCategoryDeleteOp{TaskIDs: o.TaskIDs, Category: o.Category}, nil

	case domain.BatchCategoryDeleteOp:
		for _, id := range o.TaskIDs {
			if err := requireTask(ctx, tx, id); err != nil {
				return nil, err
			}
		}
		if err := categories.AssignToTasks(ctx, o.TaskIDs, o.Category); err != nil {
			return nil, err
		}
		return domain.BatchCategoryCreateOp{TaskIDs: o.TaskIDs, Category: o.Category}, nil

	case domain.BatchCategoryRenameOp:
		for _, id := range o.TaskIDs {
			if err := requireTask(ctx, tx, id); err != nil {
				return nil, err
			}
			if err := categories.Rename(ctx, id, o.To, o.From); err != nil {
				return nil, err
			}
		}
		return domain.BatchCategoryRenameOp{TaskIDs: o.TaskIDs, From: o.To, To: o.From}, nil
	}

	return nil, fmt.Errorf("cannot reverse %T operation", recorded)
}

func reverseTaskOp(ctx context.Context, tx *sqlite.Tx, o domain.TaskOp) (domain.Operation, error) {
	id := o.Snapshot.Task.ID

	switch o.Type {
	case domain.ActionCreate:
		current, err := snapshot(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		if err := deleteTask(ctx, tx, &current.Task); err != nil {
			return nil, err
		}
		return domain.TaskOp{Type: domain.ActionDelete, Snapshot: *current}, nil

	case domain.ActionDelete:
		task := o.Snapshot.Task
		if err := tx.Tasks().CreateWithID(ctx, &task); err != nil {
			return nil, err
		}
		if err := tx.Categories().BatchAssign(ctx, id, o.Snapshot.Categories); err != nil {
			return nil, err
		}
		return domain.TaskOp{Type: domain.ActionCreate, Snapshot: o.Snapshot}, nil

	case domain.ActionUpdate:
		current, err := snapshot(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		task := o.Snapshot.Task
		if err := tx.Tasks().Replace(ctx, &task); err != nil {
			return nil, err
		}
		return domain.TaskOp{Type: domain.ActionUpdate, Snapshot: *current}, nil
	}

	return nil, fmt.Errorf("cannot reverse task %s", o.Type)
}
