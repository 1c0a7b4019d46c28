package services

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"task-tracker/internal/domain"
	"task-tracker/internal/errors"
	"task-tracker/internal/repository/sqlite"
)

// OperationService runs every logical operation in a single transaction and
// records each mutation in the action ledger.
//
// It is not safe for concurrent use. The store has one connection and
// operations must not interleave.
type OperationService struct {
	store  *sqlite.Store
	logger log.FieldLogger
	tracer trace.Tracer
	now    func() time.Time
}

// Option configures an OperationService.
type Option func(*OperationService)

// WithClock overrides the time source used for created/updated stamps.
func WithClock(now func() time.Time) Option {
	return func(s *OperationService) {
		s.now = now
	}
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *OperationService) {
		s.tracer = tracer
	}
}

// NewOperationService creates a new OperationService instance
func NewOperationService(store *sqlite.Store, logger log.FieldLogger, opts ...Option) *OperationService {
	if logger == nil {
		logger = log.StandardLogger()
	}
	s := &OperationService{
		store:  store,
		logger: logger,
		tracer: otel.Tracer(tracerName),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ Operations = (*OperationService)(nil)

// AddTask creates a task with its categories.
func (s *OperationService) AddTask(ctx context.Context, fields domain.TaskFields, categories []string) (*domain.TaskDetails, error) {
	ctx, op := s.begin(ctx, "AddTask", true)

	var details *domain.TaskDetails
	err := s.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		now := s.now()
		task, err := tx.Tasks().Create(ctx, fields, now)
		if err != nil {
			return err
		}
		op.setTask(task.ID)

		if err := tx.Categories().BatchAssign(ctx, task.ID, categories); err != nil {
			return err
		}

		created, err := snapshot(ctx, tx, task.ID)
		if err != nil {
			return err
		}
		actionID, err := tx.Actions().Append(ctx, domain.TaskOp{Type: domain.ActionCreate, Snapshot: *created}, now)
		if err != nil {
			return err
		}
		op.setAction(actionID)
		details = created
		return nil
	})
	if err != nil {
		return nil, op.end(err)
	}
	return details, op.end(nil)
}

// EditTask applies the supplied fields to a task.
func (s *OperationService) EditTask(ctx context.Context, id int64, update domain.TaskUpdate) (*domain.Task, error) {
	ctx, op := s.begin(ctx, "EditTask", true)
	op.setTask(id)

	if update.IsEmpty() {
		return nil, op.end(errors.NewNoChangeError("task", taskKey(id)))
	}

	var updated *domain.Task
	err := s.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		before, err := snapshot(ctx, tx, id)
		if err != nil {
			return err
		}

		now := s.now()
		updated, err = tx.Tasks().Update(ctx, id, update, now)
		if err != nil {
			return err
		}

		actionID, err := tx.Actions().Append(ctx, domain.TaskOp{Type: domain.ActionUpdate, Snapshot: *before}, now)
		if err != nil {
			return err
		}
		op.setAction(actionID)
		return nil
	})
	if err != nil {
		return nil, op.end(err)
	}
	return updated, op.end(nil)
}

// RemoveTask deletes a task and its categories, returning what was removed.
func (s *OperationService) RemoveTask(ctx context.Context, id int64) (*domain.TaskDetails, error) {
	ctx, op := s.begin(ctx, "RemoveTask", true)
	op.setTask(id)

	var removed *domain.TaskDetails
	err := s.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		before, err := snapshot(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := deleteTask(ctx, tx, &before.Task); err != nil {
			return err
		}

		actionID, err := tx.Actions().Append(ctx, domain.TaskOp{Type: domain.ActionDelete, Snapshot: *before}, s.now())
		if err != nil {
			return err
		}
		op.setAction(actionID)
		removed = before
		return nil
	})
	if err != nil {
		return nil, op.end(err)
	}
	return removed, op.end(nil)
}

// ReadTask returns a task with its categories.
func (s *OperationService) ReadTask(ctx context.Context, id int64) (*domain.TaskDetails, error) {
	ctx, op := s.begin(ctx, "ReadTask", false)
	op.setTask(id)

	var details *domain.TaskDetails
	err := s.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		var err error
		details, err = snapshot(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, op.end(err)
	}
	return details, op.end(nil)
}

// ListTasks returns the tasks matching query, each with its categories.
func (s *OperationService) ListTasks(ctx context.Context, query domain.TaskQuery) ([]*domain.TaskDetails, error) {
	ctx, op := s.begin(ctx, "ListTasks", false)
	if query.Category != nil {
		op.setCategory(*query.Category)
	}

	var results []*domain.TaskDetails
	err := s.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		tasks, err := tx.Tasks().Query(ctx, query)
		if err != nil {
			return err
		}
		results = make([]*domain.TaskDetails, 0, len(tasks))
		for _, task := range tasks {
			categories, err := tx.Categories().ListForTask(ctx, task.ID)
			if err != nil {
				return err
			}
			results = append(results, &domain.TaskDetails{Task: *task, Categories: categories})
		}
		return nil
	})
	if err != nil {
		return nil, op.end(err)
	}
	return results, op.end(nil)
}

// AddCategory assigns category to a task.
func (s *OperationService) AddCategory(ctx context.Context, taskID int64, category string) (int64, error) {
	ctx, op := s.begin(ctx, "AddCategory", true)
	op.setTask(taskID)
	op.setCategory(category)

	err := s.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		if err := requireTask(ctx, tx, taskID); err != nil {
			return err
		}
		if err := tx.Categories().Assign(ctx, taskID, category); err != nil {
			return err
		}
		return s.record(ctx, tx, op, domain.CategoryOp{Type: domain.ActionCreate, TaskID: taskID, Category: category})
	})
	if err != nil {
		return 0, op.end(err)
	}
	return op.actionID, op.end(nil)
}

// BatchAddCategory assigns category to each of the tasks as one undoable step.
func (s *OperationService) BatchAddCategory(ctx context.Context, taskIDs []int64, category string) (*CategoryChange, error) {
	ctx, op := s.begin(ctx, "BatchAddCategory", true)
	op.setCategory(category)

	change := &CategoryChange{Category: category, TaskIDs: append([]int64{}, taskIDs...)}
	err := s.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		for _, id := range taskIDs {
			if err := requireTask(ctx, tx, id); err != nil {
				return err
			}
		}
		if err := tx.Categories().AssignToTasks(ctx, taskIDs, category); err != nil {
			return err
		}
		recorded := domain.BatchCategoryCreateOp{TaskIDs: change.TaskIDs, Category: category}
		return s.recordChange(ctx, tx, change, recorded)
	})
	if err != nil {
		return nil, op.end(err)
	}
	op.setAction(change.ActionID)
	return change, op.end(nil)
}

// RenameCategory renames a category on one task.
func (s *OperationService) RenameCategory(ctx context.Context, taskID int64, from, to string) error {
	ctx, op := s.begin(ctx, "RenameCategory", true)
	op.setTask(taskID)
	op.setCategory(from)

	if from == to {
		return op.end(errors.NewNoChangeError("category", categoryKey(taskID, from)))
	}

	err := s.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		if err := requireTask(ctx, tx, taskID); err != nil {
			return err
		}
		if err := tx.Categories().Rename(ctx, taskID, from, to); err != nil {
			return err
		}
		return s.record(ctx, tx, op, domain.RenameCategoryOp{TaskID: taskID, From: from, To: to})
	})
	return op.end(err)
}

// RemoveCategory removes a category from one task.
func (s *OperationService) RemoveCategory(ctx context.Context, taskID int64, category string) error {
	ctx, op := s.begin(ctx, "RemoveCategory", true)
	op.setTask(taskID)
	op.setCategory(category)

	err := s.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		if err := requireTask(ctx, tx, taskID); err != nil {
			return err
		}
		if err := tx.Categories().Unassign(ctx, taskID, category); err != nil {
			return err
		}
		return s.record(ctx, tx, op, domain.CategoryOp{Type: domain.ActionDelete, TaskID: taskID, Category: category})
	})
	return op.end(err)
}

// BatchRenameCategory renames a category on every task carrying it.
func (s *OperationService) BatchRenameCategory(ctx context.Context, from, to string) (*CategoryChange, error) {
	ctx, op := s.begin(ctx, "BatchRenameCategory", true)
	op.setCategory(from)

	if from == to {
		return nil, op.end(errors.NewNoChangeError("category", from))
	}

	change := &CategoryChange{Category: to}
	err := s.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		ids, err := tx.Categories().BatchRename(ctx, from, to)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return errors.NewNotFoundError("category", from)
		}
		change.TaskIDs = ids
		return s.recordChange(ctx, tx, change, domain.BatchCategoryRenameOp{TaskIDs: ids, From: from, To: to})
	})
	if err != nil {
		return nil, op.end(err)
	}
	op.setAction(change.ActionID)
	return change, op.end(nil)
}

// BatchDeleteCategory removes a category from every task carrying it.
func (s *OperationService) BatchDeleteCategory(ctx context.Context, category string) (*CategoryChange, error) {
	ctx, op := s.begin(ctx, "BatchDeleteCategory", true)
	op.setCategory(category)

	change := &CategoryChange{Category: category}
	err := s.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		ids, err := tx.Categories().BatchUnassign(ctx, category)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return errors.NewNotFoundError("category", category)
		}
		change.TaskIDs = ids
		return s.recordChange(ctx, tx, change, domain.BatchCategoryDeleteOp{TaskIDs: ids, Category: category})
	})
	if err != nil {
		return nil, op.end(err)
	}
	op.setAction(change.ActionID)
	return change, op.end(nil)
}

// ListCategories returns every category with the number of tasks carrying it.
func (s *OperationService) ListCategories(ctx context.Context) ([]domain.CategoryCount, error) {
	ctx, op := s.begin(ctx, "ListCategories", false)

	var counts []domain.CategoryCount
	err := s.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		var err error
		counts, err = tx.Categories().ListAll(ctx)
		return err
	})
	if err != nil {
		return nil, op.end(err)
	}
	return counts, op.end(nil)
}

// TaskCategories returns the categories of one task.
func (s *OperationService) TaskCategories(ctx context.Context, taskID int64) ([]string, error) {
	ctx, op := s.begin(ctx, "TaskCategories", false)
	op.setTask(taskID)

	var categories []string
	err := s.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		if err := requireTask(ctx, tx, taskID); err != nil {
			return err
		}
		var err error
		categories, err = tx.Categories().ListForTask(ctx, taskID)
		return err
	})
	if err != nil {
		return nil, op.end(err)
	}
	return categories, op.end(nil)
}

// Undo reverses the newest applied action and returns the rewritten record.
func (s *OperationService) Undo(ctx context.Context) (*domain.Action, error) {
	return s.step(ctx, "Undo", "undo", true)
}

// Redo reapplies the most recently undone action and returns the rewritten
// record.
func (s *OperationService) Redo(ctx context.Context) (*domain.Action, error) {
	return s.step(ctx, "Redo", "redo", false)
}

func (s *OperationService) step(ctx context.Context, name, direction string, restore bool) (*domain.Action, error) {
	ctx, op := s.begin(ctx, name, true)

	var result *domain.Action
	err := s.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		var target *domain.Action
		var err error
		if restore {
			target, err = tx.Actions().UndoTarget(ctx)
		} else {
			target, err = tx.Actions().RedoTarget(ctx)
		}
		if err != nil {
			return err
		}
		op.setAction(target.ID)
		op.entry = op.entry.WithField("action", target.Op.Describe())

		reverse, err := replay(ctx, tx, target, direction)
		if err != nil {
			return err
		}
		if err := tx.Actions().Replace(ctx, target.ID, reverse, restore); err != nil {
			return err
		}
		result = &domain.Action{ID: target.ID, Op: reverse, Restored: restore, CreatedAt: target.CreatedAt}
		return nil
	})
	if err != nil {
		return nil, op.end(err)
	}
	return result, op.end(nil)
}

// ListActions returns up to limit ledger records, newest first. A limit of
// zero or less returns every record.
func (s *OperationService) ListActions(ctx context.Context, limit int) (*ActionHistory, error) {
	ctx, op := s.begin(ctx, "ListActions", false)

	history := &ActionHistory{}
	err := s.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		var err error
		history.Actions, err = tx.Actions().List(ctx, limit)
		if err != nil {
			return err
		}
		history.Undoable, history.Redoable, err = tx.Actions().Count(ctx)
		return err
	})
	if err != nil {
		return nil, op.end(err)
	}
	return history, op.end(nil)
}

// ClearActions empties the ledger. Tasks and categories are untouched.
func (s *OperationService) ClearActions(ctx context.Context) (int64, error) {
	ctx, op := s.begin(ctx, "ClearActions", true)

	var removed int64
	err := s.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		var err error
		removed, err = tx.Actions().Clear(ctx)
		return err
	})
	if err != nil {
		return 0, op.end(err)
	}
	op.entry = op.entry.WithField("removed", removed)
	return removed, op.end(nil)
}

func (s *OperationService) record(ctx context.Context, tx *sqlite.Tx, op *operation, recorded domain.Operation) error {
	actionID, err := tx.Actions().Append(ctx, recorded, s.now())
	if err != nil {
		return err
	}
	op.setAction(actionID)
	return nil
}

func (s *OperationService) recordChange(ctx context.Context, tx *sqlite.Tx, change *CategoryChange, recorded domain.Operation) error {
	actionID, err := tx.Actions().Append(ctx, recorded, s.now())
	if err != nil {
		return err
	}
	change.ActionID = actionID
	return nil
}

func snapshot(ctx context.Context, tx *sqlite.Tx, id int64) (*domain.TaskDetails, error) {
	task, err := tx.Tasks().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	categories, err := tx.Categories().ListForTask(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.TaskDetails{Task: *task, Categories: categories}, nil
}

func deleteTask(ctx context.Context, tx *sqlite.Tx, task *domain.Task) error {
	if err := tx.Categories().UnassignAll(ctx, task.ID); err != nil {
		return err
	}
	return tx.Tasks().Delete(ctx, task)
}

func requireTask(ctx context.Context, tx *sqlite.Tx, id int64) error {
	exists, err := tx.Tasks().Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return errors.NewNotFoundError("task", taskKey(id))
	}
	return nil
}

func taskKey(id int64) string {
	return fmt.Sprintf("%d", id)
}

func categoryKey(taskID int64, category string) string {
	return fmt.Sprintf("task %d: %s", taskID, category)
}
