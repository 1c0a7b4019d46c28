package services

import (
	"context"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"task-tracker/internal/domain"
	apperrors "task-tracker/internal/errors"
	"task-tracker/internal/repository/sqlite"
)

var testNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc      *OperationService
	store    *sqlite.Store
	hook     *test.Hook
	exporter *tracetest.InMemoryExporter
}

// newFixture returns a service over a fresh in-memory store. Its clock moves
// one minute forward on every reading.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	logger, hook := test.NewNullLogger()
	logger.SetLevel(log.DebugLevel)

	store, err := sqlite.Open(ctx, sqlite.MemoryDSN, logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() {
		if err := tp.Shutdown(ctx); err != nil {
			t.Logf("shutdown tracer provider: %v", err)
		}
	})

	current := testNow
	clock := func() time.Time {
		current = current.Add(time.Minute)
		return current
	}

	svc := NewOperationService(store, logger, WithClock(clock), WithTracer(tp.Tracer(tracerName)))
	return &fixture{svc: svc, store: store, hook: hook, exporter: exporter}
}

func (f *fixture) addTask(t *testing.T, title string, categories ...string) *domain.TaskDetails {
	t.Helper()
	details, err := f.svc.AddTask(context.Background(), domain.TaskFields{Title: title}, categories)
	require.NoError(t, err)
	return details
}

// storeState is everything a user can observe outside the ledger.
type storeState struct {
	Tasks      []*domain.TaskDetails
	Categories []domain.CategoryCount
}

func (f *fixture) state(t *testing.T) storeState {
	t.Helper()
	ctx := context.Background()
	tasks, err := f.svc.ListTasks(ctx, domain.TaskQuery{})
	require.NoError(t, err)
	categories, err := f.svc.ListCategories(ctx)
	require.NoError(t, err)
	return storeState{Tasks: tasks, Categories: categories}
}

func (f *fixture) history(t *testing.T) *ActionHistory {
	t.Helper()
	history, err := f.svc.ListActions(context.Background(), 0)
	require.NoError(t, err)
	return history
}

func strPtr(s string) *string {
	return &s
}

func TestOperationService_CreateUndoRedoScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created := f.addTask(t, "Demo", "one", "two")
	assert.Equal(t, int64(1), created.Task.ID)
	assert.Equal(t, domain.StatusUndone, created.Task.Status)
	assert.Equal(t, []string{"one", "two"}, created.Categories)

	history := f.history(t)
	require.Len(t, history.Actions, 1)
	assert.Equal(t, 1, history.Undoable)
	assert.False(t, history.Actions[0].Restored)
	assert.Equal(t, domain.TaskOp{Type: domain.ActionCreate, Snapshot: *created}, history.Actions[0].Op)

	undone, err := f.svc.Undo(ctx)
	require.NoError(t, err)
	assert.True(t, undone.Restored)
	assert.Equal(t, domain.TaskOp{Type: domain.ActionDelete, Snapshot: *created}, undone.Op)

	_, err = f.svc.ReadTask(ctx, 1)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound))
	assert.Empty(t, f.state(t).Categories)

	history = f.history(t)
	require.Len(t, history.Actions, 1)
	assert.Equal(t, 0, history.Undoable)
	assert.Equal(t, 1, history.Redoable)

	redone, err := f.svc.Redo(ctx)
	require.NoError(t, err)
	assert.False(t, redone.Restored)
	assert.Equal(t, undone.ID, redone.ID)

	details, err := f.svc.ReadTask(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, created, details)

	history = f.history(t)
	require.Len(t, history.Actions, 1)
	assert.False(t, history.Actions[0].Restored)
}

func TestOperationService_BatchRenameScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addTask(t, "first", "one", "two")
	f.addTask(t, "second", "two")

	change, err := f.svc.BatchRenameCategory(ctx, "two", "too")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, change.TaskIDs)

	for id, want := range map[int64][]string{1: {"one", "too"}, 2: {"too"}} {
		categories, err := f.svc.TaskCategories(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, categories)
	}

	_, err = f.svc.Undo(ctx)
	require.NoError(t, err)

	for id, want := range map[int64][]string{1: {"one", "two"}, 2: {"two"}} {
		categories, err := f.svc.TaskCategories(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, categories)
	}
}

func TestOperationService_BatchRenameLeavesOtherTasksAlone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addTask(t, "renamed", "old")
	f.addTask(t, "bystander", "new")

	change, err := f.svc.BatchRenameCategory(ctx, "old", "new")
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, change.TaskIDs)

	_, err = f.svc.Undo(ctx)
	require.NoError(t, err)

	categories, err := f.svc.TaskCategories(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, categories)
}

// mutations is a mixed sequence covering every recorded operation kind.
func mutations(t *testing.T, f *fixture) []func() {
	ctx := context.Background()
	return []func(){
		func() { f.addTask(t, "write report", "work") },
		func() {
			_, err := f.svc.EditTask(ctx, 1, domain.TaskUpdate{Title: strPtr("write the report"), Info: strPtr("q1")})
			require.NoError(t, err)
		},
		func() {
			_, err := f.svc.AddCategory(ctx, 2, "errands")
			require.NoError(t, err)
		},
		func() { require.NoError(t, f.svc.RenameCategory(ctx, 3, "work", "job")) },
		func() {
			_, err := f.svc.BatchAddCategory(ctx, []int64{1, 2, 3}, "weekly")
			require.NoError(t, err)
		},
		func() {
			_, err := f.svc.BatchRenameCategory(ctx, "home", "house")
			require.NoError(t, err)
		},
		func() { require.NoError(t, f.svc.RemoveCategory(ctx, 3, "weekly")) },
		func() {
			_, err := f.svc.BatchDeleteCategory(ctx, "weekly")
			require.NoError(t, err)
		},
		func() {
			_, err := f.svc.RemoveTask(ctx, 2)
			require.NoError(t, err)
		},
	}
}

func seedWithoutHistory(t *testing.T, f *fixture) {
	t.Helper()
	f.addTask(t, "buy milk", "home")
	f.addTask(t, "fix bike", "home", "garage")
	_, err := f.svc.ClearActions(context.Background())
	require.NoError(t, err)
}

func TestOperationService_UndoingEverythingRestoresInitialState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seedWithoutHistory(t, f)
	initial := f.state(t)

	ops := mutations(t, f)
	for _, op := range ops {
		op()
	}
	final := f.state(t)
	require.NotEqual(t, initial, final)

	for range ops {
		_, err := f.svc.Undo(ctx)
		require.NoError(t, err)
	}

	assert.Equal(t, initial, f.state(t))
	history := f.history(t)
	assert.Equal(t, 0, history.Undoable)
	assert.Equal(t, len(ops), history.Redoable)

	_, err := f.svc.Undo(ctx)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeNothingToUndo))

	for range ops {
		_, err := f.svc.Redo(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, final, f.state(t))
	history = f.history(t)
	assert.Equal(t, len(ops), history.Undoable)
	assert.Equal(t, 0, history.Redoable)
}

func TestOperationService_UndoRedoRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seedWithoutHistory(t, f)

	for i, op := range mutations(t, f) {
		op()
		before := f.state(t)
		recorded := f.history(t).Actions[0]

		_, err := f.svc.Undo(ctx)
		require.NoError(t, err, "undo of mutation %d", i)
		redone, err := f.svc.Redo(ctx)
		require.NoError(t, err, "redo of mutation %d", i)

		assert.Equal(t, before, f.state(t), "mutation %d", i)
		assert.Equal(t, recorded.ID, redone.ID)
		assert.Equal(t, recorded.Restored, redone.Restored)
		assert.Equal(t, recorded.Op, redone.Op, "mutation %d", i)
	}
}

func TestOperationService_NewOperationDiscardsRedoBranch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addTask(t, "a")
	f.addTask(t, "b")

	_, err := f.svc.Undo(ctx)
	require.NoError(t, err)
	_, err = f.svc.Undo(ctx)
	require.NoError(t, err)

	f.addTask(t, "c")

	_, err = f.svc.Redo(ctx)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeNothingToRedo))
	history := f.history(t)
	assert.Len(t, history.Actions, 1)
	assert.Equal(t, 0, history.Redoable)
}

func TestOperationService_EditWithoutFieldsWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.addTask(t, "steady")

	_, err := f.svc.EditTask(ctx, created.Task.ID, domain.TaskUpdate{})
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeNoChange))
	assert.Contains(t, err.Error(), "task 1")

	details, err := f.svc.ReadTask(ctx, created.Task.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Task.UpdatedAt, details.Task.UpdatedAt)
	assert.Len(t, f.history(t).Actions, 1)
}

func TestOperationService_EditUndoRestoresExactTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.addTask(t, "draft")
	done := domain.StatusDone

	updated, err := f.svc.EditTask(ctx, created.Task.ID, domain.TaskUpdate{Status: &done, Info: strPtr("shipped")})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, updated.Status)
	assert.True(t, updated.UpdatedAt.After(created.Task.UpdatedAt))

	_, err = f.svc.Undo(ctx)
	require.NoError(t, err)

	details, err := f.svc.ReadTask(ctx, created.Task.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Task, details.Task)

	_, err = f.svc.Redo(ctx)
	require.NoError(t, err)

	details, err = f.svc.ReadTask(ctx, created.Task.ID)
	require.NoError(t, err)
	assert.Equal(t, *updated, details.Task)
}

func TestOperationService_RemoveTaskUndoRestoresIndex(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addTask(t, "call the plumber", "home")

	removed, err := f.svc.RemoveTask(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"home"}, removed.Categories)

	text := "plumber"
	found, err := f.svc.ListTasks(ctx, domain.TaskQuery{Text: &text})
	require.NoError(t, err)
	assert.Empty(t, found)

	_, err = f.svc.Undo(ctx)
	require.NoError(t, err)

	found, err = f.svc.ListTasks(ctx, domain.TaskQuery{Text: &text})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, *removed, *found[0])
}

func TestOperationService_BatchDeleteUndoRestoresExactPairs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addTask(t, "only", "tmp")
	f.addTask(t, "mixed", "tmp", "keep")
	f.addTask(t, "untouched", "keep")
	before := f.state(t)

	change, err := f.svc.BatchDeleteCategory(ctx, "tmp")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, change.TaskIDs)

	categories, err := f.svc.TaskCategories(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, categories)

	_, err = f.svc.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, f.state(t))
}

func TestOperationService_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addTask(t, "a", "x", "y")
	f.addTask(t, "b", "y")
	f.addTask(t, "c")
	baseline := f.state(t)
	recorded := len(f.history(t).Actions)

	tests := []struct {
		name    string
		run     func() error
		errType apperrors.ErrorType
		message string
	}{
		{
			name:    "edit missing task",
			run:     func() error { _, err := f.svc.EditTask(ctx, 99, domain.TaskUpdate{Title: strPtr("t")}); return err },
			errType: apperrors.ErrorTypeNotFound,
			message: "task not found: 99",
		},
		{
			name:    "remove missing task",
			run:     func() error { _, err := f.svc.RemoveTask(ctx, 99); return err },
			errType: apperrors.ErrorTypeNotFound,
		},
		{
			name:    "add category to missing task",
			run:     func() error { _, err := f.svc.AddCategory(ctx, 99, "x"); return err },
			errType: apperrors.ErrorTypeNotFound,
		},
		{
			name:    "add existing category",
			run:     func() error { _, err := f.svc.AddCategory(ctx, 1, "x"); return err },
			errType: apperrors.ErrorTypeDuplicate,
			message: "task 1: x",
		},
		{
			name:    "batch add stops at first duplicate",
			run:     func() error { _, err := f.svc.BatchAddCategory(ctx, []int64{3, 1}, "x"); return err },
			errType: apperrors.ErrorTypeDuplicate,
		},
		{
			name:    "rename to same name",
			run:     func() error { return f.svc.RenameCategory(ctx, 1, "x", "x") },
			errType: apperrors.ErrorTypeNoChange,
		},
		{
			name:    "rename onto existing name",
			run:     func() error { return f.svc.RenameCategory(ctx, 1, "x", "y") },
			errType: apperrors.ErrorTypeDuplicate,
		},
		{
			name:    "remove unassigned category",
			run:     func() error { return f.svc.RemoveCategory(ctx, 3, "x") },
			errType: apperrors.ErrorTypeNotFound,
		},
		{
			name:    "batch rename unknown category",
			run:     func() error { _, err := f.svc.BatchRenameCategory(ctx, "nope", "z"); return err },
			errType: apperrors.ErrorTypeNotFound,
			message: "category not found: nope",
		},
		{
			name:    "batch rename clash",
			run:     func() error { _, err := f.svc.BatchRenameCategory(ctx, "x", "y"); return err },
			errType: apperrors.ErrorTypeDuplicate,
		},
		{
			name:    "batch rename to same name",
			run:     func() error { _, err := f.svc.BatchRenameCategory(ctx, "y", "y"); return err },
			errType: apperrors.ErrorTypeNoChange,
		},
		{
			name:    "batch delete unknown category",
			run:     func() error { _, err := f.svc.BatchDeleteCategory(ctx, "nope"); return err },
			errType: apperrors.ErrorTypeNotFound,
		},
		{
			name:    "categories of missing task",
			run:     func() error { _, err := f.svc.TaskCategories(ctx, 99); return err },
			errType: apperrors.ErrorTypeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			require.Error(t, err)
			assert.True(t, apperrors.IsErrorType(err, tt.errType), "got %v", err)
			if tt.message != "" {
				assert.Contains(t, err.Error(), tt.message)
			}
			assert.Equal(t, baseline, f.state(t))
			assert.Len(t, f.history(t).Actions, recorded)
		})
	}
}

func TestOperationService_AddTaskWithDuplicateCategoryRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddTask(ctx, domain.TaskFields{Title: "twice"}, []string{"a", "a"})

	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeDuplicate))
	assert.Empty(t, f.state(t).Tasks)
	assert.Empty(t, f.history(t).Actions)
}

func TestOperationService_UndoOfMissingTaskIsInvariantViolation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.addTask(t, "doomed")
	_, err := f.svc.AddCategory(ctx, 1, "c")
	require.NoError(t, err)
	target := f.history(t).Actions[0]

	// Remove the task behind the ledger's back.
	require.NoError(t, f.store.Tasks().Delete(ctx, &created.Task))

	_, err = f.svc.Undo(ctx)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeInvariant, appErr.Type)
	actionID, _ := appErr.GetContext("action_id")
	assert.Equal(t, target.ID, actionID)
	assert.Contains(t, err.Error(), "undo of action #2")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	history := f.history(t)
	assert.Equal(t, 2, history.Undoable, "ledger is untouched")
}

func TestOperationService_RedoOntoTakenIDIsInvariantViolation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.addTask(t, "first")

	_, err := f.svc.Undo(ctx)
	require.NoError(t, err)

	squatter := created.Task
	squatter.Title = "squatter"
	require.NoError(t, f.store.Tasks().CreateWithID(ctx, &squatter))

	_, err = f.svc.Redo(ctx)

	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeInvariant))
	assert.Contains(t, err.Error(), "redo of action #1")

	details, err := f.svc.ReadTask(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "squatter", details.Task.Title)
	assert.Equal(t, 1, f.history(t).Redoable)
}

func TestOperationService_NothingToRedo(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Redo(context.Background())

	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeNothingToRedo))
	assert.Equal(t, "there is no action to redo", apperrors.GetUserMessage(err))
}

func TestOperationService_ListActionsAndClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addTask(t, "one")
	f.addTask(t, "two")
	f.addTask(t, "three")
	_, err := f.svc.Undo(ctx)
	require.NoError(t, err)

	history, err := f.svc.ListActions(ctx, 2)
	require.NoError(t, err)
	require.Len(t, history.Actions, 2)
	assert.Equal(t, `[Task] Delete #3 "three"`, history.Actions[0].Op.Describe())
	assert.Equal(t, `[Task] Create #2 "two"`, history.Actions[1].Op.Describe())
	assert.Equal(t, 2, history.Undoable)
	assert.Equal(t, 1, history.Redoable)

	removed, err := f.svc.ClearActions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)
	assert.Len(t, f.state(t).Tasks, 2, "clearing history keeps tasks")

	_, err = f.svc.Undo(ctx)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeNothingToUndo))
}

func TestOperationService_ListTasksIncludesCategories(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addTask(t, "b task", "work")
	f.addTask(t, "a task")
	work := "work"

	all, err := f.svc.ListTasks(ctx, domain.TaskQuery{Sort: []domain.SortKey{{Field: domain.SortByTitle}}})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a task", all[0].Task.Title)
	assert.Empty(t, all[0].Categories)
	assert.Equal(t, []string{"work"}, all[1].Categories)

	filtered, err := f.svc.ListTasks(ctx, domain.TaskQuery{Category: &work})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "b task", filtered[0].Task.Title)
}

func TestOperationService_LogsOperations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addTask(t, "logged")
	f.hook.Reset()

	actionID, err := f.svc.AddCategory(ctx, 1, "c")
	require.NoError(t, err)
	assert.Equal(t, int64(2), actionID)

	entry := f.hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, log.InfoLevel, entry.Level)
	assert.Equal(t, "operation applied", entry.Message)
	assert.Equal(t, "AddCategory", entry.Data["op"])
	assert.Equal(t, int64(1), entry.Data["task_id"])
	assert.Equal(t, int64(2), entry.Data["action_id"])
	assert.Equal(t, "c", entry.Data["category"])
	assert.NotEmpty(t, entry.Data["op_id"])

	_, err = f.svc.AddCategory(ctx, 1, "c")
	require.Error(t, err)

	entry = f.hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, log.WarnLevel, entry.Level)
	assert.Equal(t, "operation rejected", entry.Message)
	assert.Equal(t, "DUPLICATE", entry.Data["error_code"])
}

func TestOperationService_TracesOperations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addTask(t, "traced", "c")
	f.exporter.Reset()

	_, err := f.svc.Undo(ctx)
	require.NoError(t, err)
	_, err = f.svc.Undo(ctx)
	require.Error(t, err)

	spans := f.exporter.GetSpans()
	require.Len(t, spans, 2)

	undo := spans[0]
	assert.Equal(t, "tasks.Undo", undo.Name)
	assert.Equal(t, "Ok", undo.Status.Code.String())
	attrs := map[string]interface{}{}
	for _, kv := range undo.Attributes {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, int64(1), attrs["tk.action_id"])
	assert.NotEmpty(t, attrs["tk.op_id"])

	failed := spans[1]
	assert.Equal(t, "tasks.Undo", failed.Name)
	assert.Equal(t, "Error", failed.Status.Code.String())
	assert.Contains(t, failed.Status.Description, "no action to undo")
	require.NotEmpty(t, failed.Events)
	assert.Equal(t, "exception", failed.Events[0].Name)
}

func TestOperationService_NilLoggerUsesStandardLogger(t *testing.T) {
	ctx := context.Background()
	hook := test.NewGlobal()
	previous := log.GetLevel()
	log.SetLevel(log.InfoLevel)
	defer log.SetLevel(previous)

	store, err := sqlite.Open(ctx, sqlite.MemoryDSN, nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	svc := NewOperationService(store, nil)
	details, err := svc.AddTask(ctx, domain.TaskFields{Title: "no logger"}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), details.Task.ID)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "AddTask", entry.Data["op"])
}
