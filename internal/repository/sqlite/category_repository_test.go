package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-tracker/internal/domain"
	apperrors "task-tracker/internal/errors"
)

func TestCategoryRepository_AssignAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	repo := store.Categories()
	task := createTask(t, store, "t")

	require.NoError(t, repo.BatchAssign(ctx, task.ID, []string{"zeta", "alpha"}))

	categories, err := repo.ListForTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, categories)

	exists, err := repo.Exists(ctx, task.ID, "zeta")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCategoryRepository_AssignDuplicate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	repo := store.Categories()
	task := createTask(t, store, "t")
	require.NoError(t, repo.Assign(ctx, task.ID, "work"))

	err := repo.Assign(ctx, task.ID, "work")

	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeDuplicate))
	assert.Contains(t, err.Error(), "task 1: work")
}

func TestCategoryRepository_ListForTaskWithNoCategories(t *testing.T) {
	store := newTestStore(t)
	task := createTask(t, store, "t")

	categories, err := store.Categories().ListForTask(context.Background(), task.ID)

	require.NoError(t, err)
	assert.NotNil(t, categories)
	assert.Empty(t, categories)
}

func TestCategoryRepository_Unassign(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	repo := store.Categories()
	task := createTask(t, store, "t")
	require.NoError(t, repo.BatchAssign(ctx, task.ID, []string{"a", "b"}))

	require.NoError(t, repo.Unassign(ctx, task.ID, "a"))

	categories, err := repo.ListForTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, categories)

	err = repo.Unassign(ctx, task.ID, "a")
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound))
	assert.Contains(t, err.Error(), "category not found: task 1: a")
}

func TestCategoryRepository_UnassignAll(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	repo := store.Categories()
	first := createTask(t, store, "first")
	second := createTask(t, store, "second")
	require.NoError(t, repo.BatchAssign(ctx, first.ID, []string{"a", "b"}))
	require.NoError(t, repo.Assign(ctx, second.ID, "a"))

	require.NoError(t, repo.UnassignAll(ctx, first.ID))

	counts, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.CategoryCount{{Name: "a", Count: 1}}, counts)
}

func TestCategoryRepository_Rename(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	repo := store.Categories()
	task := createTask(t, store, "t")
	require.NoError(t, repo.BatchAssign(ctx, task.ID, []string{"two", "three"}))

	require.NoError(t, repo.Rename(ctx, task.ID, "two", "too"))

	categories, err := repo.ListForTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"three", "too"}, categories)

	err = repo.Rename(ctx, task.ID, "missing", "x")
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound))

	err = repo.Rename(ctx, task.ID, "too", "three")
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeDuplicate))
}

func TestCategoryRepository_BatchRename(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	repo := store.Categories()
	first := createTask(t, store, "first")
	second := createTask(t, store, "second")
	third := createTask(t, store, "third")
	require.NoError(t, repo.Assign(ctx, first.ID, "two"))
	require.NoError(t, repo.Assign(ctx, second.ID, "two"))
	require.NoError(t, repo.Assign(ctx, third.ID, "other"))

	ids, err := repo.BatchRename(ctx, "two", "too")
	require.NoError(t, err)
	assert.Equal(t, []int64{first.ID, second.ID}, ids)

	for _, id := range []int64{first.ID, second.ID} {
		categories, err := repo.ListForTask(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, []string{"too"}, categories)
	}
	categories, err := repo.ListForTask(ctx, third.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"other"}, categories)
}

func TestCategoryRepository_BatchRenameClash(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	repo := store.Categories()
	first := createTask(t, store, "first")
	second := createTask(t, store, "second")
	require.NoError(t, repo.Assign(ctx, first.ID, "old"))
	require.NoError(t, repo.BatchAssign(ctx, second.ID, []string{"old", "new"}))

	_, err := repo.BatchRename(ctx, "old", "new")

	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeDuplicate))
	assert.Contains(t, err.Error(), "task 2: new")
	ids, err := repo.TaskIDsFor(ctx, "old")
	require.NoError(t, err)
	assert.Equal(t, []int64{first.ID, second.ID}, ids, "nothing is renamed on clash")
}

func TestCategoryRepository_BatchUnassign(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	repo := store.Categories()
	first := createTask(t, store, "first")
	second := createTask(t, store, "second")
	require.NoError(t, repo.BatchAssign(ctx, first.ID, []string{"gone", "kept"}))
	require.NoError(t, repo.Assign(ctx, second.ID, "gone"))

	ids, err := repo.BatchUnassign(ctx, "gone")
	require.NoError(t, err)
	assert.Equal(t, []int64{first.ID, second.ID}, ids)

	counts, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.CategoryCount{{Name: "kept", Count: 1}}, counts)

	ids, err = repo.BatchUnassign(ctx, "gone")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestCategoryRepository_AssignToTasks(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	repo := store.Categories()
	first := createTask(t, store, "first")
	second := createTask(t, store, "second")

	require.NoError(t, repo.AssignToTasks(ctx, []int64{first.ID, second.ID}, "shared"))

	ids, err := repo.TaskIDsFor(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, []int64{first.ID, second.ID}, ids)
}

func TestCategoryRepository_ListAll(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	repo := store.Categories()
	first := createTask(t, store, "first")
	second := createTask(t, store, "second")
	require.NoError(t, repo.BatchAssign(ctx, first.ID, []string{"work", "home"}))
	require.NoError(t, repo.Assign(ctx, second.ID, "work"))

	counts, err := repo.ListAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, []domain.CategoryCount{
		{Name: "home", Count: 1},
		{Name: "work", Count: 2},
	}, counts)
}

func TestCategoryRepository_DeletingTaskCascades(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	task := createTask(t, store, "t")
	require.NoError(t, store.Categories().Assign(ctx, task.ID, "work"))

	require.NoError(t, store.Tasks().Delete(ctx, task))

	counts, err := store.Categories().ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, counts)
}
