package task_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pluspoint/pluspoint/internal/database"
	"github.com/pluspoint/pluspoint/internal/errs"
	"github.com/pluspoint/pluspoint/internal/ledger"
	"github.com/pluspoint/pluspoint/internal/logging"
	"github.com/pluspoint/pluspoint/internal/model"
	"github.com/pluspoint/pluspoint/internal/store"
	"github.com/pluspoint/pluspoint/internal/task"
)

type fixture struct {
	db       *sql.DB
	tasks    *store.TaskStore
	profiles *store.ProfileStore
	workflow *task.Workflow
	parent   *model.Profile
	child    *model.Profile
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	profiles := store.NewProfileStore(db)
	tasks := store.NewTaskStore(db)
	ledgerSvc := ledger.NewService(db, logging.Discard())

	parent, err := profiles.CreateParent("mom@example.com", "Mom", "hash")
	require.NoError(t, err)
	child, err := profiles.CreateChild(parent.ID, "kid@example.com", "Kid", "hash")
	require.NoError(t, err)

	return &fixture{
		db:       db,
		tasks:    tasks,
		profiles: profiles,
		workflow: task.NewWorkflow(tasks, ledgerSvc, logging.Discard()),
		parent:   parent,
		child:    child,
	}
}

func (f *fixture) newTask(t *testing.T, repeatRule string) *model.Task {
	t.Helper()
	tk, err := f.tasks.Create("Dishes", "Load the dishwasher", "kitchen", 10, f.child.ID, f.parent.ID, "monday", repeatRule)
	require.NoError(t, err)
	return tk
}

func (f *fixture) childBalance(t *testing.T) int {
	t.Helper()
	p, err := f.profiles.GetByID(f.child.ID)
	require.NoError(t, err)
	return p.PointBalance
}

func TestCompleteThenVerifyAwardsPoints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tk := f.newTask(t, "never")

	completed, err := f.workflow.MarkCompleted(ctx, f.child.ID, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskCompleted, completed.Status)
	assert.NotNil(t, completed.CompletedAt)

	verified, entry, err := f.workflow.Verify(ctx, f.parent.ID, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskVerified, verified.Status)
	assert.Equal(t, 10, entry.Delta)
	assert.Equal(t, tk.ID, entry.ReferenceID)
	assert.Equal(t, 10, f.childBalance(t))
}

func TestOnlyAssignedChildMayComplete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tk := f.newTask(t, "never")

	other, err := f.profiles.CreateChild(f.parent.ID, "sib@example.com", "Sib", "hash")
	require.NoError(t, err)

	_, err = f.workflow.MarkCompleted(ctx, other.ID, tk.ID)
	assert.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestVerifyRequiresCreatingParent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tk := f.newTask(t, "never")

	_, err := f.workflow.MarkCompleted(ctx, f.child.ID, tk.ID)
	require.NoError(t, err)

	stranger, err := f.profiles.CreateParent("dad@example.com", "Dad", "hash")
	require.NoError(t, err)

	_, _, err = f.workflow.Verify(ctx, stranger.ID, tk.ID)
	assert.ErrorIs(t, err, errs.ErrUnauthorized)
	assert.Equal(t, 0, f.childBalance(t))
}

func TestVerifyPendingTaskRejected(t *testing.T) {
	f := newFixture(t)
	tk := f.newTask(t, "never")

	_, _, err := f.workflow.Verify(context.Background(), f.parent.ID, tk.ID)
	assert.ErrorIs(t, err, errs.ErrInvalidTransition)
	assert.Equal(t, 0, f.childBalance(t))
}

func TestDoubleVerifyAwardsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tk := f.newTask(t, "never")

	_, err := f.workflow.MarkCompleted(ctx, f.child.ID, tk.ID)
	require.NoError(t, err)
	_, _, err = f.workflow.Verify(ctx, f.parent.ID, tk.ID)
	require.NoError(t, err)

	_, _, err = f.workflow.Verify(ctx, f.parent.ID, tk.ID)
	assert.ErrorIs(t, err, errs.ErrInvalidTransition)
	assert.Equal(t, 10, f.childBalance(t))
}

func TestDenyReturnsTaskToPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tk := f.newTask(t, "never")

	_, err := f.workflow.MarkCompleted(ctx, f.child.ID, tk.ID)
	require.NoError(t, err)

	denied, err := f.workflow.Deny(ctx, f.parent.ID, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskPending, denied.Status)
	assert.Nil(t, denied.CompletedAt)
	assert.Equal(t, 0, f.childBalance(t))

	// The child can complete again and get verified later.
	_, err = f.workflow.MarkCompleted(ctx, f.child.ID, tk.ID)
	require.NoError(t, err)
	_, _, err = f.workflow.Verify(ctx, f.parent.ID, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, f.childBalance(t))
}

func TestChildCancelsOwnCompletion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tk := f.newTask(t, "never")

	_, err := f.workflow.MarkCompleted(ctx, f.child.ID, tk.ID)
	require.NoError(t, err)

	cancelled, err := f.workflow.CancelCompleted(ctx, f.child.ID, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskPending, cancelled.Status)

	// Cancelling a pending task is a no-op transition.
	_, err = f.workflow.CancelCompleted(ctx, f.child.ID, tk.ID)
	assert.ErrorIs(t, err, errs.ErrInvalidTransition)
}

func TestVerifyRecurringTaskSpawnsNextOccurrence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tk := f.newTask(t, "every_day")

	_, err := f.workflow.MarkCompleted(ctx, f.child.ID, tk.ID)
	require.NoError(t, err)
	_, _, err = f.workflow.Verify(ctx, f.parent.ID, tk.ID)
	require.NoError(t, err)

	tasks, err := f.tasks.ListByChild(f.child.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	var spawned *model.Task
	for i := range tasks {
		if tasks[i].ID != tk.ID {
			spawned = &tasks[i]
		}
	}
	require.NotNil(t, spawned)
	assert.Equal(t, model.TaskPending, spawned.Status)
	assert.Equal(t, tk.Name, spawned.Name)
	assert.Equal(t, tk.Points, spawned.Points)
	assert.Equal(t, "tuesday", spawned.AssignedDay)
	assert.Equal(t, tk.RepeatRule, spawned.RepeatRule)
}

func TestVerifyNonRecurringTaskSpawnsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tk := f.newTask(t, "never")

	_, err := f.workflow.MarkCompleted(ctx, f.child.ID, tk.ID)
	require.NoError(t, err)
	_, _, err = f.workflow.Verify(ctx, f.parent.ID, tk.ID)
	require.NoError(t, err)

	tasks, err := f.tasks.ListByChild(f.child.ID)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestUnknownTaskNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.workflow.MarkCompleted(context.Background(), f.child.ID, "no-such-task")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}
