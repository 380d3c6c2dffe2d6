package store

import (
	"testing"
	"time"

	"github.com/pluspoint/pluspoint/internal/model"
)

func setupTaskTest(t *testing.T) (*TaskStore, *model.Profile, *model.Profile) {
	t.Helper()
	db := setupTestDB(t)
	ps := NewProfileStore(db)

	parent, err := ps.CreateParent("mom@example.com", "Mom", "hash")
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}
	child, err := ps.CreateChild(parent.ID, "kid@example.com", "Kid", "hash")
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	return NewTaskStore(db), parent, child
}

func TestTaskCreate(t *testing.T) {
	ts, parent, child := setupTaskTest(t)

	task, err := ts.Create("Dishes", "Load the dishwasher", "kitchen", 10, child.ID, parent.ID, "monday", "every_day")
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if task.Status != model.TaskPending {
		t.Errorf("status = %q, want pending", task.Status)
	}
	if task.Points != 10 {
		t.Errorf("points = %d, want 10", task.Points)
	}
	if task.Room != "kitchen" {
		t.Errorf("room = %q, want kitchen", task.Room)
	}
	if task.CompletedAt != nil {
		t.Error("new task should have no completion time")
	}
}

func TestTaskRejectsNonPositivePoints(t *testing.T) {
	ts, parent, child := setupTaskTest(t)

	if _, err := ts.Create("Free", "", "", 0, child.ID, parent.ID, "", "never"); err == nil {
		t.Error("expected check constraint violation for zero points")
	}
}

func TestTaskMarkCompleted(t *testing.T) {
	ts, parent, child := setupTaskTest(t)

	task, _ := ts.Create("Dishes", "", "", 10, child.ID, parent.ID, "", "never")

	ok, err := ts.MarkCompleted(task.ID, time.Now())
	if err != nil {
		t.Fatalf("mark completed: %v", err)
	}
	if !ok {
		t.Fatal("expected transition to succeed")
	}

	got, _ := ts.GetByID(task.ID)
	if got.Status != model.TaskCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}
	if got.CompletedAt == nil {
		t.Error("expected completion time")
	}

	// Second completion loses: the task is no longer pending.
	ok, err = ts.MarkCompleted(task.ID, time.Now())
	if err != nil {
		t.Fatalf("mark completed again: %v", err)
	}
	if ok {
		t.Error("expected second completion to fail")
	}
}

func TestTaskResetToPending(t *testing.T) {
	ts, parent, child := setupTaskTest(t)

	task, _ := ts.Create("Dishes", "", "", 10, child.ID, parent.ID, "", "never")

	// Not completed yet: nothing to reset.
	ok, err := ts.ResetToPending(task.ID)
	if err != nil {
		t.Fatalf("reset pending task: %v", err)
	}
	if ok {
		t.Error("expected reset of pending task to fail")
	}

	ts.MarkCompleted(task.ID, time.Now())
	ok, err = ts.ResetToPending(task.ID)
	if err != nil {
		t.Fatalf("reset completed task: %v", err)
	}
	if !ok {
		t.Fatal("expected reset to succeed")
	}

	got, _ := ts.GetByID(task.ID)
	if got.Status != model.TaskPending {
		t.Errorf("status = %q, want pending", got.Status)
	}
	if got.CompletedAt != nil {
		t.Error("expected completion time cleared")
	}
}

func TestTaskLists(t *testing.T) {
	ts, parent, child := setupTaskTest(t)

	a, _ := ts.Create("A", "", "", 5, child.ID, parent.ID, "", "never")
	b, _ := ts.Create("B", "", "", 5, child.ID, parent.ID, "", "never")
	ts.MarkCompleted(b.ID, time.Now())

	byChild, err := ts.ListByChild(child.ID)
	if err != nil {
		t.Fatalf("list by child: %v", err)
	}
	if len(byChild) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(byChild))
	}

	completed, err := ts.ListCompletedByParent(parent.ID)
	if err != nil {
		t.Fatalf("list completed: %v", err)
	}
	if len(completed) != 1 || completed[0].ID != b.ID {
		t.Errorf("expected only task B awaiting verification")
	}

	if err := ts.Delete(a.ID); err != nil {
		t.Fatalf("delete task: %v", err)
	}
	byParent, _ := ts.ListByParent(parent.ID)
	if len(byParent) != 1 {
		t.Errorf("expected 1 task after delete, got %d", len(byParent))
	}
}
