// Package task implements the task lifecycle state machine:
//
//	pending --[assigned child]--> completed --[creating parent]--> verified
//	                              completed --[creating parent]--> pending (denied)
//	                              completed --[assigned child]---> pending (cancelled)
//
// verified is terminal for an occurrence. The completed -> verified edge is
// the only trigger for a ledger award; recurring tasks spawn a fresh pending
// occurrence in the same transaction.
package task

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pluspoint/pluspoint/internal/errs"
	"github.com/pluspoint/pluspoint/internal/ledger"
	"github.com/pluspoint/pluspoint/internal/model"
	"github.com/pluspoint/pluspoint/internal/recurrence"
	"github.com/pluspoint/pluspoint/internal/store"
)

type Workflow struct {
	tasks  *store.TaskStore
	ledger *ledger.Service
	logger *slog.Logger
}

func NewWorkflow(tasks *store.TaskStore, ledger *ledger.Service, logger *slog.Logger) *Workflow {
	return &Workflow{tasks: tasks, ledger: ledger, logger: logger}
}

// MarkCompleted fires pending -> completed. Only the assigned child may call it.
func (w *Workflow) MarkCompleted(ctx context.Context, childID, taskID string) (*model.Task, error) {
	t, err := w.tasks.GetByID(taskID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errs.ErrNotFound
	}
	if t.AssignedToChildID != childID {
		return nil, errs.ErrUnauthorized
	}

	ok, err := w.tasks.MarkCompleted(taskID, time.Now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("task %s is not pending: %w", taskID, errs.ErrInvalidTransition)
	}
	return w.tasks.GetByID(taskID)
}

// CancelCompleted lets the assigned child take back their own completed
// marking before the parent acts. Not a ledger event.
func (w *Workflow) CancelCompleted(ctx context.Context, childID, taskID string) (*model.Task, error) {
	t, err := w.tasks.GetByID(taskID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errs.ErrNotFound
	}
	if t.AssignedToChildID != childID {
		return nil, errs.ErrUnauthorized
	}

	ok, err := w.tasks.ResetToPending(taskID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("task %s is not completed: %w", taskID, errs.ErrInvalidTransition)
	}
	return w.tasks.GetByID(taskID)
}

// Verify fires completed -> verified and awards the task's points through the
// ledger. The status flip, the ledger append, the balance change, and the
// spawn of the next recurring occurrence commit in one transaction, so a
// crash or a concurrent second verification can never half-award.
func (w *Workflow) Verify(ctx context.Context, parentID, taskID string) (*model.Task, *model.LedgerEntry, error) {
	t, err := w.tasks.GetByID(taskID)
	if err != nil {
		return nil, nil, err
	}
	if t == nil {
		return nil, nil, errs.ErrNotFound
	}
	if t.CreatedByParentID != parentID {
		return nil, nil, errs.ErrUnauthorized
	}
	if t.Status != model.TaskCompleted {
		return nil, nil, fmt.Errorf("task %s is %s, not completed: %w", taskID, t.Status, errs.ErrInvalidTransition)
	}

	entry, err := w.ledger.Award(ctx, t.AssignedToChildID, t.Points, t.ID,
		w.verifyEffect(t), w.spawnEffect(t))
	if err != nil {
		return nil, nil, err
	}

	verified, err := w.tasks.GetByID(taskID)
	if err != nil {
		return nil, nil, err
	}

	w.logger.Info("task verified", "task_id", taskID, "child_id", t.AssignedToChildID, "points", t.Points)
	return verified, entry, nil
}

// Deny fires completed -> pending so the child can redo the task. Only the
// creating parent may deny; no ledger event occurs.
func (w *Workflow) Deny(ctx context.Context, parentID, taskID string) (*model.Task, error) {
	t, err := w.tasks.GetByID(taskID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errs.ErrNotFound
	}
	if t.CreatedByParentID != parentID {
		return nil, errs.ErrUnauthorized
	}

	ok, err := w.tasks.ResetToPending(taskID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("task %s is not completed: %w", taskID, errs.ErrInvalidTransition)
	}

	w.logger.Info("task denied", "task_id", taskID, "parent_id", parentID)
	return w.tasks.GetByID(taskID)
}

// verifyEffect flips the task to verified inside the award transaction. A
// zero-row update means another session won the transition first.
func (w *Workflow) verifyEffect(t *model.Task) ledger.Effect {
	return func(tx *sql.Tx) error {
		result, err := tx.Exec(
			`UPDATE tasks SET status = 'verified' WHERE id = ? AND status = 'completed'`,
			t.ID,
		)
		if err != nil {
			return fmt.Errorf("mark task verified: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("task %s already resolved: %w", t.ID, errs.ErrInvalidTransition)
		}
		return nil
	}
}

// spawnEffect inserts the next pending occurrence for a recurring task.
func (w *Workflow) spawnEffect(t *model.Task) ledger.Effect {
	return func(tx *sql.Tx) error {
		rule, err := recurrence.Parse(t.RepeatRule)
		if err != nil || !rule.Repeats() {
			return nil
		}
		_, err = tx.Exec(
			`INSERT INTO tasks (id, name, description, room, points, assigned_to_child_id, created_by_parent_id, assigned_day, repeat_rule)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), t.Name, t.Description, t.Room, t.Points,
			t.AssignedToChildID, t.CreatedByParentID, rule.NextAssignedDay(t.AssignedDay), t.RepeatRule,
		)
		if err != nil {
			return fmt.Errorf("spawn next occurrence: %w", err)
		}
		return nil
	}
}
