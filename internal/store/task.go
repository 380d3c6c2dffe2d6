package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pluspoint/pluspoint/internal/model"
)

type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

func scanTask(scanner interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	var completedAt sql.NullTime

	err := scanner.Scan(&t.ID, &t.Name, &t.Description, &t.Room, &t.Points,
		&t.AssignedToChildID, &t.CreatedByParentID, &t.Status, &t.AssignedDay,
		&t.RepeatRule, &t.CreatedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		t.CompletedAt = &completedAt.Time
	}
	return &t, nil
}

const taskCols = `id, name, description, room, points, assigned_to_child_id, created_by_parent_id, status, assigned_day, repeat_rule, created_at, completed_at`

func (s *TaskStore) Create(name, description, room string, points int, childID, parentID, assignedDay, repeatRule string) (*model.Task, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO tasks (id, name, description, room, points, assigned_to_child_id, created_by_parent_id, assigned_day, repeat_rule)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, name, description, room, points, childID, parentID, assignedDay, repeatRule,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return s.GetByID(id)
}

func (s *TaskStore) GetByID(id string) (*model.Task, error) {
	row := s.db.QueryRow(`SELECT `+taskCols+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// ListByChild returns a child's tasks, newest first.
func (s *TaskStore) ListByChild(childID string) ([]model.Task, error) {
	return s.list(`SELECT `+taskCols+` FROM tasks WHERE assigned_to_child_id = ? ORDER BY created_at DESC, rowid DESC`, childID)
}

// ListByParent returns all tasks a parent has created, newest first.
func (s *TaskStore) ListByParent(parentID string) ([]model.Task, error) {
	return s.list(`SELECT `+taskCols+` FROM tasks WHERE created_by_parent_id = ? ORDER BY created_at DESC, rowid DESC`, parentID)
}

// ListCompletedByParent returns a parent's tasks awaiting verification.
func (s *TaskStore) ListCompletedByParent(parentID string) ([]model.Task, error) {
	return s.list(`SELECT `+taskCols+` FROM tasks WHERE created_by_parent_id = ? AND status = 'completed' ORDER BY completed_at ASC`, parentID)
}

func (s *TaskStore) list(query string, args ...any) ([]model.Task, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// MarkCompleted transitions pending -> completed. Returns false if the task
// was not pending (lost to a concurrent transition or wrong state).
func (s *TaskStore) MarkCompleted(id string, at time.Time) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE tasks SET status = 'completed', completed_at = ? WHERE id = ? AND status = 'pending'`,
		at.UTC(), id,
	)
	if err != nil {
		return false, fmt.Errorf("mark task completed: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

// ResetToPending transitions completed -> pending and clears the completion
// time. Used for both parent denial and child cancellation.
func (s *TaskStore) ResetToPending(id string) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE tasks SET status = 'pending', completed_at = NULL WHERE id = ? AND status = 'completed'`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("reset task: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

func (s *TaskStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}
