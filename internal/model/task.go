package model

import "time"

type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
	TaskVerified  TaskStatus = "verified"
)

// Task is a single occurrence of a chore. Recurring tasks spawn a fresh
// pending Task when an occurrence is verified; a verified Task is never
// reused.
type Task struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Description       string     `json:"description"`
	Room              string     `json:"room"`
	Points            int        `json:"points"`
	AssignedToChildID string     `json:"assigned_to_child_id"`
	CreatedByParentID string     `json:"created_by_parent_id"`
	Status            TaskStatus `json:"status"`
	AssignedDay       string     `json:"assigned_day"`
	RepeatRule        string     `json:"repeat_rule"`
	CreatedAt         time.Time  `json:"created_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
}
