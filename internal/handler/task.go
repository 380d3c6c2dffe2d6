package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pluspoint/pluspoint/internal/auth"
	"github.com/pluspoint/pluspoint/internal/errs"
	"github.com/pluspoint/pluspoint/internal/model"
	"github.com/pluspoint/pluspoint/internal/recurrence"
	"github.com/pluspoint/pluspoint/internal/store"
	"github.com/pluspoint/pluspoint/internal/task"
	"github.com/pluspoint/pluspoint/internal/websocket"
)

type TaskHandler struct {
	tasks    *store.TaskStore
	profiles *store.ProfileStore
	workflow *task.Workflow
	hub      *websocket.Hub
	logger   *slog.Logger
}

func NewTaskHandler(tasks *store.TaskStore, profiles *store.ProfileStore, workflow *task.Workflow, hub *websocket.Hub, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, profiles: profiles, workflow: workflow, hub: hub, logger: logger}
}

type createTaskRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Room        string `json:"room"`
	Points      int    `json:"points"`
	ChildID     string `json:"child_id"`
	AssignedDay string `json:"assigned_day"`
	RepeatRule  string `json:"repeat_rule"`
}

// Create makes a new pending task assigned to one of the parent's children.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeDomainError(w, h.logger, fmt.Errorf("%w: name is required", errs.ErrInvalidArgument))
		return
	}
	if req.Points <= 0 {
		writeDomainError(w, h.logger, fmt.Errorf("%w: points must be positive", errs.ErrInvalidArgument))
		return
	}
	if req.AssignedDay != "" && !recurrence.ValidDay(req.AssignedDay) {
		writeDomainError(w, h.logger, fmt.Errorf("%w: unknown assigned_day %q", errs.ErrInvalidArgument, req.AssignedDay))
		return
	}
	if _, err := recurrence.Parse(req.RepeatRule); err != nil {
		writeDomainError(w, h.logger, fmt.Errorf("%w: %v", errs.ErrInvalidArgument, err))
		return
	}

	parentID := auth.ProfileID(r.Context())

	child, err := h.profiles.GetByID(req.ChildID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	if child == nil || !child.IsChild() {
		writeDomainError(w, h.logger, fmt.Errorf("child %s: %w", req.ChildID, errs.ErrNotFound))
		return
	}
	if *child.ParentID != parentID {
		writeDomainError(w, h.logger, errs.ErrUnauthorized)
		return
	}

	t, err := h.tasks.Create(req.Name, req.Description, req.Room, req.Points,
		req.ChildID, parentID, strings.ToLower(strings.TrimSpace(req.AssignedDay)), req.RepeatRule)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	h.publishTask(t, "created")
	writeJSON(w, http.StatusCreated, t)
}

// List returns the caller's tasks: a parent sees everything it created, a
// child sees everything assigned to it. ?status=completed narrows a parent's
// view to tasks awaiting verification.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var tasks []model.Task
	var err error
	switch {
	case ac.Role == model.RoleChild:
		tasks, err = h.tasks.ListByChild(ac.ProfileID)
	case r.URL.Query().Get("status") == string(model.TaskCompleted):
		tasks, err = h.tasks.ListCompletedByParent(ac.ProfileID)
	default:
		tasks, err = h.tasks.ListByParent(ac.ProfileID)
	}
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// Complete marks a pending task as done. Child only.
func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	t, err := h.workflow.MarkCompleted(r.Context(), auth.ProfileID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	h.publishTask(t, "completed")
	writeJSON(w, http.StatusOK, t)
}

// Cancel takes back a completed marking before the parent has acted.
func (h *TaskHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	t, err := h.workflow.CancelCompleted(r.Context(), auth.ProfileID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	h.publishTask(t, "cancelled")
	writeJSON(w, http.StatusOK, t)
}

type verifyResponse struct {
	Task  *model.Task        `json:"task"`
	Entry *model.LedgerEntry `json:"entry"`
}

// Verify confirms a completed task and awards its points.
func (h *TaskHandler) Verify(w http.ResponseWriter, r *http.Request) {
	t, entry, err := h.workflow.Verify(r.Context(), auth.ProfileID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	h.publishTask(t, "verified")
	h.hub.Publish(websocket.NewMessage(
		websocket.ProfileTopic(t.AssignedToChildID), "profile", "balance_changed", t.AssignedToChildID,
		map[string]any{"point_balance": entry.BalanceAfter},
	))
	writeJSON(w, http.StatusOK, verifyResponse{Task: t, Entry: entry})
}

// Deny sends a completed task back to pending.
func (h *TaskHandler) Deny(w http.ResponseWriter, r *http.Request) {
	t, err := h.workflow.Deny(r.Context(), auth.ProfileID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	h.publishTask(t, "denied")
	writeJSON(w, http.StatusOK, t)
}

// Delete removes a task the calling parent created. Verified tasks stay: the
// ledger references them.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	t, err := h.tasks.GetByID(r.PathValue("id"))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	if t == nil {
		writeDomainError(w, h.logger, errs.ErrNotFound)
		return
	}
	if t.CreatedByParentID != auth.ProfileID(r.Context()) {
		writeDomainError(w, h.logger, errs.ErrUnauthorized)
		return
	}
	if t.Status == model.TaskVerified {
		writeDomainError(w, h.logger, fmt.Errorf("verified tasks cannot be deleted: %w", errs.ErrInvalidTransition))
		return
	}

	if err := h.tasks.Delete(t.ID); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	h.publishTask(t, "deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) publishTask(t *model.Task, action string) {
	h.hub.Publish(websocket.NewMessage(websocket.ChildTasksTopic(t.AssignedToChildID), "task", action, t.ID, nil))
	h.hub.Publish(websocket.NewMessage(websocket.ParentTasksTopic(t.CreatedByParentID), "task", action, t.ID, nil))
}
