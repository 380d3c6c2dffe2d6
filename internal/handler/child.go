package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pluspoint/pluspoint/internal/auth"
	"github.com/pluspoint/pluspoint/internal/errs"
	"github.com/pluspoint/pluspoint/internal/ledger"
	"github.com/pluspoint/pluspoint/internal/store"
)

// ChildHandler provisions and lists child accounts. Only parents reach these
// routes; the router enforces that.
type ChildHandler struct {
	profiles *store.ProfileStore
	ledger   *ledger.Service
	logger   *slog.Logger
}

func NewChildHandler(profiles *store.ProfileStore, ledger *ledger.Service, logger *slog.Logger) *ChildHandler {
	return &ChildHandler{profiles: profiles, ledger: ledger, logger: logger}
}

type createChildRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// Create provisions a child account linked to the calling parent. The child
// starts with a zero balance and an empty ledger.
func (h *ChildHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createChildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if req.Email == "" || req.DisplayName == "" {
		writeDomainError(w, h.logger, fmt.Errorf("%w: email and display_name are required", errs.ErrInvalidArgument))
		return
	}
	if len(req.Password) < auth.MinPasswordLength {
		writeDomainError(w, h.logger, fmt.Errorf("%w: password must be at least %d characters", errs.ErrInvalidArgument, auth.MinPasswordLength))
		return
	}

	existing, err := h.profiles.GetByEmail(req.Email)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	if existing != nil {
		writeDomainError(w, h.logger, fmt.Errorf("email is already in use: %w", errs.ErrAlreadyExists))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	child, err := h.profiles.CreateChild(auth.ProfileID(r.Context()), req.Email, req.DisplayName, hash)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	h.logger.Info("child provisioned", "child_id", child.ID, "parent_id", auth.ProfileID(r.Context()))
	writeJSON(w, http.StatusCreated, child)
}

// List returns the calling parent's children with their current balances.
func (h *ChildHandler) List(w http.ResponseWriter, r *http.Request) {
	children, err := h.profiles.ListChildren(auth.ProfileID(r.Context()))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, children)
}

// History returns a child's ledger in ascending order. A child may read its
// own history; a parent may read any of its own children's.
func (h *ChildHandler) History(w http.ResponseWriter, r *http.Request) {
	childID := r.PathValue("id")

	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeDomainError(w, h.logger, errs.ErrUnauthorized)
		return
	}

	if ac.ProfileID != childID {
		child, err := h.profiles.GetByID(childID)
		if err != nil {
			writeDomainError(w, h.logger, err)
			return
		}
		if child == nil || !child.IsChild() {
			writeDomainError(w, h.logger, errs.ErrNotFound)
			return
		}
		if *child.ParentID != ac.ProfileID {
			writeDomainError(w, h.logger, errs.ErrUnauthorized)
			return
		}
	}

	entries, err := h.ledger.History(r.Context(), childID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
