package handler

import (
	"log/slog"
	"net/http"

	"github.com/pluspoint/pluspoint/internal/auth"
	"github.com/pluspoint/pluspoint/internal/errs"
	"github.com/pluspoint/pluspoint/internal/store"
)

type NotificationHandler struct {
	notifications *store.NotificationStore
	logger        *slog.Logger
}

func NewNotificationHandler(notifications *store.NotificationStore, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, logger: logger}
}

// List returns the calling parent's notifications, newest first.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.notifications.ListByParent(auth.ProfileID(r.Context()))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, notifications)
}

// UnreadCount returns how many notifications are unread, for badge display.
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.notifications.CountUnread(auth.ProfileID(r.Context()))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread": count})
}

// MarkRead flags a notification as read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	ok, err := h.notifications.MarkRead(r.PathValue("id"), auth.ProfileID(r.Context()))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	if !ok {
		writeDomainError(w, h.logger, errs.ErrNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
