package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pluspoint/pluspoint/internal/auth"
	"github.com/pluspoint/pluspoint/internal/errs"
	"github.com/pluspoint/pluspoint/internal/push"
	"github.com/pluspoint/pluspoint/internal/store"
)

type PushHandler struct {
	subs    *store.PushStore
	service *push.Service
	logger  *slog.Logger
}

func NewPushHandler(subs *store.PushStore, service *push.Service, logger *slog.Logger) *PushHandler {
	return &PushHandler{subs: subs, service: service, logger: logger}
}

// VAPIDKey returns the public key browsers need to create a subscription.
func (h *PushHandler) VAPIDKey(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"public_key": h.service.VAPIDPublicKey()})
}

type subscribeRequest struct {
	Endpoint   string `json:"endpoint"`
	P256dhKey  string `json:"p256dh_key"`
	AuthKey    string `json:"auth_key"`
	DeviceName string `json:"device_name"`
}

// Subscribe registers a browser push endpoint for the calling parent.
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.Endpoint == "" || req.P256dhKey == "" || req.AuthKey == "" {
		writeDomainError(w, h.logger, fmt.Errorf("%w: endpoint, p256dh_key, and auth_key are required", errs.ErrInvalidArgument))
		return
	}

	sub, err := h.subs.CreateSubscription(auth.ProfileID(r.Context()), req.Endpoint, req.P256dhKey, req.AuthKey, req.DeviceName)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

// List returns the calling parent's registered devices.
func (h *PushHandler) List(w http.ResponseWriter, r *http.Request) {
	subs, err := h.subs.ListByParent(auth.ProfileID(r.Context()))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

// Unsubscribe removes one of the calling parent's devices.
func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	ok, err := h.subs.Delete(r.PathValue("id"), auth.ProfileID(r.Context()))
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
