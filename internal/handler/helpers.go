package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/pluspoint/pluspoint/internal/errs"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeDomainError maps domain sentinels to HTTP statuses with a
// human-readable message. Anything unrecognized is treated as internal.
func writeDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, errs.ErrUnauthorized):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "not allowed"})
	case errors.Is(err, errs.ErrInsufficientBalance):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "not enough points"})
	case errors.Is(err, errs.ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "task is not in the right state"})
	case errors.Is(err, errs.ErrDuplicateReference):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "already applied"})
	case errors.Is(err, errs.ErrConcurrentModification):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "balance changed concurrently, please retry"})
	case errors.Is(err, errs.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "already exists"})
	case errors.Is(err, errs.ErrInvalidArgument):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		logger.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
