// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientBalance indicates a debit larger than the current balance.
	// The debit is denied and nothing is mutated.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrConcurrentModification indicates the balance transaction lost the race
	// after the retry budget was exhausted. The caller should re-fetch and retry.
	ErrConcurrentModification = errors.New("concurrent modification")

	// ErrDuplicateReference indicates the idempotency guard tripped: a ledger
	// entry with the same reference already exists. Safe no-op, nothing mutated.
	ErrDuplicateReference = errors.New("duplicate reference")

	// ErrUnauthorized indicates the actor attempted an operation not permitted
	// to their role.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidTransition indicates a task status change outside the allowed
	// lifecycle edges.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., email taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidArgument indicates a malformed or missing request field.
	ErrInvalidArgument = errors.New("invalid argument")
)
