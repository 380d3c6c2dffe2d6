// Package ledger is the single authority for changes to a child's point
// balance. Every award and debit appends an immutable LedgerEntry and moves
// the cached balance on the profile in one SQL transaction, guarded by an
// optimistic version check so that concurrent sessions can never double-spend
// or double-award.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/pluspoint/pluspoint/internal/database"
	"github.com/pluspoint/pluspoint/internal/errs"
	"github.com/pluspoint/pluspoint/internal/model"
)

const (
	// casRetries bounds the internal retry budget for lost version races.
	// Conflicts beyond this surface as ErrConcurrentModification.
	casRetries    = 3
	casBackoff    = 5 * time.Millisecond
	ledgerCols    = `id, child_id, delta, reason, reference_id, balance_after, created_at`
	ledgerInsert  = `INSERT INTO ledger_entries (` + ledgerCols + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	balanceSelect = `SELECT point_balance, balance_version FROM profiles WHERE id = ? AND role = 'child'`
	balanceUpdate = `UPDATE profiles SET point_balance = ?, balance_version = balance_version + 1 WHERE id = ? AND balance_version = ?`
)

// Effect runs inside the same transaction as a balance mutation. Workflows use
// effects to keep their side writes (task verification, purchase records,
// notifications) atomic with the ledger append.
type Effect func(tx *sql.Tx) error

type Service struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewService(db *sql.DB, logger *slog.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// Award credits amount points to a child for a verified task. Idempotent per
// referenceID: a second award with the same reference returns
// errs.ErrDuplicateReference and mutates nothing.
func (s *Service) Award(ctx context.Context, childID string, amount int, referenceID string, effects ...Effect) (*model.LedgerEntry, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: award amount must be positive, got %d", errs.ErrInvalidArgument, amount)
	}
	return s.apply(ctx, childID, amount, model.ReasonTaskAward, referenceID, effects)
}

// Debit deducts amount points from a child for a purchase. The balance is
// re-read at commit time; a balance below amount fails with
// errs.ErrInsufficientBalance and performs no mutation.
func (s *Service) Debit(ctx context.Context, childID string, amount int, referenceID string, effects ...Effect) (*model.LedgerEntry, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: debit amount must be positive, got %d", errs.ErrInvalidArgument, amount)
	}
	return s.apply(ctx, childID, -amount, model.ReasonPurchaseDebit, referenceID, effects)
}

// apply runs the compare-and-swap transaction with a bounded retry budget.
// Lost version races and driver busy errors are retried; every other failure
// is surfaced to the caller untouched. An exhausted budget always reports
// ErrConcurrentModification.
func (s *Service) apply(ctx context.Context, childID string, delta int, reason model.LedgerReason, referenceID string, effects []Effect) (*model.LedgerEntry, error) {
	var entry *model.LedgerEntry

	backoff := retry.WithMaxRetries(casRetries, retry.NewExponential(casBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		e, err := s.tryApply(ctx, childID, delta, reason, referenceID, effects)
		if errors.Is(err, errs.ErrConcurrentModification) || database.IsBusy(err) {
			s.logger.Debug("balance transaction lost the race, retrying",
				"child_id", childID, "reason", string(reason), "reference_id", referenceID)
			return retry.RetryableError(err)
		}
		if err != nil {
			return err
		}
		entry = e
		return nil
	})
	if database.IsBusy(err) {
		return nil, fmt.Errorf("%w: %v", errs.ErrConcurrentModification, err)
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Service) tryApply(ctx context.Context, childID string, delta int, reason model.LedgerReason, referenceID string, effects []Effect) (*model.LedgerEntry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin ledger tx: %w", err)
	}
	defer tx.Rollback()

	// Idempotency guard: one entry per (child, reason, reference).
	var existing string
	err = tx.QueryRow(
		`SELECT id FROM ledger_entries WHERE child_id = ? AND reason = ? AND reference_id = ?`,
		childID, string(reason), referenceID,
	).Scan(&existing)
	if err == nil {
		return nil, errs.ErrDuplicateReference
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("check ledger reference: %w", err)
	}

	var balance int
	var version int64
	err = tx.QueryRow(balanceSelect, childID).Scan(&balance, &version)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("child profile %s: %w", childID, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read balance: %w", err)
	}

	newBalance := balance + delta
	if newBalance < 0 {
		return nil, errs.ErrInsufficientBalance
	}

	result, err := tx.Exec(balanceUpdate, newBalance, childID, version)
	if err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, errs.ErrConcurrentModification
	}

	entry := &model.LedgerEntry{
		ID:           uuid.NewString(),
		ChildID:      childID,
		Delta:        delta,
		Reason:       reason,
		ReferenceID:  referenceID,
		BalanceAfter: newBalance,
		CreatedAt:    time.Now().UTC(),
	}
	if _, err := tx.Exec(ledgerInsert, entry.ID, entry.ChildID, entry.Delta,
		string(entry.Reason), entry.ReferenceID, entry.BalanceAfter, entry.CreatedAt); err != nil {
		return nil, fmt.Errorf("append ledger entry: %w", err)
	}

	for _, effect := range effects {
		if err := effect(tx); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit ledger tx: %w", err)
	}

	s.logger.Info("ledger entry applied",
		"child_id", childID, "delta", delta, "reason", string(reason),
		"reference_id", referenceID, "balance_after", newBalance)
	return entry, nil
}

// History returns a child's full ledger in ascending timestamp order.
// Replaying the deltas from zero reproduces the current point balance.
func (s *Service) History(ctx context.Context, childID string) ([]model.LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+ledgerCols+` FROM ledger_entries WHERE child_id = ? ORDER BY created_at ASC, rowid ASC`,
		childID,
	)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []model.LedgerEntry
	for rows.Next() {
		var e model.LedgerEntry
		var reason string
		if err := rows.Scan(&e.ID, &e.ChildID, &e.Delta, &reason, &e.ReferenceID, &e.BalanceAfter, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		e.Reason = model.LedgerReason(reason)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Balance reads the cached balance projection for a child.
func (s *Service) Balance(ctx context.Context, childID string) (int, error) {
	var balance int
	err := s.db.QueryRowContext(ctx,
		`SELECT point_balance FROM profiles WHERE id = ? AND role = 'child'`, childID,
	).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("child profile %s: %w", childID, errs.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return balance, nil
}
