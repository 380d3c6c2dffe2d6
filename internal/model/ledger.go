package model

import "time"

type LedgerReason string

const (
	ReasonTaskAward     LedgerReason = "task_award"
	ReasonPurchaseDebit LedgerReason = "purchase_debit"
)

// LedgerEntry is one balance-changing event for a child. The log is
// append-only: entries are never updated or deleted, and replaying all deltas
// from zero reproduces the child's current point balance.
type LedgerEntry struct {
	ID           string       `json:"id"`
	ChildID      string       `json:"child_id"`
	Delta        int          `json:"delta"`
	Reason       LedgerReason `json:"reason"`
	ReferenceID  string       `json:"reference_id"`
	BalanceAfter int          `json:"balance_after"`
	CreatedAt    time.Time    `json:"created_at"`
}
