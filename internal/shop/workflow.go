// Package shop implements the purchase flow: a child spends points on one of
// their parent's shop items. The price is read fresh at purchase time, the
// debit goes through the ledger, and the purchase record plus the parent
// notification commit in the same transaction as the balance change.
package shop

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pluspoint/pluspoint/internal/errs"
	"github.com/pluspoint/pluspoint/internal/ledger"
	"github.com/pluspoint/pluspoint/internal/model"
	"github.com/pluspoint/pluspoint/internal/store"
)

type Workflow struct {
	profiles  *store.ProfileStore
	items     *store.ShopStore
	purchases *store.PurchaseStore
	ledger    *ledger.Service
	logger    *slog.Logger
}

func NewWorkflow(profiles *store.ProfileStore, items *store.ShopStore, purchases *store.PurchaseStore, ledger *ledger.Service, logger *slog.Logger) *Workflow {
	return &Workflow{profiles: profiles, items: items, purchases: purchases, ledger: ledger, logger: logger}
}

// Purchase debits the item's current price from the child and records the
// purchase and a notification for the owning parent. On
// errs.ErrInsufficientBalance nothing is written.
func (w *Workflow) Purchase(ctx context.Context, childID, itemID string) (*model.PurchaseRecord, error) {
	child, err := w.profiles.GetByID(childID)
	if err != nil {
		return nil, err
	}
	if child == nil || !child.IsChild() {
		return nil, fmt.Errorf("child profile %s: %w", childID, errs.ErrNotFound)
	}

	// Fresh read: the price at commit time, not the price the UI displayed.
	item, err := w.items.GetByID(itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("shop item %s: %w", itemID, errs.ErrNotFound)
	}
	if child.ParentID == nil || item.OwnerParentID != *child.ParentID {
		return nil, errs.ErrUnauthorized
	}

	record := &model.PurchaseRecord{
		ID:        uuid.NewString(),
		ChildID:   childID,
		ItemID:    item.ID,
		ItemName:  item.Name,
		Price:     item.Price,
		ParentID:  item.OwnerParentID,
		CreatedAt: time.Now().UTC(),
	}

	_, err = w.ledger.Debit(ctx, childID, item.Price, record.ID,
		recordEffect(record), notifyEffect(record, child.DisplayName))
	if err != nil {
		return nil, err
	}

	w.logger.Info("purchase recorded",
		"child_id", childID, "item_id", item.ID, "price", item.Price, "purchase_id", record.ID)
	return record, nil
}

// CashIn marks a purchase as cashed in. Settable only by the purchasing
// child; purely informational, the ledger is untouched.
func (w *Workflow) CashIn(ctx context.Context, childID, purchaseID string) (*model.PurchaseRecord, error) {
	p, err := w.purchases.GetByID(purchaseID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errs.ErrNotFound
	}
	if p.ChildID != childID {
		return nil, errs.ErrUnauthorized
	}
	if p.CashedIn {
		return p, nil
	}

	if _, err := w.purchases.CashIn(purchaseID, childID); err != nil {
		return nil, err
	}
	return w.purchases.GetByID(purchaseID)
}

func recordEffect(r *model.PurchaseRecord) ledger.Effect {
	return func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO purchases (id, child_id, item_id, item_name, price, parent_id, cashed_in, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, 0, ?)`,
			r.ID, r.ChildID, r.ItemID, r.ItemName, r.Price, r.ParentID, r.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert purchase: %w", err)
		}
		return nil
	}
}

func notifyEffect(r *model.PurchaseRecord, childName string) ledger.Effect {
	return func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO notifications (id, parent_id, type, child_id, child_name, item_name, price, read, created_at)
			 VALUES (?, ?, 'purchase', ?, ?, ?, ?, 0, ?)`,
			uuid.NewString(), r.ParentID, r.ChildID, childName, r.ItemName, r.Price, r.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert notification: %w", err)
		}
		return nil
	}
}
