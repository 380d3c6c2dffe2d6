package store

import (
	"database/sql"
	"fmt"

	"github.com/pluspoint/pluspoint/internal/model"
)

type PurchaseStore struct {
	db *sql.DB
}

func NewPurchaseStore(db *sql.DB) *PurchaseStore {
	return &PurchaseStore{db: db}
}

func scanPurchase(scanner interface{ Scan(...any) error }) (*model.PurchaseRecord, error) {
	var p model.PurchaseRecord
	var cashedIn int

	err := scanner.Scan(&p.ID, &p.ChildID, &p.ItemID, &p.ItemName, &p.Price, &p.ParentID, &cashedIn, &p.CreatedAt)
	if err != nil {
		return nil, err
	}

	p.CashedIn = cashedIn != 0
	return &p, nil
}

const purchaseCols = `id, child_id, item_id, item_name, price, parent_id, cashed_in, created_at`

func (s *PurchaseStore) GetByID(id string) (*model.PurchaseRecord, error) {
	row := s.db.QueryRow(`SELECT `+purchaseCols+` FROM purchases WHERE id = ?`, id)
	p, err := scanPurchase(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get purchase: %w", err)
	}
	return p, nil
}

// ListByChild returns a child's purchases, newest first.
func (s *PurchaseStore) ListByChild(childID string) ([]model.PurchaseRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+purchaseCols+` FROM purchases WHERE child_id = ? ORDER BY created_at DESC, rowid DESC`,
		childID,
	)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	var purchases []model.PurchaseRecord
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		purchases = append(purchases, *p)
	}
	return purchases, rows.Err()
}

// CashIn sets the cashed_in flag on a purchase owned by the given child.
// Returns false if no matching uncashed purchase exists.
func (s *PurchaseStore) CashIn(id, childID string) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE purchases SET cashed_in = 1 WHERE id = ? AND child_id = ? AND cashed_in = 0`,
		id, childID,
	)
	if err != nil {
		return false, fmt.Errorf("cash in purchase: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}
