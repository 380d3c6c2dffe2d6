package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/pluspoint/pluspoint/internal/model"
)

type ShopStore struct {
	db *sql.DB
}

func NewShopStore(db *sql.DB) *ShopStore {
	return &ShopStore{db: db}
}

func scanShopItem(scanner interface{ Scan(...any) error }) (*model.ShopItem, error) {
	var it model.ShopItem
	err := scanner.Scan(&it.ID, &it.OwnerParentID, &it.Name, &it.Description, &it.Price, &it.ImageURL, &it.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

const shopItemCols = `id, owner_parent_id, name, description, price, image_url, created_at`

func (s *ShopStore) Create(ownerParentID, name, description string, price int, imageURL string) (*model.ShopItem, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO shop_items (id, owner_parent_id, name, description, price, image_url) VALUES (?, ?, ?, ?, ?, ?)`,
		id, ownerParentID, name, description, price, imageURL,
	)
	if err != nil {
		return nil, fmt.Errorf("insert shop item: %w", err)
	}
	return s.GetByID(id)
}

func (s *ShopStore) GetByID(id string) (*model.ShopItem, error) {
	row := s.db.QueryRow(`SELECT `+shopItemCols+` FROM shop_items WHERE id = ?`, id)
	it, err := scanShopItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get shop item: %w", err)
	}
	return it, nil
}

// ListByOwner returns a parent's shop items, ordered by name.
func (s *ShopStore) ListByOwner(ownerParentID string) ([]model.ShopItem, error) {
	rows, err := s.db.Query(
		`SELECT `+shopItemCols+` FROM shop_items WHERE owner_parent_id = ? ORDER BY name ASC`,
		ownerParentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list shop items: %w", err)
	}
	defer rows.Close()

	var items []model.ShopItem
	for rows.Next() {
		it, err := scanShopItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shop item: %w", err)
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

func (s *ShopStore) Update(id, name, description string, price int, imageURL string) (*model.ShopItem, error) {
	_, err := s.db.Exec(
		`UPDATE shop_items SET name = ?, description = ?, price = ?, image_url = ? WHERE id = ?`,
		name, description, price, imageURL, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update shop item: %w", err)
	}
	return s.GetByID(id)
}

func (s *ShopStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM shop_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete shop item: %w", err)
	}
	return nil
}
