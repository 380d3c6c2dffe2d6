package model

import "time"

// ShopItem is a purchasable reward curated by a parent for their linked
// children.
type ShopItem struct {
	ID            string    `json:"id"`
	OwnerParentID string    `json:"owner_parent_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Price         int       `json:"price"`
	ImageURL      string    `json:"image_url"`
	CreatedAt     time.Time `json:"created_at"`
}

// PurchaseRecord snapshots the item name and price at the moment of purchase.
// Immutable once created except for the CashedIn flag, settable only by the
// purchasing child.
type PurchaseRecord struct {
	ID        string    `json:"id"`
	ChildID   string    `json:"child_id"`
	ItemID    string    `json:"item_id"`
	ItemName  string    `json:"item_name"`
	Price     int       `json:"price"`
	ParentID  string    `json:"parent_id"`
	CashedIn  bool      `json:"cashed_in"`
	CreatedAt time.Time `json:"created_at"`
}
