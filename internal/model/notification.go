package model

import "time"

// Notification is created for a parent as a side effect of a purchase debit.
// Only the recipient may set the Read flag.
type Notification struct {
	ID        string    `json:"id"`
	ParentID  string    `json:"parent_id"`
	Type      string    `json:"type"`
	ChildID   string    `json:"child_id"`
	ChildName string    `json:"child_name"`
	ItemName  string    `json:"item_name"`
	Price     int       `json:"price"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
