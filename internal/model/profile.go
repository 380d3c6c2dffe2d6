package model

import "time"

type Role string

const (
	RoleParent Role = "parent"
	RoleChild  Role = "child"
)

// Profile is an authenticated account. Role is set once at creation and never
// changes. ParentID is present iff the role is child. PointBalance is a cached
// projection of the ledger and is only ever written by the ledger service.
type Profile struct {
	ID             string    `json:"id"`
	Role           Role      `json:"role"`
	ParentID       *string   `json:"parent_id,omitempty"`
	DisplayName    string    `json:"display_name"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	PointBalance   int       `json:"point_balance"`
	BalanceVersion int64     `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

func (p *Profile) IsChild() bool {
	return p.Role == RoleChild
}

func (p *Profile) IsParent() bool {
	return p.Role == RoleParent
}
