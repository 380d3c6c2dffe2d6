package store

import (
	"database/sql"
	"testing"

	"github.com/pluspoint/pluspoint/internal/database"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestProfileCreateParentAndChild(t *testing.T) {
	ps := NewProfileStore(setupTestDB(t))

	parent, err := ps.CreateParent("mom@example.com", "Mom", "hash")
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}
	if !parent.IsParent() {
		t.Errorf("role = %q, want parent", parent.Role)
	}
	if parent.ParentID != nil {
		t.Error("parent should have no parent link")
	}
	if parent.PointBalance != 0 {
		t.Errorf("point_balance = %d, want 0", parent.PointBalance)
	}

	child, err := ps.CreateChild(parent.ID, "kid@example.com", "Kid", "hash")
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	if !child.IsChild() {
		t.Errorf("role = %q, want child", child.Role)
	}
	if child.ParentID == nil || *child.ParentID != parent.ID {
		t.Error("child not linked to parent")
	}
	if child.PointBalance != 0 {
		t.Errorf("point_balance = %d, want 0", child.PointBalance)
	}
	if child.BalanceVersion != 0 {
		t.Errorf("balance_version = %d, want 0", child.BalanceVersion)
	}
}

func TestProfileChildRequiresParent(t *testing.T) {
	db := setupTestDB(t)

	// The schema rejects a child with no parent link and a parent with one.
	_, err := db.Exec(
		`INSERT INTO profiles (id, role, display_name, email, password_hash) VALUES ('x', 'child', 'Orphan', 'o@example.com', 'h')`,
	)
	if err == nil {
		t.Error("expected constraint violation for child without parent")
	}
}

func TestProfileDuplicateEmail(t *testing.T) {
	ps := NewProfileStore(setupTestDB(t))

	if _, err := ps.CreateParent("mom@example.com", "Mom", "hash"); err != nil {
		t.Fatalf("create parent: %v", err)
	}
	if _, err := ps.CreateParent("mom@example.com", "Other", "hash"); err == nil {
		t.Error("expected unique constraint violation for duplicate email")
	}
}

func TestProfileGetByEmailNotFound(t *testing.T) {
	ps := NewProfileStore(setupTestDB(t))

	got, err := ps.GetByEmail("nobody@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got != nil {
		t.Error("expected nil for unknown email")
	}
}

func TestProfileListChildren(t *testing.T) {
	ps := NewProfileStore(setupTestDB(t))

	parent, _ := ps.CreateParent("mom@example.com", "Mom", "hash")
	other, _ := ps.CreateParent("dad@example.com", "Dad", "hash")
	ps.CreateChild(parent.ID, "zoe@example.com", "Zoe", "hash")
	ps.CreateChild(parent.ID, "adam@example.com", "Adam", "hash")
	ps.CreateChild(other.ID, "ben@example.com", "Ben", "hash")

	children, err := ps.ListChildren(parent.ID)
	if err != nil {
		t.Fatalf("list children: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(children))
	}
	// Ordered by display name
	if children[0].DisplayName != "Adam" || children[1].DisplayName != "Zoe" {
		t.Errorf("unexpected order: %q, %q", children[0].DisplayName, children[1].DisplayName)
	}
}

func TestProfileBalanceNeverNegative(t *testing.T) {
	db := setupTestDB(t)
	ps := NewProfileStore(db)

	parent, _ := ps.CreateParent("mom@example.com", "Mom", "hash")
	child, _ := ps.CreateChild(parent.ID, "kid@example.com", "Kid", "hash")

	_, err := db.Exec(`UPDATE profiles SET point_balance = -1 WHERE id = ?`, child.ID)
	if err == nil {
		t.Error("expected check constraint violation for negative balance")
	}
}
