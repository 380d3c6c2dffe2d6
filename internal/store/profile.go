package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/pluspoint/pluspoint/internal/model"
)

type ProfileStore struct {
	db *sql.DB
}

func NewProfileStore(db *sql.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

func scanProfile(scanner interface{ Scan(...any) error }) (*model.Profile, error) {
	var p model.Profile
	var parentID sql.NullString

	err := scanner.Scan(&p.ID, &p.Role, &parentID, &p.DisplayName, &p.Email,
		&p.PasswordHash, &p.PointBalance, &p.BalanceVersion, &p.CreatedAt)
	if err != nil {
		return nil, err
	}

	if parentID.Valid {
		p.ParentID = &parentID.String
	}
	return &p, nil
}

const profileCols = `id, role, parent_id, display_name, email, password_hash, point_balance, balance_version, created_at`

// CreateParent creates a parent profile. Parents start with no balance and no
// parent link.
func (s *ProfileStore) CreateParent(email, displayName, passwordHash string) (*model.Profile, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO profiles (id, role, display_name, email, password_hash) VALUES (?, 'parent', ?, ?, ?)`,
		id, displayName, email, passwordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("insert parent profile: %w", err)
	}
	return s.GetByID(id)
}

// CreateChild creates a child profile linked to its parent, with a zero point
// balance.
func (s *ProfileStore) CreateChild(parentID, email, displayName, passwordHash string) (*model.Profile, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO profiles (id, role, parent_id, display_name, email, password_hash) VALUES (?, 'child', ?, ?, ?, ?)`,
		id, parentID, displayName, email, passwordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("insert child profile: %w", err)
	}
	return s.GetByID(id)
}

func (s *ProfileStore) GetByID(id string) (*model.Profile, error) {
	row := s.db.QueryRow(`SELECT `+profileCols+` FROM profiles WHERE id = ?`, id)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (s *ProfileStore) GetByEmail(email string) (*model.Profile, error) {
	row := s.db.QueryRow(`SELECT `+profileCols+` FROM profiles WHERE email = ?`, email)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile by email: %w", err)
	}
	return p, nil
}

// ListChildren returns the child profiles linked to a parent, ordered by
// display name.
func (s *ProfileStore) ListChildren(parentID string) ([]model.Profile, error) {
	rows, err := s.db.Query(
		`SELECT `+profileCols+` FROM profiles WHERE parent_id = ? ORDER BY display_name ASC`,
		parentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	defer rows.Close()

	var children []model.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		children = append(children, *p)
	}
	return children, rows.Err()
}

// UpdateDisplayName changes a profile's display name. Role, parent link, and
// balance are not updatable here.
func (s *ProfileStore) UpdateDisplayName(id, displayName string) (*model.Profile, error) {
	_, err := s.db.Exec(`UPDATE profiles SET display_name = ? WHERE id = ?`, displayName, id)
	if err != nil {
		return nil, fmt.Errorf("update display name: %w", err)
	}
	return s.GetByID(id)
}
