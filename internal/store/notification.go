package store

import (
	"database/sql"
	"fmt"

	"github.com/pluspoint/pluspoint/internal/model"
)

type NotificationStore struct {
	db *sql.DB
}

func NewNotificationStore(db *sql.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

func scanNotification(scanner interface{ Scan(...any) error }) (*model.Notification, error) {
	var n model.Notification
	var read int

	err := scanner.Scan(&n.ID, &n.ParentID, &n.Type, &n.ChildID, &n.ChildName, &n.ItemName, &n.Price, &read, &n.CreatedAt)
	if err != nil {
		return nil, err
	}

	n.Read = read != 0
	return &n, nil
}

const notificationCols = `id, parent_id, type, child_id, child_name, item_name, price, read, created_at`

// ListByParent returns a parent's notifications, newest first.
func (s *NotificationStore) ListByParent(parentID string) ([]model.Notification, error) {
	rows, err := s.db.Query(
		`SELECT `+notificationCols+` FROM notifications WHERE parent_id = ? ORDER BY created_at DESC, rowid DESC`,
		parentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, *n)
	}
	return notifications, rows.Err()
}

func (s *NotificationStore) CountUnread(parentID string) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM notifications WHERE parent_id = ? AND read = 0`,
		parentID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return n, nil
}

// MarkRead sets the read flag on a notification owned by the given parent.
// Returns false if the notification does not belong to the parent.
func (s *NotificationStore) MarkRead(id, parentID string) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE notifications SET read = 1 WHERE id = ? AND parent_id = ?`,
		id, parentID,
	)
	if err != nil {
		return false, fmt.Errorf("mark notification read: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}
