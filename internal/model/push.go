package model

import "time"

// PushSubscription is a Web Push endpoint registered by one of a parent's
// devices.
type PushSubscription struct {
	ID         string    `json:"id"`
	ParentID   string    `json:"parent_id"`
	Endpoint   string    `json:"endpoint"`
	P256dhKey  string    `json:"-"`
	AuthKey    string    `json:"-"`
	DeviceName string    `json:"device_name"`
	CreatedAt  time.Time `json:"created_at"`
}
