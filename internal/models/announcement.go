package models

import "time"

// Announcement is the single banner message shown to members.
type Announcement struct {
	Message   string    `db:"message" json:"message"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
