package model

import "time"

// User represents a member of the directory.
// This is a pure domain model with no database-specific dependencies or tags.
// ID, CreatedAt and UpdatedAt are assigned by the record store; AvatarPath is
// the object-storage key of the profile image and is managed by the avatar
// flow, not by callers.
type User struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	AvatarPath  string    `json:"avatar_path,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
