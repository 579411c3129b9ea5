package domain

import "time"

// DefaultAvatar is served until a user uploads their own picture.
const DefaultAvatar = "/upload/avatars/default-avatar.png"

type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Avatar       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
