// Package models contains data structures for the application's domain models.
package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// User represents a registered Showcase user.
// Usernames are stored lower-case so comparisons are case-insensitive.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;not null" json:"username"`
	Email     string         `gorm:"uniqueIndex;not null" json:"email"`
	Password  string         `gorm:"not null" json:"-"`
	AvatarURL string         `json:"avatarUrl,omitempty"`
	CreatedAt time.Time      `json:"createdOn"`
	UpdatedAt time.Time      `json:"-"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// NormalizeUsername returns the canonical form used for storage and comparison.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Identity is the authenticated caller extracted from a bearer token.
type Identity struct {
	UserID   uint
	Username string
}

// SameUser reports whether username names this identity, ignoring case.
func (i Identity) SameUser(username string) bool {
	return NormalizeUsername(i.Username) == NormalizeUsername(username)
}
