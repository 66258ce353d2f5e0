package models

import "time"

// InteractionKind identifies a toggle interaction between a user and a project.
type InteractionKind string

const (
	InteractionLike InteractionKind = "like"
	InteractionFlag InteractionKind = "flag"
)

// Like records that a user liked a project.
// The combination of ProjectID and UserID must be unique.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"not null;uniqueIndex:idx_like_project_user" json:"projectId"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_like_project_user;index" json:"userId"`
	CreatedAt time.Time `json:"createdOn"`
}

// Flag records that a user flagged a project as inappropriate.
// The combination of ProjectID and UserID must be unique.
type Flag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"not null;uniqueIndex:idx_flag_project_user" json:"projectId"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_flag_project_user" json:"userId"`
	CreatedAt time.Time `json:"createdOn"`
}

// Visit records a single view of a project. Visits are not deduplicated.
type Visit struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"not null;index" json:"projectId"`
	UserID    *uint     `gorm:"index" json:"userId,omitempty"`
	CreatedAt time.Time `json:"createdOn"`
}
