package models

import (
	"time"

	"gorm.io/gorm"
)

// Project is a showcased piece of work. Likes, Visits and Flags are computed
// at query time and are never persisted on the row.
type Project struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Title         string         `gorm:"size:100;not null;index" json:"title"`
	Description   string         `gorm:"type:text;not null" json:"description"`
	RepositoryURL string         `json:"repositoryUrl"`
	LiveDemoURL   string         `json:"liveDemoUrl"`
	MainImage     string         `json:"mainImage"`
	OwnerID       uint           `gorm:"not null;index" json:"ownerId"`
	Owner         User           `gorm:"foreignKey:OwnerID" json:"owner"`
	Collaborators []User         `gorm:"many2many:project_collaborators;" json:"collaborators"`
	Tags          []Tag          `gorm:"many2many:project_tags;" json:"tags"`
	Images        []Image        `gorm:"foreignKey:ProjectID" json:"images"`
	Likes         int64          `gorm:"->;-:migration" json:"likes"`
	Visits        int64          `gorm:"->;-:migration" json:"visits"`
	Flags         int64          `gorm:"->;-:migration" json:"flags"`
	CreatedAt     time.Time      `gorm:"index" json:"createdOn"`
	UpdatedAt     time.Time      `json:"-"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// Tag is a free-form label, stored lower-case and unique by name.
type Tag struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:50;uniqueIndex;not null" json:"name"`
}

// Image is a processed project image. URLPath is the storage key without
// extension; the stored files are URLPath+".jpg" and URLPath+"_thumb.webp".
type Image struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ProjectID    uint      `gorm:"not null;index" json:"projectId"`
	OriginalName string    `gorm:"not null" json:"originalName"`
	Extension    string    `gorm:"size:10;not null" json:"extension"`
	URLPath      string    `gorm:"not null;uniqueIndex" json:"urlPath"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	Position     int       `gorm:"not null;default:0" json:"position"`
	IsMain       bool      `gorm:"not null;default:false" json:"isMain"`
	CreatedAt    time.Time `json:"createdOn"`
}
