package repository

import (
	"context"
	"strings"

	"showcase/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TagRepository defines persistence operations for tags.
type TagRepository interface {
	FindOrCreate(ctx context.Context, names []string) ([]models.Tag, error)
}

type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository returns a new TagRepository implementation.
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

// FindOrCreate returns a tag for every name, inserting the missing ones.
// Concurrent creators of the same tag both end up with the single stored row.
func (r *tagRepository) FindOrCreate(ctx context.Context, names []string) ([]models.Tag, error) {
	if len(names) == 0 {
		return nil, nil
	}

	rows := make([]models.Tag, 0, len(names))
	lowered := make([]string, 0, len(names))
	for _, n := range names {
		name := strings.ToLower(strings.TrimSpace(n))
		rows = append(rows, models.Tag{Name: name})
		lowered = append(lowered, name)
	}

	var tags []models.Tag
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(&rows).Error; err != nil {
			return err
		}
		return tx.Where("name IN ?", lowered).Order("name ASC").Find(&tags).Error
	})
	if err != nil {
		return nil, err
	}
	return tags, nil
}
