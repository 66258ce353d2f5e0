package repository

import (
	"context"
	"fmt"

	"showcase/internal/cache"
	"showcase/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InteractionRepository stores the toggle interactions (likes and flags).
// Add and Remove report whether the state actually changed, so two
// concurrent toggles of the same kind can never both succeed.
type InteractionRepository interface {
	Exists(ctx context.Context, kind models.InteractionKind, projectID, userID uint) (bool, error)
	Add(ctx context.Context, kind models.InteractionKind, projectID, userID uint) (bool, error)
	Remove(ctx context.Context, kind models.InteractionKind, projectID, userID uint) (bool, error)
}

type interactionRepository struct {
	db *gorm.DB
}

// NewInteractionRepository creates a new interaction repository
func NewInteractionRepository(db *gorm.DB) InteractionRepository {
	return &interactionRepository{db: db}
}

func rowFor(kind models.InteractionKind, projectID, userID uint) (any, error) {
	switch kind {
	case models.InteractionLike:
		return &models.Like{ProjectID: projectID, UserID: userID}, nil
	case models.InteractionFlag:
		return &models.Flag{ProjectID: projectID, UserID: userID}, nil
	default:
		return nil, fmt.Errorf("unknown interaction kind %q", kind)
	}
}

func (r *interactionRepository) Exists(ctx context.Context, kind models.InteractionKind, projectID, userID uint) (bool, error) {
	row, err := rowFor(kind, projectID, userID)
	if err != nil {
		return false, err
	}
	var count int64
	if err := r.db.WithContext(ctx).
		Model(row).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Add inserts the interaction with ON CONFLICT DO NOTHING. It returns false
// when the row already existed.
func (r *interactionRepository) Add(ctx context.Context, kind models.InteractionKind, projectID, userID uint) (bool, error) {
	row, err := rowFor(kind, projectID, userID)
	if err != nil {
		return false, err
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		r.invalidate(ctx, kind, projectID)
	}
	return result.RowsAffected > 0, nil
}

// Remove deletes the interaction. It returns false when there was nothing to delete.
func (r *interactionRepository) Remove(ctx context.Context, kind models.InteractionKind, projectID, userID uint) (bool, error) {
	row, err := rowFor(kind, projectID, userID)
	if err != nil {
		return false, err
	}
	result := r.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(row)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		r.invalidate(ctx, kind, projectID)
	}
	return result.RowsAffected > 0, nil
}

func (r *interactionRepository) invalidate(ctx context.Context, kind models.InteractionKind, projectID uint) {
	if kind == models.InteractionLike {
		cache.InvalidateProject(ctx, projectID)
		return
	}
	cache.Invalidate(ctx, cache.ProjectKey(projectID))
}

// VisitRepository records project views.
type VisitRepository interface {
	Record(ctx context.Context, projectID uint, userID *uint) error
}

type visitRepository struct {
	db *gorm.DB
}

// NewVisitRepository creates a new visit repository
func NewVisitRepository(db *gorm.DB) VisitRepository {
	return &visitRepository{db: db}
}

func (r *visitRepository) Record(ctx context.Context, projectID uint, userID *uint) error {
	err := r.db.WithContext(ctx).Create(&models.Visit{ProjectID: projectID, UserID: userID}).Error
	if err == nil {
		cache.InvalidateProject(ctx, projectID)
	}
	return err
}
