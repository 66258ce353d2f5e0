// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"

	"showcase/internal/database"
	"showcase/internal/models"

	"gorm.io/gorm"
)

// ErrDuplicate is returned when a unique column already holds the value.
var ErrDuplicate = errors.New("duplicate record")

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByUsernames(ctx context.Context, usernames []string) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	name := models.NormalizeUsername(username)
	if err := r.db.WithContext(ctx).Where("username = ?", name).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", name)
		}
		return nil, err
	}
	return &user, nil
}

// GetByUsernames returns the users matching the given names. Names that do
// not exist are simply absent from the result.
func (r *userRepository) GetByUsernames(ctx context.Context, usernames []string) ([]models.User, error) {
	if len(usernames) == 0 {
		return nil, nil
	}
	normalized := make([]string, 0, len(usernames))
	for _, u := range usernames {
		normalized = append(normalized, models.NormalizeUsername(u))
	}
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("username IN ?", normalized).
		Order("username ASC").
		Find(&users).Error
	return users, err
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	user.Username = models.NormalizeUsername(user.Username)
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}
