package repository

import (
	"context"
	"errors"

	"showcase/internal/cache"
	"showcase/internal/models"
	"showcase/internal/query"

	"gorm.io/gorm"
)

// ProjectRepository defines the interface for project data operations
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	Exists(ctx context.Context, id uint) (bool, error)
	GetByID(ctx context.Context, id uint) (*models.Project, error)
	Latest(ctx context.Context, limit int) ([]models.Project, error)
	MostPopular(ctx context.Context, limit int) ([]models.Project, error)
	LikedByUser(ctx context.Context, userID uint) ([]models.Project, error)
	Search(ctx context.Context, opts query.Options) ([]models.Project, *int64, error)
}

type projectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

// Create inserts the project together with its images and its tag and
// collaborator links in one transaction.
func (r *projectRepository) Create(ctx context.Context, project *models.Project) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit("Owner", "Collaborators.*", "Tags.*").Create(project).Error
	})
	if err == nil {
		cache.InvalidateLists(ctx)
	}
	return err
}

func (r *projectRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetByID loads the viewer-independent detail of a project.
func (r *projectRepository) GetByID(ctx context.Context, id uint) (*models.Project, error) {
	var project models.Project
	err := cache.Aside(ctx, cache.ProjectKey(id), &project, cache.ProjectTTL, func() error {
		return r.applyCounters(r.db.WithContext(ctx)).
			Preload("Owner").
			Preload("Collaborators", func(db *gorm.DB) *gorm.DB {
				return db.Order("users.username ASC")
			}).
			Preload("Tags", func(db *gorm.DB) *gorm.DB {
				return db.Order("tags.name ASC")
			}).
			Preload("Images", func(db *gorm.DB) *gorm.DB {
				return db.Order("images.position ASC")
			}).
			First(&project, id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Project", id)
		}
		return nil, err
	}
	return &project, nil
}

func (r *projectRepository) Latest(ctx context.Context, limit int) ([]models.Project, error) {
	var projects []models.Project
	err := cache.Aside(ctx, cache.LatestProjectsKey, &projects, cache.ListTTL, func() error {
		return r.applyCounters(r.db.WithContext(ctx)).
			Preload("Owner").
			Order("projects.created_at DESC").
			Order("projects.id DESC").
			Limit(limit).
			Find(&projects).Error
	})
	return projects, err
}

// MostPopular ranks projects by likes*3 + visits, newest first on ties.
func (r *projectRepository) MostPopular(ctx context.Context, limit int) ([]models.Project, error) {
	var projects []models.Project
	err := cache.Aside(ctx, cache.PopularProjectsKey, &projects, cache.ListTTL, func() error {
		return r.applyCounters(r.db.WithContext(ctx)).
			Preload("Owner").
			Order("(" + query.LikesExpr + " * 3 + " + query.VisitsExpr + ") DESC").
			Order("projects.created_at DESC").
			Order("projects.id DESC").
			Limit(limit).
			Find(&projects).Error
	})
	return projects, err
}

func (r *projectRepository) LikedByUser(ctx context.Context, userID uint) ([]models.Project, error) {
	var projects []models.Project
	err := r.applyCounters(r.db.WithContext(ctx)).
		Preload("Owner").
		Where("EXISTS (SELECT 1 FROM likes WHERE likes.project_id = projects.id AND likes.user_id = ?)", userID).
		Order("projects.created_at DESC").
		Find(&projects).Error
	return projects, err
}

// Search runs the validated query options. The count, when requested, is
// taken over the filtered set before paging.
func (r *projectRepository) Search(ctx context.Context, opts query.Options) ([]models.Project, *int64, error) {
	filtered := func() *gorm.DB {
		return opts.ApplyFilters(r.db.WithContext(ctx).Model(&models.Project{}))
	}

	var total *int64
	if opts.Count {
		var n int64
		if err := filtered().Count(&n).Error; err != nil {
			return nil, nil, err
		}
		total = &n
	}

	var projects []models.Project
	if opts.Top == 0 {
		return projects, total, nil
	}
	err := opts.ApplyPage(opts.ApplyOrder(r.applyCounters(filtered()))).
		Preload("Owner").
		Find(&projects).Error
	if err != nil {
		return nil, nil, err
	}
	return projects, total, nil
}

// applyCounters selects the derived like, visit and flag counts alongside each row.
func (r *projectRepository) applyCounters(db *gorm.DB) *gorm.DB {
	return db.Select("projects.*, " +
		query.LikesExpr + " AS likes, " +
		query.VisitsExpr + " AS visits, " +
		query.FlagsExpr + " AS flags")
}
