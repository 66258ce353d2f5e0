package service

import (
	"context"
	"fmt"
	"log/slog"

	"showcase/internal/middleware"
	"showcase/internal/models"
	"showcase/internal/observability"
	"showcase/internal/query"
	"showcase/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// HomepageListSize is the number of projects returned by the latest and popular lists.
const HomepageListSize = 6

type ProjectService struct {
	projects     repository.ProjectRepository
	interactions repository.InteractionRepository
	users        *UserService
	tags         *TagService
	images       *ImageService
}

func NewProjectService(
	projects repository.ProjectRepository,
	interactions repository.InteractionRepository,
	users *UserService,
	tags *TagService,
	images *ImageService,
) *ProjectService {
	return &ProjectService{
		projects:     projects,
		interactions: interactions,
		users:        users,
		tags:         tags,
		images:       images,
	}
}

func (s *ProjectService) Latest(ctx context.Context) ([]models.ProjectSimpleResponse, error) {
	projects, err := s.projects.Latest(ctx, HomepageListSize)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return s.toSimpleList(projects), nil
}

func (s *ProjectService) Popular(ctx context.Context) ([]models.ProjectSimpleResponse, error) {
	projects, err := s.projects.MostPopular(ctx, HomepageListSize)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return s.toSimpleList(projects), nil
}

// ByID returns the project detail. IsLiked and IsFlagged are resolved for
// viewer and stay false when viewer is nil.
func (s *ProjectService) ByID(ctx context.Context, id uint, viewer *models.Identity) (*models.ProjectResponse, error) {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		if models.ErrorCode(err) != "" {
			return nil, err
		}
		return nil, models.NewInternalError(err)
	}

	resp := s.toDetail(project)
	if viewer == nil {
		return resp, nil
	}

	if resp.IsLiked, err = s.interactions.Exists(ctx, models.InteractionLike, id, viewer.UserID); err != nil {
		return nil, models.NewInternalError(err)
	}
	if resp.IsFlagged, err = s.interactions.Exists(ctx, models.InteractionFlag, id, viewer.UserID); err != nil {
		return nil, models.NewInternalError(err)
	}
	return resp, nil
}

// LikedByUser lists the projects liked by username. Only the user themself
// may see the list.
func (s *ProjectService) LikedByUser(ctx context.Context, caller models.Identity, username string) ([]models.ProjectSimpleResponse, error) {
	if !caller.SameUser(username) {
		return nil, models.NewRuleViolation("You are not authorized to view this user's liked projects.")
	}
	projects, err := s.projects.LikedByUser(ctx, caller.UserID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return s.toSimpleList(projects), nil
}

// Search runs the bounded query and shapes the page for the response.
func (s *ProjectService) Search(ctx context.Context, opts query.Options) (page *models.PagedResult[any], err error) {
	ctx, span := observability.StartSpan(ctx, "ProjectService.Search",
		attribute.Int("query.top", opts.Top),
		attribute.Int("query.skip", opts.Skip),
		attribute.Int("query.filters", len(opts.Filters)),
	)
	defer func() { span.Finish(err) }()

	projects, count, err := s.projects.Search(ctx, opts)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	items, err := query.Shape(s.toSimpleList(projects), opts.Select)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &models.PagedResult[any]{Items: items, Count: count}, nil
}

// Create resolves collaborators and tags, processes and stores the images,
// then inserts the project. Stored images are removed again when the insert fails.
func (s *ProjectService) Create(ctx context.Context, owner models.Identity, req models.ProjectRequest) (*models.PostProjectResponse, error) {
	ctx, span := observability.StartSpan(ctx, "ProjectService.Create",
		attribute.Int("images.count", len(req.Images)),
	)
	resp, err := s.create(ctx, owner, req)
	span.Finish(err)
	if err != nil {
		return nil, err
	}
	observability.ProjectsCreated.Inc()
	return resp, nil
}

func (s *ProjectService) create(ctx context.Context, owner models.Identity, req models.ProjectRequest) (*models.PostProjectResponse, error) {
	raws, mainIndex, err := decodeImages(req)
	if err != nil {
		return nil, err
	}

	collaborators, err := s.users.CollaboratorsFromCommaSeparatedValues(ctx, req.Collaborators)
	if err != nil {
		return nil, passValidation(err, "resolve collaborators")
	}
	collaborators = withoutUser(collaborators, owner.UserID)

	tags, err := s.tags.TagsFromCommaSeparatedValues(ctx, req.Tags)
	if err != nil {
		return nil, passValidation(err, "resolve tags")
	}

	processed, err := s.images.Process(ctx, raws)
	if err != nil {
		return nil, passValidation(err, "process images")
	}

	if err := s.images.Persist(ctx, processed); err != nil {
		return nil, models.NewDependencyError("store images", err)
	}

	project := &models.Project{
		Title:         req.Title,
		Description:   req.Description,
		RepositoryURL: req.RepositoryURL,
		LiveDemoURL:   req.LiveDemoURL,
		OwnerID:       owner.UserID,
		MainImage:     processed[mainIndex].URLPath,
		Collaborators: collaborators,
		Tags:          tags,
		Images:        make([]models.Image, 0, len(processed)),
	}
	for i, img := range processed {
		project.Images = append(project.Images, models.Image{
			OriginalName: img.OriginalName,
			Extension:    img.Extension,
			URLPath:      img.URLPath,
			Width:        img.Width,
			Height:       img.Height,
			Position:     i,
			IsMain:       i == mainIndex,
		})
	}

	if err := s.projects.Create(ctx, project); err != nil {
		if cleanupErr := s.images.Remove(context.WithoutCancel(ctx), processed); cleanupErr != nil {
			middleware.Logger.ErrorContext(ctx, "failed to remove images of rejected project",
				slog.String("error", cleanupErr.Error()))
		}
		return nil, models.NewDependencyError("create project", err)
	}

	middleware.Logger.InfoContext(ctx, "project created",
		slog.Uint64("project_id", uint64(project.ID)),
		slog.Int("images", len(processed)),
	)

	return &models.PostProjectResponse{
		ID:            project.ID,
		Title:         project.Title,
		MainImage:     s.images.MasterURL(project.MainImage),
		Collaborators: usernames(collaborators),
		Tags:          tagNames(tags),
	}, nil
}

// decodeImages decodes the base64 payloads and locates the main image.
func decodeImages(req models.ProjectRequest) ([]models.RawImage, int, error) {
	raws := make([]models.RawImage, 0, len(req.Images))
	mainIndex := -1
	seen := make(map[string]bool, len(req.Images))
	for i, f := range req.Images {
		if seen[f.OriginalName] {
			return nil, 0, models.NewValidationError(fmt.Sprintf("Duplicate image name %s", f.OriginalName))
		}
		seen[f.OriginalName] = true

		raw, err := f.ToRawImage()
		if err != nil {
			return nil, 0, err
		}
		raws = append(raws, raw)
		if f.OriginalName == req.MainImage {
			mainIndex = i
		}
	}
	if mainIndex < 0 {
		return nil, 0, models.NewValidationError("Main image must be one of the uploaded images")
	}
	return raws, mainIndex, nil
}

// passValidation keeps client errors as they are and reports everything
// else as a failed step.
func passValidation(err error, step string) error {
	if models.ErrorCode(err) == models.CodeValidation {
		return err
	}
	return models.NewDependencyError(step, err)
}

func withoutUser(users []models.User, id uint) []models.User {
	out := users[:0]
	for _, u := range users {
		if u.ID != id {
			out = append(out, u)
		}
	}
	return out
}
