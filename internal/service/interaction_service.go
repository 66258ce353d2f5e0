package service

import (
	"context"

	"showcase/internal/models"
	"showcase/internal/observability"
	"showcase/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// Messages returned when a toggle is already in the requested state.
const (
	MsgAlreadyLiked   = "You already have liked this project."
	MsgNotLiked       = "You have not yet liked this project."
	MsgAlreadyFlagged = "You can't flag the same project more than once."
	MsgNotFlagged     = "You have not yet flagged this project."
)

type InteractionService struct {
	projects     repository.ProjectRepository
	interactions repository.InteractionRepository
	visits       repository.VisitRepository
}

func NewInteractionService(
	projects repository.ProjectRepository,
	interactions repository.InteractionRepository,
	visits repository.VisitRepository,
) *InteractionService {
	return &InteractionService{
		projects:     projects,
		interactions: interactions,
		visits:       visits,
	}
}

func (s *InteractionService) Like(ctx context.Context, projectID, userID uint) error {
	return s.add(ctx, "like", models.InteractionLike, projectID, userID, MsgAlreadyLiked)
}

func (s *InteractionService) Dislike(ctx context.Context, projectID, userID uint) error {
	return s.remove(ctx, "dislike", models.InteractionLike, projectID, userID, MsgNotLiked)
}

func (s *InteractionService) Flag(ctx context.Context, projectID, userID uint) error {
	return s.add(ctx, "flag", models.InteractionFlag, projectID, userID, MsgAlreadyFlagged)
}

func (s *InteractionService) Unflag(ctx context.Context, projectID, userID uint) error {
	return s.remove(ctx, "unflag", models.InteractionFlag, projectID, userID, MsgNotFlagged)
}

// Visit records a view. Visits are never deduplicated.
func (s *InteractionService) Visit(ctx context.Context, projectID uint, userID *uint) error {
	if err := s.ensureProject(ctx, projectID); err != nil {
		return err
	}
	if err := s.visits.Record(ctx, projectID, userID); err != nil {
		observability.RecordInteraction("visit", "error")
		return models.NewInternalError(err)
	}
	observability.RecordInteraction("visit", "ok")
	return nil
}

func (s *InteractionService) add(ctx context.Context, op string, kind models.InteractionKind, projectID, userID uint, conflict string) (err error) {
	ctx, span := startInteractionSpan(ctx, op, projectID)
	defer func() { span.Finish(err) }()

	if err := s.ensureProject(ctx, projectID); err != nil {
		return err
	}
	created, err := s.interactions.Add(ctx, kind, projectID, userID)
	if err != nil {
		observability.RecordInteraction(op, "error")
		return models.NewInternalError(err)
	}
	if !created {
		observability.RecordInteraction(op, "rejected")
		return models.NewRuleViolation(conflict)
	}
	observability.RecordInteraction(op, "ok")
	return nil
}

func (s *InteractionService) remove(ctx context.Context, op string, kind models.InteractionKind, projectID, userID uint, missing string) (err error) {
	ctx, span := startInteractionSpan(ctx, op, projectID)
	defer func() { span.Finish(err) }()

	if err := s.ensureProject(ctx, projectID); err != nil {
		return err
	}
	removed, err := s.interactions.Remove(ctx, kind, projectID, userID)
	if err != nil {
		observability.RecordInteraction(op, "error")
		return models.NewInternalError(err)
	}
	if !removed {
		observability.RecordInteraction(op, "rejected")
		return models.NewRuleViolation(missing)
	}
	observability.RecordInteraction(op, "ok")
	return nil
}

func (s *InteractionService) ensureProject(ctx context.Context, projectID uint) error {
	exists, err := s.projects.Exists(ctx, projectID)
	if err != nil {
		return models.NewInternalError(err)
	}
	if !exists {
		return models.NewNotFoundError("Project", projectID)
	}
	return nil
}

func startInteractionSpan(ctx context.Context, op string, projectID uint) (context.Context, *observability.Span) {
	return observability.StartSpan(ctx, "InteractionService."+op,
		attribute.Int64("project.id", int64(projectID)),
	)
}
