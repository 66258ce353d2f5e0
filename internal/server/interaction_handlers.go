package server

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// RecordVisit handles POST /api/Projects/Visit/:id
// @Summary Record visit
// @Tags interactions
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {object} models.Envelope
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /Projects/Visit/{id} [post]
func (s *Server) RecordVisit(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := identityFrom(c).UserID
	if err := s.interactionService.Visit(c.UserContext(), id, &userID); err != nil {
		return s.respondError(c, err)
	}
	return ok(c, nil)
}

// LikeProject handles POST /api/Projects/Like/:id
// @Summary Like project
// @Description Rejected with success=false when the project is already liked.
// @Tags interactions
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {object} models.Envelope
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /Projects/Like/{id} [post]
func (s *Server) LikeProject(c *fiber.Ctx) error {
	return s.toggle(c, s.interactionService.Like)
}

// DislikeProject handles POST /api/Projects/Dislike/:id
func (s *Server) DislikeProject(c *fiber.Ctx) error {
	return s.toggle(c, s.interactionService.Dislike)
}

// FlagProject handles POST /api/Projects/Flag/:id
func (s *Server) FlagProject(c *fiber.Ctx) error {
	return s.toggle(c, s.interactionService.Flag)
}

// UnflagProject handles POST /api/Projects/Unflag/:id
func (s *Server) UnflagProject(c *fiber.Ctx) error {
	return s.toggle(c, s.interactionService.Unflag)
}

func (s *Server) toggle(c *fiber.Ctx, action func(ctx context.Context, projectID, userID uint) error) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := action(c.UserContext(), id, identityFrom(c).UserID); err != nil {
		return s.respondError(c, err)
	}
	return ok(c, nil)
}
