package server

import (
	"showcase/internal/models"
	"showcase/internal/query"

	"github.com/gofiber/fiber/v2"
)

// ListLatest handles GET /api/Projects
// @Summary Latest projects
// @Description The newest projects, most recent first.
// @Tags projects
// @Produce json
// @Success 200 {object} models.Envelope{data=[]models.ProjectSimpleResponse}
// @Router /Projects [get]
func (s *Server) ListLatest(c *fiber.Ctx) error {
	projects, err := s.projectService.Latest(c.UserContext())
	if err != nil {
		return s.respondError(c, err)
	}
	return ok(c, projects)
}

// ListPopular handles GET /api/Projects/Popular
// @Summary Popular projects
// @Description Projects ranked by likes*3 + visits, newest first on ties.
// @Tags projects
// @Produce json
// @Success 200 {object} models.Envelope{data=[]models.ProjectSimpleResponse}
// @Router /Projects/Popular [get]
func (s *Server) ListPopular(c *fiber.Ctx) error {
	projects, err := s.projectService.Popular(c.UserContext())
	if err != nil {
		return s.respondError(c, err)
	}
	return ok(c, projects)
}

// GetProject handles GET /api/Projects/:id. Authentication is optional; the
// like and flag state is only resolved for authenticated callers.
// @Summary Get project
// @Tags projects
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {object} models.Envelope{data=models.ProjectResponse}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /Projects/{id} [get]
func (s *Server) GetProject(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	project, err := s.projectService.ByID(c.UserContext(), id, s.optionalIdentity(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return ok(c, project)
}

// ListLikedByUser handles GET /api/Projects/LikedProjects/:username
// @Summary Projects liked by a user
// @Description Only the user themself may list their liked projects. Asking for someone else's list answers 200 with success=false.
// @Tags projects
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} models.Envelope{data=[]models.ProjectSimpleResponse}
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /Projects/LikedProjects/{username} [get]
func (s *Server) ListLikedByUser(c *fiber.Ctx) error {
	projects, err := s.projectService.LikedByUser(c.UserContext(), identityFrom(c), c.Params("username"))
	if err != nil {
		return s.respondError(c, err)
	}
	return ok(c, projects)
}

// CreateProject handles POST /api/Projects
// @Summary Create project
// @Description Creates a project with base64 encoded images. Images are resized and stored with a WebP thumbnail.
// @Tags projects
// @Accept json
// @Produce json
// @Param request body models.ProjectRequest true "Project"
// @Success 201 {object} models.Envelope{data=models.PostProjectResponse}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /Projects [post]
func (s *Server) CreateProject(c *fiber.Ctx) error {
	var req models.ProjectRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	created, err := s.projectService.Create(c.UserContext(), identityFrom(c), req)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(models.Ok(created))
}

// SearchProjects handles GET /api/Projects/Search. The response is the paged
// result itself, not an envelope.
// @Summary Search projects
// @Description Supports $filter, $orderby, $top, $skip, $select and $count.
// @Tags projects
// @Produce json
// @Param $filter query string false "Filter expression"
// @Param $orderby query string false "Order expression"
// @Param $top query int false "Page size"
// @Param $skip query int false "Offset"
// @Param $select query string false "Selected fields"
// @Param $count query bool false "Include total count"
// @Success 200 {object} models.PagedResult[models.ProjectSimpleResponse]
// @Failure 400 {object} models.ErrorResponse
// @Router /Projects/Search [get]
func (s *Server) SearchProjects(c *fiber.Ctx) error {
	opts, err := query.Parse(c.Queries())
	if err != nil {
		return s.respondError(c, err)
	}

	page, err := s.projectService.Search(c.UserContext(), opts)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(page)
}
