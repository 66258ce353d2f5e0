package server

import (
	"errors"

	"showcase/internal/middleware"
	"showcase/internal/models"
	"showcase/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+param))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// normalizer is implemented by requests that canonicalize their fields
// before validation.
type normalizer interface {
	Normalize()
}

// parseBody decodes the JSON body into dst and validates its struct tags.
// On failure it writes a 400 JSON response and returns errResponseWritten.
func (s *Server) parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	if n, ok := dst.(normalizer); ok {
		n.Normalize()
	}
	if err := validation.Struct(dst); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest, err)
		return errResponseWritten
	}
	return nil
}

// respondError writes err with the status its code maps to. Rule violations
// are answered with 200 and a failure envelope.
func (s *Server) respondError(c *fiber.Ctx, err error) error {
	status := models.StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			"path", c.Path(), "error", err.Error())
	}
	return models.RespondWithError(c, status, err)
}

// ok writes data in a successful envelope.
func ok(c *fiber.Ctx, data any) error {
	return c.JSON(models.Ok(data))
}
