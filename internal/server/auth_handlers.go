package server

import (
	"fmt"
	"strconv"
	"time"

	"showcase/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenTTL = 7 * 24 * time.Hour

// Register handles POST /api/Account/Register
// @Summary Register
// @Description Creates an account and returns a bearer token.
// @Tags account
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Registration"
// @Success 201 {object} models.Envelope{data=models.AuthResponse}
// @Failure 400 {object} models.ErrorResponse
// @Router /Account/Register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.userService.Register(c.UserContext(), req)
	if err != nil {
		return s.respondError(c, err)
	}

	token, err := s.generateToken(user.ID, user.Username)
	if err != nil {
		return s.respondError(c, models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(models.Ok(models.AuthResponse{
		Token:    token,
		Username: user.Username,
	}))
}

// Login handles POST /api/Account/Login
// @Summary Login
// @Tags account
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Credentials"
// @Success 200 {object} models.Envelope{data=models.AuthResponse}
// @Failure 401 {object} models.ErrorResponse
// @Router /Account/Login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.userService.Login(c.UserContext(), req)
	if err != nil {
		return s.respondError(c, err)
	}

	token, err := s.generateToken(user.ID, user.Username)
	if err != nil {
		return s.respondError(c, models.NewInternalError(err))
	}

	return c.JSON(models.Ok(models.AuthResponse{
		Token:    token,
		Username: user.Username,
	}))
}

// generateToken creates a JWT token for the given user ID and username
func (s *Server) generateToken(userID uint, username string) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(userID), 10),
		"username": username,
		"iss":      tokenIssuer,
		"aud":      tokenAudience,
		"exp":      now.Add(tokenTTL).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}
