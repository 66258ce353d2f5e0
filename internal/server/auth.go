package server

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"showcase/internal/middleware"
	"showcase/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenIssuer   = "showcase-api"
	tokenAudience = "showcase-client"
	identityKey   = "identity"
)

var errInvalidToken = errors.New("invalid token")

// AuthRequired returns the authentication middleware. It accepts a bearer
// token and stores the caller's Identity in locals.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c)
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		identity, err := s.parseToken(tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		setIdentity(c, identity)
		return c.Next()
	}
}

// optionalIdentity extracts the caller from the Authorization header but does
// not enforce it. Invalid tokens are treated as anonymous.
func (s *Server) optionalIdentity(c *fiber.Ctx) *models.Identity {
	tokenString := bearerToken(c)
	if tokenString == "" {
		return nil
	}
	identity, err := s.parseToken(tokenString)
	if err != nil {
		return nil
	}
	setIdentity(c, identity)
	return &identity
}

// identityFrom returns the Identity stored by AuthRequired.
func identityFrom(c *fiber.Ctx) models.Identity {
	identity, _ := c.Locals(identityKey).(models.Identity)
	return identity
}

func setIdentity(c *fiber.Ctx, identity models.Identity) {
	c.Locals("userID", identity.UserID)
	c.Locals(identityKey, identity)
	// Sync to UserContext for logging and downstream services
	ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, identity.UserID)
	c.SetUserContext(ctx)
}

func bearerToken(c *fiber.Ctx) string {
	parts := strings.Fields(c.Get(fiber.HeaderAuthorization))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// parseToken validates signature, expiry, issuer and audience and returns the
// identity carried in the sub and username claims.
func (s *Server) parseToken(tokenString string) (models.Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return []byte(s.config.JWTSecret), nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return models.Identity{}, errInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.Identity{}, errInvalidToken
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return models.Identity{}, errInvalidToken
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return models.Identity{}, errInvalidToken
	}

	username, _ := claims["username"].(string)
	if username == "" {
		return models.Identity{}, errInvalidToken
	}

	return models.Identity{UserID: uint(userID), Username: username}, nil
}
