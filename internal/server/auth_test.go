package server

import (
	"net/http"
	"strconv"
	"testing"
	"time"

	"showcase/internal/models"
	"showcase/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_AuthRequired(t *testing.T) {
	env := newTestEnv(t)
	app := fiber.New()
	app.Get("/protected", env.server.AuthRequired(), func(c *fiber.Ctx) error {
		identity := identityFrom(c)
		return c.JSON(fiber.Map{"userID": identity.UserID, "username": identity.Username})
	})

	sign := func(secret string, claims jwt.MapClaims) string {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		str, err := token.SignedString([]byte(secret))
		require.NoError(t, err)
		return str
	}
	claimsWith := func(issuer, audience string, exp time.Duration) jwt.MapClaims {
		return jwt.MapClaims{
			"sub":      strconv.Itoa(123),
			"username": "alice",
			"iss":      issuer,
			"aud":      audience,
			"exp":      time.Now().Add(exp).Unix(),
		}
	}

	noUsername := claimsWith(tokenIssuer, tokenAudience, time.Hour)
	delete(noUsername, "username")

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
	}{
		{"Valid Token", "Bearer " + sign(testSecret, claimsWith(tokenIssuer, tokenAudience, time.Hour)), http.StatusOK},
		{"Lowercase Scheme", "bearer " + sign(testSecret, claimsWith(tokenIssuer, tokenAudience, time.Hour)), http.StatusOK},
		{"Expired Token", "Bearer " + sign(testSecret, claimsWith(tokenIssuer, tokenAudience, -time.Hour)), http.StatusUnauthorized},
		{"Invalid Issuer", "Bearer " + sign(testSecret, claimsWith("wrong-issuer", tokenAudience, time.Hour)), http.StatusUnauthorized},
		{"Invalid Audience", "Bearer " + sign(testSecret, claimsWith(tokenIssuer, "wrong-audience", time.Hour)), http.StatusUnauthorized},
		{"Wrong Secret", "Bearer " + sign("another-secret-key-123456789012345678901234", claimsWith(tokenIssuer, tokenAudience, time.Hour)), http.StatusUnauthorized},
		{"Missing Username", "Bearer " + sign(testSecret, noUsername), http.StatusUnauthorized},
		{"Missing Header", "", http.StatusUnauthorized},
		{"Malformed Bearer Format", "Token abc", http.StatusUnauthorized},
		{"Garbage Token", "Bearer not-a-jwt", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, "/protected", nil)
			require.NoError(t, err)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

func TestGenerateTokenRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	token, err := env.server.generateToken(7, "alice")
	require.NoError(t, err)

	identity, err := env.server.parseToken(token)
	require.NoError(t, err)
	assert.Equal(t, models.Identity{UserID: 7, Username: "alice"}, identity)

	env.server.config.JWTSecret = ""
	_, err = env.server.generateToken(7, "alice")
	assert.Error(t, err)
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	register := models.RegisterRequest{Username: "NewUser", Email: "new@example.com", Password: "Password123!"}
	resp := env.do(t, http.MethodPost, "/api/Account/Register", register, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	auth := decodeData[models.AuthResponse](t, resp)
	assert.Equal(t, "newuser", auth.Username)
	assert.NotEmpty(t, auth.Token)

	identity, err := env.server.parseToken(auth.Token)
	require.NoError(t, err)
	assert.Equal(t, "newuser", identity.Username)

	t.Run("duplicate", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/Account/Register", register, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, models.CodeValidation, decode[envelope](t, resp).Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/Account/Register", map[string]string{"username": "x"}, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("login", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/Account/Login",
			models.LoginRequest{Username: "NEWUSER", Password: "Password123!"}, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "newuser", decodeData[models.AuthResponse](t, resp).Username)
	})

	t.Run("wrong password", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/Account/Login",
			models.LoginRequest{Username: "newuser", Password: "Wrong-password1"}, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("seeded user", func(t *testing.T) {
		testutil.CreateUser(t, env.db, "carol")
		resp := env.do(t, http.MethodPost, "/api/Account/Login",
			models.LoginRequest{Username: "carol", Password: testutil.TestPassword}, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}
