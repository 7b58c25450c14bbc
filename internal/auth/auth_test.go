package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/tradein-service/internal/domain"
	apperrors "github.com/spec-kit/tradein-service/pkg/util"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	token, exp, err := tm.GenerateToken(domain.Principal{UserID: "u1", Email: "u1@example.com", Role: domain.RoleAdmin})
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(5*time.Minute), exp, time.Minute)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	p := claims.Principal()
	require.Equal(t, "u1", p.UserID)
	require.Equal(t, "u1@example.com", p.Email)
	require.True(t, p.IsAdmin())
}

func TestTokenManager_RejectsForeignSecretAndMissingExpiry(t *testing.T) {
	token, _, err := NewTokenManager("other", 5).GenerateToken(domain.Principal{UserID: "u1"})
	require.NoError(t, err)
	_, err = NewTokenManager("secret", 5).ParseToken(token)
	require.Error(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1"}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = NewTokenManager("secret", 5).ParseToken(noExp)
	require.Error(t, err)
}

func TestClaims_UnknownRoleIsUser(t *testing.T) {
	c := &Claims{Role: "superuser", RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"}}
	require.Equal(t, domain.RoleUser, c.Principal().Role)
}

func newApp(tm *TokenManager) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			derr := apperrors.ToDomainError(err)
			return c.Status(derr.HTTPStatus).SendString(derr.Code)
		},
	})
	mw := NewAuthMiddleware(tm)
	app.Get("/me", mw.Handle, RequireUser(), func(c *fiber.Ctx) error {
		p, _ := PrincipalFromContext(c)
		return c.SendString(p.UserID)
	})
	app.Get("/admin", mw.Handle, RequireAdmin(), func(c *fiber.Ctx) error { return c.SendStatus(http.StatusNoContent) })
	return app
}

func TestMiddleware(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	app := newApp(tm)
	userToken, _, _ := tm.GenerateToken(domain.Principal{UserID: "u1", Role: domain.RoleUser})
	adminToken, _, _ := tm.GenerateToken(domain.Principal{UserID: "a1", Role: domain.RoleAdmin})

	cases := []struct {
		path   string
		header string
		status int
	}{
		{"/me", "", http.StatusUnauthorized},
		{"/me", "Token abc", http.StatusUnauthorized},
		{"/me", "Bearer nope", http.StatusUnauthorized},
		{"/me", "Bearer " + userToken, http.StatusOK},
		{"/admin", "Bearer " + userToken, http.StatusForbidden},
		{"/admin", "Bearer " + adminToken, http.StatusNoContent},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, tc.status, resp.StatusCode, "%s %q", tc.path, tc.header)
	}
}
