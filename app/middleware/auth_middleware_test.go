package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amirphl/LinkHub/app/dto"
	"github.com/amirphl/LinkHub/app/middleware"
	"github.com/amirphl/LinkHub/app/services"
	"github.com/amirphl/LinkHub/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProtectedApp(t *testing.T, ttl time.Duration) (*fiber.App, services.TokenService) {
	t.Helper()

	ts, err := services.NewTokenService(ttl, time.Hour, "linkhub", "linkhub-web", false, "", "",
		"middleware-test-secret-key-32-chars!!", nil, "")
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/me", middleware.NewAuthMiddleware(ts).Authenticate(), func(c fiber.Ctx) error {
		userID, ok := middleware.GetUserIDFromContext(c)
		require.True(t, ok)
		token, ok := middleware.GetAccessTokenFromContext(c)
		require.True(t, ok)
		claims, ok := middleware.GetTokenClaimsFromContext(c)
		require.True(t, ok)
		return c.JSON(fiber.Map{"user_id": userID, "token_len": len(token), "jti": claims.TokenID})
	})
	return app, ts
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Success bool            `json:"success"`
		Error   dto.ErrorDetail `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.False(t, body.Success)
	return body.Error.Code
}

func TestAuthenticate(t *testing.T) {
	app, ts := newProtectedApp(t, time.Hour)
	access, refresh, err := ts.GenerateTokens(42)
	require.NoError(t, err)

	t.Run("bearer token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+access)
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		var body struct {
			UserID uint `json:"user_id"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, uint(42), body.UserID)
	})

	t.Run("session cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: utils.AuthCookieName, Value: access})
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{name: "missing header", code: "MISSING_AUTHORIZATION_HEADER"},
		{name: "wrong scheme", header: "Basic abc", code: "INVALID_AUTHORIZATION_FORMAT"},
		{name: "empty bearer", header: "Bearer ", code: "MISSING_ACCESS_TOKEN"},
		{name: "bare scheme", header: "bearer", code: "MISSING_ACCESS_TOKEN"},
		{name: "garbage token", header: "Bearer not-a-jwt", code: "TOKEN_INVALID"},
		{name: "refresh token", header: "Bearer " + refresh, code: "TOKEN_INVALID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, tt.code, errorCode(t, resp))
		})
	}
}

func TestAuthenticateExpiredToken(t *testing.T) {
	app, ts := newProtectedApp(t, time.Second)
	access, _, err := ts.GenerateTokens(7)
	require.NoError(t, err)

	time.Sleep(2100 * time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "TOKEN_EXPIRED", errorCode(t, resp))
}

func TestContextHelpersWithoutAuthentication(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c fiber.Ctx) error {
		_, ok := middleware.GetUserIDFromContext(c)
		assert.False(t, ok)
		_, ok = middleware.GetAccessTokenFromContext(c)
		assert.False(t, ok)
		_, ok = middleware.GetTokenClaimsFromContext(c)
		assert.False(t, ok)
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}
