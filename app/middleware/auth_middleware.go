// Package middleware contains HTTP middleware functions for request processing
package middleware

import (
	"errors"
	"strings"

	"github.com/amirphl/LinkHub/app/dto"
	"github.com/amirphl/LinkHub/app/services"
	"github.com/amirphl/LinkHub/utils"
	"github.com/gofiber/fiber/v3"
)

const (
	localUserID      = "user_id"
	localTokenID     = "token_id"
	localTokenClaims = "token_claims"
	localAccessToken = "access_token"
)

// AuthMiddleware handles JWT token validation for protected endpoints
type AuthMiddleware struct {
	tokenService services.TokenService
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(tokenService services.TokenService) *AuthMiddleware {
	return &AuthMiddleware{
		tokenService: tokenService,
	}
}

// Authenticate accepts a Bearer access token, or the session cookie set by Google login
func (m *AuthMiddleware) Authenticate() fiber.Handler {
	return func(c fiber.Ctx) error {
		token, code, message := extractToken(c)
		if token == "" {
			return unauthorized(c, code, message)
		}

		claims, err := m.tokenService.ValidateToken(c.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrTokenExpired):
				return unauthorized(c, "TOKEN_EXPIRED", "Access token has expired")
			case errors.Is(err, services.ErrTokenRevoked):
				return unauthorized(c, "TOKEN_REVOKED", "Access token has been revoked")
			case errors.Is(err, services.ErrTokenInvalid):
				return unauthorized(c, "TOKEN_INVALID", "Invalid access token")
			default:
				return unauthorized(c, "TOKEN_VALIDATION_FAILED", "Token validation failed")
			}
		}

		if claims.TokenType != services.TokenTypeAccess {
			return unauthorized(c, "TOKEN_INVALID", "Refresh tokens cannot be used for API access")
		}

		c.Locals(localUserID, claims.UserID)
		c.Locals(localTokenID, claims.TokenID)
		c.Locals(localTokenClaims, claims)
		c.Locals(localAccessToken, token)

		return c.Next()
	}
}

func extractToken(c fiber.Ctx) (token, code, message string) {
	authHeader := c.Get("Authorization")
	if authHeader != "" {
		// Header values arrive trimmed, so "Bearer " reaches us as "Bearer"
		if strings.EqualFold(strings.TrimSpace(authHeader), "Bearer") {
			return "", "MISSING_ACCESS_TOKEN", "Access token is required"
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return "", "INVALID_AUTHORIZATION_FORMAT", "Invalid authorization header format. Expected 'Bearer <token>'"
		}
		token = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			return "", "MISSING_ACCESS_TOKEN", "Access token is required"
		}
		return token, "", ""
	}

	if cookie := c.Cookies(utils.AuthCookieName); cookie != "" {
		return cookie, "", ""
	}

	return "", "MISSING_AUTHORIZATION_HEADER", "Authorization header is required"
}

func unauthorized(c fiber.Ctx, code, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code: code,
		},
	})
}

// GetUserIDFromContext returns the authenticated user id
func GetUserIDFromContext(c fiber.Ctx) (uint, bool) {
	userID, ok := c.Locals(localUserID).(uint)
	return userID, ok && userID > 0
}

// GetTokenClaimsFromContext returns the validated claims of the request token
func GetTokenClaimsFromContext(c fiber.Ctx) (*services.TokenClaims, bool) {
	claims, ok := c.Locals(localTokenClaims).(*services.TokenClaims)
	return claims, ok
}

// GetAccessTokenFromContext returns the raw token the request authenticated with
func GetAccessTokenFromContext(c fiber.Ctx) (string, bool) {
	token, ok := c.Locals(localAccessToken).(string)
	return token, ok && token != ""
}
