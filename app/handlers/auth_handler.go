package handlers

import (
	"time"

	"github.com/amirphl/LinkHub/app/dto"
	"github.com/amirphl/LinkHub/app/middleware"
	businessflow "github.com/amirphl/LinkHub/business_flow"
	"github.com/amirphl/LinkHub/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

// AuthHandlerInterface defines the contract for authentication handlers
type AuthHandlerInterface interface {
	Signup(c fiber.Ctx) error
	Login(c fiber.Ctx) error
	Refresh(c fiber.Ctx) error
	Logout(c fiber.Ctx) error
	Me(c fiber.Ctx) error
	GoogleLogin(c fiber.Ctx) error
	GoogleCallback(c fiber.Ctx) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	baseHandler
	authFlow            businessflow.AuthFlow
	frontendRedirectURL string
	cookieSecure        bool
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authFlow businessflow.AuthFlow, frontendRedirectURL string, cookieSecure bool, requestTimeout time.Duration) *AuthHandler {
	return &AuthHandler{
		baseHandler:         newBaseHandler(requestTimeout),
		authFlow:            authFlow,
		frontendRedirectURL: frontendRedirectURL,
		cookieSecure:        cookieSecure,
	}
}

// Signup handles the user registration process
// @Summary User Registration
// @Description Register a new account with email and password and receive a token pair
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.SignupRequest true "User registration data"
// @Success 201 {object} dto.APIResponse{data=dto.AuthResponse} "Account created"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 409 {object} dto.APIResponse "Email already exists"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/auth/signup [post]
func (h *AuthHandler) Signup(c fiber.Ctx) error {
	var req dto.SignupRequest
	if ok, err := h.bindJSON(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/auth/signup")
	defer cancel()

	result, err := h.authFlow.Signup(ctx, &req, h.clientMetadata(c))
	if err != nil {
		return h.handleFlowError(c, err, "signup")
	}

	h.setAuthCookie(c, result)
	return h.SuccessResponse(c, fiber.StatusCreated, "Account created successfully", result)
}

// Login handles password authentication
// @Summary User Login
// @Description Authenticate with email and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse} "Login successful"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Invalid credentials"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c fiber.Ctx) error {
	var req dto.LoginRequest
	if ok, err := h.bindJSON(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/auth/login")
	defer cancel()

	result, err := h.authFlow.Login(ctx, &req, h.clientMetadata(c))
	if err != nil {
		return h.handleFlowError(c, err, "login")
	}

	h.setAuthCookie(c, result)
	return h.SuccessResponse(c, fiber.StatusOK, "Login successful", result)
}

// Refresh exchanges a refresh token for a new token pair
// @Summary Refresh Tokens
// @Description Rotate a refresh token into a new access/refresh pair
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse} "Tokens refreshed"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Invalid refresh token"
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) Refresh(c fiber.Ctx) error {
	var req dto.RefreshTokenRequest
	if ok, err := h.bindJSON(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/auth/refresh")
	defer cancel()

	result, err := h.authFlow.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return h.handleFlowError(c, err, "refresh")
	}

	h.setAuthCookie(c, result)
	return h.SuccessResponse(c, fiber.StatusOK, "Tokens refreshed successfully", result)
}

// Logout revokes the presented access token and clears the session cookie
// @Summary Logout
// @Description Revoke the current access token
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse "Logged out"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	userID, ok, err := h.requireUser(c)
	if !ok {
		return err
	}
	token, _ := middleware.GetAccessTokenFromContext(c)

	ctx, cancel := h.createRequestContext(c, "/api/v1/auth/logout")
	defer cancel()

	if err := h.authFlow.Logout(ctx, userID, token, h.clientMetadata(c)); err != nil {
		return h.handleFlowError(c, err, "logout")
	}

	h.clearAuthCookie(c)
	return h.SuccessResponse(c, fiber.StatusOK, "Logged out successfully", nil)
}

// Me returns the authenticated user
// @Summary Current User
// @Description Get the account behind the presented token
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.UserDTO} "Current user"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "User not found"
// @Router /api/v1/auth/me [get]
func (h *AuthHandler) Me(c fiber.Ctx) error {
	userID, ok, err := h.requireUser(c)
	if !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/auth/me")
	defer cancel()

	user, err := h.authFlow.Me(ctx, userID)
	if err != nil {
		return h.handleFlowError(c, err, "me")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "User retrieved successfully", user)
}

// GoogleLogin redirects the browser to the Google consent screen
// @Summary Google Login
// @Description Start the Google OAuth flow; sets a short-lived state cookie
// @Tags Authentication
// @Success 302 "Redirect to Google"
// @Failure 503 {object} dto.APIResponse "Google login not configured"
// @Router /api/v1/auth/google/login [get]
func (h *AuthHandler) GoogleLogin(c fiber.Ctx) error {
	state, url, err := h.authFlow.GoogleAuthURL()
	if err != nil {
		return h.handleFlowError(c, err, "google_login")
	}

	c.Cookie(&fiber.Cookie{
		Name:     utils.OAuthStateCookieName,
		Value:    state,
		Path:     "/",
		Expires:  time.Now().Add(utils.OAuthStateTTL),
		HTTPOnly: true,
		Secure:   h.cookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return c.Redirect().Status(fiber.StatusFound).To(url)
}

// GoogleCallback completes the Google OAuth flow
// @Summary Google Callback
// @Description Exchange the authorization code, sign the user in and redirect to the frontend
// @Tags Authentication
// @Param code query string true "Authorization code"
// @Param state query string true "OAuth state"
// @Success 302 "Redirect to the frontend"
// @Failure 400 {object} dto.APIResponse "State mismatch"
// @Failure 401 {object} dto.APIResponse "Google login failed"
// @Router /api/v1/auth/google/callback [get]
func (h *AuthHandler) GoogleCallback(c fiber.Ctx) error {
	state := c.Query("state")
	expected := c.Cookies(utils.OAuthStateCookieName)
	c.ClearCookie(utils.OAuthStateCookieName)

	if state == "" || expected == "" || state != expected {
		log.Warn().Str("ip", c.IP()).Msg("oauth state mismatch")
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid OAuth state", "INVALID_OAUTH_STATE", nil)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/auth/google/callback")
	defer cancel()

	result, err := h.authFlow.GoogleLogin(ctx, c.Query("code"), h.clientMetadata(c))
	if err != nil {
		if businessflow.IsUnauthenticated(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Google login failed", "OAUTH_FAILED", nil)
		}
		return h.handleFlowError(c, err, "google_callback")
	}

	h.setAuthCookie(c, result)
	return c.Redirect().Status(fiber.StatusFound).To(h.frontendRedirectURL)
}

func (h *AuthHandler) setAuthCookie(c fiber.Ctx, result *dto.AuthResponse) {
	c.Cookie(&fiber.Cookie{
		Name:     utils.AuthCookieName,
		Value:    result.AccessToken,
		Path:     "/",
		Expires:  result.ExpiresAt,
		HTTPOnly: true,
		Secure:   h.cookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (h *AuthHandler) clearAuthCookie(c fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     utils.AuthCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   h.cookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
