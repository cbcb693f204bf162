package handlers

import (
	"strconv"
	"time"

	businessflow "github.com/amirphl/LinkHub/business_flow"
	"github.com/gofiber/fiber/v3"
)

// PublicHandler serves unauthenticated profile pages
type PublicHandler struct {
	baseHandler
	publicFlow businessflow.PublicProfileFlow
}

// NewPublicHandler creates a new public profile handler
func NewPublicHandler(publicFlow businessflow.PublicProfileFlow, requestTimeout time.Duration) *PublicHandler {
	return &PublicHandler{
		baseHandler: newBaseHandler(requestTimeout),
		publicFlow:  publicFlow,
	}
}

// Profile resolves a username into its public page
// @Summary Public Profile
// @Description Public fields, visible links in order and the theme style of a user
// @Tags Public
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} dto.APIResponse{data=dto.PublicProfileResponse} "Profile"
// @Failure 404 {object} dto.APIResponse "User not found"
// @Router /api/v1/public/profile/{username} [get]
func (h *PublicHandler) Profile(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/public/profile/:username")
	defer cancel()

	result, err := h.publicFlow.ResolveProfile(ctx, c.Params("username"))
	if err != nil {
		return h.handleFlowError(c, err, "public_profile")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Profile retrieved successfully", result)
}

// QRCode renders a PNG QR code pointing at the public profile
// @Summary Profile QR Code
// @Tags Public
// @Produce png
// @Param username path string true "Username"
// @Param size query int false "Edge length in pixels"
// @Success 200 {file} file "PNG image"
// @Failure 404 {object} dto.APIResponse "User not found"
// @Router /api/v1/public/profile/{username}/qr [get]
func (h *PublicHandler) QRCode(c fiber.Ctx) error {
	size := 0
	if raw := c.Query("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid size", "INVALID_SIZE", nil)
		}
		size = n
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/public/profile/:username/qr")
	defer cancel()

	png, err := h.publicFlow.ProfileQRCode(ctx, c.Params("username"), size)
	if err != nil {
		return h.handleFlowError(c, err, "profile_qr")
	}

	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderCacheControl, "public, max-age=3600")
	return c.Status(fiber.StatusOK).Send(png)
}

// UsernameAvailable checks whether a username can be claimed
// @Summary Username Availability
// @Tags Public
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} dto.APIResponse{data=dto.UsernameAvailabilityResponse} "Availability"
// @Router /api/v1/public/username/{username}/available [get]
func (h *PublicHandler) UsernameAvailable(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/public/username/:username/available")
	defer cancel()

	result, err := h.publicFlow.UsernameAvailable(ctx, c.Params("username"))
	if err != nil {
		return h.handleFlowError(c, err, "username_available")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Username checked", result)
}
