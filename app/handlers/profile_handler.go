package handlers

import (
	"time"

	"github.com/amirphl/LinkHub/app/dto"
	businessflow "github.com/amirphl/LinkHub/business_flow"
	"github.com/gofiber/fiber/v3"
)

// ProfileHandler serves the authenticated user's profile settings
type ProfileHandler struct {
	baseHandler
	profileFlow businessflow.ProfileFlow
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileFlow businessflow.ProfileFlow, requestTimeout time.Duration) *ProfileHandler {
	return &ProfileHandler{
		baseHandler: newBaseHandler(requestTimeout),
		profileFlow: profileFlow,
	}
}

// GetProfile returns the caller's profile
// @Summary Get Profile
// @Tags Profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.UserDTO} "Profile"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Router /api/v1/users/profile [get]
func (h *ProfileHandler) GetProfile(c fiber.Ctx) error {
	userID, ok, err := h.requireUser(c)
	if !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/users/profile")
	defer cancel()

	user, err := h.profileFlow.GetProfile(ctx, userID)
	if err != nil {
		return h.handleFlowError(c, err, "get_profile")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Profile retrieved successfully", user)
}

// UpdateProfile edits name, username, bio and theme
// @Summary Update Profile
// @Tags Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateProfileRequest true "Profile data"
// @Success 200 {object} dto.APIResponse{data=dto.UserDTO} "Profile updated"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 409 {object} dto.APIResponse "Username taken"
// @Router /api/v1/users/profile [put]
func (h *ProfileHandler) UpdateProfile(c fiber.Ctx) error {
	userID, ok, err := h.requireUser(c)
	if !ok {
		return err
	}

	var req dto.UpdateProfileRequest
	if ok, err := h.bindJSON(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/users/profile")
	defer cancel()

	user, err := h.profileFlow.UpdateProfile(ctx, userID, &req, h.clientMetadata(c))
	if err != nil {
		return h.handleFlowError(c, err, "update_profile")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Profile updated successfully", user)
}

// Dashboard returns the caller together with their links
// @Summary Dashboard
// @Tags Profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.DashboardResponse} "Dashboard"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Router /api/v1/users/dashboard [get]
func (h *ProfileHandler) Dashboard(c fiber.Ctx) error {
	userID, ok, err := h.requireUser(c)
	if !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/users/dashboard")
	defer cancel()

	result, err := h.profileFlow.Dashboard(ctx, userID)
	if err != nil {
		return h.handleFlowError(c, err, "dashboard")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Dashboard retrieved successfully", result)
}

// UploadAvatar replaces the caller's avatar image
// @Summary Upload Avatar
// @Description Multipart upload (field "avatar"); the image is resized to a square PNG
// @Tags Profile
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param avatar formData file true "Image file (png, jpeg, gif, webp)"
// @Success 200 {object} dto.APIResponse{data=dto.AvatarResponse} "Avatar updated"
// @Failure 400 {object} dto.APIResponse "Invalid image"
// @Router /api/v1/users/avatar [post]
func (h *ProfileHandler) UploadAvatar(c fiber.Ctx) error {
	userID, ok, err := h.requireUser(c)
	if !ok {
		return err
	}

	header, err := c.FormFile("avatar")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR",
			[]dto.FieldError{{Field: "avatar", Message: "avatar file is required"}})
	}
	file, err := header.Open()
	if err != nil {
		return h.handleFlowError(c, err, "open_avatar")
	}
	defer file.Close()

	ctx, cancel := h.createRequestContext(c, "/api/v1/users/avatar")
	defer cancel()

	result, err := h.profileFlow.UploadAvatar(ctx, userID, file, h.clientMetadata(c))
	if err != nil {
		return h.handleFlowError(c, err, "upload_avatar")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Avatar updated successfully", result)
}
