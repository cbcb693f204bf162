package handlers

import (
	"time"

	"github.com/amirphl/LinkHub/app/dto"
	businessflow "github.com/amirphl/LinkHub/business_flow"
	"github.com/gofiber/fiber/v3"
)

// LinkHandlerInterface defines the contract for link management handlers
type LinkHandlerInterface interface {
	ListLinks(c fiber.Ctx) error
	CreateLink(c fiber.Ctx) error
	UpdateLink(c fiber.Ctx) error
	DeleteLink(c fiber.Ctx) error
	ReorderLinks(c fiber.Ctx) error
}

// LinkHandler serves the authenticated user's link collection
type LinkHandler struct {
	baseHandler
	linkFlow businessflow.LinkFlow
}

// NewLinkHandler creates a new link handler
func NewLinkHandler(linkFlow businessflow.LinkFlow, requestTimeout time.Duration) *LinkHandler {
	return &LinkHandler{
		baseHandler: newBaseHandler(requestTimeout),
		linkFlow:    linkFlow,
	}
}

// ListLinks returns the caller's links ordered by position
// @Summary List Links
// @Description List the authenticated user's links with live click counts
// @Tags Links
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.ListLinksResponse} "Links retrieved"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Router /api/v1/links [get]
func (h *LinkHandler) ListLinks(c fiber.Ctx) error {
	userID, ok, err := h.requireUser(c)
	if !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/links")
	defer cancel()

	result, err := h.linkFlow.ListLinks(ctx, userID)
	if err != nil {
		return h.handleFlowError(c, err, "list_links")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Links retrieved successfully", result)
}

// CreateLink appends a new link to the caller's collection
// @Summary Create Link
// @Description Create a link; it is placed after the current last position
// @Tags Links
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateLinkRequest true "Link data"
// @Success 201 {object} dto.APIResponse{data=dto.LinkDTO} "Link created"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Router /api/v1/links [post]
func (h *LinkHandler) CreateLink(c fiber.Ctx) error {
	userID, ok, err := h.requireUser(c)
	if !ok {
		return err
	}

	var req dto.CreateLinkRequest
	if ok, err := h.bindJSON(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/links")
	defer cancel()

	link, err := h.linkFlow.CreateLink(ctx, userID, &req)
	if err != nil {
		return h.handleFlowError(c, err, "create_link")
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Link created successfully", link)
}

// UpdateLink edits one of the caller's links
// @Summary Update Link
// @Description Update a link owned by the authenticated user
// @Tags Links
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Link ID"
// @Param request body dto.UpdateLinkRequest true "Link data"
// @Success 200 {object} dto.APIResponse{data=dto.LinkDTO} "Link updated"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Link not found"
// @Router /api/v1/links/{id} [put]
func (h *LinkHandler) UpdateLink(c fiber.Ctx) error {
	userID, ok, err := h.requireUser(c)
	if !ok {
		return err
	}

	linkID, ok := parseUintParam(c.Params("id"))
	if !ok {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid link id", "INVALID_LINK_ID", nil)
	}

	var req dto.UpdateLinkRequest
	if ok, err := h.bindJSON(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/links/:id")
	defer cancel()

	link, err := h.linkFlow.UpdateLink(ctx, userID, linkID, &req)
	if err != nil {
		return h.handleFlowError(c, err, "update_link")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Link updated successfully", link)
}

// DeleteLink removes one of the caller's links and its clicks
// @Summary Delete Link
// @Description Delete a link owned by the authenticated user
// @Tags Links
// @Produce json
// @Security BearerAuth
// @Param id path int true "Link ID"
// @Success 200 {object} dto.APIResponse "Link deleted"
// @Failure 404 {object} dto.APIResponse "Link not found"
// @Router /api/v1/links/{id} [delete]
func (h *LinkHandler) DeleteLink(c fiber.Ctx) error {
	userID, ok, err := h.requireUser(c)
	if !ok {
		return err
	}

	linkID, ok := parseUintParam(c.Params("id"))
	if !ok {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid link id", "INVALID_LINK_ID", nil)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/links/:id")
	defer cancel()

	if err := h.linkFlow.DeleteLink(ctx, userID, linkID, h.clientMetadata(c)); err != nil {
		return h.handleFlowError(c, err, "delete_link")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Link deleted successfully", nil)
}

// ReorderLinks assigns new positions to the caller's full link set
// @Summary Reorder Links
// @Description Apply new positions atomically; the payload must name every link exactly once
// @Tags Links
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ReorderLinksRequest true "New positions"
// @Success 200 {object} dto.APIResponse{data=dto.ListLinksResponse} "Links reordered"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Router /api/v1/links/reorder [put]
func (h *LinkHandler) ReorderLinks(c fiber.Ctx) error {
	userID, ok, err := h.requireUser(c)
	if !ok {
		return err
	}

	var req dto.ReorderLinksRequest
	if ok, err := h.bindJSON(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/links/reorder")
	defer cancel()

	result, err := h.linkFlow.ReorderLinks(ctx, userID, &req, h.clientMetadata(c))
	if err != nil {
		return h.handleFlowError(c, err, "reorder_links")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Links reordered successfully", result)
}
