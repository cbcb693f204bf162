package handlers

import (
	"time"

	"github.com/amirphl/LinkHub/app/dto"
	businessflow "github.com/amirphl/LinkHub/business_flow"
	"github.com/gofiber/fiber/v3"
)

// ClickHandler records link clicks from public profile pages
type ClickHandler struct {
	baseHandler
	clickFlow businessflow.ClickFlow
}

// NewClickHandler creates a new click handler
func NewClickHandler(clickFlow businessflow.ClickFlow, requestTimeout time.Duration) *ClickHandler {
	return &ClickHandler{
		baseHandler: newBaseHandler(requestTimeout),
		clickFlow:   clickFlow,
	}
}

// RecordClick stores one enriched click
// @Summary Record Click
// @Description Record a click on a link; the link must belong to the given user
// @Tags Clicks
// @Accept json
// @Produce json
// @Param request body dto.RecordClickRequest true "Clicked link"
// @Success 200 {object} dto.APIResponse{data=dto.RecordClickResponse} "Click recorded"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Link not found"
// @Router /api/v1/clicks [post]
func (h *ClickHandler) RecordClick(c fiber.Ctx) error {
	var req dto.RecordClickRequest
	if ok, err := h.bindJSON(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/clicks")
	defer cancel()

	result, err := h.clickFlow.RecordClick(ctx, &req, h.clientMetadata(c))
	if err != nil {
		return h.handleFlowError(c, err, "record_click")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Click recorded", result)
}

// Redirect records a click and sends the browser to the link target
// @Summary Tracked Redirect
// @Description Record a click on a visible link and redirect to its URL
// @Tags Clicks
// @Param id path int true "Link ID"
// @Success 302 "Redirect to the link URL"
// @Failure 404 {object} dto.APIResponse "Link not found"
// @Router /api/v1/r/{id} [get]
func (h *ClickHandler) Redirect(c fiber.Ctx) error {
	linkID, ok := parseUintParam(c.Params("id"))
	if !ok {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Link not found", "LINK_NOT_FOUND", nil)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/r/:id")
	defer cancel()

	target, err := h.clickFlow.Redirect(ctx, linkID, h.clientMetadata(c))
	if err != nil {
		return h.handleFlowError(c, err, "redirect")
	}

	return c.Redirect().Status(fiber.StatusFound).To(target)
}
