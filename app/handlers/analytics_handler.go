package handlers

import (
	"strconv"
	"time"

	"github.com/amirphl/LinkHub/app/dto"
	businessflow "github.com/amirphl/LinkHub/business_flow"
	"github.com/gofiber/fiber/v3"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AnalyticsHandler serves click analytics and the page view beacon
type AnalyticsHandler struct {
	baseHandler
	analyticsFlow businessflow.AnalyticsFlow
	publicFlow    businessflow.PublicProfileFlow
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analyticsFlow businessflow.AnalyticsFlow, publicFlow businessflow.PublicProfileFlow, requestTimeout time.Duration) *AnalyticsHandler {
	return &AnalyticsHandler{
		baseHandler:   newBaseHandler(requestTimeout),
		analyticsFlow: analyticsFlow,
		publicFlow:    publicFlow,
	}
}

// targetUser resolves the userId query parameter; it defaults to the caller
func (h *AnalyticsHandler) targetUser(c fiber.Ctx, callerID uint) (uint, bool) {
	raw := c.Query("userId")
	if raw == "" {
		return callerID, true
	}
	return parseUintParam(raw)
}

// Overview returns headline click numbers
// @Summary Analytics Overview
// @Description Totals, period counts and top links for the caller
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Param userId query int false "User ID; must match the caller"
// @Success 200 {object} dto.APIResponse{data=dto.AnalyticsOverviewResponse} "Overview"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 403 {object} dto.APIResponse "Forbidden"
// @Router /api/v1/analytics/overview [get]
func (h *AnalyticsHandler) Overview(c fiber.Ctx) error {
	callerID, ok, err := h.requireUser(c)
	if !ok {
		return err
	}
	userID, ok := h.targetUser(c, callerID)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid user id", "INVALID_USER_ID", nil)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/analytics/overview")
	defer cancel()

	result, err := h.analyticsFlow.Overview(ctx, callerID, userID)
	if err != nil {
		return h.handleFlowError(c, err, "analytics_overview")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Analytics retrieved successfully", result)
}

// Detailed returns the overview plus daily series, growth and breakdowns
// @Summary Detailed Analytics
// @Description 30-day daily series, month-over-month growth, unique visitors and device/browser/country breakdowns
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Param userId query int false "User ID; must match the caller"
// @Success 200 {object} dto.APIResponse{data=dto.AnalyticsDetailedResponse} "Detailed analytics"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 403 {object} dto.APIResponse "Forbidden"
// @Router /api/v1/analytics/detailed [get]
func (h *AnalyticsHandler) Detailed(c fiber.Ctx) error {
	callerID, ok, err := h.requireUser(c)
	if !ok {
		return err
	}
	userID, ok := h.targetUser(c, callerID)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid user id", "INVALID_USER_ID", nil)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/analytics/detailed")
	defer cancel()

	result, err := h.analyticsFlow.Detailed(ctx, callerID, userID)
	if err != nil {
		return h.handleFlowError(c, err, "analytics_detailed")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Analytics retrieved successfully", result)
}

// Export streams the caller's recent clicks as an xlsx workbook
// @Summary Export Clicks
// @Description Download clicks of the last days (1..365, default 30) as xlsx
// @Tags Analytics
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param userId query int false "User ID; must match the caller"
// @Param days query int false "Window in days"
// @Success 200 {file} file "xlsx workbook"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 403 {object} dto.APIResponse "Forbidden"
// @Router /api/v1/analytics/export [get]
func (h *AnalyticsHandler) Export(c fiber.Ctx) error {
	callerID, ok, err := h.requireUser(c)
	if !ok {
		return err
	}
	userID, ok := h.targetUser(c, callerID)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid user id", "INVALID_USER_ID", nil)
	}

	days := 0
	if raw := c.Query("days"); raw != "" {
		days, err = strconv.Atoi(raw)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR",
				[]dto.FieldError{{Field: "days", Message: "must be an integer"}})
		}
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/analytics/export")
	defer cancel()

	filename, content, err := h.analyticsFlow.ExportClicks(ctx, callerID, userID, days)
	if err != nil {
		return h.handleFlowError(c, err, "analytics_export")
	}

	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Status(fiber.StatusOK).Send(content)
}

// PageView records a public profile view
// @Summary Record Page View
// @Description Beacon sent by the public profile page; counts views per local day
// @Tags Analytics
// @Accept json
// @Produce json
// @Param request body dto.RecordPageViewRequest true "Viewed profile"
// @Success 200 {object} dto.APIResponse{data=dto.RecordPageViewResponse} "View recorded"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "User not found"
// @Router /api/v1/analytics/pageview [post]
func (h *AnalyticsHandler) PageView(c fiber.Ctx) error {
	var req dto.RecordPageViewRequest
	if ok, err := h.bindJSON(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/analytics/pageview")
	defer cancel()

	result, err := h.publicFlow.RecordPageView(ctx, &req)
	if err != nil {
		return h.handleFlowError(c, err, "record_pageview")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Page view recorded", result)
}
