// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/amirphl/LinkHub/app/dto"
	"github.com/amirphl/LinkHub/app/middleware"
	businessflow "github.com/amirphl/LinkHub/business_flow"
	"github.com/amirphl/LinkHub/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/rs/zerolog/log"
)

const defaultRequestTimeout = 30 * time.Second

// baseHandler carries the response envelope and request context helpers every handler shares
type baseHandler struct {
	requestTimeout time.Duration
}

func newBaseHandler(requestTimeout time.Duration) baseHandler {
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	return baseHandler{requestTimeout: requestTimeout}
}

func (h *baseHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *baseHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// createRequestContext derives a bounded context carrying request-scoped values for logging and audit
func (h *baseHandler) createRequestContext(c fiber.Ctx, endpoint string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(c.Context(), h.requestTimeout)

	ctx = context.WithValue(ctx, utils.RequestIDKey, requestid.FromContext(c))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)

	return ctx, cancel
}

func (h *baseHandler) clientMetadata(c fiber.Ctx) *businessflow.ClientMetadata {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetReferrer(c.Get("Referer"))
	metadata.SetRequestID(requestid.FromContext(c))
	return metadata
}

// bindJSON decodes the request body, answering 400 itself when the body is malformed
func (h *baseHandler) bindJSON(c fiber.Ctx, out any) (bool, error) {
	if err := c.Bind().JSON(out); err != nil {
		return false, h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	return true, nil
}

// requireUser returns the authenticated user id, answering 401 itself when it is missing
func (h *baseHandler) requireUser(c fiber.Ctx) (uint, bool, error) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return 0, false, h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHENTICATED", nil)
	}
	return userID, true, nil
}

// fieldErrors flattens a validation error into a stable, field-sorted list
func fieldErrors(err error) []dto.FieldError {
	fields := businessflow.ValidationFields(err)
	out := make([]dto.FieldError, 0, len(fields))
	for field, message := range fields {
		out = append(out, dto.FieldError{Field: field, Message: message})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

func parseUintParam(raw string) (uint, bool) {
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// handleFlowError maps a flow error onto the status code of its kind; unknown errors are logged and hidden
func (h *baseHandler) handleFlowError(c fiber.Ctx, err error, operation string) error {
	switch {
	case businessflow.IsValidation(err):
		if fields := fieldErrors(err); len(fields) > 0 {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", fields)
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", err.Error())

	case businessflow.IsInvalidCredentials(err):
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid email or password", "INVALID_CREDENTIALS", nil)
	case businessflow.IsUnauthenticated(err):
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication failed", "UNAUTHENTICATED", nil)

	case businessflow.IsAnalyticsForbidden(err):
		return h.ErrorResponse(c, fiber.StatusForbidden, "You can only view your own analytics", "ANALYTICS_FORBIDDEN", nil)
	case businessflow.IsForbidden(err):
		return h.ErrorResponse(c, fiber.StatusForbidden, "Access denied", "FORBIDDEN", nil)

	case businessflow.IsLinkNotFound(err):
		return h.ErrorResponse(c, fiber.StatusNotFound, "Link not found", "LINK_NOT_FOUND", nil)
	case businessflow.IsUserNotFound(err):
		return h.ErrorResponse(c, fiber.StatusNotFound, "User not found", "USER_NOT_FOUND", nil)
	case businessflow.IsNotFound(err):
		return h.ErrorResponse(c, fiber.StatusNotFound, "Resource not found", "NOT_FOUND", nil)

	case businessflow.IsEmailAlreadyExists(err):
		return h.ErrorResponse(c, fiber.StatusConflict, "Email already exists", "EMAIL_EXISTS", nil)
	case businessflow.IsUsernameTaken(err):
		return h.ErrorResponse(c, fiber.StatusConflict, "Username is already taken", "USERNAME_TAKEN", nil)
	case businessflow.IsConflict(err):
		return h.ErrorResponse(c, fiber.StatusConflict, "Conflict", "CONFLICT", nil)

	case businessflow.IsOAuthUnavailable(err):
		return h.ErrorResponse(c, fiber.StatusServiceUnavailable, "Google login is not configured", "OAUTH_UNAVAILABLE", nil)
	}

	event := log.Error().
		Err(err).
		Str("operation", operation).
		Str("request_id", requestid.FromContext(c)).
		Str("path", c.Path())
	var be *businessflow.BusinessError
	if errors.As(err, &be) {
		event = event.Str("code", be.Code)
	}
	event.Msg("request failed")
	return h.ErrorResponse(c, fiber.StatusInternalServerError, "An internal server error occurred", "INTERNAL_ERROR", nil)
}
