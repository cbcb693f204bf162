package handlers

import (
	"context"
	"sort"
	"time"

	"github.com/amirphl/LinkHub/app/dto"
	"github.com/gofiber/fiber/v3"
)

// HealthCheck probes one dependency
type HealthCheck func(ctx context.Context) error

// HealthHandler reports liveness of the API and its dependencies
type HealthHandler struct {
	baseHandler
	version string
	checks  map[string]HealthCheck
}

// NewHealthHandler creates a health handler; checks may be nil
func NewHealthHandler(version string, checks map[string]HealthCheck) *HealthHandler {
	if checks == nil {
		checks = map[string]HealthCheck{}
	}
	return &HealthHandler{
		baseHandler: newBaseHandler(5 * time.Second),
		version:     version,
		checks:      checks,
	}
}

// Health handles health check requests
// @Summary Health Check
// @Description Check the health status of the API and its dependencies
// @Tags Health
// @Produce json
// @Success 200 {object} dto.APIResponse "Service is healthy"
// @Failure 503 {object} dto.APIResponse "A dependency is down"
// @Router /api/v1/health [get]
func (h *HealthHandler) Health(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/health")
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	healthy := true
	components := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			healthy = false
			components[name] = "unhealthy: " + err.Error()
			continue
		}
		components[name] = "healthy"
	}

	data := fiber.Map{
		"status":     "healthy",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"version":    h.version,
		"components": components,
	}
	if !healthy {
		data["status"] = "degraded"
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.APIResponse{
			Success: false,
			Message: "Service is degraded",
			Data:    data,
		})
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Service is healthy", data)
}
