package handler

import (
	"context"
	"sort"
	"time"

	"induction-portal/internal/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// HealthResponse reports each dependency as "ok" or its error.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

type HealthHandler struct {
	checks map[string]HealthCheck
}

func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Health godoc
// @Summary Liveness and dependency health
// @Tags ops
// @Produce json
// @Success 200 {object} handler.HealthResponse
// @Failure 503 {object} handler.HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(names))}
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			logger.Get().Warn("Health check failed", zap.String("check", name), zap.Error(err))
			resp.Status = "unavailable"
			resp.Checks[name] = err.Error()
			continue
		}
		resp.Checks[name] = "ok"
	}

	if resp.Status != "ok" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}
