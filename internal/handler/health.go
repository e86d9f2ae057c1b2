package handler

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/deppfellow/zrouter/internal/middleware"
	"github.com/deppfellow/zrouter/internal/params"
	"github.com/deppfellow/zrouter/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type HealthHandler struct {
	Handler
}

func NewHealthHandler(s *server.Server) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
	}
}

// Get reports service health and writes the response itself: 200 when every
// configured dependency check passes, 503 otherwise. Register it as an open,
// direct route.
func (h *HealthHandler) Get(c echo.Context, _ params.Params) (any, error) {
	start := time.Now()

	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	checks := make(map[string]interface{})
	response := map[string]interface{}{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"environment": h.server.Config.Primary.Env,
		"checks":      checks,
	}

	isHealthy := true
	healthCfg := h.server.Config.Observability.HealthChecks

	timeout := healthCfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
	defer cancel()

	if healthCfg.Enabled && slices.Contains(healthCfg.Checks, "database") && h.server.DB != nil {
		if !h.check(ctx, &logger, checks, "database", h.server.DB.Pool.Ping) {
			isHealthy = false
		}
	}

	if healthCfg.Enabled && slices.Contains(healthCfg.Checks, "redis") && h.server.Redis != nil {
		ping := func(ctx context.Context) error { return h.server.Redis.Ping(ctx).Err() }
		if !h.check(ctx, &logger, checks, "redis", ping) {
			isHealthy = false
		}
	}

	if !isHealthy {
		response["status"] = "unhealthy"

		logger.Warn().
			Dur("total_duration", time.Since(start)).
			Msg("health check failed")

		h.recordEvent("HealthCheckError", map[string]interface{}{
			"check_type":        "overall",
			"operation":         "health_check",
			"error_type":        "overall_unhealthy",
			"total_duration_ms": time.Since(start).Milliseconds(),
		})

		return nil, c.JSON(http.StatusServiceUnavailable, response)
	}

	return nil, c.JSON(http.StatusOK, response)
}

// check runs one dependency ping and records its outcome under name.
func (h *HealthHandler) check(ctx context.Context, logger *zerolog.Logger, checks map[string]interface{}, name string, ping func(context.Context) error) bool {
	start := time.Now()

	if err := ping(ctx); err != nil {
		checks[name] = map[string]interface{}{
			"status":        "unhealthy",
			"response_time": time.Since(start).String(),
			"error":         err.Error(),
		}

		logger.Error().
			Err(err).
			Dur("response_time", time.Since(start)).
			Msgf("%s health check failed", name)

		h.recordEvent("HealthCheckError", map[string]interface{}{
			"check_type":       name,
			"operation":        "health_check",
			"error_type":       name + "_unhealthy",
			"response_time_ms": time.Since(start).Milliseconds(),
			"error_message":    err.Error(),
		})

		return false
	}

	checks[name] = map[string]interface{}{
		"status":        "healthy",
		"response_time": time.Since(start).String(),
	}

	logger.Debug().
		Dur("response_time", time.Since(start)).
		Msgf("%s health check passed", name)

	return true
}
