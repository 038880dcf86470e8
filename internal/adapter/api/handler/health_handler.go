package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"rentchat/pkg/logger"
)

// Pinger checks that a backing store is reachable.
type Pinger func(ctx context.Context) error

type HealthHandler struct {
	driver string
	ping   Pinger
}

// NewHealthHandler reports on the store selected by driver. ping may be
// nil for stores that have no connection to check.
func NewHealthHandler(driver string, ping Pinger) *HealthHandler {
	return &HealthHandler{
		driver: driver,
		ping:   ping,
	}
}

func (h *HealthHandler) Ping(c echo.Context) error {
	return c.String(http.StatusOK, "pong")
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	status := map[string]string{
		"status":   "ok",
		"database": h.driver,
		"time":     time.Now().Format(time.RFC3339),
	}

	if h.ping != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		if err := h.ping(ctx); err != nil {
			logger.Error("health check: %s unreachable: %v", h.driver, err)
			status["status"] = "degraded"
			return c.JSON(http.StatusServiceUnavailable, status)
		}
	}

	return c.JSON(http.StatusOK, status)
}
