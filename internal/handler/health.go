package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Health answers load balancer probes.  With a pinger it also checks the
// database and reports 503 when it is unreachable.
func Health(ping func(ctx context.Context) error, log *zap.Logger) echo.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c echo.Context) error {
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				log.Warn("health check failed", zap.Error(err))
				return c.String(http.StatusServiceUnavailable, "unavailable")
			}
		}
		return c.String(http.StatusOK, "ok")
	}
}
