package api

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	echo "github.com/labstack/echo/v5"
)

// requestID injects an X-Request-ID header on every response, generating
// one when the caller didn't supply it, grounded on tarsy's middleware.go
// pattern of small composable echo.MiddlewareFunc helpers.
func requestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			id := c.Request().Header.Get("X-Request-ID")
			if id == "" {
				id = uuid.NewString()
			}
			c.Response().Header().Set("X-Request-ID", id)
			c.Set("request_id", id)
			return next(c)
		}
	}
}

// accessLog writes one structured log line per request via log/slog,
// matching the ambient-stack logging convention used throughout pkg/*.
func accessLog() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			start := time.Now()
			err := next(c)
			slog.Info("http request",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", c.Response().Status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", c.Get("request_id"),
			)
			return err
		}
	}
}

// securityHeaders sets standard response headers for a read-only API
// surface, grounded on tarsy's pkg/api/middleware.go.
func securityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			h := c.Response().Header()
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			return next(c)
		}
	}
}
