package httpcontroller

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/tphakala/microbe-go/internal/errors"
	"github.com/tphakala/microbe-go/internal/logger"
)

const (
	requestIDHeader     = "X-Request-ID"
	requestIDContextKey = "request_id"
)

// configureMiddleware sets up middleware for the server.
func (s *Server) configureMiddleware() {
	s.Echo.Use(middleware.Recover())
	s.Echo.Use(s.RequestIDMiddleware)
	s.Echo.Use(s.RequestMetricsMiddleware)
	s.Echo.Use(middleware.BodyLimit("64K"))
}

// RequestIDMiddleware tags each request with a short ID, reusing the one
// supplied by the client when present.
func (s *Server) RequestIDMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Request().Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()[:8]
		}
		c.Set(requestIDContextKey, id)
		c.Response().Header().Set(requestIDHeader, id)
		return next(c)
	}
}

func requestID(c echo.Context) string {
	id, _ := c.Get(requestIDContextKey).(string)
	return id
}

// RequestMetricsMiddleware records the status and duration of every request
// under its route pattern and logs it at debug level.
func (s *Server) RequestMetricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		elapsed := time.Since(start)

		status := c.Response().Status
		if err != nil {
			var he *echo.HTTPError
			if errors.As(err, &he) {
				status = he.Code
			} else {
				status = http.StatusInternalServerError
			}
		}

		path := c.Path()
		if path == "" {
			path = "unmatched"
		}
		s.httpMetrics().RecordHTTPRequest(c.Request().Method, path, status, elapsed)
		s.log.Debug("request",
			logger.String("request_id", requestID(c)),
			logger.String("method", c.Request().Method),
			logger.String("path", path),
			logger.Int("status", status),
			logger.Duration("elapsed", elapsed))
		return err
	}
}
