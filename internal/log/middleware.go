package log

import (
	"context"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
)

// ContextKey type for context keys
type ContextKey string

const (
	// LoggerContextKey is the context key for the logger
	LoggerContextKey ContextKey = "logger"
)

// WithContext stores a logger in ctx.
func WithContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext extracts a logger from the request context
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// RequestLogger attaches a request-scoped logger to the request context and
// logs each completed request. It expects the request ID middleware to run
// first so the response carries X-Request-ID.
func RequestLogger(logger *Logger) echo.MiddlewareFunc {
	httpLogger := logger.WithComponent(ComponentHTTP)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			requestID := c.Response().Header().Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = req.Header.Get(echo.HeaderXRequestID)
			}

			reqLogger := httpLogger.With(FieldRequestID, requestID)
			c.SetRequest(req.WithContext(WithContext(req.Context(), reqLogger)))

			err := next(c)
			if err != nil {
				// Let the error handler write the response before logging its status.
				c.Error(err)
			}

			status := c.Response().Status
			level := slog.LevelInfo
			switch {
			case status >= 500:
				level = slog.LevelError
			case status >= 400:
				level = slog.LevelWarn
			}

			fields := NewFields().
				WithHTTPRequest(req.Method, c.Path(), req.URL.RawQuery, req.UserAgent(), c.RealIP()).
				WithHTTPResponse(status, time.Since(start).Milliseconds()).
				WithComponent(ComponentHTTP).
				WithError(err)
			reqLogger.Logger.Log(req.Context(), level, "HTTP request completed", fields.ToSlice()...)
			return nil
		}
	}
}
