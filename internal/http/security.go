package http

import (
	"strings"
	"sync/atomic"

	"github.com/labstack/echo/v4"

	applog "tutorbook/internal/log"
)

var suspiciousPatterns = []string{
	"../", "..\\", ".env", "wp-admin", "phpmyadmin",
	"admin.php", "config.php", ".git", ".ssh",
	"eval(", "javascript:", "<script", "union select",
	"etc/passwd", "cmd.exe",
}

var suspiciousAgents = []string{
	"sqlmap", "nmap", "nikto", "gobuster", "dirb", "masscan", "zgrab",
}

// detector flags requests that look like probes. Flagged requests are still
// served; they are logged and counted.
type detector struct {
	suspicious atomic.Int64
}

func newDetector() *detector {
	return &detector{}
}

func (d *detector) count() int64 {
	return d.suspicious.Load()
}

func (d *detector) middleware(logger *applog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if reason := inspect(c); reason != "" {
				d.suspicious.Add(1)
				logger.WarnContext(c.Request().Context(), "Suspicious request",
					"reason", reason,
					applog.FieldPath, c.Request().URL.Path,
					applog.FieldClientIP, c.RealIP(),
					applog.FieldUserAgent, c.Request().UserAgent())
			}
			return next(c)
		}
	}
}

// inspect returns why a request looks suspicious, or "".
func inspect(c echo.Context) string {
	req := c.Request()

	path := strings.ToLower(req.URL.Path)
	query := strings.ToLower(req.URL.RawQuery)
	for _, pattern := range suspiciousPatterns {
		if strings.Contains(path, pattern) || strings.Contains(query, pattern) {
			return "pattern " + pattern
		}
	}

	agent := strings.ToLower(req.UserAgent())
	for _, a := range suspiciousAgents {
		if strings.Contains(agent, a) {
			return "user agent " + a
		}
	}

	switch req.Method {
	case "TRACE", "TRACK", "DEBUG", "CONNECT":
		return "method " + req.Method
	}

	if len(req.URL.String()) > 2048 {
		return "long url"
	}
	// More than five proxy hops usually means a forged header.
	if strings.Count(req.Header.Get(echo.HeaderXForwardedFor), ",") > 5 {
		return "forwarded chain"
	}
	return ""
}
