package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	applog "tutorbook/internal/log"
	"tutorbook/internal/services"
)

// Options configure the API server.
type Options struct {
	Addr          string
	RateLimitRPS  float64
	AllowedOrigin string
	// Now is the clock used for reminder scans. Defaults to time.Now.
	Now func() time.Time
}

// Server is the JSON API over the ledger service.
type Server struct {
	app      *echo.Echo
	ledger   *services.LedgerService
	detector *detector
	opts     Options
	logger   *applog.Logger
}

func NewServer(ledger *services.LedgerService, opts Options, logger *applog.Logger) *Server {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		app:      echo.New(),
		ledger:   ledger,
		detector: newDetector(),
		opts:     opts,
		logger:   logger.WithComponent(applog.ComponentHTTP),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	e := s.app
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newValidator()
	e.HTTPErrorHandler = AppHTTPErrorHandler
	// Forwarded headers are honoured only from loopback and private proxies.
	e.IPExtractor = echo.ExtractIPFromXFFHeader(
		echo.TrustLoopback(true),
		echo.TrustPrivateNet(true),
	)

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.RequestID())
	e.Use(applog.RequestLogger(s.logger))
	e.Use(middleware.Recover())
	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
	}))
	e.Use(s.detector.middleware(s.logger))
	if s.opts.AllowedOrigin != "" {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: []string{s.opts.AllowedOrigin},
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		}))
	}
	if s.opts.RateLimitRPS > 0 {
		e.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(s.opts.RateLimitRPS),
				Burst:     max(1, int(s.opts.RateLimitRPS*2)),
				ExpiresIn: 3 * time.Minute,
			}),
			IdentifierExtractor: func(c echo.Context) (string, error) {
				return c.RealIP(), nil
			},
			DenyHandler: func(c echo.Context, _ string, _ error) error {
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			},
		}))
	}

	e.GET("/healthz", s.handleHealth)
	e.GET("/readyz", s.handleReady)

	v1 := e.Group("/v1")
	RegisterDashboardAPI(v1, s.ledger)
	RegisterLedgerAPI(v1, s.ledger)
	RegisterRosterAPI(v1, s.ledger)
	RegisterReminderAPI(v1, s.ledger, s.opts.Now)
}

// Start blocks serving on the configured address until Stop is called.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", "addr", s.opts.Addr)
	if err := s.app.Start(s.opts.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

// ServeHTTP lets tests drive the router directly.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.app.ServeHTTP(w, r)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":              "ok",
		"suspicious_requests": s.detector.count(),
	})
}

func (s *Server) handleReady(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := s.ledger.Ready(ctx); err != nil {
		applog.FromContext(ctx).WarnContext(ctx, "Readiness check failed", applog.FieldError, err)
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"status": "unavailable",
			"error":  err.Error(),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":      "ready",
		"data_source": s.ledger.Source().Kind().String(),
		"version":     s.ledger.Source().Version(),
	})
}
