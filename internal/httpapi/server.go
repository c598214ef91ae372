// Package httpapi exposes the Case Collaboration Spine and SOA engine over
// HTTP/JSON, §6. Grounded directly on the teacher's http/server.go: the
// same Echo-construction shape (logger, recover, body limit, CORS, request
// id, rate limiter), generalized from a generic service skeleton into
// VMP's route table and session-cookie/JWT actor resolution.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"vendorops.io/vmp/internal/platform"
)

// ServerConfig is every input NewEchoServer needs to assemble the
// middleware chain, mirroring the teacher's ServerConfig.
type ServerConfig struct {
	Port            int
	Debug           bool
	BodyLimit       string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	UploadRateLimit float64 // requests/sec applied to evidence/SOA ingest routes only
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:            8080,
		BodyLimit:       "55M", // evidence uploads cap at 50 MiB, §4.4
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		AllowedOrigins:  []string{"*"},
		UploadRateLimit: 2,
	}
}

// NewEchoServer builds an Echo instance with VMP's standard middleware
// chain, §5's per-request deadline, and the route table wired against deps.
func NewEchoServer(cfg ServerConfig, deps Dependencies, logger *logrus.Logger) *echo.Echo {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Debug = cfg.Debug
	e.HTTPErrorHandler = NewErrorHandler(logger)

	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(requestLogger(logger))
	e.Use(requestDeadline(platform.RequestDeadline))

	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}
	if len(cfg.AllowedOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowCredentials: true,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		}))
	}

	uploadLimiter := middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStore(rate.Limit(cfg.UploadRateLimit)),
	})

	RegisterRoutes(e, deps, uploadLimiter)
	return e
}

// requestLogger mirrors the teacher's LoggerWithConfig line format via logrus
// structured fields instead of a raw format string.
func requestLogger(logger *logrus.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			logger.WithFields(logrus.Fields{
				"method":     c.Request().Method,
				"path":       c.Request().URL.Path,
				"status":     c.Response().Status,
				"latency_ms": time.Since(start).Milliseconds(),
				"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
			}).Info("request")
			return err
		}
	}
}

// requestDeadline enforces §5's 30-second global per-request deadline.
func requestDeadline(d time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, cancel := context.WithTimeout(c.Request().Context(), d)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// StartServer runs the server, blocking until shutdown or a listen error.
func StartServer(e *echo.Echo, cfg ServerConfig) error {
	s := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return e.StartServer(s)
}

// GracefulShutdown drains in-flight requests within timeout before closing.
func GracefulShutdown(e *echo.Echo, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return e.Shutdown(ctx)
}
