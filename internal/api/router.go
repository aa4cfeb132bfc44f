package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/contaportal/portal/docs"
	"github.com/contaportal/portal/internal/api/handler"
	"github.com/contaportal/portal/internal/api/middleware"
	"github.com/contaportal/portal/internal/core/domain"
	"github.com/contaportal/portal/internal/core/ports"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Auth        ports.AuthService
	Messages    ports.MessageService
	Documents   ports.DocumentService
	Alerts      ports.AlertService
	Revocations middleware.RevocationChecker
	Readiness   map[string]handler.PingFunc

	JWTSecret      string
	MaxUploadBytes int64
	Log            zerolog.Logger

	// Registry receives the HTTP request metrics. Defaults to the global
	// Prometheus registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	var registerer prometheus.Registerer = prometheus.DefaultRegisterer
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if d.Registry != nil {
		registerer, gatherer = d.Registry, d.Registry
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "portal",
		Registerer: registerer,
	}))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(d.Auth)
	messageHandler := handler.NewMessageHandler(d.Messages)
	documentHandler := handler.NewDocumentHandler(d.Documents, d.MaxUploadBytes)
	alertHandler := handler.NewAlertHandler(d.Alerts)
	authMiddleware := middleware.Auth(d.JWTSecret, d.Revocations)

	// --- Auth routes ---
	e.POST("/auth/login", authHandler.Login)

	authed := e.Group("", authMiddleware)
	authed.GET("/auth/me", authHandler.Me)
	authed.POST("/auth/logout", authHandler.Logout)
	authed.POST("/auth/register", authHandler.Register, middleware.RBAC(domain.RoleAdmin))
	authed.GET("/users", authHandler.Users)

	// --- Messaging ---
	authed.GET("/messages/:counterpart_id", messageHandler.History)
	authed.POST("/messages", messageHandler.Send)

	// --- Documents ---
	authed.POST("/documents", documentHandler.Upload)
	authed.GET("/documents", documentHandler.List)
	authed.GET("/documents/:id", documentHandler.Download)

	// --- Alerts ---
	staff := middleware.RBAC(domain.RoleAdmin, domain.RoleAccountant)
	authed.GET("/alerts", alertHandler.List)
	authed.POST("/alerts", alertHandler.Create, staff)
	authed.GET("/alerts/:id", alertHandler.Get)
	authed.DELETE("/alerts/:id", alertHandler.Delete, staff)

	// --- Health probes, metrics and docs (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.Readiness)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger logs one structured line per request through zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Status >= 500 {
				evt = log.Error().Err(v.Error)
			}
			evt.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
