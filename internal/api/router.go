package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/eparriel/pfe-backend/docs"
	"github.com/eparriel/pfe-backend/internal/api/handler"
	"github.com/eparriel/pfe-backend/internal/api/middleware"
	"github.com/eparriel/pfe-backend/internal/core/ports"
)

const metricsSubsystem = "pfe"

// Dependencies holds everything the router wires into handlers.
type Dependencies struct {
	Log            zerolog.Logger
	AllowedOrigins []string

	AuthService ports.AuthService
	UserService ports.UserService
	Codec       ports.TokenCodec

	// Limiter enables login and registration throttling when set.
	Limiter ports.RateLimiter

	// Telemetry and Queue serve the vivarium routes when both are set;
	// otherwise those routes answer 503.
	Telemetry ports.TelemetryService
	Queue     handler.MeasurementQueue

	// Health lists the dependencies checked by the readiness probe.
	Health map[string]handler.Pinger

	// Registry receives the HTTP metrics. Defaults to the global registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: deps.AllowedOrigins,
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodDelete, http.MethodPatch, http.MethodOptions,
		},
		AllowHeaders: []string{
			echo.HeaderContentType, echo.HeaderAuthorization, "X-Requested-With",
		},
		AllowCredentials: true,
		MaxAge:           86400,
	}))
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if deps.Registry != nil {
		registerer, gatherer = deps.Registry, deps.Registry
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  metricsSubsystem,
		Registerer: registerer,
	}))

	// --- Guards ---
	authenticated := middleware.Auth(deps.Codec, deps.Log)
	admin := middleware.Admin(deps.Codec, deps.Log)

	// --- Health probes, docs and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler(deps.Health)
	e.GET("/", healthHandler.Hello)
	e.GET("/health", healthHandler.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/api/*", echoSwagger.WrapHandler)

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(deps.AuthService)
	e.POST("/connect", authHandler.Login, middleware.RateLimit(deps.Limiter, middleware.LoginPolicy, deps.Log))
	e.POST("/register", authHandler.Register, middleware.RateLimit(deps.Limiter, middleware.RegisterPolicy, deps.Log))
	e.GET("/profile", authHandler.Profile, authenticated)

	// --- User routes ---
	userHandler := handler.NewUserHandler(deps.UserService)
	users := e.Group("/users")
	users.PUT("/profile", userHandler.UpdateProfile, authenticated)
	users.DELETE("/profile", userHandler.RemoveProfile, authenticated)
	users.GET("/:id", userHandler.Get, authenticated)
	users.PUT("/:id", userHandler.Update, authenticated)
	users.DELETE("/:id", userHandler.Remove, admin)

	// --- Vivarium telemetry ---
	vivariums := e.Group("/vivariums/:id")
	if deps.Telemetry != nil && deps.Queue != nil {
		telemetryHandler := handler.NewTelemetryHandler(deps.Telemetry, deps.Queue)
		vivariums.POST("/bucket", telemetryHandler.CreateBucket, admin)
		vivariums.DELETE("/bucket", telemetryHandler.DeleteBucket, admin)
		vivariums.POST("/measurements", telemetryHandler.Record, authenticated)
		vivariums.GET("/measurements", telemetryHandler.Readings, authenticated)
	} else {
		vivariums.POST("/bucket", handler.TelemetryDisabled, admin)
		vivariums.DELETE("/bucket", handler.TelemetryDisabled, admin)
		vivariums.POST("/measurements", handler.TelemetryDisabled, authenticated)
		vivariums.GET("/measurements", handler.TelemetryDisabled, authenticated)
	}

	return e
}

// requestLogger logs one line per request through zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Error != nil {
				evt = log.Warn().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
