package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/adolfbenedict/bytehub/internal/infra/config"
	"github.com/adolfbenedict/bytehub/internal/transport/http/handlers"
	"github.com/adolfbenedict/bytehub/internal/transport/http/middleware"
	"github.com/adolfbenedict/bytehub/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth          *usecase.AuthService
	Registration  *usecase.RegistrationService
	PasswordReset *usecase.PasswordResetService
	Accounts      *usecase.AccountService
	Contact       *usecase.ContactService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Metrics     *middleware.HTTPMetrics
	Services    ServiceSet
	Database    DatabaseChecker
	Cache       CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS([]string{deps.Config.Frontend.Origin}))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	healthOptions := make([]handlers.HealthOption, 0, 2)
	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}
	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}

	healthHandler := handlers.NewHealthHandler(healthOptions...)
	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	cookie := handlers.CookieSettings{
		Domain: deps.Config.Frontend.CookieDomain,
		Secure: deps.Config.App.Env != "development",
	}

	root := r.Group("")

	registrationHandler := handlers.NewRegistrationHandler(deps.Services.Registration)
	registrationHandler.RegisterRoutes(root, limitBy(deps, "signup", deps.Config.RateLimit.SignupMaxAttempts)...)

	authHandler := handlers.NewAuthHandler(deps.Services.Auth, cookie)
	authHandler.RegisterRoutes(root,
		limitBy(deps, "login", deps.Config.RateLimit.LoginMaxAttempts),
		limitBy(deps, "token", deps.Config.RateLimit.RefreshMaxAttempts))

	passwordHandler := handlers.NewPasswordHandler(deps.Services.PasswordReset)
	passwordHandler.RegisterRoutes(root, limitBy(deps, "password_reset", deps.Config.RateLimit.PasswordResetMaxAttempts)...)

	accountHandler := handlers.NewAccountHandler(deps.Services.Accounts, deps.Services.Auth, cookie)
	accountHandler.RegisterRoutes(root)

	contactHandler := handlers.NewContactHandler(deps.Services.Contact)
	contactHandler.RegisterRoutes(root, limitBy(deps, "contact", deps.Config.RateLimit.SignupMaxAttempts)...)

	return r
}

// limitBy builds a per-IP sliding-window middleware chain for one scope.
func limitBy(deps Dependencies, name string, limit int) []gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil || limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}

	rule := middleware.RateLimitRule{
		Name:       name,
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule)}
}
