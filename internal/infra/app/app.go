package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/adolfbenedict/bytehub/internal/core/port"
	"github.com/adolfbenedict/bytehub/internal/infra/config"
	"github.com/adolfbenedict/bytehub/internal/infra/database"
	kafkainfra "github.com/adolfbenedict/bytehub/internal/infra/kafka"
	"github.com/adolfbenedict/bytehub/internal/infra/logger"
	"github.com/adolfbenedict/bytehub/internal/infra/mailer"
	redisinfra "github.com/adolfbenedict/bytehub/internal/infra/redis"
	"github.com/adolfbenedict/bytehub/internal/infra/security"
	"github.com/adolfbenedict/bytehub/internal/infra/telemetry"
	postgresrepo "github.com/adolfbenedict/bytehub/internal/repository/postgres"
	redisrepo "github.com/adolfbenedict/bytehub/internal/repository/redis"
	"github.com/adolfbenedict/bytehub/internal/transport/http/middleware"
	"github.com/adolfbenedict/bytehub/internal/transport/http/routes"
	"github.com/adolfbenedict/bytehub/internal/usecase"
)

type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	producer *kafkainfra.Producer
	tracing  *telemetry.TracerProvider
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	if _, err := telemetry.Attach(ctx, cfg); err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	var tracing *telemetry.TracerProvider
	if cfg.Telemetry.OTLPEndpoint != "" {
		tracing, err = telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
		if err != nil {
			return nil, fmt.Errorf("init tracing: %w", err)
		}
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	argonCfg := security.Argon2Config{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	}
	if err := security.ConfigureArgon2(argonCfg); err != nil {
		return nil, fmt.Errorf("configure argon2: %w", err)
	}

	accessSecret := cfg.JWT.AccessSecret
	refreshSecret := cfg.JWT.RefreshSecret
	if cfg.App.Env == "development" {
		// Config validation only enforces secrets outside development.
		if accessSecret == "" {
			accessSecret = "dev-access-secret"
		}
		if refreshSecret == "" {
			refreshSecret = "dev-refresh-secret"
		}
	}

	issuer, err := security.NewTokenIssuer(security.TokenIssuerConfig{
		Issuer:          cfg.App.Name,
		AccessSecret:    []byte(accessSecret),
		RefreshSecret:   []byte(refreshSecret),
		AccessTokenTTL:  cfg.JWT.AccessTokenTTL,
		RefreshTokenTTL: cfg.JWT.RefreshTokenTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("init token issuer: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		return nil, fmt.Errorf("init redis: %w", err)
	}

	repos := postgresrepo.NewRepositories(pool)

	var producer *kafkainfra.Producer
	var eventPublisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(producer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	var notifier port.Notifier
	if cfg.SMTP.Host != "" {
		notifier = mailer.NewSMTPNotifier(cfg.SMTP, log)
	} else {
		log.Info("smtp host not configured, emails will be logged")
		notifier = mailer.NewLogNotifier(log)
	}

	rateLimitWindow := cfg.RateLimit.WindowDuration
	if rateLimitWindow <= 0 {
		rateLimitWindow = time.Minute
	}
	rateLimitPrefix := cfg.Redis.RateLimitPrefix
	if rateLimitPrefix == "" {
		rateLimitPrefix = "bytehub:rate-limit"
	}
	rateLimitStore := redisrepo.NewRateLimitRepository(redisClient.Client(), redisrepo.SlidingWindowConfig{
		KeyPrefix: rateLimitPrefix,
		TTL:       rateLimitWindow * 2,
	})
	rateLimiter := middleware.NewRateLimiter(rateLimitStore, log)

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	registrationService := usecase.NewRegistrationService(repos.Accounts, repos.Tokens, notifier, eventPublisher, log)
	if cfg.Signup.VerificationCodeTTL > 0 {
		registrationService.WithCodeTTL(cfg.Signup.VerificationCodeTTL)
	}

	authService, err := usecase.NewAuthService(repos.Accounts, repos.Tokens, issuer, registrationService, eventPublisher, log)
	if err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("init auth service: %w", err)
	}
	if cfg.Lockout.MaxAttempts > 0 && cfg.Lockout.Duration > 0 {
		authService.WithLockoutPolicy(cfg.Lockout.MaxAttempts, cfg.Lockout.Duration)
	}

	passwordResetService := usecase.NewPasswordResetService(repos.Accounts, repos.Tokens, notifier, eventPublisher, log)
	if cfg.Signup.PasswordResetTokenTTL > 0 {
		passwordResetService.WithTokenTTL(cfg.Signup.PasswordResetTokenTTL)
	}

	accountService := usecase.NewAccountService(repos.Accounts, eventPublisher, log)
	contactService := usecase.NewContactService(notifier, log)

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: rateLimiter,
		Metrics:     metrics,
		Database:    pool,
		Cache:       redisClient,
		Services: routes.ServiceSet{
			Auth:          authService,
			Registration:  registrationService,
			PasswordReset: passwordResetService,
			Accounts:      accountService,
			Contact:       contactService,
		},
	})

	return &Application{
		cfg:      cfg,
		engine:   engine,
		logger:   log,
		pool:     pool,
		redis:    redisClient,
		producer: producer,
		tracing:  tracing,
	}, nil
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.producer != nil {
			if err := a.producer.Close(); err != nil {
				a.logger.Warn("close kafka producer", zap.Error(err))
			}
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting account API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if a.tracing != nil {
			if err := a.tracing.Shutdown(shutdownCtx); err != nil {
				a.logger.Warn("shutdown tracing", zap.Error(err))
			}
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
