package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aimarketspace/marketplace-api/docs"
	"github.com/aimarketspace/marketplace-api/internal/auth"
	"github.com/aimarketspace/marketplace-api/internal/config"
	"github.com/aimarketspace/marketplace-api/internal/database"
	"github.com/aimarketspace/marketplace-api/internal/http/handler"
	"github.com/aimarketspace/marketplace-api/internal/http/middleware"
	"github.com/aimarketspace/marketplace-api/internal/http/router"
	"github.com/aimarketspace/marketplace-api/internal/jobs"
	"github.com/aimarketspace/marketplace-api/internal/logger"
	"github.com/aimarketspace/marketplace-api/internal/mailer"
	"github.com/aimarketspace/marketplace-api/internal/ratelimit"
	"github.com/aimarketspace/marketplace-api/internal/repository"
	"github.com/aimarketspace/marketplace-api/internal/service"
	"github.com/aimarketspace/marketplace-api/internal/storage"
	"github.com/aimarketspace/marketplace-api/internal/webhook"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// @title AIMarketSpace API
// @version 1.0
// @description Marketplace API connecting businesses with AI automation creators
// @termsOfService https://aimeetplace.com/terms

// @contact.name AIMarketSpace Support
// @contact.email contact@aimeetplace.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Session token from /auth/verify, sent as "Bearer <token>"

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API Key for back-office operations

const jobTimeout = 5 * time.Minute

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	switch basicCfg.App.Environment {
	case "staging":
		docs.SwaggerInfo.Host = "api-staging.aimeetplace.com"
	case "production":
		docs.SwaggerInfo.Host = "api.aimeetplace.com"
	default:
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// In development secrets come from the environment, elsewhere from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	db, err := database.NewDatabase(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	mediaStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	sender := newMailSender(cfg, log)

	// Contact form limiter: Redis when configured, in-process otherwise
	memoryLimiter := ratelimit.NewMemoryLimiter(cfg.Support.RateLimitWindowDuration())
	var contactLimiter ratelimit.Limiter = memoryLimiter
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = ratelimit.NewRedisClient(ctx, &cfg.Redis)
		if err != nil {
			log.Warn("Redis unavailable, using in-process contact limiter", zap.Error(err))
		} else {
			contactLimiter = ratelimit.NewRedisLimiter(redisClient, "support:contact",
				cfg.Support.RateLimitWindowDuration(), memoryLimiter, log)
			log.Info("Redis contact limiter enabled", zap.String("addr", cfg.Redis.Addr))
		}
	}

	webhookClient := webhook.NewClient(&cfg.Webhook, log)
	var supportRelay service.Relay
	if cfg.Support.RelayURL != "" {
		supportRelay = webhook.NewClientWithEndpoints([]string{cfg.Support.RelayURL}, webhook.Options{
			Timeout: cfg.Webhook.TimeoutDuration(),
		}, log)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	magicLinkRepo := repository.NewMagicLinkRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	creatorRepo := repository.NewCreatorProfileRepository(db)
	businessRepo := repository.NewBusinessProfileRepository(db)
	eventRepo := repository.NewVerificationEventRepository(db)
	postRepo := repository.NewBusinessPostRepository(db)
	requestRepo := repository.NewPendingRequestRepository(db)
	consentRepo := repository.NewConsentRepository(db)
	webhookRepo := repository.NewWebhookDeliveryRepository(db)

	// Initialize services
	tokens := auth.NewTokenManager(&cfg.Auth)
	authService := service.NewAuthService(userRepo, magicLinkRepo, sessionRepo, creatorRepo, businessRepo,
		tokens, sender, &cfg.Auth, log, db)
	verificationService := service.NewVerificationService(businessRepo, eventRepo, webhookRepo, cfg.Support.Email, log, db)
	postService := service.NewPostService(postRepo, verificationService, &cfg.Posts, log)
	creatorService := service.NewCreatorService(creatorRepo, mediaStorage, cfg.Storage.MaxUploadSizeMB, log)
	requestService := service.NewRequestService(requestRepo, creatorRepo, log)
	accountService := service.NewAccountService(userRepo, postRepo, creatorRepo, businessRepo, eventRepo,
		requestRepo, sessionRepo, mediaStorage, log, db)
	consentService := service.NewConsentService(consentRepo, log)
	supportService := service.NewSupportService(contactLimiter, supportRelay, sender, cfg.Support.Email, log)
	webhookService := service.NewWebhookService(webhookRepo, webhookClient, &cfg.Webhook, log)

	// Initialize middleware
	authMiddleware := auth.NewMiddleware(tokens, authService, cfg.ApiKey.Value, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)
	auditMiddleware := middleware.NewAuditMiddleware(nil, log)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(db, log)
	if redisClient != nil {
		healthHandler.AddCheck("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	rt := router.NewRouter(
		cfg,
		log,
		mediaStorage,
		authMiddleware,
		rateLimiter,
		auditMiddleware,
		healthHandler,
		handler.NewAuthHandler(authService, log),
		handler.NewCreatorHandler(creatorService, log),
		handler.NewVerificationHandler(verificationService, log),
		handler.NewPostHandler(postService, log),
		handler.NewRequestHandler(requestService, log),
		handler.NewAccountHandler(accountService, log),
		handler.NewConsentHandler(consentService, log),
		handler.NewSupportHandler(supportService, log),
		handler.NewWebhookHandler(webhookService, log),
	)

	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled {
		scheduler = jobs.NewScheduler(log)
		if err := registerJobs(scheduler, cfg, postService, webhookService, authService, memoryLimiter, log); err != nil {
			return err
		}
		scheduler.Start()
		log.Info("Scheduler started", zap.Strings("jobs", scheduler.GetJobNames()))
	} else {
		log.Info("Background jobs disabled")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		if scheduler != nil {
			stopCtx := scheduler.Stop()
			<-stopCtx.Done()
			log.Info("Scheduler stopped")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				log.Warn("Error closing redis connection", zap.Error(err))
			}
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}

// newMailSender returns an SMTP sender, or a sender that only logs when
// running locally without SMTP settings
func newMailSender(cfg *config.Config, log *zap.Logger) mailer.Sender {
	m, err := mailer.NewMailer(&cfg.SMTP, log)
	if err != nil {
		log.Warn("SMTP not configured, emails will only be logged", zap.Error(err))
		return mailer.NewLogSender(log)
	}
	if cfg.App.Environment == "development" && cfg.SMTP.Username == "" {
		log.Info("Development mode without SMTP credentials, emails will only be logged")
		return mailer.NewLogSender(log)
	}
	return m
}

func registerJobs(
	scheduler *jobs.Scheduler,
	cfg *config.Config,
	posts *service.PostService,
	webhooks *service.WebhookService,
	authService *service.AuthService,
	limiter *ratelimit.MemoryLimiter,
	log *zap.Logger,
) error {
	if err := jobs.RegisterPostExpiryJob(scheduler, posts, log, cfg.Jobs.PostExpiry, jobTimeout); err != nil {
		return fmt.Errorf("failed to register post expiry job: %w", err)
	}
	if cfg.Webhook.Enabled {
		if err := jobs.RegisterWebhookDispatchJob(scheduler, webhooks, log, cfg.Jobs.WebhookDispatch, jobTimeout); err != nil {
			return fmt.Errorf("failed to register webhook dispatch job: %w", err)
		}
	}
	if err := jobs.RegisterAuthCleanupJob(scheduler, authService, log, cfg.Jobs.AuthCleanup, jobTimeout, limiter); err != nil {
		return fmt.Errorf("failed to register auth cleanup job: %w", err)
	}
	return nil
}
