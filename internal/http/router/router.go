package router

import (
	"net/http"
	"time"

	"github.com/aimarketspace/marketplace-api/internal/auth"
	"github.com/aimarketspace/marketplace-api/internal/config"
	"github.com/aimarketspace/marketplace-api/internal/domain"
	"github.com/aimarketspace/marketplace-api/internal/http/handler"
	"github.com/aimarketspace/marketplace-api/internal/http/middleware"
	"github.com/aimarketspace/marketplace-api/internal/metrics"
	"github.com/aimarketspace/marketplace-api/internal/storage"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	_ "github.com/aimarketspace/marketplace-api/docs" // Import generated swagger docs
)

// Strict budgets for endpoints that send email
const (
	magicLinkRequestsPerWindow = 5
	contactRequestsPerWindow   = 5
	strictWindow               = 15 * time.Minute
)

type Router struct {
	cfg                 *config.Config
	logger              *zap.Logger
	storage             storage.Storage
	authMiddleware      *auth.Middleware
	rateLimiter         *middleware.RateLimiter
	auditMiddleware     *middleware.AuditMiddleware
	healthHandler       *handler.HealthHandler
	authHandler         *handler.AuthHandler
	creatorHandler      *handler.CreatorHandler
	verificationHandler *handler.VerificationHandler
	postHandler         *handler.PostHandler
	requestHandler      *handler.RequestHandler
	accountHandler      *handler.AccountHandler
	consentHandler      *handler.ConsentHandler
	supportHandler      *handler.SupportHandler
	webhookHandler      *handler.WebhookHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	store storage.Storage,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	auditMiddleware *middleware.AuditMiddleware,
	healthHandler *handler.HealthHandler,
	authHandler *handler.AuthHandler,
	creatorHandler *handler.CreatorHandler,
	verificationHandler *handler.VerificationHandler,
	postHandler *handler.PostHandler,
	requestHandler *handler.RequestHandler,
	accountHandler *handler.AccountHandler,
	consentHandler *handler.ConsentHandler,
	supportHandler *handler.SupportHandler,
	webhookHandler *handler.WebhookHandler,
) *Router {
	return &Router{
		cfg:                 cfg,
		logger:              logger,
		storage:             store,
		authMiddleware:      authMiddleware,
		rateLimiter:         rateLimiter,
		auditMiddleware:     auditMiddleware,
		healthHandler:       healthHandler,
		authHandler:         authHandler,
		creatorHandler:      creatorHandler,
		verificationHandler: verificationHandler,
		postHandler:         postHandler,
		requestHandler:      requestHandler,
		accountHandler:      accountHandler,
		consentHandler:      consentHandler,
		supportHandler:      supportHandler,
		webhookHandler:      webhookHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	if rt.cfg.Metrics.Enabled {
		r.Use(metrics.InstrumentHandler)
	}
	r.Use(rt.rateLimiter.LimitByIP) // Apply IP-based rate limiting globally
	if rt.cfg.Server.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(time.Duration(rt.cfg.Server.RequestTimeout) * time.Second))
	}

	// Health checks
	r.Get("/health", rt.healthHandler.Live)
	r.Get("/health/db", rt.healthHandler.Database)
	r.Get("/health/ready", rt.healthHandler.Ready)

	if rt.cfg.Metrics.Enabled {
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	// Swagger documentation
	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// Avatars stored on local disk are served directly; blob storage serves its own URLs
	if local, ok := rt.storage.(*storage.LocalStorage); ok {
		fileServer := http.StripPrefix("/media/", http.FileServer(http.Dir(local.BasePath())))
		r.Get("/media/*", fileServer.ServeHTTP)
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes (no auth required)
		r.Post("/auth/check-email", rt.authHandler.CheckEmail)
		r.With(rt.rateLimiter.Strict(magicLinkRequestsPerWindow, strictWindow)).
			Post("/auth/magic-link", rt.authHandler.RequestMagicLink)
		r.Post("/auth/verify", rt.authHandler.Verify)

		r.Get("/posts", rt.postHandler.ListActive)
		r.Get("/posts/has-active", rt.postHandler.HasActive)
		r.With(rt.authMiddleware.OptionalAuthenticate).Get("/posts/{id}", rt.postHandler.GetByID)

		r.Get("/creators", rt.creatorHandler.List)
		r.Get("/creators/{id}", rt.creatorHandler.GetByID)

		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.OptionalAuthenticate)
			r.Use(rt.auditMiddleware.Audit)
			r.Post("/consent", rt.consentHandler.Record)
			r.Get("/consent", rt.consentHandler.Latest)
		})

		r.With(rt.rateLimiter.Strict(contactRequestsPerWindow, strictWindow)).
			Post("/support/contact", rt.supportHandler.Contact)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)
			r.Use(rt.rateLimiter.Limit)
			r.Use(rt.auditMiddleware.Audit) // Audit all modifications

			// Auth
			r.Get("/auth/me", rt.authHandler.Me)
			r.Post("/auth/logout", rt.authHandler.Logout)

			// Account
			r.Delete("/me", rt.accountHandler.Delete)

			// Creator profile
			r.Route("/me/creator-profile", func(r chi.Router) {
				r.Use(rt.authMiddleware.RequireUserType(domain.UserTypeCreator))
				r.Get("/", rt.creatorHandler.GetMine)
				r.Put("/", rt.creatorHandler.Upsert)
				r.Post("/avatar", rt.creatorHandler.UploadAvatar)
			})

			// Business verification
			r.Route("/me/verification", func(r chi.Router) {
				r.Use(rt.authMiddleware.RequireUserType(domain.UserTypeBusiness))
				r.Get("/", rt.verificationHandler.GetStatus)
				r.Post("/", rt.verificationHandler.Submit)
				r.Get("/history", rt.verificationHandler.History)
			})

			// Business posts
			r.Route("/me/posts", func(r chi.Router) {
				r.Use(rt.authMiddleware.RequireUserType(domain.UserTypeBusiness))
				r.Get("/", rt.postHandler.ListMine)
				r.Post("/", rt.postHandler.Create)
				r.Put("/{id}", rt.postHandler.Update)
				r.Delete("/{id}", rt.postHandler.Delete)
				r.Post("/{id}/archive", rt.postHandler.Archive)
			})

			// Pending requests
			r.Get("/me/requests", rt.requestHandler.ListMine)
			r.Get("/me/requests/incoming", rt.requestHandler.ListIncoming)
			r.Post("/creators/{id}/requests", rt.requestHandler.Create)

			// Back office (API key only)
			r.Route("/admin", func(r chi.Router) {
				r.Use(rt.authMiddleware.RequireSystem)
				r.Get("/verifications", rt.verificationHandler.ListForReview)
				r.Post("/verifications/{userId}/review", rt.verificationHandler.Review)
				r.Get("/webhooks", rt.webhookHandler.List)
				r.Post("/webhooks/{id}/requeue", rt.webhookHandler.Requeue)
			})
		})
	})

	return r
}
