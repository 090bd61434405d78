// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"pubhub/internal/bootstrap"
	"pubhub/internal/config"
	"pubhub/internal/featureflags"
	"pubhub/internal/middleware"
	"pubhub/internal/models"
	"pubhub/internal/notifications"
	"pubhub/internal/repository"
	"pubhub/internal/service"
	"pubhub/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	auth           *middleware.Authenticator
	blobs          storage.BlobStore
	notifier       *notifications.Notifier
	hub            *notifications.Hub
	featureFlags   *featureflags.Manager

	publications  *service.PublicationService
	reactions     *service.ReactionService
	notifications *service.NotificationService
	categories    *service.CategoryService
}

// NewServer creates a server from an initialized runtime.
func NewServer(cfg *config.Config, rt *bootstrap.Runtime) *Server {
	var blobs storage.BlobStore
	if rt.Blobs != nil {
		blobs = rt.Blobs
	}
	return NewServerWithDeps(cfg, rt.DB, rt.Redis, blobs, rt.Flags)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient and blobs may be nil; realtime push and uploads are then
// unavailable.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, blobs storage.BlobStore, flags *featureflags.Manager) *Server {
	if flags == nil {
		flags = featureflags.NewManager(cfg.FeatureFlags)
	}

	userRepo := repository.NewUserRepository(db)
	pubRepo := repository.NewPublicationRepository(db)
	viewRepo := repository.NewViewRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("pubhub-api"),
		auth:           middleware.NewAuthenticator(cfg.JWTSecret, cfg.JWTIssuer, userRepo),
		blobs:          blobs,
		featureFlags:   flags,
	}

	// A nil *Notifier must not end up inside the publisher interface.
	var publisher service.NotificationPublisher
	if redisClient != nil {
		s.notifier = notifications.NewNotifier(redisClient)
		s.hub = notifications.NewHub()
		publisher = s.notifier
	}

	s.publications = service.NewPublicationService(pubRepo, viewRepo, userRepo, notificationRepo, blobs, publisher)
	s.reactions = service.NewReactionService(pubRepo, viewRepo)
	s.notifications = service.NewNotificationService(notificationRepo)
	s.categories = service.NewCategoryService(
		repository.NewCategoryRepository(db),
		redisClient != nil && flags.EnabledOr(featureflags.CategoryCatalogCache, 0, true),
	)
	return s
}

// App builds the Fiber application with middleware and routes.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "PubHub API",
		BodyLimit: 64 << 20,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.Respond(c, err)
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New(helmet.Config{
		// Uploaded media is served from the same origin.
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        200,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	if local, ok := s.blobs.(*storage.LocalStore); ok && local != nil {
		if prefix := s.mediaPrefix(); prefix != "" {
			app.Static(prefix, local.Root(), fiber.Static{ByteRange: true})
		}
	}

	api := app.Group("/api")

	// Anonymous callers get an empty unread list instead of a 401.
	api.Get("/notifications/unread", s.auth.Optional(), s.ListUnreadNotifications)
	api.Get("/categories", s.ListCategories)
	api.Get("/feature-flags", s.auth.Optional(), s.GetFeatureFlags)

	ws := api.Group("/ws", s.auth.WebSocket())
	ws.Get("/notifications", s.requireRealtime, s.NotificationsWebSocket())

	publications := api.Group("/publications", s.auth.Required())
	publications.Get("/", s.ListPublications)
	publications.Post("/", middleware.RateLimit(s.rateLimitStore(), middleware.Rule{
		Name: "create_publication", Limit: 10, Window: 10 * time.Minute,
	}), s.CreatePublication)
	// Specific /:id/:resource routes before the generic /:id routes.
	publications.Patch("/:id/reactions", middleware.RateLimit(s.rateLimitStore(), middleware.Rule{
		Name: "react", Limit: 60, Window: time.Minute,
	}), s.ReactToPublication)
	publications.Get("/:id", s.GetPublication)
	publications.Patch("/:id", s.UpdatePublication)
	publications.Put("/:id", s.UpdatePublication)
	publications.Delete("/:id", s.DeletePublication)

	notificationRoutes := api.Group("/notifications", s.auth.Required())
	notificationRoutes.Get("/", s.ListNotifications)
	notificationRoutes.Patch("/mark-all-read", s.MarkAllNotificationsRead)
	notificationRoutes.Patch("/:id", s.MarkNotificationRead)
}

// rateLimitStore keeps a missing client a nil interface.
func (s *Server) rateLimitStore() redis.Cmdable {
	if s.redis == nil {
		return nil
	}
	return s.redis
}

// mediaPrefix is the path uploads are served under, or "" when media is
// addressed through an external base URL.
func (s *Server) mediaPrefix() string {
	prefix := s.config.MediaBaseURL
	if prefix == "" {
		return "/media"
	}
	if !strings.HasPrefix(prefix, "/") {
		return ""
	}
	return strings.TrimRight(prefix, "/")
}

// Start starts the server and blocks until it stops listening.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.App()

	if s.notifier != nil && s.hub != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("failed to start notification wiring", slog.String("error", err.Error()))
			}
		}()
	}

	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown stops accepting requests and closes open notification streams.
// Connections owned by the runtime are closed by its Close.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	var err error
	if s.app != nil {
		if err = s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}
	if s.hub != nil {
		if herr := s.hub.Shutdown(ctx); herr != nil {
			middleware.Logger.Error("error shutting down notification hub", slog.String("error", herr.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return err
}
