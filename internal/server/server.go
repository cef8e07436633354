// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"time"

	_ "vaultbox/docs" // swagger docs
	"vaultbox/internal/cache"
	"vaultbox/internal/config"
	"vaultbox/internal/database"
	"vaultbox/internal/featureflags"
	"vaultbox/internal/media"
	"vaultbox/internal/middleware"
	"vaultbox/internal/models"
	"vaultbox/internal/notifications"
	"vaultbox/internal/repository"
	"vaultbox/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/gofiber/websocket/v2"
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

	auth         *middleware.Authenticator
	limiter      *middleware.RateLimiter
	featureFlags *featureflags.Manager
	notifier     *notifications.Notifier
	hub          *notifications.Hub

	userService     *service.UserService
	postService     *service.PostService
	mediaService    *service.MediaService
	commentService  *service.CommentService
	reactionService *service.ReactionService
	vaultService    *service.VaultService
	tagService      *service.TagService
	reportService   *service.ReportService
}

// Option adjusts how NewServerWithDeps builds the server.
type Option func(*options)

type options struct {
	sampler media.FrameSampler
}

// WithFrameSampler replaces the ffmpeg frame sampler used for video thumbnails.
func WithFrameSampler(s media.FrameSampler) Option {
	return func(o *options) { o.sampler = s }
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; caching, the token blacklist, rate limits and event
// fan-out then stay in process.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, opts ...Option) (*Server, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.sampler == nil {
		o.sampler = media.NewFFmpegSampler(cfg.FFmpegBin)
	}

	flags := featureflags.NewManager(cfg.FeatureFlags)

	mediaCfg := *cfg
	if !flags.On(featureflags.VideoUploads) {
		mediaCfg.AllowedVideoTypes = nil
	}
	storage, err := media.NewStorage(&mediaCfg)
	if err != nil {
		return nil, fmt.Errorf("upload storage: %w", err)
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	reactionRepo := repository.NewReactionRepository(db)
	mediaRepo := repository.NewMediaRepository(db)
	vaultRepo := repository.NewVaultRepository(db)
	tagRepo := repository.NewTagRepository(db)
	reportRepo := repository.NewReportRepository(db)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("vaultbox-api"),
		limiter:        middleware.NewRateLimiter(redisClient, cfg.Env),
		featureFlags:   flags,
	}

	var events service.EventPublisher
	if flags.On(featureflags.RealtimeEvents) {
		s.hub = notifications.NewHub()
		s.notifier = notifications.NewNotifier(redisClient)
		events = notifications.NewPublisher(s.hub, s.notifier)
	}

	c := cache.New(redisClient)
	s.userService = service.NewUserService(userRepo, c)
	s.auth = middleware.NewAuthenticator(cfg.JWTSecret, redisClient, s.userService)
	s.tagService = service.NewTagService(tagRepo, c)
	s.mediaService = service.NewMediaService(postRepo, mediaRepo, storage,
		media.NewValidator(&mediaCfg), media.NewThumbnailer(&mediaCfg, o.sampler), events)
	s.postService = service.NewPostService(postRepo, reactionRepo, s.tagService, s.mediaService)
	s.commentService = service.NewCommentService(postRepo, commentRepo, reactionRepo, events)
	s.reactionService = service.NewReactionService(postRepo, commentRepo, reactionRepo, events)
	s.vaultService = service.NewVaultService(vaultRepo, postRepo, userRepo, reactionRepo)
	s.reportService = service.NewReportService(reportRepo, flags.On(featureflags.AnonymousReports))

	return s, nil
}

// NewApp builds the Fiber app with middleware and routes installed. Request
// bodies may carry a batch of files, so the body limit scales with the per-file
// limit. Multipart bodies of known length are pre-parsed by fasthttp, which
// spills parts over 16 MiB to temp files rather than holding them in memory.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "Vaultbox API",
		BodyLimit: int(s.config.MaxFileSize*8) + 1<<20,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			return models.RespondWithError(c, err)
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and trace ID
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers; media is served cross-origin to the web client.
	app.Use(helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}))

	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Get("/swagger/*", swagger.HandlerDefault)

	api := app.Group("/api")
	optional := s.auth.Optional()
	required := s.auth.Required()
	authLimit := s.limiter.Handler("auth", s.config.RateLimitRequests, s.config.RateLimitWindow, middleware.FailOpen)

	auth := api.Group("/auth")
	auth.Post("/register", authLimit, s.Register)
	auth.Post("/login", authLimit, s.Login)
	auth.Post("/logout", required, s.Logout)
	auth.Get("/me", required, s.Me)

	api.Get("/features", optional, s.GetFeatureFlags)
	api.Get("/tags", s.GetTags)
	api.Post("/reports", optional, s.CreateReport)

	users := api.Group("/users")
	users.Get("/:username/vaults", optional, s.GetUserVaults)
	users.Get("/:username", s.GetUserProfile)

	posts := api.Group("/posts")
	posts.Get("/", optional, s.GetPosts)
	posts.Post("/", required, s.CreatePost)
	// Define specific /:id/:resource routes BEFORE generic /:id route
	posts.Post("/:id/reactions", required, s.ReactToPost)
	posts.Get("/:id/files", s.GetFiles)
	posts.Post("/:id/files", required,
		s.limiter.Handler("upload", s.config.RateLimitRequests, s.config.RateLimitWindow, middleware.FailOpen),
		s.UploadFiles)
	posts.Get("/:id/files/:filename", s.ServeFile)
	posts.Delete("/:id/files/:fileID", required, s.DeleteFile)
	posts.Get("/:id/comments", optional, s.GetComments)
	posts.Post("/:id/comments", required, s.CreateComment)
	posts.Post("/:id/comments/:commentID/reactions", required, s.ReactToComment)
	posts.Delete("/:id/comments/:commentID", required, s.DeleteComment)
	posts.Get("/:id", optional, s.GetPost)
	posts.Put("/:id", required, s.UpdatePost)
	posts.Delete("/:id", required, s.DeletePost)

	vaults := api.Group("/vaults")
	vaults.Post("/", required, s.CreateVault)
	vaults.Get("/:id/posts", optional, s.GetVaultPosts)
	vaults.Post("/:id/posts/:postID", required, s.AddVaultPost)
	vaults.Delete("/:id/posts/:postID", required, s.RemoveVaultPost)
	vaults.Get("/:id", optional, s.GetVault)
	vaults.Put("/:id", required, s.UpdateVault)
	vaults.Delete("/:id", required, s.DeleteVault)

	if s.hub != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws", required, s.WebsocketHandler())
	}
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional, so only
// a configured but unreachable Redis fails the probe.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// StartRealtime subscribes the hub to Redis so events published by any
// instance reach this instance's connections.
func (s *Server) StartRealtime(ctx context.Context) error {
	if s.hub == nil || !s.notifier.Enabled() {
		return nil
	}
	return s.hub.StartWiring(ctx, s.notifier)
}

// Start builds the app, wires realtime delivery and listens on the configured port.
func (s *Server) Start() error {
	s.shutdownCtx, s.shutdownFn = context.WithCancel(context.Background())

	app := s.NewApp()
	if err := s.StartRealtime(s.shutdownCtx); err != nil {
		middleware.Logger.Error("failed to start event wiring", "error", err)
	}

	middleware.Logger.Info("Server starting", "port", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			middleware.Logger.Error("error shutting down event hub", "error", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", "error", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr)
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
