// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"knowhere/internal/auth"
	"knowhere/internal/bootstrap"
	"knowhere/internal/config"
	"knowhere/internal/describe"
	"knowhere/internal/featureflags"
	"knowhere/internal/middleware"
	"knowhere/internal/models"
	"knowhere/internal/notifications"
	"knowhere/internal/repository"
	"knowhere/internal/service"
	"knowhere/internal/session"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	tokenIssuer   = "knowhere-api"
	tokenAudience = "knowhere-client"
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
	flags          *featureflags.Manager
	eventRepo      repository.EventRepository
	chatRepo       repository.ChatRepository
	sessions       *session.Store
	authProvider   auth.Provider
	notifier       *notifications.Notifier
	chatHub        *notifications.EventChatHub
	eventService   *service.EventService
	chatService    *service.ChatService
	imageService   *service.ImageService
	descGen        describe.Generator
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, redisClient, err := bootstrap.InitRuntime(cfg, bootstrap.Options{
		SeedDemoEvents: true,
	})
	if err != nil {
		return nil, err
	}

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	// Initialize repositories
	eventRepo := repository.NewCachedEventRepository(repository.NewEventRepository(db), redisClient)
	chatRepo := repository.NewChatRepository(redisClient)

	// Initialize Prometheus metrics
	prom := middleware.InitMetrics("knowhere-api")

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		flags:          featureflags.NewManager(cfg.FeatureFlags),
		promMiddleware: prom,
		eventRepo:      eventRepo,
		chatRepo:       chatRepo,
		sessions:       session.NewStore(time.Duration(cfg.SessionTTL) * time.Minute),
		authProvider:   auth.NewStaticProvider(cfg.AdminCredentials()),
		chatHub:        notifications.NewEventChatHub(),
		descGen:        describe.NewLocalGenerator(),
	}

	if redisClient != nil {
		server.notifier = notifications.NewNotifier(redisClient)
	}

	server.eventService = service.NewEventService(eventRepo, chatRepo.ClearMessages)
	server.chatService = service.NewChatService(chatRepo, eventRepo, server.publishChatMessage, cfg.ChatHistoryMax)
	server.imageService = service.NewImageService(cfg.UploadDir)

	return server, nil
}

// publishChatMessage fans a stored message out to WebSocket clients. When
// Redis is available the message goes through pub/sub so every server
// instance delivers it; otherwise delivery is local only.
func (s *Server) publishChatMessage(ctx context.Context, eventID int64, msg models.ChatMessage) {
	if s.notifier != nil {
		payload, err := json.Marshal(msg)
		if err == nil {
			if err := s.notifier.PublishEventMessage(ctx, eventID, string(payload)); err == nil {
				return
			}
		}
		// Fall through to local delivery when publishing fails
	}
	s.chatHub.BroadcastMessage(eventID, msg)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and Session ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// Distributed tracing
	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
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
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)
	api.Get("/", s.HealthCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "KnoWhere Backend Metrics Dashboard",
	}))

	// Auth routes
	authGroup := api.Group("/auth")
	authGroup.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	authGroup.Get("/me", s.AuthRequired(), s.Me)
	authGroup.Post("/logout", s.AuthRequired(), s.Logout)

	// Public event routes (browse/filter)
	events := api.Group("/events")
	events.Get("/", s.GetEvents)
	events.Get("/categories", s.GetEventCategories)
	// Define specific /:id/:resource routes BEFORE generic /:id route
	events.Get("/:id/status", s.GetEventStatus)
	events.Get("/:id/messages", s.GetChatMessages)
	events.Get("/:id", s.GetEvent)

	// Protected routes
	protected := api.Group("", s.AuthRequired())

	// Chat routes
	protected.Post("/events/:id/chat/join", s.JoinChat)
	protected.Post("/events/:id/messages", middleware.RateLimit(
		s.redis, 15, time.Minute, "send_chat"), s.SendChatMessage)

	// Admin event management
	adminEvents := protected.Group("/events", middleware.AdminRequired)
	adminEvents.Post("/describe", s.DescribeEvent)
	adminEvents.Post("/", middleware.RateLimit(
		s.redis, 10, time.Minute, "create_event"), s.CreateEvent)
	adminEvents.Delete("/:id", s.DeleteEvent)
	adminEvents.Delete("/", s.ClearEvents)

	// Websocket endpoint - protected by AuthRequired
	ws := api.Group("/ws", s.AuthRequired())
	ws.Get("/chat", s.WebSocketChatHandler())
}

// HealthCheck is a legacy/simple alias for ReadinessCheck
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	return s.ReadinessCheck(c)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// Chat storage needs Redis, so readiness requires it
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"message": "KnoWhere",
		"version": "1.0.0",
		"status":  overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AuthRequired returns the authentication middleware. It validates the JWT,
// then reattaches the in-memory session. Sessions minted before a restart
// are rebuilt from the token with their join flags cleared.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		isWSPath := strings.HasPrefix(c.Path(), "/api/ws")

		tokenString, err := middleware.ExtractToken(c, isWSPath)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewAuthenticationError("Authorization required"))
		}

		claims, err := middleware.ParseSessionClaims(s.config.JWTSecret, tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewAuthenticationError("Invalid or expired token"))
		}

		// Validate issuer and audience
		if claims.Issuer != tokenIssuer {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewAuthenticationError("Invalid token issuer"))
		}
		if claims.Audience != tokenAudience {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewAuthenticationError("Invalid token audience"))
		}

		sess := s.sessions.GetOrRestore(claims.SessionID, claims.Role, claims.Username)

		// Store session in context
		c.Locals("session", sess)
		c.Locals("sessionID", sess.ID)
		c.Locals("role", string(sess.Role))
		c.Locals("username", sess.Username)
		// Sync to UserContext for logging and downstream services
		ctx := context.WithValue(c.UserContext(), middleware.SessionIDKey, sess.ID)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// sessionFromLocals returns the session attached by AuthRequired, or nil.
func (s *Server) sessionFromLocals(c *fiber.Ctx) *models.Session {
	sess, _ := c.Locals("session").(*models.Session)
	return sess
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := fiber.New(fiber.Config{
		AppName: "KnoWhere API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Custom error handler
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	// Wire the chat hub to the Redis subscriber if available
	if err := s.StartChatWiring(ctx); err != nil {
		log.Printf("failed to start chat wiring: %v", err)
	}

	// Periodically evict expired sessions
	s.sessions.StartSweeper(10*time.Minute, ctx.Done())

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// StartChatWiring subscribes the chat hub to the Redis fanout channels.
func (s *Server) StartChatWiring(ctx context.Context) error {
	if s.notifier == nil {
		return nil
	}
	return s.notifier.StartChatSubscriber(ctx, func(channel, payload string) {
		eventID, ok := notifications.ParseEventChannel(channel)
		if !ok {
			return
		}
		var msg models.ChatMessage
		if err := json.Unmarshal([]byte(payload), &msg); err != nil {
			log.Printf("chat wiring: invalid payload on %s: %v", channel, err)
			return
		}
		s.chatHub.BroadcastMessage(eventID, msg)
	})
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop all wiring goroutines
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	// Shutdown the HTTP/WS server
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	// Close database connection
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	// Close Redis connection
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
