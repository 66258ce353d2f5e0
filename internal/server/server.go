// Package server contains the HTTP handlers for the showcase API.
package server

import (
	"context"
	"fmt"
	"log"
	"time"

	_ "showcase/docs" // swagger docs
	"showcase/internal/cache"
	"showcase/internal/config"
	"showcase/internal/database"
	"showcase/internal/middleware"
	"showcase/internal/models"
	"showcase/internal/repository"
	"showcase/internal/service"
	"showcase/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// maxImagesPerProject bounds the request body together with the per-image size limit.
const maxImagesPerProject = 10

// Per-route quotas, on top of the global per-IP limiter.
var (
	registerLimit      = middleware.Limit{Name: "register", Max: 5, Window: 10 * time.Minute}
	loginLimit         = middleware.Limit{Name: "login", Max: 10, Window: 5 * time.Minute}
	searchLimit        = middleware.Limit{Name: "search", Max: 60, Window: time.Minute}
	createProjectLimit = middleware.Limit{Name: "create_project", Max: 5, Window: 10 * time.Minute}
)

// Server holds all dependencies and provides handlers
type Server struct {
	config             *config.Config
	db                 *gorm.DB
	redis              *redis.Client
	store              storage.ImageStore
	app                *fiber.App
	promMiddleware     *fiberprometheus.FiberPrometheus
	projectService     *service.ProjectService
	interactionService *service.InteractionService
	userService        *service.UserService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	store, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("image storage setup failed: %w", err)
	}

	return NewServerWithDeps(cfg, db, cache.GetClient(), store)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Tests use it with SQLite, miniredis and an in-memory image store.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, store storage.ImageStore) (*Server, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	if store == nil {
		return nil, fmt.Errorf("image store is required")
	}

	// Repositories read the cache through the package client; keep it in
	// step with the client used for rate limits and readiness.
	cache.SetClient(redisClient)

	userRepo := repository.NewUserRepository(db)
	tagRepo := repository.NewTagRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	interactionRepo := repository.NewInteractionRepository(db)
	visitRepo := repository.NewVisitRepository(db)

	userService := service.NewUserService(userRepo)
	imageService := service.NewImageService(store, cfg)

	return &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		store:          store,
		promMiddleware: middleware.InitMetrics("showcase-api"),
		projectService: service.NewProjectService(
			projectRepo,
			interactionRepo,
			userService,
			service.NewTagService(tagRepo),
			imageService,
		),
		interactionService: service.NewInteractionService(projectRepo, interactionRepo, visitRepo),
		userService:        userService,
	}, nil
}

// NewApp builds the Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	maxImageMB := s.config.ImageMaxUploadSizeMB
	if maxImageMB <= 0 {
		maxImageMB = service.DefaultImageMaxUploadSizeMB
	}

	app := fiber.New(fiber.Config{
		AppName: "Showcase API",
		// Images arrive base64 encoded, which inflates them by a third.
		BodyLimit: (maxImagesPerProject*maxImageMB*4/3 + 1) * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return models.RespondWithError(c, fe.Code, err)
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err.Error())
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Server span and trace ID, before the context middleware copies it into the request context
	app.Use(middleware.TracingMiddleware())

	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Images are served to other origins, so resources must not be same-origin only.
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))

	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(
				models.Failure("Too many requests, please try again later."))
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

	if local, ok := s.store.(*storage.LocalStore); ok {
		app.Static(storage.LocalMediaPrefix, local.Root(), fiber.Static{
			MaxAge: 86400,
		})
	}

	api := app.Group("/api")
	api.Get("/swagger/*", swagger.HandlerDefault)

	account := api.Group("/Account")
	account.Post("/Register", middleware.RateLimit(s.redis, registerLimit), s.Register)
	account.Post("/Login", middleware.RateLimit(s.redis, loginLimit), s.Login)

	projects := api.Group("/Projects")
	projects.Get("/", s.ListLatest)
	projects.Get("/Popular", s.ListPopular)
	projects.Get("/Search", middleware.RateLimit(s.redis, searchLimit), s.SearchProjects)
	projects.Get("/LikedProjects/:username", s.AuthRequired(), s.ListLikedByUser)

	projects.Post("/", s.AuthRequired(), middleware.RateLimit(s.redis, createProjectLimit), s.CreateProject)

	// Specific /Action/:id routes before the generic /:id route
	projects.Post("/Visit/:id", s.AuthRequired(), s.RecordVisit)
	projects.Post("/Like/:id", s.AuthRequired(), s.LikeProject)
	projects.Post("/Dislike/:id", s.AuthRequired(), s.DislikeProject)
	projects.Post("/Flag/:id", s.AuthRequired(), s.FlagProject)
	projects.Post("/Unflag/:id", s.AuthRequired(), s.UnflagProject)

	projects.Get("/:id", s.GetProject)
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
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	// The cache is optional, so a missing Redis only degrades readiness.
	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	} else if redisStatus != "healthy" {
		overallStatus = "degraded"
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

// Start starts the server
func (s *Server) Start() error {
	s.app = s.NewApp()
	log.Printf("Server starting on port %s...", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
