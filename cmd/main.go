package main

import (
	"notes-service/internal/handler"
	"notes-service/internal/middleware"
	"notes-service/internal/model"
	"notes-service/internal/store"
	"notes-service/pkg/config"
	"notes-service/pkg/database"
	"notes-service/pkg/jwtutil"
	"notes-service/pkg/logger"
	"notes-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables.
	// A missing JWT signing key fails here, before anything starts.
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting notes service...", zap.String("environment", cfg.Server.Env))

	// Initialize database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Service root owns the store and the token utility; gates and
	// handlers borrow them.
	st := store.NewGormStore(db)
	jwt := jwtutil.New(&jwtutil.JWTConfig{
		SigningKey:      cfg.JWT.SigningKey,
		ExpirationHours: cfg.JWT.ExpirationHours,
	})
	log.Info("JWT utility initialized")

	authHandler := handler.NewAuthHandler(st, jwt)
	tenantHandler := handler.NewTenantHandler(st)
	noteHandler := handler.NewNoteHandler(st)

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Authentication routes
	auth := e.Group("/auth")
	auth.POST("/login", authHandler.Login)

	authenticate := middleware.Authenticate(jwt)

	// Tenant plan management - admins only
	tenants := e.Group("/tenants", authenticate, middleware.RequireRole(model.RoleAdmin))
	tenants.POST("/:slug/upgrade", tenantHandler.UpgradePlan)

	// Notes - members and admins; creation additionally passes the quota gate
	notes := e.Group("/notes", authenticate, middleware.RequireRole(model.RoleMember, model.RoleAdmin))
	notes.POST("", noteHandler.Create, middleware.NoteQuota(st))
	notes.GET("", noteHandler.List)
	notes.GET("/:id", noteHandler.Get)
	notes.PUT("/:id", noteHandler.Update)
	notes.DELETE("/:id", noteHandler.Delete)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
