package api

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aranyasourav/triggerhub/internal/api/handlers"
	"github.com/aranyasourav/triggerhub/internal/api/middleware"
	"github.com/aranyasourav/triggerhub/internal/delivery"
	"github.com/aranyasourav/triggerhub/internal/logging"
	"github.com/aranyasourav/triggerhub/internal/observability"
	"github.com/aranyasourav/triggerhub/internal/storage"
	"github.com/aranyasourav/triggerhub/internal/triggers"
	"github.com/aranyasourav/triggerhub/pkg/config"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Server orchestrates HTTP routing and dependencies for the admin API,
// the external observability/config surface that sits alongside
// the engine rather than inside its delivery loop.
type Server struct {
	config config.App
	logger logging.Logger
	router *gin.Engine
	db     *sql.DB

	store          *storage.MySQLClient
	triggerService *triggers.Service
	obsService     *observability.Service

	// permits is nil unless a caller wires one in: the admin process
	// doesn't share memory with the engine process, so the in-flight
	// gauge is only meaningful when both run in the same binary.
	permits *delivery.Permits
}

// NewServer wires the admin API's dependencies together from environment
// configuration.
func NewServer() *Server {
	cfg := config.FromEnv()

	logger, err := logging.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	db := connectDatabase(cfg, logger)
	mysqlClient := storage.NewMySQLClient(db)

	server := &Server{
		config:         cfg,
		logger:         logger,
		db:             db,
		store:          mysqlClient,
		triggerService: triggers.NewService(mysqlClient),
		obsService:     observability.NewService(mysqlClient, mysqlClient, mysqlClient, mysqlClient),
	}

	server.setupRouter()
	return server
}

// setupRouter configures the Gin router with middleware and routes.
func (s *Server) setupRouter() {
	router := gin.New()

	// Get underlying zap logger for gin-contrib/zap middleware
	zapLogger := s.getZapLogger()

	// Global middleware (order matters!)
	// 1. Recovery - must be first to catch panics from other middleware
	router.Use(ginzap.RecoveryWithZap(zapLogger, true))

	// 2. Request ID - inject unique ID for tracing
	router.Use(middleware.RequestID())

	// 3. Logging - log all requests with structured fields
	router.Use(ginzap.Ginzap(zapLogger, time.RFC3339, true))

	// 4. CORS - handle cross-origin requests
	router.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID", "X-API-Key"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health and metrics endpoints (no /api/v1 prefix)
	router.GET("/healthz", handlers.NewHealthHandler(s.logger).Health)
	router.GET("/metrics", handlers.NewMetricsHandler(s.logger, &metricsSource{store: s.store, permits: s.permits}).Metrics)

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		triggerHandler := handlers.NewTriggerHandler(s.logger, s.triggerService)
		triggerGroup := v1.Group("/triggers")
		{
			triggerGroup.POST("", triggerHandler.CreateTrigger)
			triggerGroup.GET("", triggerHandler.ListTriggers)
			triggerGroup.GET("/:id", triggerHandler.GetTrigger)
			triggerGroup.PATCH("/:id", triggerHandler.UpdateTrigger)
			triggerGroup.DELETE("/:id", triggerHandler.DeleteTrigger)
			triggerGroup.POST("/:id/schema", triggerHandler.SetSchema)
		}

		eventHandler := handlers.NewEventHandler(s.logger, s.obsService)
		eventGroup := v1.Group("/events")
		{
			eventGroup.GET("", eventHandler.ListEvents)
			eventGroup.GET("/:id", eventHandler.GetEvent)
			eventGroup.GET("/:id/invocations", eventHandler.ListEventInvocations)
		}

		scheduledHandler := handlers.NewScheduledEventHandler(s.logger, s.obsService)
		scheduledGroup := v1.Group("/scheduled-events")
		{
			scheduledGroup.POST("", scheduledHandler.CreateScheduledEvent)
			scheduledGroup.GET("", scheduledHandler.ListScheduledEvents)
			scheduledGroup.GET("/:id", scheduledHandler.GetScheduledEvent)
			scheduledGroup.GET("/:id/invocations", scheduledHandler.ListScheduledEventInvocations)
			scheduledGroup.POST("/:id/cancel", scheduledHandler.CancelScheduledEvent)
		}
	}

	s.router = router
}

// getZapLogger extracts the underlying *zap.Logger from our Logger interface.
// This is needed for gin-contrib/zap middleware.
func (s *Server) getZapLogger() *zap.Logger {
	// Create a new zap logger for middleware (gin-contrib/zap needs *zap.Logger)
	var zapLogger *zap.Logger
	if s.config.Environment == "production" {
		zapLogger, _ = zap.NewProduction()
	} else {
		zapLogger, _ = zap.NewDevelopment()
	}
	return zapLogger
}

// Serve starts the HTTP server with graceful shutdown support.
func (s *Server) Serve() error {
	addr := ":" + s.config.APIPort
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		s.logger.Info("starting API server",
			zap.String("address", addr),
			zap.String("environment", s.config.Environment),
			zap.String("log_level", s.config.LogLevel),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	<-quit
	s.logger.Info("shutting down server gracefully...")

	// Graceful shutdown with 30 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		s.logger.Error("server forced to shutdown", zap.Error(err))
		return err
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("failed to close database connection", zap.Error(err))
		}
	}

	// Flush logger before exit
	if err := s.logger.Sync(); err != nil {
		// Ignore sync errors on stdout/stderr
		if err.Error() != "sync /dev/stdout: invalid argument" &&
			err.Error() != "sync /dev/stderr: invalid argument" {
			return err
		}
	}

	s.logger.Info("server stopped")
	return nil
}

func connectDatabase(cfg config.App, logger logging.Logger) *sql.DB {
	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL is required")
	}

	db, err := sql.Open("mysql", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to open database connection", zap.Error(err))
	}

	db.SetMaxIdleConns(5)
	db.SetMaxOpenConns(20)
	db.SetConnMaxLifetime(60 * time.Minute)

	if err := db.Ping(); err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	return db
}
