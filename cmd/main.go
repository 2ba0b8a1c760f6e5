package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/flashpair/backend/docs"
	"github.com/flashpair/backend/internal/auth"
	"github.com/flashpair/backend/internal/config"
	"github.com/flashpair/backend/internal/handlers"
	"github.com/flashpair/backend/internal/logger"
	"github.com/flashpair/backend/internal/middleware"
	"github.com/flashpair/backend/internal/repositories"
	"github.com/flashpair/backend/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// @title FlashPair API
// @version 1.0
// @description API for partner flashcard decks with spaced repetition

// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	// Connect to database
	db, err := connectDB(cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := runMigrations(db); err != nil {
		logger.Logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize repositories
	deckRepo := repositories.NewDeckRepository(db, logger.Logger)
	cardRepo := repositories.NewCardRepository(db, logger.Logger)
	progressRepo := repositories.NewProgressRepository(db, logger.Logger)
	sessionRepo := repositories.NewSessionRepository(db, logger.Logger)
	partnershipRepo := repositories.NewPartnershipRepository(db, logger.Logger)
	invitationRepo := repositories.NewInvitationRepository(db, logger.Logger)
	statsRepo := repositories.NewStatsRepository(db, logger.Logger)

	// Initialize services
	clock := services.NewClock(cfg.Study.Location)
	partnershipService := services.NewPartnershipService(partnershipRepo, invitationRepo, clock, cfg.Study.InvitationTTL, logger.Logger)
	accessService := services.NewAccessService(deckRepo, partnershipService)
	progressService := services.NewProgressService(progressRepo, clock, logger.Logger)
	deckService := services.NewDeckService(deckRepo, cardRepo, accessService, partnershipService, clock, logger.Logger)
	studyService := services.NewStudySessionService(sessionRepo, progressService, cardRepo, accessService, clock, logger.Logger)
	statsService := services.NewStatsService(statsRepo, accessService, partnershipService, clock)
	housekeeping := services.NewHousekeepingService(invitationRepo, sessionRepo, clock, cfg.Housekeeping.SessionRetention, logger.Logger)

	// Initialize handlers
	deckHandler := handlers.NewDeckHandler(deckService, logger.Logger)
	studyHandler := handlers.NewStudyHandler(studyService, logger.Logger)
	partnershipHandler := handlers.NewPartnershipHandler(partnershipService, logger.Logger)
	statsHandler := handlers.NewStatsHandler(statsService, logger.Logger)

	// Access tokens are issued by the auth layer; only validation happens here
	tokenService := auth.NewTokenService(cfg.JWT.Secret, 15*time.Minute)
	authMiddleware := middleware.AuthMiddleware(tokenService)

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.LoggerMiddleware(logger.Logger))
	r.Use(middleware.RecoveryMiddleware(logger.Logger))
	r.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(httprate.LimitByIP(cfg.Server.RateLimitPerMinute, time.Minute))
	r.Use(middleware.RequestSizeLimitMiddleware(1 * 1024 * 1024)) // 1MB

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Server.Port)),
	))

	r.Route("/api/v1", func(r chi.Router) {
		deckHandler.RegisterRoutes(r, authMiddleware)
		studyHandler.RegisterRoutes(r, authMiddleware)
		partnershipHandler.RegisterRoutes(r, authMiddleware)
		statsHandler.RegisterRoutes(r, authMiddleware)
	})

	// Start housekeeping
	if err := housekeeping.Start(cfg.Housekeeping.Schedule); err != nil {
		logger.Logger.Fatal("Failed to start housekeeping", zap.Error(err))
	}

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	select {
	case <-housekeeping.Stop().Done():
	case <-ctx.Done():
		logger.Logger.Warn("Housekeeping did not finish before shutdown timeout")
	}

	logger.Logger.Info("Server exited")
}

// connectDB connects to the database
func connectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB) error {
	driver, err := mysql.WithInstance(db, &mysql.Config{
		MigrationsTable: "flashpair_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Get the working directory or use migrations folder relative to the binary
	migrationPath := "file://migrations"
	if _, err := os.Stat("migrations"); os.IsNotExist(err) {
		// Try parent directory if running from cmd
		if _, err := os.Stat("../migrations"); err == nil {
			migrationPath = "file://../migrations"
		}
	}

	m, err := migrate.NewWithDatabaseInstance(
		migrationPath,
		"mysql",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
