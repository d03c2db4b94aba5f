package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v2"
	"github.com/joho/godotenv"

	"spscope/application"
	"spscope/database"
	"spscope/domain/contracts"
	"spscope/infrastructure/config"
	"spscope/infrastructure/diagnostics"
	"spscope/infrastructure/elevation"
	"spscope/infrastructure/repositories"
	"spscope/infrastructure/spclient"
	"spscope/interfaces/web/handlers"
	"spscope/logging"
	"spscope/spauth"
)

func main() {
	// Initialize configuration
	loadEnvironment()
	cfg := config.LoadAppConfigFromEnv()

	// Initialize logging
	logger := initializeLogging(cfg)

	auth, err := spauth.FromEnv()
	if err != nil {
		logger.Error("Invalid SharePoint configuration", "error", err)
		os.Exit(1)
	}

	// Initialize database
	db := initializeDatabase(cfg, logger)
	defer db.Close()

	deps := buildDependencies(cfg, auth, db, logger)

	// Setup routes and start server
	router := setupRoutes(deps, cfg)
	startServer(router, cfg.HTTPAddr, logger)
}

// Dependencies holds all application dependencies organized by layer
type Dependencies struct {
	// Infrastructure
	DB     *database.Database
	Logger *logging.Logger

	// Repositories
	DiagnosticRepo contracts.DiagnosticRepository

	// Application Layer
	ContentService application.ListContentService

	// Presentation Layer
	SystemHandlers      *handlers.SystemHandlers
	ContentHandlers     *handlers.ContentHandlers
	DiagnosticsHandlers *handlers.DiagnosticsHandlers
}

func loadEnvironment() {
	if err := godotenv.Load(); err != nil {
		println("No .env file found, using environment variables")
	} else {
		println("Loaded configuration from .env file")
	}
}

func initializeLogging(cfg *config.AppConfig) *logging.Logger {
	logger := logging.NewLogger(cfg.Logging)
	logging.SetDefault(logger)

	logger.Info("Application starting",
		"version", "1.0.0",
		"log_level", cfg.Logging.Level,
		"log_format", cfg.Logging.Format,
		"db_path", cfg.Database.Path,
	)

	return logger
}

func initializeDatabase(cfg *config.AppConfig, logger *logging.Logger) *database.Database {
	db, err := database.New(*cfg.Database, logger)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	return db
}

// buildDependencies wires the platform binding, the runner and the HTTP handlers
func buildDependencies(cfg *config.AppConfig, auth spauth.Config, db *database.Database, logger *logging.Logger) *Dependencies {
	diagnosticRepo := repositories.NewDiagnosticRepository(db)

	// Diagnostics are always logged; persistence is optional
	var persisted contracts.DiagnosticRepository
	if cfg.PersistDiagnostics {
		persisted = diagnosticRepo
	}
	diagnosticLog := diagnostics.NewLog(persisted)

	runner := application.NewScopedOperationRunner(
		spclient.NewSiteProvider(auth),
		elevation.NewRunner(),
		diagnosticLog,
	)
	contentService := application.NewListContentService(runner)

	return &Dependencies{
		DB:                  db,
		Logger:              logger,
		DiagnosticRepo:      diagnosticRepo,
		ContentService:      contentService,
		SystemHandlers:      handlers.NewSystemHandlers(db),
		ContentHandlers:     handlers.NewContentHandlers(contentService, auth.DefaultSiteURL),
		DiagnosticsHandlers: handlers.NewDiagnosticsHandlers(diagnosticRepo),
	}
}

func setupRoutes(deps *Dependencies, cfg *config.AppConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	setupHTTPLogging(r, deps, cfg)
	r.Use(middleware.Recoverer)

	handlers.Mount(r, deps.SystemHandlers, deps.ContentHandlers, deps.DiagnosticsHandlers)

	return r
}

func setupHTTPLogging(r *chi.Mux, deps *Dependencies, cfg *config.AppConfig) {
	if cfg.HTTPLogPath == "" {
		return
	}

	logFile, err := os.OpenFile(cfg.HTTPLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		deps.Logger.Error("Failed to open HTTP log file", "error", err, "path", cfg.HTTPLogPath)
		return
	}
	// logFile stays open for the server lifetime

	httpLogger := httplog.NewLogger("spscope", httplog.Options{
		Writer: logFile,
		JSON:   true,
	})
	r.Use(httplog.RequestLogger(httpLogger))

	deps.Logger.Info("HTTP request logging enabled", "path", cfg.HTTPLogPath)
}

func startServer(router *chi.Mux, addr string, logger *logging.Logger) {
	server := &http.Server{Addr: addr, Handler: router}

	serverCtx, serverStopCtx := context.WithCancel(context.Background())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sig
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(serverCtx, 30*time.Second)
		defer cancel()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				logger.Error("Graceful shutdown timed out, forcing exit")
				os.Exit(1)
			}
		}()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
			os.Exit(1)
		}
		serverStopCtx()
	}()

	logger.Info("Server starting", "address", addr)
	err := server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}

	<-serverCtx.Done()
	logger.Info("Server stopped")
}
