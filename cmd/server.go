package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/newrelic/go-agent/v3/integrations/nrgorilla"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"example.com/fleetdocs/config"
	"example.com/fleetdocs/internal/api"
	"example.com/fleetdocs/internal/cache"
	"example.com/fleetdocs/internal/db"
	"example.com/fleetdocs/internal/extraction"
	"example.com/fleetdocs/internal/messagebus"
	"example.com/fleetdocs/internal/repository"
	"example.com/fleetdocs/internal/search"
	"example.com/fleetdocs/internal/service"
	"example.com/fleetdocs/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Run: func(cmd *cobra.Command, args []string) {
		// Load configuration
		cfg, err := config.Load()
		if err != nil {
			logrus.Fatalf("Failed to load configuration: %v", err)
		}

		// Setup logger
		logger := logrus.New()
		if cfg.Logging.JSON {
			logger.SetFormatter(&logrus.JSONFormatter{})
		} else {
			logger.SetFormatter(&logrus.TextFormatter{
				FullTimestamp: true,
			})
		}

		// Set log level
		level, err := logrus.ParseLevel(cfg.Logging.Level)
		if err != nil {
			level = logrus.InfoLevel
		}
		logger.SetLevel(level)

		// Connect to database
		dbConn, err := db.Connect(&cfg.Database)
		if err != nil {
			logger.Fatalf("Failed to connect to database: %v", err)
		}

		// Run migrations
		if err := db.Migrate(dbConn); err != nil {
			logger.Fatalf("Failed to run database migrations: %v", err)
		}

		// Initialize cache
		cacheClient, err := cache.NewRedisClient(&cfg.Redis)
		if err != nil {
			logger.Fatalf("Failed to connect to Redis: %v", err)
		}

		// Initialize message bus
		messageBusClient, err := messagebus.NewClient(&cfg.MessageBus)
		if err != nil {
			logger.Fatalf("Failed to initialize message bus: %v", err)
		}

		// Initialize audit search index
		elasticClient, err := search.NewElasticClient(&cfg.Elasticsearch)
		if err != nil {
			logger.Fatalf("Failed to initialize Elasticsearch client: %v", err)
		}

		// Initialize telemetry
		nrApp, err := telemetry.InitNewRelic(&cfg.NewRelic)
		if err != nil {
			logger.Warnf("Failed to initialize New Relic: %v", err)
		} else if nrApp != nil {
			logger.Info("New Relic telemetry enabled")
		}

		// Initialize document field extraction
		var extractor extraction.Extractor = extraction.NoopExtractor{}
		if cfg.Gemini.APIKey != "" {
			gemini, err := extraction.NewGeminiExtractor(cmd.Context(), &cfg.Gemini)
			if err != nil {
				logger.Warnf("Failed to initialize Gemini extractor, extraction disabled: %v", err)
			} else {
				defer gemini.Close()
				extractor = gemini
			}
		}

		// Create repositories
		vehicleRepo := repository.NewVehicleRepository(dbConn)
		alertRepo := repository.NewAlertRepository(dbConn)
		auditRepo := repository.NewAuditRepository(dbConn)

		// Per-vehicle mutation locks shared by all services
		locks := service.NewVehicleLocks()

		// Create services
		auditService := service.NewAuditService(
			auditRepo,
			elasticClient,
			cfg.Database.Timeout,
			cfg.Database.Retries,
		)
		alertService := service.NewAlertService(
			alertRepo,
			vehicleRepo,
			messageBusClient,
			auditService,
			locks,
			cfg.MessageBus.AlertQueue,
			cfg.Compliance.WarningDays,
			cfg.Database.Timeout,
			cfg.Database.Retries,
		)
		vehicleService := service.NewVehicleService(
			vehicleRepo,
			alertRepo,
			alertService,
			auditService,
			cacheClient,
			locks,
			cfg.Compliance.WarningDays,
			cfg.Database.Timeout,
			cfg.Database.Retries,
		)
		summaryService := service.NewSummaryService(
			vehicleRepo,
			auditService,
			cfg.Compliance.WarningDays,
			cfg.Database.Timeout,
			cfg.Database.Retries,
		)

		// Create API handler
		handler := api.NewHandler(
			vehicleService,
			alertService,
			summaryService,
			auditService,
			extractor,
		)

		// Create middleware
		middleware := api.NewMiddleware(logger)

		// Create router
		router := mux.NewRouter()

		// Apply middleware; the telemetry transaction wraps everything else
		if nrApp != nil {
			router.Use(nrgorilla.Middleware(nrApp))
		}
		router.Use(middleware.Logger)
		router.Use(middleware.Recover)
		router.Use(middleware.CORS(cfg.Server.CorsWhiteList))
		router.Use(api.MetricsMiddleware)

		// Register routes
		handler.RegisterRoutes(router.PathPrefix("/api/v1").Subrouter())

		// Setup server
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		server := &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}

		// Start server in a goroutine
		go func() {
			logger.Infof("Starting server on %s", addr)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Fatalf("Failed to start server: %v", err)
			}
		}()

		// Wait for interrupt signal
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		// Create context with timeout for graceful shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Shutdown server
		logger.Info("Shutting down server...")
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Fatalf("Server shutdown failed: %v", err)
		}

		// Close message bus
		if err := messageBusClient.Close(shutdownCtx); err != nil {
			logger.Fatalf("Message bus closure failed: %v", err)
		}

		logger.Info("Server shutdown complete")
	},
}
