package cmd

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"example.com/fleetdocs/config"
	"example.com/fleetdocs/internal/db"
	"example.com/fleetdocs/internal/messagebus"
	"example.com/fleetdocs/internal/repository"
	"example.com/fleetdocs/internal/search"
	"example.com/fleetdocs/internal/service"
)

var syncOwnerID string

var syncAlertsCmd = &cobra.Command{
	Use:   "sync-alerts",
	Short: "Reconcile alerts for every vehicle in the fleet",
	Long: `Reconcile alerts for every vehicle in the fleet.

Meant to run on a schedule so alert due dates track the passage of time
even when no documents are uploaded.`,
	Run: func(cmd *cobra.Command, args []string) {
		// Load configuration
		cfg, err := config.Load()
		if err != nil {
			logrus.Fatalf("Failed to load configuration: %v", err)
		}

		// Connect to database
		dbConn, err := db.Connect(&cfg.Database)
		if err != nil {
			logrus.Fatalf("Failed to connect to database: %v", err)
		}

		// Initialize message bus
		messageBusClient, err := messagebus.NewClient(&cfg.MessageBus)
		if err != nil {
			logrus.Fatalf("Failed to initialize message bus: %v", err)
		}

		// Initialize audit search index
		elasticClient, err := search.NewElasticClient(&cfg.Elasticsearch)
		if err != nil {
			logrus.Fatalf("Failed to initialize Elasticsearch client: %v", err)
		}

		// Create repositories and services
		vehicleRepo := repository.NewVehicleRepository(dbConn)
		alertRepo := repository.NewAlertRepository(dbConn)
		auditRepo := repository.NewAuditRepository(dbConn)
		locks := service.NewVehicleLocks()

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

		// Create context
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		// Run the fleet pass
		report, err := alertService.SynchronizeFleet(ctx, syncOwnerID)
		if err != nil {
			logrus.Fatalf("Failed to synchronize fleet alerts: %v", err)
		}

		logrus.Infof("Synchronized %d vehicles, created %d alerts", report.Vehicles, report.AlertsCreated)
		for vehicleID, reason := range report.Failures {
			logrus.WithField("vehicle_id", vehicleID).Errorf("Vehicle skipped: %s", reason)
		}

		// Close message bus
		if err := messageBusClient.Close(ctx); err != nil {
			logrus.Errorf("Failed to close message bus: %v", err)
		}
	},
}

func init() {
	syncAlertsCmd.Flags().StringVarP(&syncOwnerID, "owner", "o", "system", "Owner recorded on generated alerts")
}
