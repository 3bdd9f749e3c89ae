package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Flags
	cfgFile string
	debug   bool

	// Root command
	rootCmd = &cobra.Command{
		Use:   "fleetdocs",
		Short: "Fleet Document Compliance Service",
		Long: `Fleet Document Compliance Service for tracking vehicle regulatory documents.

Functions:
- Register vehicles and their regulatory document records
- Classify document compliance against expiry windows
- Generate and reconcile expiry alerts per vehicle
- Serve fleet-wide compliance summaries over a REST HTTP server
- Keep an append-only audit trail of all mutations`,
	}
)

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "env file (default is ./.env)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	// Add commands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(syncAlertsCmd)
}

// initConfig initializes the configuration
func initConfig() {
	// Setup logging
	if debug {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}

	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}
