package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"bridge-indexer/internal/app"
	"bridge-indexer/internal/config"
	"bridge-indexer/internal/db"
	"bridge-indexer/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configPath string

	cfg    *config.Config
	logger = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:   "bridge-indexer",
	Short: "Indexes deBridge DLN and Mayan Swift cross-chain transfers",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		return setupLogger(cfg.Log)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default config.local.yaml or config.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogger(lc config.LogConfig) error {
	level, err := logrus.ParseLevel(lc.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", lc.Level, err)
	}
	logger.SetLevel(level)
	if lc.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	logger.SetOutput(os.Stdout)
	return nil
}

// newContainer opens the database and builds the services
func newContainer() (*app.ServiceContainer, error) {
	gdb, err := db.InitDB(cfg.Database)
	if err != nil {
		return nil, err
	}
	return app.NewServiceContainer(cfg, gdb, logger)
}

// parseBridges turns "all" or a comma-separated list into bridges
func parseBridges(value string) ([]models.Bridge, error) {
	if value == "" || value == "all" {
		return db.Bridges, nil
	}
	var out []models.Bridge
	for _, name := range strings.Split(value, ",") {
		b := models.Bridge(strings.TrimSpace(name))
		switch b {
		case models.BridgeDeBridge, models.BridgeMayan:
			out = append(out, b)
		default:
			return nil, fmt.Errorf("unknown bridge %q", name)
		}
	}
	return out, nil
}

func parseTime(flag, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be RFC3339: %w", flag, err)
	}
	return t.UTC(), nil
}
