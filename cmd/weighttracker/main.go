package main

import (
	"fmt"
	"os"

	"weighttracker/internal/config"
	"weighttracker/internal/logging"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	envName    string
	configPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "weighttracker",
		Short:        "Personal weight tracker: REST API, statistics and trend",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().StringVar(&envName, "env", "development", "environment [prod | production | dev | development]")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./config.toml", "path for the TOML config file")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(hashPasswordCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads .env (when present) and the config file, then sets up
// logging. The returned closer flushes the log file.
func loadConfig() (*config.Config, func(), error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("failed to load .env: %s", err)
	}

	cfg, err := config.Load(envName, configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	closer := logging.Setup(logging.LoggerSetupParams{
		LogFileName:   cfg.LogsPath,
		LogToStdout:   cfg.LogToStdout,
		LogLevel:      cfg.LogLevel,
		LogFormatJSON: cfg.LogFormatJSON,
	})
	return cfg, func() { _ = closer.Close() }, nil
}
