// Command techops runs the maintenance request API and its housekeeping tasks.
//
//	@title			TechOps Maintenance Requests API
//	@version		1.0
//	@description	Lifecycle of client maintenance requests: numbering, status history and work logs.
//	@BasePath		/api/v1
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	_ "time/tzdata"

	"github.com/Izzudinalqassam/techops-dashboard/internal/config"
	"github.com/Izzudinalqassam/techops-dashboard/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version string

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "techops",
		Short:         "Maintenance request lifecycle service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A missing .env is normal outside local development.
			if err := godotenv.Load(envFile); err != nil && cmd.Flags().Changed("env-file") {
				return fmt.Errorf("load %s: %w", envFile, err)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	root.Version = appVersion()

	root.AddCommand(newServeCommand(), newMigrateCommand())
	return root
}

// loadConfig reads the environment and installs the global logger.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	sysutil.ConfigureLogger(os.Stdout, cfg.LogLevel, cfg.LogPretty, cfg.OTEL.ServiceName)
	log.Info().
		Str("version", appVersion()).
		Str("db_driver", cfg.DB.Driver).
		Str("sequence_backend", cfg.SequenceBackend).
		Str("business_tz", cfg.BusinessTZ).
		Msg("config loaded")
	return cfg, nil
}

func appVersion() string {
	return sysutil.FirstNonEmpty(version, os.Getenv("APP_VERSION"), "dev")
}
