package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"lexhub/gatekeeper/pkg/config"
	"lexhub/gatekeeper/pkg/server"
	"lexhub/gatekeeper/pkg/telemetry/logging"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Gatekeeper gateway",
	Long: `Start the Gatekeeper gateway with the specified configuration.

The gateway listens on the configured address, evaluates the admin policy
config for every request, and forwards surviving traffic upstream.

Examples:
  # Start with default config
  gatekeeper run

  # Start with custom config
  gatekeeper run --config /etc/gatekeeper/config.yaml

  # Override listen address
  gatekeeper run --listen 0.0.0.0:8080

  # Validate config without starting
  gatekeeper run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the gateway")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger := logging.New(cfg.Telemetry.Logging, os.Stderr)
	slog.SetDefault(logger)

	if runFlags.dryRun {
		fmt.Println("configuration is valid")
		return nil
	}

	srv, err := server.New(cfg, logger, server.BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize gateway: %w", err)
	}

	return srv.Start(context.Background())
}

// loadConfig loads the config file if it exists. When the default config
// file is simply absent, built-in defaults are used so the gateway can run
// with zero configuration; an explicitly named missing file is an error.
func loadConfig() (*config.Config, error) {
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		if cfgFile != "config.yaml" {
			return nil, fmt.Errorf("config file %q not found", cfgFile)
		}
		cfg := config.NewDefaultConfig()
		if err := config.Validate(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return config.LoadConfigWithEnvOverrides(cfgFile)
}
