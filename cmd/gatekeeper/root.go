package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "gatekeeper",
	Short: "Gatekeeper - edge policy gateway for the LexHub platform",
	Long: `Gatekeeper is the edge policy gateway for the LexHub directory platform.

It evaluates admin-managed request policies in front of the web application:
  - Maintenance mode with exempt paths
  - Role-based access control by path prefix
  - Admin-configured redirects
  - Deterministic A/B test path rewrites
  - Percentage-rollout feature flags

It also hosts the password-reset token endpoints used by the frontend.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
