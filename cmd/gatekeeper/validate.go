package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"lexhub/gatekeeper/pkg/adminconfig"
)

var validateFlags struct {
	policyFile string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration files",
	Long: `Validate the service configuration and, optionally, a policy config file.

The policy config file is compiled exactly as it would be at runtime, so
malformed target patterns, out-of-range rollout percentages, and invalid
A/B variant weights are reported before deployment.

Examples:
  # Validate the service config
  gatekeeper validate

  # Also validate a policy config file
  gatekeeper validate --policy policies.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateFlags.policyFile, "policy", "", "policy config file to compile-check")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	fmt.Printf("service config ok (listen %s, admin source %s)\n",
		cfg.Server.ListenAddress, cfg.Admin.Source)

	if validateFlags.policyFile != "" {
		source := adminconfig.NewFileSource(validateFlags.policyFile)
		compiled, err := source.Load(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("policy config ok (%d redirects, %d flags, %d access rules, %d A/B tests, maintenance %v)\n",
			len(compiled.Redirects),
			len(compiled.FeatureFlags),
			len(compiled.AccessControl),
			len(compiled.ABTests),
			compiled.Maintenance.Enabled,
		)
	}

	return nil
}
