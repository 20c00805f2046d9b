package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"stars-end/tribune/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load the configuration file, apply defaults and environment overrides,
and report every validation error found.

Examples:
  # Validate the default config file
  tribune validate

  # Validate a specific file
  tribune validate --config /path/to/config.yaml`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithEnvOverrides(cfgFile)
	if err != nil {
		return err
	}

	chat, search := 0, 0
	for _, p := range cfg.Providers {
		if p.IsSearch() {
			search++
		} else {
			chat++
		}
	}

	fmt.Printf("Configuration valid: %s\n", cfgFile)
	fmt.Printf("  Providers: %d chat, %d search\n", chat, search)
	fmt.Printf("  Budget: %.2f %s", cfg.Budget.Ceiling, cfg.Budget.Currency)
	if cfg.Budget.Period != "" {
		fmt.Printf(" per period (%s)", cfg.Budget.Period)
	}
	fmt.Println()
	fmt.Printf("  Search cache: %s\n", cfg.Search.CacheBackend)
	return nil
}
