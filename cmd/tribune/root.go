package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stars-end/tribune/pkg/config"
	"stars-end/tribune/pkg/providerfactory"
	"stars-end/tribune/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "tribune",
	Short: "Tribune - provider-resilient LLM and search gateway",
	Long: `Tribune is an invocation gateway that walks a priority-ranked provider
list for every request, enforcing a shared budget ledger and per-provider
rate limits, falling over to the next candidate on transient failure.

It provides:
  - Multi-provider chat invocation (Anthropic, OpenAI, OpenAI-compatible)
  - Web search with cached results (Serper, Brave)
  - Exact-total cost tracking with periodic budget rolls
  - Citation validation of model output against source documents`,
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
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig reads and validates the configured file, with environment
// overrides applied.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// buildStack assembles the full gateway from the configured file. The
// caller owns the returned stack and must Close it.
func buildStack() (*providerfactory.Stack, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	logger, err := logging.Setup(logging.Config{
		Level:  level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return nil, err
	}

	return providerfactory.Build(cfg, logger)
}
