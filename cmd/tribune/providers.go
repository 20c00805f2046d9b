package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"stars-end/tribune/pkg/cli"
	"stars-end/tribune/pkg/config"
)

var providersFlags struct {
	format string
}

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List configured providers",
	Long: `List the configured provider candidates in priority order, with their
adapter type, model, pricing, and rate limit.

Examples:
  # Table output
  tribune providers

  # JSON output
  tribune providers --format json`,
	RunE: listProviders,
}

func init() {
	rootCmd.AddCommand(providersCmd)

	providersCmd.Flags().StringVar(&providersFlags.format, "format", "text", "output format: text, json")
}

// providerRow is the JSON shape of one listed provider.
type providerRow struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Family   string  `json:"family"`
	Model    string  `json:"model,omitempty"`
	Priority int     `json:"priority"`
	PerQuery float64 `json:"per_query,omitempty"`
	Prompt   float64 `json:"prompt_per_1k,omitempty"`
	Requests int     `json:"ratelimit_requests,omitempty"`
}

func listProviders(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	rows := make([]providerRow, 0, len(cfg.Providers))
	for _, p := range cfg.Providers {
		row := providerRow{
			Name:     p.Name,
			Type:     p.Type,
			Family:   p.Family,
			Model:    p.Model,
			Priority: p.Priority,
			PerQuery: p.Pricing.PerQuery,
			Prompt:   p.Pricing.PromptPer1K,
		}
		limit := cfg.RateLimit
		if p.RateLimit != nil {
			limit = *p.RateLimit
		}
		row.Requests = limit.Requests
		rows = append(rows, row)
	}

	if cli.OutputFormat(providersFlags.format) == cli.FormatJSON {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, rows)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPE\tFAMILY\tMODEL\tPRIORITY\tLIMIT")
	for _, row := range rows {
		limit := "unlimited"
		if row.Requests > 0 {
			limit = fmt.Sprintf("%d/window", row.Requests)
		}
		model := row.Model
		if model == "" && row.Family == config.FamilySearch {
			model = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			row.Name, row.Type, row.Family, model, row.Priority, limit)
	}
	return w.Flush()
}
