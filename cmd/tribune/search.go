package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"stars-end/tribune/pkg/cli"
	"stars-end/tribune/pkg/search"
)

var searchFlags struct {
	maxResults int
	fresh      bool
	timeout    time.Duration
	format     string
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Run a web search through the provider chain",
	Long: `Run a web search through the configured search providers. The cache is
consulted first; a hit costs nothing. On a miss the providers are tried
in priority order and the result is cached for next time.

Examples:
  # Search, serving from cache when possible
  tribune search "municipal budget 2026"

  # Bypass the cache
  tribune search "municipal budget 2026" --fresh

  # JSON output
  tribune search "zoning variance" --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntVar(&searchFlags.maxResults, "max-results", 0, "maximum hits to request")
	searchCmd.Flags().BoolVar(&searchFlags.fresh, "fresh", false, "bypass the cache")
	searchCmd.Flags().DurationVar(&searchFlags.timeout, "timeout", 0, "per-provider attempt timeout")
	searchCmd.Flags().StringVar(&searchFlags.format, "format", "text", "output format: text, json")
}

func runSearch(cmd *cobra.Command, args []string) error {
	stack, err := buildStack()
	if err != nil {
		return err
	}
	defer stack.Close()

	ctx := cli.SetupSignalHandler()

	searchResult, err := stack.Search.Search(ctx, &search.Query{
		Text:       args[0],
		MaxResults: searchFlags.maxResults,
		Fresh:      searchFlags.fresh,
		Timeout:    searchFlags.timeout,
	})

	result := search.ResultToEnvelope(searchResult, err)

	if cli.OutputFormat(searchFlags.format) == cli.FormatJSON {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, result)
	}

	if !result.OK() {
		return cli.NewCommandError("search", fmt.Errorf("%s", result.ErrorMessage()))
	}

	fmt.Println(result.Content())

	if provider, ok := result.Meta("provider"); ok {
		cached := ""
		if hit, _ := result.Meta("cache_hit"); hit == "true" {
			cached = ", cached"
		}
		fmt.Fprintf(os.Stderr, "\n[served by %s%s]\n", provider, cached)
	}

	return nil
}
