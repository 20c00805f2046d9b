package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"stars-end/tribune/pkg/citecheck"
	"stars-end/tribune/pkg/cli"
	"stars-end/tribune/pkg/gateway"
	"stars-end/tribune/pkg/providers"
)

var askFlags struct {
	system     string
	maxTokens  int
	timeout    time.Duration
	budget     float64
	sourceFile string
	format     string
}

var askCmd = &cobra.Command{
	Use:   "ask [prompt]",
	Short: "Send a prompt through the provider chain",
	Long: `Send a chat prompt through the configured provider chain. Providers are
tried in priority order; the first success wins. The shared budget is
charged for the serving provider only.

When --source-file is given, quoted spans in the model's answer are
checked for verbatim presence in the source document and unsupported
quotes are reported as warnings.

Examples:
  # Ask a question
  tribune ask "What changed in this ordinance?"

  # Check citations against a source document
  tribune ask "Summarize the key clauses" --source-file ordinance.txt

  # Cap this single request at one cent
  tribune ask "Quick check" --budget 0.01`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().StringVar(&askFlags.system, "system", "", "system prompt")
	askCmd.Flags().IntVar(&askFlags.maxTokens, "max-tokens", 0, "maximum completion tokens")
	askCmd.Flags().DurationVar(&askFlags.timeout, "timeout", 0, "per-provider attempt timeout")
	askCmd.Flags().Float64Var(&askFlags.budget, "budget", 0, "per-request cost ceiling (0 = shared budget only)")
	askCmd.Flags().StringVar(&askFlags.sourceFile, "source-file", "", "source document to validate citations against")
	askCmd.Flags().StringVar(&askFlags.format, "format", "text", "output format: text, json")
}

func runAsk(cmd *cobra.Command, args []string) error {
	var sourceText string
	if askFlags.sourceFile != "" {
		data, err := os.ReadFile(askFlags.sourceFile)
		if err != nil {
			return fmt.Errorf("failed to read source file: %w", err)
		}
		sourceText = string(data)
	}

	stack, err := buildStack()
	if err != nil {
		return err
	}
	defer stack.Close()

	ctx := cli.SetupSignalHandler()

	messages := []providers.Message{}
	if askFlags.system != "" {
		messages = append(messages, providers.Message{Role: providers.RoleSystem, Content: askFlags.system})
	}
	messages = append(messages, providers.Message{Role: providers.RoleUser, Content: args[0]})

	outcome, err := stack.Engine.Invoke(ctx, &gateway.InvocationRequest{
		Messages:      messages,
		MaxTokens:     askFlags.maxTokens,
		Timeout:       askFlags.timeout,
		BudgetCeiling: askFlags.budget,
	})

	result := gateway.ResultFromOutcome(outcome, err)

	if cli.OutputFormat(askFlags.format) == cli.FormatJSON {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, result)
	}

	if !result.OK() {
		return cli.NewCommandError("ask", fmt.Errorf("%s", result.ErrorMessage()))
	}

	fmt.Println(result.Content())

	if provider, ok := result.Meta("provider"); ok {
		fmt.Fprintf(os.Stderr, "\n[served by %s", provider)
		if cost, ok := result.Meta("cost"); ok {
			fmt.Fprintf(os.Stderr, ", cost %s", cost)
		}
		fmt.Fprintln(os.Stderr, "]")
	}

	if sourceText != "" {
		warnings := citecheck.Validate(result.Content(), sourceText)
		if len(warnings) > 0 {
			fmt.Fprintf(os.Stderr, "\nCitation warnings:\n  %s\n", strings.Join(warnings, "\n  "))
		}
	}

	return nil
}
