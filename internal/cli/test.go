package manzai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/mwiater/manzai/internal/report"
	"github.com/mwiater/manzai/internal/scenario"
)

// testCmd runs a scenario suite against the configured host and prints the
// scored results.
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Run a scenario suite against a character and score every reply",
	Long: `Run the built-in scenario suite (or --suite) for the character profile,
one request at a time, and print per-reply scores and a summary. Every record is
also appended to <resultsDir>/<character>.jsonl.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		p, err := loadCharacter(cfg)
		if err != nil {
			return err
		}

		suitePath, _ := cmd.Flags().GetString("suite")
		if suitePath == "" {
			suitePath = cfg.SuitePath
		}
		suite := scenario.Builtin(p)
		if suitePath != "" {
			if suite, err = scenario.LoadSuite(suitePath); err != nil {
				return err
			}
		}

		g, host, err := newGenerator(cmd, cfg)
		if err != nil {
			return err
		}
		defer closeGenerator(g, host)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		runner := scenario.NewRunner(cfg, g, host)
		model := scenario.ResolveModel(p, host)
		if err := g.EnsureModelReady(ctx, host, model); err != nil {
			return fmt.Errorf("load %s on %s: %w", model, host.Name, err)
		}

		out := cmd.OutOrStdout()
		runner.Progress = func(pr scenario.Progress) {
			fmt.Fprintf(out, "[%d/%d] %-8s %s %s\n", pr.Index, pr.Total, pr.Scenario, report.Score(pr.Record.Scores.Overall), pr.Input)
		}
		records, runErr := runner.Run(ctx, p, suite)
		if runErr != nil && !errors.Is(runErr, context.Canceled) {
			return runErr
		}

		run := report.NewRun(p, host.Name, model, records, time.Now())
		fmt.Fprintln(out)
		report.Render(out, run)

		if path, _ := cmd.Flags().GetString("json"); path != "" {
			if err := report.SaveJSON(path, run); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			fmt.Fprintf(out, "\nJSON report written to %s\n", path)
		}
		if path, _ := cmd.Flags().GetString("html"); path != "" {
			if err := report.SaveHTML(path, run); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			fmt.Fprintf(out, "HTML report written to %s\n", path)
		}
		if runErr != nil {
			fmt.Fprintf(out, "\nRun interrupted after %d replies.\n", len(records))
		}
		return nil
	},
}

func init() {
	testCmd.Flags().String("suite", "", "scenario suite file replacing the built-in suite")
	testCmd.Flags().String("json", "", "also write the run as JSON to this path")
	testCmd.Flags().String("html", "", "also write the run as an HTML page to this path")
	rootCmd.AddCommand(testCmd)
}
