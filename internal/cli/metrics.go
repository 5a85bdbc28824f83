package manzai

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwiater/manzai/internal/metrics"
	"github.com/mwiater/manzai/internal/report"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show accumulated per-model performance metrics",
	Long: `Show the running performance statistics recorded while --metrics was on:
time to first token, throughput and durations per model, bucketed by prompt
size and scenario.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		snapshot := metrics.NewAggregator(cfg.MetricsFilePath()).Snapshot()
		out := cmd.OutOrStdout()
		if len(snapshot) == 0 {
			fmt.Fprintf(out, "No metrics recorded in %s yet. Run with --metrics to collect them.\n", cfg.MetricsFilePath())
			return nil
		}
		report.RenderMetrics(out, snapshot)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(metricsCmd)
}
