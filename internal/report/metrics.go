package report

import (
	"fmt"
	"io"

	"github.com/mwiater/manzai/internal/metrics"
)

// RenderMetrics writes one block per model: overall running stats followed
// by every bucket.
func RenderMetrics(w io.Writer, models []metrics.ModelMetrics) {
	for _, m := range models {
		fmt.Fprintln(w, titleStyle.Render(m.ModelName))
		fmt.Fprintln(w, sectionStyle.Render("updated "+m.LastUpdatedUTC.Format("2006-01-02 15:04:05 UTC")))
		writeStats(w, "overall", m.OverallStats)
		for _, b := range m.PerformanceBuckets {
			writeStats(w, b.Dimension+"="+b.Bucket, b.Stats)
		}
		fmt.Fprintln(w)
	}
}

func writeStats(w io.Writer, label string, s metrics.RunningAggregatedStats) {
	fmt.Fprintf(w, "  %s (%d requests)\n", headerStyle.Render(label), s.TotalRequests)
	rows := []struct {
		name string
		stat metrics.RunningStat
	}{
		{"ttft ms", s.TTFTMillis},
		{"tokens/s", s.TokensPerSecond},
		{"input tokens", s.InputTokens},
		{"output tokens", s.OutputTokens},
		{"total ms", s.TotalDurationMillis},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "    %-14s mean %9.1f  sd %8.1f  min %9.1f  max %9.1f\n", r.name, r.stat.Mean, r.stat.StdDev(), r.stat.Min, r.stat.Max)
	}
}
