// internal/metrics/types.go
package metrics

import (
	"math"
	"time"
)

// ModelMetrics is the top-level document for a single model's aggregated data.
type ModelMetrics struct {
	ModelName          string                 `json:"model_name"`
	LastUpdatedUTC     time.Time              `json:"last_updated_utc"`
	OverallStats       RunningAggregatedStats `json:"overall_stats"`
	PerformanceBuckets []PerformanceBucket    `json:"performance_buckets"`
}

// PerformanceBucket holds aggregated stats for one value of a dimension,
// such as a prompt-size range or a scenario tag.
type PerformanceBucket struct {
	Dimension string                 `json:"dimension"`
	Bucket    string                 `json:"bucket"`
	Stats     RunningAggregatedStats `json:"stats"`
}

// RunningAggregatedStats stores the running statistical values for a set of metrics.
type RunningAggregatedStats struct {
	TotalRequests int64 `json:"total_requests"`

	TTFTMillis          RunningStat `json:"ttft_ms"`
	TokensPerSecond     RunningStat `json:"tokens_per_second"`
	InputTokens         RunningStat `json:"input_tokens"`
	OutputTokens        RunningStat `json:"output_tokens"`
	TotalDurationMillis RunningStat `json:"total_duration_ms"`
}

// RunningStat holds the values for online calculation of mean and variance.
// Count and M2 are persisted so that later runs keep accumulating.
type RunningStat struct {
	Count int64   `json:"count"`
	Mean  float64 `json:"mean"`
	M2    float64 `json:"m2"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// StdDev returns the sample standard deviation.
func (rs RunningStat) StdDev() float64 {
	if rs.Count < 2 {
		return 0
	}
	return math.Sqrt(rs.M2 / float64(rs.Count-1))
}
