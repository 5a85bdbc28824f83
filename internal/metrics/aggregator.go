// internal/metrics/aggregator.go
package metrics

import (
	"encoding/json"
	"errors"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/mwiater/manzai/internal/logging"
	"github.com/mwiater/manzai/internal/providers"
	"github.com/mwiater/manzai/internal/util"
)

// Bucket dimensions.
const (
	DimensionInputTokens = "input_tokens"
	DimensionScenario    = "scenario"
)

// Aggregator collects per-model performance metrics and persists them as
// JSON between runs.
type Aggregator struct {
	mutex    sync.Mutex
	metrics  map[string]*ModelMetrics
	filePath string
	now      func() time.Time
}

// NewAggregator creates an Aggregator backed by filePath, loading any
// metrics saved by earlier runs. An empty path keeps metrics in memory only.
func NewAggregator(filePath string) *Aggregator {
	agg := &Aggregator{
		metrics:  make(map[string]*ModelMetrics),
		filePath: filePath,
		now:      time.Now,
	}
	agg.load()
	return agg
}

// load reads metrics from the JSON file into memory.
func (a *Aggregator) load() {
	if a.filePath == "" {
		return
	}
	a.mutex.Lock()
	defer a.mutex.Unlock()

	data, err := os.ReadFile(a.filePath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logging.LogEvent("[METRICS] could not read %s: %v", a.filePath, err)
		}
		return
	}

	var metricsSlice []*ModelMetrics
	if err := json.Unmarshal(data, &metricsSlice); err != nil {
		logging.LogEvent("[METRICS] ignoring malformed %s: %v", a.filePath, err)
		return
	}

	for _, m := range metricsSlice {
		a.metrics[m.ModelName] = m
	}
}

// Save writes the current metrics to the JSON file.
func (a *Aggregator) Save() error {
	if a.filePath == "" {
		return nil
	}
	logging.LogEvent("[METRICS] Saving metrics to %s", a.filePath)

	data, err := json.MarshalIndent(a.Snapshot(), "", "  ")
	if err != nil {
		return err
	}
	return util.WriteFile(a.filePath, data)
}

// Snapshot returns a copy of every model's metrics ordered by model name.
func (a *Aggregator) Snapshot() []ModelMetrics {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	out := make([]ModelMetrics, 0, len(a.metrics))
	for _, m := range a.metrics {
		c := *m
		c.PerformanceBuckets = append([]PerformanceBucket(nil), m.PerformanceBuckets...)
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModelName < out[j].ModelName })
	return out
}

// Record updates the metrics for a model with one completed generation.
func (a *Aggregator) Record(meta providers.StreamMetadata, ttft int64, scenario string) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	modelMetrics, exists := a.metrics[meta.Model]
	if !exists {
		modelMetrics = &ModelMetrics{ModelName: meta.Model}
		a.metrics[meta.Model] = modelMetrics
	}
	modelMetrics.LastUpdatedUTC = a.now().UTC()

	updateStats(&modelMetrics.OverallStats, meta, ttft)
	modelMetrics.bucket(DimensionInputTokens, getBucket(meta.PromptEvalCount), meta, ttft)
	if scenario != "" {
		modelMetrics.bucket(DimensionScenario, scenario, meta, ttft)
	}
}

func (m *ModelMetrics) bucket(dimension, name string, meta providers.StreamMetadata, ttft int64) {
	for i := range m.PerformanceBuckets {
		if m.PerformanceBuckets[i].Dimension == dimension && m.PerformanceBuckets[i].Bucket == name {
			updateStats(&m.PerformanceBuckets[i].Stats, meta, ttft)
			return
		}
	}
	b := PerformanceBucket{Dimension: dimension, Bucket: name}
	updateStats(&b.Stats, meta, ttft)
	m.PerformanceBuckets = append(m.PerformanceBuckets, b)
}

// updateStats updates the running statistics with new metadata.
func updateStats(stats *RunningAggregatedStats, meta providers.StreamMetadata, ttft int64) {
	stats.TotalRequests++
	updateRunningStat(&stats.TTFTMillis, float64(ttft))

	var tokensPerSecond float64
	if meta.EvalDuration > 0 {
		tokensPerSecond = float64(meta.EvalCount) / (float64(meta.EvalDuration) / 1e9)
	}
	updateRunningStat(&stats.TokensPerSecond, tokensPerSecond)

	updateRunningStat(&stats.InputTokens, float64(meta.PromptEvalCount))
	updateRunningStat(&stats.OutputTokens, float64(meta.EvalCount))
	updateRunningStat(&stats.TotalDurationMillis, float64(meta.TotalDuration/1e6))
}

// updateRunningStat updates a single running statistic using Welford's online algorithm.
func updateRunningStat(rs *RunningStat, value float64) {
	rs.Count++
	if rs.Count == 1 {
		rs.Min = value
		rs.Max = value
	} else {
		if value < rs.Min {
			rs.Min = value
		}
		if value > rs.Max {
			rs.Max = value
		}
	}

	delta := value - rs.Mean
	rs.Mean += delta / float64(rs.Count)
	delta2 := value - rs.Mean
	rs.M2 += delta * delta2
}

// getBucket groups prompts by size. Character prompts sit well under the
// small tier's 8k context, so the buckets are finer than a general benchmark's.
func getBucket(inputTokens int) string {
	switch {
	case inputTokens <= 256:
		return "0-256"
	case inputTokens <= 512:
		return "257-512"
	case inputTokens <= 1024:
		return "513-1024"
	case inputTokens <= 4096:
		return "1025-4096"
	default:
		return "4096+"
	}
}

// Close saves the metrics.
func (a *Aggregator) Close() error {
	return a.Save()
}
