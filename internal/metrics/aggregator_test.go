// internal/metrics/aggregator_test.go
package metrics

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/mwiater/manzai/internal/appconfig"
	"github.com/mwiater/manzai/internal/providers"
)

func TestUpdateRunningStat(t *testing.T) {
	t.Parallel()

	var rs RunningStat
	for _, v := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		updateRunningStat(&rs, v)
	}
	if rs.Count != 8 || rs.Mean != 5 || rs.Min != 2 || rs.Max != 9 {
		t.Fatalf("unexpected running stat: %+v", rs)
	}
	if got := rs.StdDev(); math.Abs(got-2.138089935) > 1e-6 {
		t.Fatalf("stddev = %v", got)
	}
}

func TestGetBucket(t *testing.T) {
	t.Parallel()

	tests := map[int]string{0: "0-256", 256: "0-256", 300: "257-512", 1000: "513-1024", 2048: "1025-4096", 9000: "4096+"}
	for tokens, want := range tests {
		if got := getBucket(tokens); got != want {
			t.Errorf("getBucket(%d) = %q want %q", tokens, got, want)
		}
	}
}

func TestAggregatorRecordSaveLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "metrics", "metrics.json")
	agg := NewAggregator(path)
	agg.now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }

	meta := providers.StreamMetadata{
		Model:           "gemma3:4b",
		PromptEvalCount: 300,
		EvalCount:       40,
		EvalDuration:    int64(500 * time.Millisecond),
		TotalDuration:   int64(900 * time.Millisecond),
	}
	agg.Record(meta, 120, "basic")
	agg.Record(meta, 80, "strength")

	snap := agg.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("snapshot = %+v", snap)
	}
	m := snap[0]
	if m.OverallStats.TotalRequests != 2 || m.OverallStats.TTFTMillis.Mean != 100 || m.OverallStats.TokensPerSecond.Mean != 80 {
		t.Fatalf("unexpected overall stats: %+v", m.OverallStats)
	}
	if m.OverallStats.TotalDurationMillis.Max != 900 {
		t.Fatalf("total duration = %+v", m.OverallStats.TotalDurationMillis)
	}
	// One input-token bucket plus two scenario buckets.
	if len(m.PerformanceBuckets) != 3 {
		t.Fatalf("buckets = %+v", m.PerformanceBuckets)
	}

	if err := agg.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	reloaded := NewAggregator(path)
	again := reloaded.Snapshot()
	if len(again) != 1 || again[0].OverallStats.TotalRequests != 2 || again[0].OverallStats.TTFTMillis.Count != 2 {
		t.Fatalf("reloaded metrics = %+v", again)
	}
}

func TestAggregatorWithoutPath(t *testing.T) {
	t.Parallel()

	agg := NewAggregator("")
	agg.Record(providers.StreamMetadata{Model: "m"}, 0, "")
	if err := agg.Save(); err != nil {
		t.Fatalf("Save without path returned error: %v", err)
	}
	if len(agg.Snapshot()[0].PerformanceBuckets) != 1 {
		t.Fatalf("empty scenario should not create a bucket")
	}
}

type stubGenerator struct {
	closed bool
}

func (s *stubGenerator) Generate(_ context.Context, req providers.GenerateRequest, cb providers.StreamCallbacks) error {
	if err := cb.OnChunk("やあ"); err != nil {
		return err
	}
	return cb.OnComplete(providers.StreamMetadata{EvalCount: 3, EvalDuration: int64(time.Second)})
}

func (s *stubGenerator) Status(context.Context, appconfig.Host) providers.Status {
	return providers.Status{Connected: true}
}

func (s *stubGenerator) EnsureModelReady(context.Context, appconfig.Host, string) error { return nil }

func (s *stubGenerator) Close() error {
	s.closed = true
	return nil
}

func TestProviderRecordsGeneration(t *testing.T) {
	t.Parallel()

	stub := &stubGenerator{}
	agg := NewAggregator("")
	p := NewProvider(stub, agg)

	var text string
	var completed bool
	err := p.Generate(context.Background(), providers.GenerateRequest{Model: "gemma3:4b", Scenario: "chat"}, providers.StreamCallbacks{
		OnChunk:    func(s string) error { text += s; return nil },
		OnComplete: func(providers.StreamMetadata) error { completed = true; return nil },
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if text != "やあ" || !completed {
		t.Fatalf("callbacks not forwarded: text=%q completed=%v", text, completed)
	}

	snap := agg.Snapshot()
	if len(snap) != 1 || snap[0].ModelName != "gemma3:4b" || snap[0].OverallStats.TokensPerSecond.Mean != 3 {
		t.Fatalf("unexpected metrics: %+v", snap)
	}
	if !p.Status(context.Background(), appconfig.Host{}).Connected {
		t.Fatalf("Status not passed through")
	}
	if err := p.Close(); err != nil || !stub.closed {
		t.Fatalf("Close: err=%v closed=%v", err, stub.closed)
	}
}
