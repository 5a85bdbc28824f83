package providers

import (
	"context"
	"strings"
	"time"
)

// Generation is the accumulated result of one Generate call.
type Generation struct {
	Text           string         `json:"text"`
	TokenCount     int            `json:"tokenCount"`
	EvalDurationMs int64          `json:"evalDurationMs"`
	LoadDurationMs int64          `json:"loadDurationMs"`
	LatencyMs      int64          `json:"latencyMs"`
	Meta           StreamMetadata `json:"-"`
}

// Collect runs a generation and accumulates its chunks into one trimmed
// string. onChunk, when non-nil, also sees every increment as it arrives.
func Collect(ctx context.Context, g Generator, req GenerateRequest, onChunk func(string) error) (Generation, error) {
	var (
		out  strings.Builder
		meta StreamMetadata
	)
	callbacks := StreamCallbacks{
		OnChunk: func(chunk string) error {
			out.WriteString(chunk)
			if onChunk != nil {
				return onChunk(chunk)
			}
			return nil
		},
		OnComplete: func(m StreamMetadata) error {
			meta = m
			return nil
		},
	}

	start := time.Now()
	if err := g.Generate(ctx, req, callbacks); err != nil {
		return Generation{}, err
	}
	return Generation{
		Text:           strings.TrimSpace(out.String()),
		TokenCount:     meta.EvalCount,
		EvalDurationMs: time.Duration(meta.EvalDuration).Milliseconds(),
		LoadDurationMs: time.Duration(meta.LoadDuration).Milliseconds(),
		LatencyMs:      time.Since(start).Milliseconds(),
		Meta:           meta,
	}, nil
}
