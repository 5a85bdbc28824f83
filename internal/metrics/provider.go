// internal/metrics/provider.go
package metrics

import (
	"context"
	"time"

	"github.com/mwiater/manzai/internal/appconfig"
	"github.com/mwiater/manzai/internal/logging"
	"github.com/mwiater/manzai/internal/providers"
)

// Provider is a decorator that wraps a Generator to record metrics.
type Provider struct {
	wrapped    providers.Generator
	aggregator *Aggregator
}

// NewProvider creates a metrics-recording Generator around wrapped.
func NewProvider(wrapped providers.Generator, aggregator *Aggregator) *Provider {
	logging.LogEvent("[METRICS] Wrapping generator with metrics provider")
	return &Provider{wrapped: wrapped, aggregator: aggregator}
}

// Generate times the first chunk and records the completed generation.
func (p *Provider) Generate(ctx context.Context, req providers.GenerateRequest, callbacks providers.StreamCallbacks) error {
	start := time.Now()
	var firstChunk time.Time

	wrapped := providers.StreamCallbacks{
		OnChunk: func(chunk string) error {
			if firstChunk.IsZero() {
				firstChunk = time.Now()
			}
			if callbacks.OnChunk != nil {
				return callbacks.OnChunk(chunk)
			}
			return nil
		},
		OnComplete: func(meta providers.StreamMetadata) error {
			if p.aggregator != nil {
				var ttft int64
				if !firstChunk.IsZero() {
					ttft = firstChunk.Sub(start).Milliseconds()
				}
				if meta.Model == "" {
					meta.Model = req.Model
				}
				p.aggregator.Record(meta, ttft, req.Scenario)
			}
			if callbacks.OnComplete != nil {
				return callbacks.OnComplete(meta)
			}
			return nil
		},
	}
	return p.wrapped.Generate(ctx, req, wrapped)
}

// Status passes the call through to the wrapped generator.
func (p *Provider) Status(ctx context.Context, host appconfig.Host) providers.Status {
	return p.wrapped.Status(ctx, host)
}

// EnsureModelReady passes the call through to the wrapped generator.
func (p *Provider) EnsureModelReady(ctx context.Context, host appconfig.Host, model string) error {
	return p.wrapped.EnsureModelReady(ctx, host, model)
}

// Close saves the metrics and closes the wrapped generator.
func (p *Provider) Close() error {
	var saveErr error
	if p.aggregator != nil {
		saveErr = p.aggregator.Close()
	}
	if err := p.wrapped.Close(); err != nil {
		return err
	}
	return saveErr
}
