// internal/providers/provider.go

// Package providers defines the interface for talking to text-generation
// servers. Implementations accept a fully rendered prompt plus sampling
// options and report generated text through streaming callbacks.
package providers

import (
	"context"
	"strings"
	"time"

	"github.com/mwiater/manzai/internal/appconfig"
)

// GenerateRequest carries one prompt to a model server.
type GenerateRequest struct {
	Host       appconfig.Host
	Model      string
	Prompt     string
	Parameters appconfig.Parameters
	Stream     bool
	// Scenario labels log lines; it is not sent to the server.
	Scenario string
}

// StreamMetadata contains metadata about a completed generation,
// including timing (nanoseconds) and token counts reported by the server.
type StreamMetadata struct {
	Model              string
	CreatedAt          time.Time
	Done               bool
	TotalDuration      int64
	LoadDuration       int64
	PromptEvalCount    int
	PromptEvalDuration int64
	EvalCount          int
	EvalDuration       int64
}

// StreamCallbacks are invoked while a generation runs. OnChunk receives each
// text increment (zero or more times); OnComplete runs once at the end.
type StreamCallbacks struct {
	OnChunk    func(string) error
	OnComplete func(StreamMetadata) error
}

// Status describes a model server's reachability. A failed probe is reported
// through Connected and Error rather than as a Go error.
type Status struct {
	Host            string   `json:"host"`
	URL             string   `json:"url"`
	Type            string   `json:"type"`
	Connected       bool     `json:"connected"`
	Version         string   `json:"version,omitempty"`
	AvailableModels []string `json:"availableModels"`
	LoadedModels    []string `json:"loadedModels,omitempty"`
	Error           string   `json:"error,omitempty"`
}

// Generator is implemented by every model server backend.
type Generator interface {
	// Generate sends the prompt and forwards output to callbacks.
	Generate(ctx context.Context, req GenerateRequest, callbacks StreamCallbacks) error
	// Status probes the host. It never returns an error.
	Status(ctx context.Context, host appconfig.Host) Status
	// EnsureModelReady asks the server to load a model before timing starts.
	EnsureModelReady(ctx context.Context, host appconfig.Host, model string) error
	// Close releases any resources held by the generator.
	Close() error
}

// HostIdentifier names a host for log lines.
func HostIdentifier(host appconfig.Host) string {
	if name := strings.TrimSpace(host.Name); name != "" {
		return name
	}
	if url := strings.TrimSpace(host.URL); url != "" {
		return url
	}
	return "model-host"
}
