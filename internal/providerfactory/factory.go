// internal/providerfactory/factory.go
package providerfactory

import (
	"fmt"
	"strings"

	"github.com/mwiater/manzai/internal/appconfig"
	"github.com/mwiater/manzai/internal/logging"
	"github.com/mwiater/manzai/internal/metrics"
	"github.com/mwiater/manzai/internal/providers"
	"github.com/mwiater/manzai/internal/providers/ollama"
	"github.com/mwiater/manzai/internal/providers/openaicompat"
)

// NewGenerator selects the generator for host.Type and wraps it with
// metrics collection when enabled. The returned aggregator is nil unless
// metrics are on.
func NewGenerator(cfg *appconfig.Config, host appconfig.Host) (providers.Generator, *metrics.Aggregator, error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("nil config provided to provider factory")
	}

	var generator providers.Generator
	switch normalizeType(host.Type) {
	case appconfig.HostTypeOllama:
		generator = ollama.New(cfg)
	case appconfig.HostTypeOpenAI:
		generator = openaicompat.New(cfg)
	default:
		return nil, nil, fmt.Errorf("unsupported host type %q for host %q", host.Type, host.Name)
	}
	logging.LogEvent("Generator ready: %s (%s)", providers.HostIdentifier(host), normalizeType(host.Type))

	if !cfg.Metrics {
		return generator, nil, nil
	}
	aggregator := metrics.NewAggregator(cfg.MetricsFilePath())
	return metrics.NewProvider(generator, aggregator), aggregator, nil
}

func normalizeType(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "", "ollama":
		return appconfig.HostTypeOllama
	case "openai", "openai-compatible", "openai_compatible":
		return appconfig.HostTypeOpenAI
	default:
		return strings.ToLower(strings.TrimSpace(t))
	}
}
