package character

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mwiater/manzai/internal/appconfig"
)

const (
	exportVersion   = "2.0.0"
	builderVersion  = "gemma3-optimized"
	defaultEndpoint = "http://localhost:11434"
)

// Export is the agent-config document consumed by the dialogue runtime.
type Export struct {
	Version       string         `json:"version"`
	Metadata      ExportMetadata `json:"metadata"`
	AgentConfig   AgentConfig    `json:"agentConfig"`
	CharacterData Profile        `json:"characterData"`
	Modelfile     string         `json:"modelfile"`
}

// ExportMetadata describes when and for which model an export was built.
type ExportMetadata struct {
	CreatedAt      time.Time `json:"createdAt"`
	BuilderVersion string    `json:"builderVersion"`
	ModelInfo      ModelInfo `json:"modelInfo"`
}

// ModelInfo summarizes the target model.
type ModelInfo struct {
	Name              string `json:"name"`
	ContextWindow     int    `json:"contextWindow"`
	RecommendedTokens int    `json:"recommendedTokens"`
}

// AgentConfig is the runtime's agent entry for this character.
type AgentConfig struct {
	Name              string  `json:"name"`
	Provider          string  `json:"provider"`
	Model             string  `json:"model"`
	Endpoint          string  `json:"endpoint"`
	Temperature       float64 `json:"temperature"`
	TopP              float64 `json:"top_p"`
	MaxTokens         int     `json:"max_tokens"`
	RepetitionPenalty float64 `json:"repetition_penalty"`
	PromptSystem      string  `json:"promptSystem"`
	PromptStyle       string  `json:"promptStyle"`
	Failover          string  `json:"failover"`
	TimeoutSeconds    int     `json:"timeout_s"`
	MinTPS            int     `json:"min_tps"`
}

// BuildExport assembles the export document for p. promptStyle is the
// rendered prompt template shipped with the agent.
func BuildExport(p Profile, endpoint, promptStyle string, now time.Time) Export {
	p = WithDefaults(p)
	params := p.EffectiveParams(appconfig.Parameters{})
	if strings.TrimSpace(endpoint) == "" {
		endpoint = defaultEndpoint
	}
	minTPS := 90
	if p.ModelTier == TierLarge {
		minTPS = 35
	}

	return Export{
		Version: exportVersion,
		Metadata: ExportMetadata{
			CreatedAt:      now.UTC(),
			BuilderVersion: builderVersion,
			ModelInfo: ModelInfo{
				Name:              p.Model,
				ContextWindow:     intValue(params.NumCtx),
				RecommendedTokens: intValue(params.NumPredict),
			},
		},
		AgentConfig: AgentConfig{
			Name:              p.Name,
			Provider:          "Ollama",
			Model:             p.Model,
			Endpoint:          endpoint,
			Temperature:       floatValue(params.Temperature),
			TopP:              floatValue(params.TopP),
			MaxTokens:         intValue(params.NumPredict),
			RepetitionPenalty: floatValue(params.RepeatPenalty),
			PromptSystem:      "",
			PromptStyle:       promptStyle,
			Failover:          "OFF",
			TimeoutSeconds:    30,
			MinTPS:            minTPS,
		},
		CharacterData: p,
		Modelfile:     Modelfile(p),
	}
}

// Modelfile renders an Ollama Modelfile that bakes the character's effective
// sampling parameters into a derived model.
func Modelfile(p Profile) string {
	p = WithDefaults(p)
	params := p.EffectiveParams(appconfig.Parameters{})

	var b strings.Builder
	fmt.Fprintf(&b, "FROM %s\n", p.Model)
	writeParam := func(name, value string) {
		fmt.Fprintf(&b, "PARAMETER %s %s\n", name, value)
	}
	if params.Temperature != nil {
		writeParam("temperature", formatFloat(*params.Temperature))
	}
	if params.TopK != nil {
		writeParam("top_k", strconv.Itoa(*params.TopK))
	}
	if params.TopP != nil {
		writeParam("top_p", formatFloat(*params.TopP))
	}
	if params.MinP != nil {
		writeParam("min_p", formatFloat(*params.MinP))
	}
	if params.RepeatPenalty != nil {
		writeParam("repeat_penalty", formatFloat(*params.RepeatPenalty))
	}
	if params.NumCtx != nil {
		writeParam("num_ctx", strconv.Itoa(*params.NumCtx))
	}
	if params.NumPredict != nil {
		writeParam("num_predict", strconv.Itoa(*params.NumPredict))
	}
	for _, stop := range params.Stop {
		writeParam("stop", strconv.Quote(stop))
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "# character: %s\n", p.Name)
	fmt.Fprintf(&b, "# role: %s\n", p.Role)
	fmt.Fprintf(&b, "# personality: %s\n", oneLine(p.Personality.Core))
	fmt.Fprintf(&b, "# endings: %s\n", strings.Join(p.SpeechStyle.SentenceEndings, ", "))
	b.WriteString("# Gemma 3 has no system role; every instruction goes in the user turn.\n")
	return b.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func intValue(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func floatValue(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
