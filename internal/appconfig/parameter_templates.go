// internal/appconfig/parameter_templates.go
package appconfig

import (
	"strings"
)

// TierName identifies a sampling template keyed by model capacity.
type TierName string

const (
	TierSmall TierName = "small"
	TierLarge TierName = "large"
)

// Delimiter tokens of the Gemma turn format. Generation must stop on either.
const (
	StartOfTurn = "<start_of_turn>"
	EndOfTurn   = "<end_of_turn>"
)

// ParamsForTier selects a sampling template by tier name.
// Behavior:
//   - empty string => small
//   - unknown string => small
func ParamsForTier(name string) Parameters {
	switch TierName(normalizeTierName(name)) {
	case TierLarge:
		return DefaultLargeParams()
	case TierSmall:
		fallthrough
	default:
		return DefaultSmallParams()
	}
}

// DefaultSmallParams is tuned for 4B-class models: short replies, 8k context.
func DefaultSmallParams() Parameters {
	p := baseParams()
	p.NumPredict = ptrInt(100)
	p.NumCtx = ptrInt(8192)
	return p
}

// DefaultLargeParams is tuned for 12B-class models: a little more room to answer, 16k context.
func DefaultLargeParams() Parameters {
	p := baseParams()
	p.NumPredict = ptrInt(150)
	p.NumCtx = ptrInt(16384)
	return p
}

func baseParams() Parameters {
	return Parameters{
		Temperature: ptrFloat(1.0),
		TopK:        ptrInt(64),
		TopP:        ptrFloat(0.95),
		MinP:        ptrFloat(0.01),

		// The Gemma 3 family is only stable at exactly 1.0.
		RepeatPenalty: ptrFloat(1.0),

		Stop: []string{EndOfTurn, StartOfTurn},
	}
}

// MergeParams overlays every non-nil field of override onto base.
func MergeParams(base Parameters, override Parameters) Parameters {
	if override.Temperature != nil {
		base.Temperature = override.Temperature
	}
	if override.TopK != nil {
		base.TopK = override.TopK
	}
	if override.TopP != nil {
		base.TopP = override.TopP
	}
	if override.MinP != nil {
		base.MinP = override.MinP
	}
	if override.RepeatPenalty != nil {
		base.RepeatPenalty = override.RepeatPenalty
	}
	if override.NumPredict != nil {
		base.NumPredict = override.NumPredict
	}
	if override.NumCtx != nil {
		base.NumCtx = override.NumCtx
	}
	if override.Stop != nil {
		base.Stop = append([]string(nil), override.Stop...)
	}
	return base
}

// EffectiveParams layers the tier template, the host parameters and the
// character's own overrides, in that order of increasing priority.
func EffectiveParams(tier string, host Parameters, character Parameters) Parameters {
	return MergeParams(MergeParams(ParamsForTier(tier), host), character)
}

func normalizeTierName(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	// allow model-size aliases
	switch s {
	case "", "4b", "s", "gemma3:4b":
		return string(TierSmall)
	case "12b", "l", "gemma3:12b":
		return string(TierLarge)
	default:
		return s
	}
}

// Pointer helpers (keeps structs clean + preserves unset vs explicitly set).
func ptrInt(v int) *int           { return &v }
func ptrFloat(v float64) *float64 { return &v }

// Float returns a pointer to v, for building Parameters literals.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v, for building Parameters literals.
func Int(v int) *int { return &v }
