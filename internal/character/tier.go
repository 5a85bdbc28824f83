package character

import "sort"

// Range is an inclusive character-count interval.
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether n lies within the range.
func (r Range) Contains(n int) bool {
	return n >= r.Min && n <= r.Max
}

// TierLimits caps how much of a profile is rendered for a model tier.
type TierLimits struct {
	Traits      int
	Strengths   int
	Weaknesses  int
	Experiences int
	Interests   int
	// Endings is the number of sentence endings rendered; 0 renders all.
	Endings         int
	DetailedPersona bool
	Examples        int
	HistoryTurns    int
	TargetLength    Range
	ToleranceLength Range
}

var tierLimits = map[Tier]TierLimits{
	TierSmall: {
		Traits:          1,
		Strengths:       1,
		Weaknesses:      1,
		Experiences:     1,
		Interests:       2,
		Endings:         1,
		DetailedPersona: false,
		Examples:        3,
		HistoryTurns:    3,
		TargetLength:    Range{Min: 30, Max: 50},
		ToleranceLength: Range{Min: 20, Max: 70},
	},
	TierLarge: {
		Traits:          3,
		Strengths:       2,
		Weaknesses:      2,
		Experiences:     3,
		Interests:       4,
		Endings:         0,
		DetailedPersona: true,
		Examples:        5,
		HistoryTurns:    6,
		TargetLength:    Range{Min: 30, Max: 50},
		ToleranceLength: Range{Min: 20, Max: 70},
	},
}

// Limits returns the caps for a tier. Unknown tiers get the small caps.
func Limits(t Tier) TierLimits {
	if l, ok := tierLimits[t]; ok {
		return l
	}
	return tierLimits[TierSmall]
}

// ParseTier maps a tier name or model-size alias to a Tier.
func ParseTier(s string) Tier {
	switch s {
	case "large", "12b", "l", "gemma3:12b":
		return TierLarge
	default:
		return TierSmall
	}
}

// ClampForTier returns a deep copy of p trimmed to the tier's caps.
// Strengths are kept in descending confidence and weaknesses in descending
// severity; ties keep their configured order. The input is not modified.
func ClampForTier(p Profile, t Tier) Profile {
	l := Limits(t)
	out := clone(p)
	out.ModelTier = t

	out.Personality.Traits = head(out.Personality.Traits, l.Traits)
	out.Background.Experiences = head(out.Background.Experiences, l.Experiences)
	out.Abilities.Interests = head(out.Abilities.Interests, l.Interests)

	sort.SliceStable(out.Abilities.Strengths, func(i, j int) bool {
		return out.Abilities.Strengths[i].Confidence > out.Abilities.Strengths[j].Confidence
	})
	out.Abilities.Strengths = head(out.Abilities.Strengths, l.Strengths)

	sort.SliceStable(out.Abilities.Weaknesses, func(i, j int) bool {
		return severityRank(out.Abilities.Weaknesses[i].Severity) > severityRank(out.Abilities.Weaknesses[j].Severity)
	})
	out.Abilities.Weaknesses = head(out.Abilities.Weaknesses, l.Weaknesses)

	out.SpeechStyle.SentenceEndings = nonEmptyEndings(out.SpeechStyle.SentenceEndings)
	if l.Endings > 0 {
		out.SpeechStyle.SentenceEndings = head(out.SpeechStyle.SentenceEndings, l.Endings)
	}
	return out
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func severityRank(s Severity) int {
	switch s {
	case SeveritySevere:
		return 3
	case SeverityModerate:
		return 2
	case SeverityMild:
		return 1
	}
	return 0
}

func proficiencyRank(p Proficiency) int {
	switch p {
	case ProficiencyExpert:
		return 3
	case ProficiencyGood:
		return 2
	case ProficiencyLearning:
		return 1
	}
	return 0
}

// clone copies every slice reachable from p so callers can mutate the result.
func clone(p Profile) Profile {
	out := p
	out.Personality.Traits = cloneSlice(p.Personality.Traits)
	out.SpeechStyle.SentenceEndings = cloneSlice(p.SpeechStyle.SentenceEndings)
	out.SpeechStyle.Examples = cloneSlice(p.SpeechStyle.Examples)
	out.Background.Experiences = cloneSlice(p.Background.Experiences)
	out.Abilities.Weaknesses = cloneSlice(p.Abilities.Weaknesses)
	out.Abilities.Interests = cloneSlice(p.Abilities.Interests)
	out.Abilities.Strengths = cloneSlice(p.Abilities.Strengths)
	for i := range out.Abilities.Strengths {
		out.Abilities.Strengths[i].SpecificSkills = cloneSlice(out.Abilities.Strengths[i].SpecificSkills)
	}
	out.Sampling.Stop = cloneSlice(p.Sampling.Stop)
	return out
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append([]T(nil), s...)
}
