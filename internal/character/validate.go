package character

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Defaults applied to profiles that leave optional fields empty.
const (
	DefaultEnding      = "だよ"
	DefaultFirstPerson = "僕"
	defaultHistory     = "今日初めて会った"
)

// ValidationError reports a malformed profile.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid character profile: %s: %s", e.Field, e.Reason)
}

// ValidateIdentity checks the fields no prompt can be rendered without.
func ValidateIdentity(p Profile) error {
	if strings.TrimSpace(p.Name) == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if strings.TrimSpace(p.Personality.Core) == "" {
		return &ValidationError{Field: "personality.core", Reason: "must not be empty"}
	}
	return nil
}

// Validate checks identity fields, enum values and numeric ranges. Empty
// optional enums are accepted; WithDefaults fills them.
func Validate(p Profile) error {
	if err := ValidateIdentity(p); err != nil {
		return err
	}
	checks := []struct {
		field string
		value string
		valid []string
	}{
		{"role", string(p.Role), []string{string(RoleBoke), string(RoleTsukkomi)}},
		{"modelTier", string(p.ModelTier), []string{string(TierSmall), string(TierLarge)}},
		{"speechStyle.tone", string(p.SpeechStyle.Tone), []string{string(ToneCasual), string(TonePolite), string(ToneFriendly)}},
		{"relationship.closeness", string(p.Relationship.Closeness), []string{string(ClosenessStranger), string(ClosenessAcquaintance), string(ClosenessFriend), string(ClosenessClose)}},
		{"relationship.tone", string(p.Relationship.Tone), []string{string(RelationshipFormal), string(RelationshipCasual), string(RelationshipFriendly)}},
	}
	for i, e := range p.Background.Experiences {
		checks = append(checks, struct {
			field string
			value string
			valid []string
		}{fmt.Sprintf("background.experiences[%d].category", i), string(e.Category), []string{string(ExperiencePositive), string(ExperienceNegative), string(ExperienceNeutral)}})
	}
	for _, c := range checks {
		if c.value == "" {
			continue
		}
		if !contains(c.valid, c.value) {
			return &ValidationError{Field: c.field, Reason: fmt.Sprintf("%q is not one of %s", c.value, strings.Join(c.valid, ", "))}
		}
	}

	for i, s := range p.Abilities.Strengths {
		if strings.TrimSpace(s.Area) == "" {
			return &ValidationError{Field: fmt.Sprintf("abilities.strengths[%d].area", i), Reason: "must not be empty"}
		}
		if s.Confidence < 0 || s.Confidence > 1 {
			return &ValidationError{Field: fmt.Sprintf("abilities.strengths[%d].confidence", i), Reason: "must be between 0 and 1"}
		}
		if s.Level != "" && proficiencyRank(s.Level) == 0 {
			return &ValidationError{Field: fmt.Sprintf("abilities.strengths[%d].level", i), Reason: fmt.Sprintf("%q is not one of expert, good, learning", s.Level)}
		}
	}
	for i, w := range p.Abilities.Weaknesses {
		if strings.TrimSpace(w.Area) == "" {
			return &ValidationError{Field: fmt.Sprintf("abilities.weaknesses[%d].area", i), Reason: "must not be empty"}
		}
		if w.Severity != "" && severityRank(w.Severity) == 0 {
			return &ValidationError{Field: fmt.Sprintf("abilities.weaknesses[%d].severity", i), Reason: fmt.Sprintf("%q is not one of mild, moderate, severe", w.Severity)}
		}
	}
	return nil
}

// WithDefaults returns a copy of p with empty optional fields filled in.
func WithDefaults(p Profile) Profile {
	out := clone(p)
	if strings.TrimSpace(out.ID) == "" {
		out.ID = NewID()
	}
	if out.ModelTier == "" {
		out.ModelTier = TierSmall
	}
	if out.Role == "" {
		out.Role = RoleBoke
	}
	if strings.TrimSpace(out.Model) == "" {
		out.Model = DefaultModel(out.ModelTier)
	}
	if out.SpeechStyle.Tone == "" {
		out.SpeechStyle.Tone = ToneCasual
	}
	if strings.TrimSpace(out.SpeechStyle.FirstPerson) == "" {
		out.SpeechStyle.FirstPerson = DefaultFirstPerson
	}
	out.SpeechStyle.SentenceEndings = nonEmptyEndings(out.SpeechStyle.SentenceEndings)
	if out.Relationship.Closeness == "" {
		out.Relationship.Closeness = ClosenessFriend
	}
	if out.Relationship.History == "" {
		out.Relationship.History = defaultHistory
	}
	if out.Relationship.Tone == "" {
		out.Relationship.Tone = RelationshipCasual
	}
	return out
}

// NewID returns a fresh opaque profile identifier.
func NewID() string {
	return uuid.NewString()
}

// DefaultModel returns the server model name used for a tier.
func DefaultModel(t Tier) string {
	if t == TierLarge {
		return "gemma3:12b"
	}
	return "gemma3:4b"
}

func nonEmptyEndings(endings []string) []string {
	out := make([]string, 0, len(endings))
	for _, e := range endings {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		out = append(out, DefaultEnding)
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
