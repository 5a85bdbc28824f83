// Package character models the comedic character profiles that drive prompt
// rendering and reply evaluation.
package character

import "github.com/mwiater/manzai/internal/appconfig"

// Role is the comedic position a character plays in a manzai duo.
type Role string

const (
	// RoleBoke is the comedic fool.
	RoleBoke Role = "boke"
	// RoleTsukkomi is the straight man who corrects the fool.
	RoleTsukkomi Role = "tsukkomi"
)

// Tier is the model capacity class a profile is rendered for.
type Tier string

const (
	TierSmall Tier = "small"
	TierLarge Tier = "large"
)

// Tone of speech.
type Tone string

const (
	ToneCasual   Tone = "casual"
	TonePolite   Tone = "polite"
	ToneFriendly Tone = "friendly"
)

// ExperienceCategory classifies a background episode.
type ExperienceCategory string

const (
	ExperiencePositive ExperienceCategory = "positive"
	ExperienceNegative ExperienceCategory = "negative"
	ExperienceNeutral  ExperienceCategory = "neutral"
)

// Proficiency of a strength.
type Proficiency string

const (
	ProficiencyExpert   Proficiency = "expert"
	ProficiencyGood     Proficiency = "good"
	ProficiencyLearning Proficiency = "learning"
)

// Severity of a weakness.
type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// Enthusiasm for an interest.
type Enthusiasm string

const (
	EnthusiasmLow    Enthusiasm = "low"
	EnthusiasmMedium Enthusiasm = "medium"
	EnthusiasmHigh   Enthusiasm = "high"
)

// Knowledge depth for an interest.
type Knowledge string

const (
	KnowledgeBeginner     Knowledge = "beginner"
	KnowledgeIntermediate Knowledge = "intermediate"
	KnowledgeExpert       Knowledge = "expert"
)

// Closeness of the character to the person talking to it.
type Closeness string

const (
	ClosenessStranger     Closeness = "stranger"
	ClosenessAcquaintance Closeness = "acquaintance"
	ClosenessFriend       Closeness = "friend"
	ClosenessClose        Closeness = "close"
)

// RelationshipTone is how the character addresses the caller.
type RelationshipTone string

const (
	RelationshipFormal   RelationshipTone = "formal"
	RelationshipCasual   RelationshipTone = "casual"
	RelationshipFriendly RelationshipTone = "friendly"
)

// Profile is a complete character definition.
type Profile struct {
	ID           string               `json:"id" yaml:"id"`
	Name         string               `json:"name" yaml:"name"`
	Role         Role                 `json:"role,omitempty" yaml:"role,omitempty"`
	ModelTier    Tier                 `json:"modelTier,omitempty" yaml:"modelTier,omitempty"`
	Model        string               `json:"model,omitempty" yaml:"model,omitempty"`
	Personality  Personality          `json:"personality" yaml:"personality"`
	SpeechStyle  SpeechStyle          `json:"speechStyle" yaml:"speechStyle"`
	Background   Background           `json:"background" yaml:"background"`
	Abilities    Abilities            `json:"abilities" yaml:"abilities"`
	Relationship Relationship         `json:"relationship" yaml:"relationship"`
	Sampling     appconfig.Parameters `json:"sampling,omitempty" yaml:"sampling,omitempty"`
}

// Personality holds the core description and a short list of traits.
type Personality struct {
	Core   string   `json:"core" yaml:"core"`
	Traits []string `json:"traits,omitempty" yaml:"traits,omitempty"`
}

// SpeechStyle describes how the character talks.
type SpeechStyle struct {
	Tone            Tone     `json:"tone,omitempty" yaml:"tone,omitempty"`
	SentenceEndings []string `json:"sentenceEndings" yaml:"sentenceEndings"`
	Examples        []string `json:"examples,omitempty" yaml:"examples,omitempty"`
	FirstPerson     string   `json:"firstPerson,omitempty" yaml:"firstPerson,omitempty"`
}

// Background is where the character comes from and what shaped it.
type Background struct {
	Origin      string       `json:"origin,omitempty" yaml:"origin,omitempty"`
	Occupation  string       `json:"occupation,omitempty" yaml:"occupation,omitempty"`
	Age         string       `json:"age,omitempty" yaml:"age,omitempty"`
	Experiences []Experience `json:"experiences,omitempty" yaml:"experiences,omitempty"`
}

// Experience is one formative episode.
type Experience struct {
	Category ExperienceCategory `json:"category,omitempty" yaml:"category,omitempty"`
	Brief    string             `json:"brief" yaml:"brief"`
	Detail   string             `json:"detail,omitempty" yaml:"detail,omitempty"`
	Impact   string             `json:"impact,omitempty" yaml:"impact,omitempty"`
}

// Abilities lists what the character is good at, bad at and curious about.
type Abilities struct {
	Strengths  []Strength `json:"strengths,omitempty" yaml:"strengths,omitempty"`
	Weaknesses []Weakness `json:"weaknesses,omitempty" yaml:"weaknesses,omitempty"`
	Interests  []Interest `json:"interests,omitempty" yaml:"interests,omitempty"`
}

// Strength is a topic the character answers with confidence.
type Strength struct {
	Area           string      `json:"area" yaml:"area"`
	Level          Proficiency `json:"level,omitempty" yaml:"level,omitempty"`
	SpecificSkills []string    `json:"specificSkills,omitempty" yaml:"specificSkills,omitempty"`
	Confidence     float64     `json:"confidence" yaml:"confidence"`
}

// Weakness is a topic the character struggles with.
type Weakness struct {
	Area      string   `json:"area" yaml:"area"`
	Severity  Severity `json:"severity,omitempty" yaml:"severity,omitempty"`
	Reaction  string   `json:"reaction,omitempty" yaml:"reaction,omitempty"`
	Avoidance bool     `json:"avoidance" yaml:"avoidance"`
}

// Interest is a topic the character likes to talk about.
type Interest struct {
	Topic      string     `json:"topic" yaml:"topic"`
	Enthusiasm Enthusiasm `json:"enthusiasm,omitempty" yaml:"enthusiasm,omitempty"`
	Knowledge  Knowledge  `json:"knowledge,omitempty" yaml:"knowledge,omitempty"`
}

// Relationship describes the character's stance toward the caller.
type Relationship struct {
	Closeness Closeness        `json:"closeness,omitempty" yaml:"closeness,omitempty"`
	History   string           `json:"history,omitempty" yaml:"history,omitempty"`
	Tone      RelationshipTone `json:"tone,omitempty" yaml:"tone,omitempty"`
}

// PrimaryEnding returns the first configured sentence ending, or the default.
func (p Profile) PrimaryEnding() string {
	for _, e := range p.SpeechStyle.SentenceEndings {
		if e != "" {
			return e
		}
	}
	return DefaultEnding
}

// EffectiveParams returns the sampling options for this profile on a host.
func (p Profile) EffectiveParams(host appconfig.Parameters) appconfig.Parameters {
	return appconfig.EffectiveParams(string(p.ModelTier), host, p.Sampling)
}
