// Package evaluate scores a model reply against the character it was meant
// to voice.
package evaluate

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mwiater/manzai/internal/character"
)

// Tag names the kind of scenario an exchange belongs to.
type Tag string

const (
	TagBasic    Tag = "basic"
	TagStrength Tag = "strength"
	TagWeakness Tag = "weakness"
	TagRole     Tag = "role"
	TagEmotion  Tag = "emotion"
	TagStress   Tag = "stress"
	TagChat     Tag = "chat"
)

// Issue strings attached to records.
const (
	IssueEndingMismatch      = "ending mismatch"
	IssueFirstPersonMismatch = "first-person mismatch"
	IssueIncompleteSentence  = "incomplete sentence"
	IssueDelimiterLeakage    = "delimiter leakage"
	IssueExecutionError      = "execution error"
)

// Scores are per-axis results in [0,1].
type Scores struct {
	CharacterConsistency float64 `json:"characterConsistency"`
	LengthCompliance     float64 `json:"lengthCompliance"`
	StyleAccuracy        float64 `json:"styleAccuracy"`
	ResponseQuality      float64 `json:"responseQuality"`
	Overall              float64 `json:"overall"`
}

// Record is the evaluation of one exchange.
type Record struct {
	Scenario   Tag      `json:"scenario"`
	Input      string   `json:"input"`
	Output     string   `json:"output"`
	LatencyMs  int64    `json:"latencyMs"`
	TokenCount int      `json:"tokenCount"`
	Scores     Scores   `json:"scores"`
	Issues     []string `json:"issues"`
}

// Evaluator scores replies with a fixed vocabulary. It holds no mutable
// state and is safe for concurrent use.
type Evaluator struct {
	vocab Vocabulary
}

// New returns an Evaluator using vocab.
func New(vocab Vocabulary) *Evaluator {
	return &Evaluator{vocab: vocab}
}

// Evaluate scores output as the reply of p to input. Surrounding whitespace
// is ignored for scoring; the record keeps output as given.
func (e *Evaluator) Evaluate(p character.Profile, scenario Tag, input, output string, latencyMs int64, tokenCount int) Record {
	var issues []string
	text := strings.TrimSpace(output)

	length, lengthIssue := e.length(p, text)
	if lengthIssue != "" {
		issues = append(issues, lengthIssue)
	}
	style, styleIssues := e.style(p, text)
	issues = append(issues, styleIssues...)
	consistency := e.consistency(p, scenario, text)
	quality, leaked := e.quality(input, text)
	if leaked {
		issues = append(issues, IssueDelimiterLeakage)
	}

	if issues == nil {
		issues = []string{}
	}
	return Record{
		Scenario:   scenario,
		Input:      input,
		Output:     output,
		LatencyMs:  latencyMs,
		TokenCount: tokenCount,
		Scores: Scores{
			CharacterConsistency: consistency,
			LengthCompliance:     length,
			StyleAccuracy:        style,
			ResponseQuality:      quality,
			Overall:              (consistency + length + style + quality) / 4,
		},
		Issues: issues,
	}
}

// Failed builds the zero-score record for an exchange whose generation
// failed, so a batch can continue.
func Failed(scenario Tag, input string, err error) Record {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return Record{
		Scenario: scenario,
		Input:    input,
		Output:   "error: " + msg,
		Issues:   []string{IssueExecutionError},
	}
}

func (e *Evaluator) length(p character.Profile, output string) (float64, string) {
	limits := character.Limits(p.ModelTier)
	n := utf8.RuneCountInString(output)
	switch {
	case limits.TargetLength.Contains(n):
		return 1.0, ""
	case limits.ToleranceLength.Contains(n):
		return 0.7, ""
	default:
		return 0.3, fmt.Sprintf("length out of range: %d chars", n)
	}
}

// style awards 0.4 for a configured ending, 0.3 for first-person
// consistency and 0.3 for a complete sentence.
func (e *Evaluator) style(p character.Profile, output string) (float64, []string) {
	var tenths int
	var issues []string

	if containsAny(output, endings(p)) {
		tenths += 4
	} else {
		issues = append(issues, IssueEndingMismatch)
	}

	own := strings.TrimSpace(p.SpeechStyle.FirstPerson)
	if own == "" {
		own = character.DefaultFirstPerson
	}
	if strings.Contains(output, own) || !containsAny(output, e.vocab.CompetingPronouns) {
		tenths += 3
	} else {
		issues = append(issues, IssueFirstPersonMismatch)
	}

	if hasAnySuffix(output, e.vocab.TerminalSuffixes) {
		tenths += 3
	} else {
		issues = append(issues, IssueIncompleteSentence)
	}
	return float64(tenths) / 10, issues
}

func (e *Evaluator) consistency(p character.Profile, scenario Tag, output string) float64 {
	tenths := 5
	switch scenario {
	case TagStrength:
		if containsAny(output, e.vocab.StrengthMarkers) {
			tenths += 3
		}
		if containsAny(output, e.vocab.StrengthEmphasis) {
			tenths += 2
		}
	case TagWeakness:
		if containsAny(output, e.vocab.WeaknessHedges) {
			tenths += 3
		}
		if containsAny(output, e.vocab.WeaknessHesitation) {
			tenths += 2
		}
	case TagRole:
		markers := e.vocab.BokeMarkers
		if p.Role == character.RoleTsukkomi {
			markers = e.vocab.TsukkomiMarkers
		}
		if containsAny(output, markers) {
			tenths += 3
		}
	}
	return float64(min(tenths, 10)) / 10
}

func (e *Evaluator) quality(input, output string) (float64, bool) {
	tenths := 5
	if containsAny(input, e.vocab.GreetingInputs) && containsAny(output, e.vocab.GreetingReplies) {
		tenths += 3
	}
	leaked := containsAny(output, e.vocab.LeakMarkers)
	if !leaked && !containsAny(output, e.vocab.MetaMarkers) {
		tenths += 2
	}
	return float64(min(tenths, 10)) / 10, leaked
}

func endings(p character.Profile) []string {
	var out []string
	for _, e := range p.SpeechStyle.SentenceEndings {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		out = []string{character.DefaultEnding}
	}
	return out
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func hasAnySuffix(s string, suffixes []string) bool {
	s = strings.TrimSpace(s)
	for _, suf := range suffixes {
		if suf != "" && strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}
