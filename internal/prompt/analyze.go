package prompt

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// tokenBudget is the estimated token count above which a prompt is flagged.
const tokenBudget = 1000

// Analysis is a rough size and structure breakdown of a rendered prompt.
type Analysis struct {
	Runes           int      `json:"runes"`
	EstimatedTokens int      `json:"estimatedTokens"`
	Sections        []string `json:"sections"`
	Warnings        []string `json:"warnings"`
}

// Analyze estimates the token cost of a prompt (about 1.5 tokens per
// Japanese character) and lists its 【】 section headings.
func Analyze(prompt string) Analysis {
	runes := utf8.RuneCountInString(prompt)
	a := Analysis{
		Runes:           runes,
		EstimatedTokens: int(math.Ceil(float64(runes) * 1.5)),
		Sections:        []string{},
		Warnings:        []string{},
	}

	rest := prompt
	for {
		open := strings.Index(rest, "【")
		if open < 0 {
			break
		}
		rest = rest[open+len("【"):]
		end := strings.Index(rest, "】")
		if end < 0 {
			break
		}
		if heading := rest[:end]; heading != "" {
			a.Sections = append(a.Sections, heading)
		}
		rest = rest[end+len("】"):]
	}

	if a.EstimatedTokens > tokenBudget {
		a.Warnings = append(a.Warnings, fmt.Sprintf("prompt is long: about %d estimated tokens (budget %d)", a.EstimatedTokens, tokenBudget))
	}
	if !strings.Contains(prompt, StartOfTurn) {
		a.Warnings = append(a.Warnings, "prompt is missing the "+StartOfTurn+" turn tag")
	}
	return a
}
