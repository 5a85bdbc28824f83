// Package prompt renders character profiles into single-turn Gemma prompts.
//
// The target model family has no system channel, so persona, few-shot
// examples and constraints are all front-loaded into one user turn that is
// closed before the model turn opens.
package prompt

import (
	"fmt"
	"strings"

	"github.com/mwiater/manzai/internal/appconfig"
	"github.com/mwiater/manzai/internal/character"
)

// Delimiter tokens of the turn format.
const (
	StartOfTurn = appconfig.StartOfTurn
	EndOfTurn   = appconfig.EndOfTurn
)

// Speaker roles of a conversation turn.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one line of conversation history.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StopSequences returns the delimiters generation must stop on.
func StopSequences() []string {
	return []string{EndOfTurn, StartOfTurn}
}

// RenderSingle builds the prompt for one user utterance. Only the name and
// core personality are required; everything else falls back to defaults.
func RenderSingle(p character.Profile, userInput string) (string, error) {
	if err := character.ValidateIdentity(p); err != nil {
		return "", err
	}
	c := character.ClampForTier(p, p.ModelTier)
	limits := character.Limits(c.ModelTier)

	var b strings.Builder
	b.WriteString(StartOfTurn + "user\n")
	b.WriteString(persona(c, limits))
	b.WriteString("\n\n【発話例】\n")
	b.WriteString(strings.Join(fewShot(c, limits, userInput), "\n\n"))
	b.WriteString("\n\n")
	b.WriteString(constraints(c, limits))
	fmt.Fprintf(&b, "\n\nユーザーの発言: %s\n\n", userInput)
	fmt.Fprintf(&b, "上記のキャラクター設定に従って、%s文字で%sとして返答してください。\n", lengthRule(limits), c.Name)
	b.WriteString(EndOfTurn + "\n" + StartOfTurn + "model")
	return b.String(), nil
}

// RenderConversation builds a prompt that carries the most recent history
// turns instead of few-shot examples. Turns beyond the tier window are
// dropped oldest first.
func RenderConversation(p character.Profile, history []Turn, newInput string) (string, error) {
	if err := character.ValidateIdentity(p); err != nil {
		return "", err
	}
	c := character.ClampForTier(p, p.ModelTier)
	limits := character.Limits(c.ModelTier)

	if len(history) > limits.HistoryTurns {
		history = history[len(history)-limits.HistoryTurns:]
	}

	var b strings.Builder
	b.WriteString(StartOfTurn + "user\n")
	b.WriteString(persona(c, limits))
	b.WriteString("\n")
	if len(history) > 0 {
		b.WriteString("\n【これまでの会話】\n")
		for _, t := range history {
			speaker := c.Name
			if t.Role == RoleUser {
				speaker = "ユーザー"
			}
			fmt.Fprintf(&b, "%s: %s\n", speaker, t.Content)
		}
	}
	b.WriteString("\n")
	b.WriteString(constraints(c, limits))
	fmt.Fprintf(&b, "\n\n【重要】%s文字で、%sとして一貫した性格で返答してください。\n\n", lengthRule(limits), c.Name)
	fmt.Fprintf(&b, "ユーザーの新しい発言: %s\n", newInput)
	b.WriteString(EndOfTurn + "\n" + StartOfTurn + "model")
	return b.String(), nil
}

func persona(c character.Profile, limits character.TierLimits) string {
	var lines []string
	add := func(label, value string) {
		if strings.TrimSpace(value) != "" {
			lines = append(lines, label+": "+value)
		}
	}

	lines = append(lines, fmt.Sprintf("あなたは「%s」です。", c.Name))
	add("性格", c.Personality.Core)

	if !limits.DetailedPersona {
		add("話し方", c.PrimaryEnding()+"で終わる")
		add("職業", c.Background.Occupation)
		if len(c.Abilities.Strengths) > 0 {
			add("得意", c.Abilities.Strengths[0].Area)
		}
		return strings.Join(lines, "\n")
	}

	add("特徴", strings.Join(c.Personality.Traits, "、"))
	add("話し方", "語尾は「"+strings.Join(c.SpeechStyle.SentenceEndings, "」「")+"」")
	add("一人称", c.SpeechStyle.FirstPerson)
	add("背景", joinNonEmpty("、", c.Background.Occupation, c.Background.Origin, c.Background.Age))

	var strengths []string
	for _, s := range c.Abilities.Strengths {
		strengths = append(strengths, s.Area)
	}
	add("得意分野", strings.Join(strengths, "、"))

	var weaknesses []string
	for _, w := range c.Abilities.Weaknesses {
		if w.Reaction != "" {
			weaknesses = append(weaknesses, fmt.Sprintf("%s（%s）", w.Area, w.Reaction))
		} else {
			weaknesses = append(weaknesses, w.Area)
		}
	}
	add("苦手分野", strings.Join(weaknesses, "、"))

	return strings.Join(lines, "\n")
}

// fewShot picks the example exchanges in priority order and cuts the list to
// the tier cap. The greeting and role examples are always present.
func fewShot(c character.Profile, limits character.TierLimits, userInput string) []string {
	name := c.Name
	ending := c.PrimaryEnding()
	input := strings.ToLower(userInput)

	examples := []string{exchange("こんにちは", name, "こんにちは"+ending)}

	for _, s := range c.Abilities.Strengths {
		if mentions(input, s.Area) {
			examples = append(examples, exchange(s.Area+"について教えて", name, s.Area+"なら任せて"+ending))
		}
	}
	for _, w := range c.Abilities.Weaknesses {
		if mentions(input, w.Area) {
			reaction := w.Reaction
			if reaction == "" {
				reaction = "ちょっと苦手"
			}
			examples = append(examples, exchange(w.Area+"はどう？", name, reaction+ending))
		}
	}

	if c.Role == character.RoleTsukkomi {
		examples = append(examples, exchange("それはおかしいよ", name, "そうそう、それ言いたかった"+ending))
	} else {
		examples = append(examples, exchange("何か面白いこと言って", name, "えーっと..."+ending))
	}

	for _, line := range c.SpeechStyle.Examples {
		if line = strings.TrimSpace(line); line != "" {
			examples = append(examples, fmt.Sprintf("%s: %s", name, line))
		}
	}

	if len(examples) > limits.Examples {
		examples = examples[:limits.Examples]
	}
	return examples
}

func constraints(c character.Profile, limits character.TierLimits) string {
	rules := []string{
		fmt.Sprintf("必ず%s文字で返答する", lengthRule(limits)),
		fmt.Sprintf("%sの性格を一貫して保つ", c.Name),
		fmt.Sprintf("語尾「%s」を忘れずに", c.PrimaryEnding()),
		"自然な日本語で答える",
		EndOfTurn + "などのタグは出力しない",
	}
	return "【重要なルール】\n- " + strings.Join(rules, "\n- ")
}

func lengthRule(limits character.TierLimits) string {
	return fmt.Sprintf("%d-%d", limits.TargetLength.Min, limits.TargetLength.Max)
}

func exchange(userLine, name, reply string) string {
	return fmt.Sprintf("ユーザー: %s\n%s: %s", userLine, name, reply)
}

func mentions(lowerInput, area string) bool {
	area = strings.ToLower(strings.TrimSpace(area))
	return area != "" && strings.Contains(lowerInput, area)
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// InputPlaceholder stands in for the user's line in a prompt template.
const InputPlaceholder = "{{input}}"

// Template renders the single-turn prompt for p with InputPlaceholder in
// place of the user's input. Exports ship it as the agent's prompt style.
func Template(p character.Profile) (string, error) {
	return RenderSingle(p, InputPlaceholder)
}
