package evaluate

// Vocabulary holds the lexical markers the evaluator looks for. The lists
// are heuristics; callers can swap them without touching the scoring rules.
type Vocabulary struct {
	// CompetingPronouns are first-person pronouns a character might slip into.
	CompetingPronouns []string
	// TerminalSuffixes are accepted final characters of a complete reply.
	TerminalSuffixes []string

	StrengthMarkers    []string
	StrengthEmphasis   []string
	WeaknessHedges     []string
	WeaknessHesitation []string
	BokeMarkers        []string
	TsukkomiMarkers    []string

	GreetingInputs  []string
	GreetingReplies []string

	// LeakMarkers are delimiter characters that should never reach the user.
	LeakMarkers []string
	// MetaMarkers reveal the model talking about itself.
	MetaMarkers []string
}

// DefaultVocabulary returns the reference marker lists.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		CompetingPronouns: []string{"私", "僕", "俺", "わたし", "ぼく", "おれ", "あたし"},
		TerminalSuffixes:  []string{"。", "！", "？", "!", "?", "だ", "よ", "ね", "ー", "～", "〜"},

		StrengthMarkers:    []string{"任せて", "得意", "上手", "好き", "大丈夫"},
		StrengthEmphasis:   []string{"！", "〜", "♪"},
		WeaknessHedges:     []string{"苦手", "わからない", "ちょっと", "難しい"},
		WeaknessHesitation: []string{"...", "うーん", "えーっと"},
		BokeMarkers:        []string{"え？", "そうなの？", "なんで？", "へー"},
		TsukkomiMarkers:    []string{"でしょ", "そうそう", "当然", "そりゃ"},

		GreetingInputs:  []string{"こんにちは"},
		GreetingReplies: []string{"こんにちは", "はい", "どうも"},

		LeakMarkers: []string{"<", ">", "[", "]", "{", "}"},
		MetaMarkers: []string{"AI"},
	}
}
