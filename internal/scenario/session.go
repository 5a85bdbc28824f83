package scenario

import (
	"context"
	"strings"
	"sync"

	"github.com/mwiater/manzai/internal/appconfig"
	"github.com/mwiater/manzai/internal/character"
	"github.com/mwiater/manzai/internal/evaluate"
	"github.com/mwiater/manzai/internal/prompt"
	"github.com/mwiater/manzai/internal/providers"
)

// Session is an interactive conversation with one character. Each reply is
// evaluated under the chat tag and appended to the history.
type Session struct {
	generator providers.Generator
	evaluator *evaluate.Evaluator
	host      appconfig.Host
	profile   character.Profile
	model     string
	stream    bool

	mu      sync.Mutex
	history []prompt.Turn
	records []evaluate.Record
}

// NewSession starts an empty conversation.
func NewSession(g providers.Generator, host appconfig.Host, p character.Profile, stream bool) *Session {
	p = character.WithDefaults(p)
	return &Session{
		generator: g,
		evaluator: evaluate.New(evaluate.DefaultVocabulary()),
		host:      host,
		profile:   p,
		model:     ResolveModel(p, host),
		stream:    stream,
	}
}

// Profile returns the character the session speaks as.
func (s *Session) Profile() character.Profile { return s.profile }

// Host returns the host replies are generated on.
func (s *Session) Host() appconfig.Host { return s.host }

// Model returns the model name used for replies.
func (s *Session) Model() string { return s.model }

// Send renders the conversation with the new input, generates a reply and
// evaluates it. onChunk, when non-nil, receives streamed increments. A failed
// generation leaves the history untouched.
func (s *Session) Send(ctx context.Context, input string, onChunk func(string) error) (evaluate.Record, error) {
	s.mu.Lock()
	history := append([]prompt.Turn(nil), s.history...)
	s.mu.Unlock()

	rendered, err := prompt.RenderConversation(s.profile, history, input)
	if err != nil {
		return evaluate.Record{}, err
	}
	gen, err := providers.Collect(ctx, s.generator, providers.GenerateRequest{
		Host:       s.host,
		Model:      s.model,
		Prompt:     rendered,
		Parameters: s.profile.EffectiveParams(s.host.Parameters),
		Stream:     s.stream,
		Scenario:   string(evaluate.TagChat),
	}, onChunk)
	if err != nil {
		rec := evaluate.Failed(evaluate.TagChat, input, err)
		s.mu.Lock()
		s.records = append(s.records, rec)
		s.mu.Unlock()
		return rec, err
	}

	rec := s.evaluator.Evaluate(s.profile, evaluate.TagChat, input, gen.Text, gen.LatencyMs, gen.TokenCount)
	s.mu.Lock()
	s.history = append(s.history,
		prompt.Turn{Role: prompt.RoleUser, Content: input},
		prompt.Turn{Role: prompt.RoleAssistant, Content: strings.TrimSpace(gen.Text)},
	)
	s.records = append(s.records, rec)
	s.mu.Unlock()
	return rec, nil
}

// History returns a copy of the conversation so far.
func (s *Session) History() []prompt.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]prompt.Turn(nil), s.history...)
}

// Records returns every evaluation made in this session.
func (s *Session) Records() []evaluate.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]evaluate.Record(nil), s.records...)
}

// Reset clears history and records.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
	s.records = nil
}
