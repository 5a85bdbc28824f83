package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mwiater/manzai/internal/appconfig"
	"github.com/mwiater/manzai/internal/character"
	"github.com/mwiater/manzai/internal/evaluate"
	"github.com/mwiater/manzai/internal/providers"
	"github.com/mwiater/manzai/internal/scenario"
)

type testGenerator struct {
	reply    string
	err      error
	readyErr error
	prompts  []string
}

func (g *testGenerator) Generate(ctx context.Context, req providers.GenerateRequest, cb providers.StreamCallbacks) error {
	g.prompts = append(g.prompts, req.Prompt)
	if g.err != nil {
		return g.err
	}
	if err := cb.OnChunk(g.reply); err != nil {
		return err
	}
	return cb.OnComplete(providers.StreamMetadata{Done: true, EvalCount: 5})
}

func (g *testGenerator) Status(ctx context.Context, host appconfig.Host) providers.Status {
	return providers.Status{Connected: true}
}

func (g *testGenerator) EnsureModelReady(ctx context.Context, host appconfig.Host, model string) error {
	return g.readyErr
}

func (g *testGenerator) Close() error { return nil }

func newTestModel(g *testGenerator) *model {
	p := character.Profile{
		Name:        "Yuki",
		Role:        character.RoleBoke,
		ModelTier:   character.TierSmall,
		Personality: character.Personality{Core: "明るくて天然"},
		SpeechStyle: character.SpeechStyle{SentenceEndings: []string{"だよ"}, FirstPerson: "僕"},
	}
	host := appconfig.Host{Name: "local", URL: "http://localhost:11434"}
	session := scenario.NewSession(g, host, p, false)
	return initialModel(context.Background(), &appconfig.Config{}, g, session)
}

func update(t *testing.T, m *model, msg tea.Msg) (*model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(*model), cmd
}

func TestUpdateLifecycle(t *testing.T) {
	g := &testGenerator{reply: "僕も元気だよ！"}
	m := newTestModel(g)

	if m.state != viewLoadingChat || !m.isLoading {
		t.Fatalf("initial state = %v loading=%v", m.state, m.isLoading)
	}
	if cmd := m.Init(); cmd == nil {
		t.Fatal("Init should return a command")
	}

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	if m.width != 100 || m.height != 40 {
		t.Errorf("size = %dx%d", m.width, m.height)
	}

	m, _ = update(t, m, chatReadyMsg{})
	if m.state != viewChat || m.isLoading {
		t.Fatalf("after ready: state=%v loading=%v", m.state, m.isLoading)
	}

	m.textArea.SetValue("元気？")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.isLoading || m.pending != "元気？" {
		t.Fatalf("after enter: loading=%v pending=%q", m.isLoading, m.pending)
	}
	if m.textArea.Value() != "" {
		t.Errorf("textarea not cleared: %q", m.textArea.Value())
	}
	if cmd == nil {
		t.Fatal("enter should schedule the send")
	}

	m, _ = update(t, m, streamChunkMsg("僕も"))
	if m.responseBuf.String() != "僕も" {
		t.Errorf("response buffer = %q", m.responseBuf.String())
	}
	if !strings.Contains(m.View(), "Yuki is thinking") {
		t.Error("view should show the thinking indicator")
	}

	msg := m.sendCmd("元気？")()
	reply, ok := msg.(replyMsg)
	if !ok {
		t.Fatalf("sendCmd returned %T", msg)
	}
	if reply.err != nil || reply.record.Scenario != evaluate.TagChat {
		t.Fatalf("reply = %+v", reply)
	}

	m, _ = update(t, m, reply)
	if m.isLoading || m.pending != "" || len(m.exchanges) != 1 {
		t.Fatalf("after reply: loading=%v pending=%q exchanges=%d", m.isLoading, m.pending, len(m.exchanges))
	}
	if m.exchanges[0].input != "元気？" || m.exchanges[0].reply != "僕も元気だよ！" {
		t.Errorf("exchange = %+v", m.exchanges[0])
	}
	view := m.View()
	for _, want := range []string{"Yuki", "僕も元気だよ！", "total"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	if len(m.exchanges) != 0 || len(m.session.History()) != 0 {
		t.Error("ctrl+r should reset the conversation")
	}
}

func TestUpdateErrors(t *testing.T) {
	g := &testGenerator{readyErr: errors.New("model not found")}
	m := newTestModel(g)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})

	msg := loadModelCmd(context.Background(), g, m.host, "gemma3:4b")()
	m, _ = update(t, m, msg)
	if m.err == nil || !strings.Contains(m.View(), "model not found") {
		t.Fatalf("load error not shown: %v", m.err)
	}

	g.readyErr = nil
	g.err = &providers.GenerationError{Endpoint: "/api/generate", StatusCode: 500, Status: "500 Internal Server Error"}
	m = newTestModel(g)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 200, Height: 24})
	m, _ = update(t, m, chatReadyMsg{})
	m.pending = "やあ"
	m.isLoading = true
	m, _ = update(t, m, m.sendCmd("やあ")())
	if len(m.exchanges) != 1 || !m.exchanges[0].failed {
		t.Fatalf("exchanges = %+v", m.exchanges)
	}
	if !strings.Contains(m.View(), "500 Internal Server Error") {
		t.Error("generation error should be shown inline")
	}
}

func TestQuitKeys(t *testing.T) {
	m := newTestModel(&testGenerator{})
	for _, key := range []tea.KeyMsg{{Type: tea.KeyCtrlC}, {Type: tea.KeyEsc}} {
		if _, cmd := m.Update(key); cmd == nil {
			t.Errorf("%s should quit", key.String())
		}
	}
}
