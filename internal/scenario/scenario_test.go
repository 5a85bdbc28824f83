package scenario

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mwiater/manzai/internal/appconfig"
	"github.com/mwiater/manzai/internal/character"
	"github.com/mwiater/manzai/internal/evaluate"
	"github.com/mwiater/manzai/internal/prompt"
	"github.com/mwiater/manzai/internal/providers"
)

type fakeGenerator struct {
	mu      sync.Mutex
	reply   string
	failOn  string
	prompts []string
	models  []string
}

func (f *fakeGenerator) Generate(ctx context.Context, req providers.GenerateRequest, cb providers.StreamCallbacks) error {
	f.mu.Lock()
	f.prompts = append(f.prompts, req.Prompt)
	f.models = append(f.models, req.Model)
	f.mu.Unlock()
	if f.failOn != "" && strings.Contains(req.Prompt, f.failOn) {
		return &providers.GenerationError{Host: req.Host.Name, Endpoint: "/api/generate", StatusCode: 500, Status: "500 Internal Server Error"}
	}
	for _, r := range f.reply {
		if cb.OnChunk != nil {
			if err := cb.OnChunk(string(r)); err != nil {
				return err
			}
		}
	}
	if cb.OnComplete != nil {
		return cb.OnComplete(providers.StreamMetadata{Done: true, EvalCount: len([]rune(f.reply))})
	}
	return nil
}

func (f *fakeGenerator) Status(ctx context.Context, host appconfig.Host) providers.Status {
	return providers.Status{Host: host.Name, Connected: true}
}

func (f *fakeGenerator) EnsureModelReady(ctx context.Context, host appconfig.Host, model string) error {
	return nil
}

func (f *fakeGenerator) Close() error { return nil }

func testProfile() character.Profile {
	return character.Profile{
		ID:        "0f8fad5b-d9cb-469f-a165-70867728950e",
		Name:      "Yuki",
		Role:      character.RoleBoke,
		ModelTier: character.TierSmall,
		Personality: character.Personality{
			Core:   "明るくて天然",
			Traits: []string{"好奇心旺盛"},
		},
		SpeechStyle: character.SpeechStyle{
			SentenceEndings: []string{"だよ", "なの"},
			FirstPerson:     "僕",
		},
		Abilities: character.Abilities{
			Strengths: []character.Strength{
				{Area: "料理", Confidence: 0.9},
				{Area: "歌", Confidence: 0.5},
				{Area: "ダンス", Confidence: 0.4},
			},
		},
	}
}

func newTestRunner(g providers.Generator, dir string) *Runner {
	r := &Runner{
		Generator:  g,
		Evaluator:  evaluate.New(evaluate.DefaultVocabulary()),
		Host:       appconfig.Host{Name: "local", URL: "http://127.0.0.1:11434"},
		ResultsDir: dir,
		now:        func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
	}
	r.sleep = func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	return r
}

func TestBuiltin(t *testing.T) {
	t.Parallel()

	suite := Builtin(testProfile())
	var tags []evaluate.Tag
	for _, s := range suite {
		tags = append(tags, s.Tag)
	}
	want := []evaluate.Tag{evaluate.TagBasic, evaluate.TagStrength, evaluate.TagRole, evaluate.TagEmotion, evaluate.TagStress}
	if len(tags) != len(want) {
		t.Fatalf("tags = %v, want %v", tags, want)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Fatalf("tags = %v, want %v", tags, want)
		}
	}
	if got := suite[1].Inputs; len(got) != 2 || got[0] != "料理について教えて" || got[1] != "歌について教えて" {
		t.Errorf("strength inputs = %v", got)
	}
	if suite[2].Inputs[1] != "ボケて" {
		t.Errorf("boke role inputs = %v", suite[2].Inputs)
	}
	if Count(suite) != 4+2+3+4+4 {
		t.Errorf("Count = %d", Count(suite))
	}

	p := testProfile()
	p.Role = character.RoleTsukkomi
	p.Abilities.Weaknesses = []character.Weakness{{Area: "数学"}}
	suite = Builtin(p)
	if suite[2].Tag != evaluate.TagWeakness || suite[2].Inputs[0] != "数学はどう？" {
		t.Errorf("weakness group = %+v", suite[2])
	}
	if suite[3].Inputs[1] != "ツッコンで" {
		t.Errorf("tsukkomi role inputs = %v", suite[3].Inputs)
	}
}

func TestLoadSuite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tests := []struct {
		name    string
		body    string
		inputs  int
		wantErr string
	}{
		{
			name:   "document",
			body:   "scenarios:\n  - tag: basic\n    inputs: [\"やあ\", \"どうも\"]\n  - tag: chat\n    inputs: [\"元気？\"]\n",
			inputs: 3,
		},
		{
			name:   "bare list",
			body:   "- tag: emotion\n  inputs:\n    - 悲しい\n",
			inputs: 1,
		},
		{
			name:   "json",
			body:   `{"scenarios":[{"tag":"basic","inputs":["hi"]}]}`,
			inputs: 1,
		},
		{
			name:    "missing tag",
			body:    "- inputs: [\"x\"]\n",
			wantErr: "has no tag",
		},
		{
			name:    "missing inputs",
			body:    "- tag: basic\n",
			wantErr: "has no inputs",
		},
		{
			name:    "empty",
			body:    "scenarios: []\n",
			wantErr: "contains no scenarios",
		},
	}
	for i, tc := range tests {
		path := filepath.Join(dir, tc.name+".yaml")
		if err := os.WriteFile(path, []byte(tc.body), 0o644); err != nil {
			t.Fatal(err)
		}
		got, err := LoadSuite(path)
		if tc.wantErr != "" {
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("%d %s: err = %v, want %q", i, tc.name, err, tc.wantErr)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
			continue
		}
		if Count(got) != tc.inputs {
			t.Errorf("%s: Count = %d, want %d", tc.name, Count(got), tc.inputs)
		}
	}

	if _, err := LoadSuite(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestResolveModel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		host  string
		model string
		tier  character.Tier
		want  string
	}{
		{"host wins", "llama3:8b", "gemma3:12b", character.TierLarge, "llama3:8b"},
		{"profile model", "", "gemma3:1b", character.TierSmall, "gemma3:1b"},
		{"small default", "", "", character.TierSmall, "gemma3:4b"},
		{"large default", " ", "", character.TierLarge, "gemma3:12b"},
	}
	for _, tc := range tests {
		p := character.Profile{Model: tc.model, ModelTier: tc.tier}
		if got := ResolveModel(p, appconfig.Host{Model: tc.host}); got != tc.want {
			t.Errorf("%s: ResolveModel = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestRunnerRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	gen := &fakeGenerator{reply: "こんにちは！僕はYukiだよ", failOn: "ユーザーの発言: おはよう"}
	r := newTestRunner(gen, dir)
	var delays int
	r.sleep = func(ctx context.Context, d time.Duration) error { delays++; return nil }
	var progress []Progress
	r.Progress = func(p Progress) { progress = append(progress, p) }

	suite := []Scenario{
		{Tag: evaluate.TagBasic, Inputs: []string{"こんにちは", "おはよう"}},
		{Tag: evaluate.TagEmotion, Inputs: []string{"今日は疲れた"}},
	}
	records, err := r.Run(context.Background(), testProfile(), suite)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("len(records) = %d, want 3", len(records))
	}
	if delays != 2 {
		t.Errorf("delays = %d, want 2", delays)
	}
	if len(progress) != 3 || progress[2].Index != 3 || progress[2].Total != 3 {
		t.Errorf("progress = %+v", progress)
	}

	if records[0].Output != "こんにちは！僕はYukiだよ" || records[0].Scenario != evaluate.TagBasic {
		t.Errorf("first record = %+v", records[0])
	}
	if records[0].Scores.Overall == 0 {
		t.Error("first record was not scored")
	}
	failed := records[1]
	if !strings.HasPrefix(failed.Output, "error: ") || failed.Scores.Overall != 0 {
		t.Errorf("failed record = %+v", failed)
	}
	if len(failed.Issues) != 1 || failed.Issues[0] != evaluate.IssueExecutionError {
		t.Errorf("failed issues = %v", failed.Issues)
	}
	if records[2].Scenario != evaluate.TagEmotion {
		t.Errorf("third record scenario = %s", records[2].Scenario)
	}

	for _, m := range gen.models {
		if m != "gemma3:4b" {
			t.Errorf("model = %q, want gemma3:4b", m)
		}
	}
	if !strings.HasSuffix(gen.prompts[0], prompt.EndOfTurn+"\n"+prompt.StartOfTurn+"model") {
		t.Errorf("prompt does not end with the model turn: %q", gen.prompts[0])
	}

	path := filepath.Join(dir, "yuki.jsonl")
	if got := r.ResultsPath(testProfile()); got != path {
		t.Fatalf("ResultsPath = %q, want %q", got, path)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open results: %v", err)
	}
	defer f.Close()
	var lines []resultLine
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var line resultLine
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			t.Fatalf("decode result line: %v", err)
		}
		lines = append(lines, line)
	}
	if len(lines) != 3 {
		t.Fatalf("result lines = %d, want 3", len(lines))
	}
	if lines[0].Character != "Yuki" || lines[0].Host != "local" || lines[0].Model != "gemma3:4b" || lines[0].Tier != "small" {
		t.Errorf("line metadata = %+v", lines[0])
	}
	if lines[0].Input != "こんにちは" {
		t.Errorf("line input = %q", lines[0].Input)
	}
}

func TestRunnerResultsPathFallback(t *testing.T) {
	t.Parallel()

	r := newTestRunner(&fakeGenerator{}, "out")
	p := testProfile()
	p.Name = "ゆき"
	if got, want := r.ResultsPath(p), filepath.Join("out", "character-0f8fad5b.jsonl"); got != want {
		t.Errorf("ResultsPath = %q, want %q", got, want)
	}
}

func TestRunnerCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	gen := &fakeGenerator{reply: "うんだよ"}
	r := newTestRunner(gen, "")
	r.Progress = func(Progress) { cancel() }

	suite := []Scenario{{Tag: evaluate.TagBasic, Inputs: []string{"a", "b", "c"}}}
	records, err := r.Run(ctx, testProfile(), suite)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(records) != 1 {
		t.Errorf("len(records) = %d, want 1", len(records))
	}
	if len(gen.prompts) != 1 {
		t.Errorf("generator called %d times, want 1", len(gen.prompts))
	}
}

func TestRunnerRejectsInvalidProfile(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{}
	r := newTestRunner(gen, "")
	_, err := r.Run(context.Background(), character.Profile{Name: "x"}, Builtin(testProfile()))
	var verr *character.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if len(gen.prompts) != 0 {
		t.Error("generator should not be called")
	}
}

func TestSession(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{reply: "  僕も元気だよ  "}
	s := NewSession(gen, appconfig.Host{Name: "local", Model: "custom:1b"}, testProfile(), true)
	if s.Model() != "custom:1b" {
		t.Errorf("Model = %q", s.Model())
	}

	var streamed strings.Builder
	rec, err := s.Send(context.Background(), "元気？", func(c string) error { streamed.WriteString(c); return nil })
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if rec.Scenario != evaluate.TagChat || rec.Output != "僕も元気だよ" {
		t.Errorf("record = %+v", rec)
	}
	if streamed.String() != "  僕も元気だよ  " {
		t.Errorf("streamed = %q", streamed.String())
	}
	if strings.Contains(gen.prompts[0], "【これまでの会話】") {
		t.Error("first prompt should not carry a history block")
	}

	if _, err := s.Send(context.Background(), "何してた？", nil); err != nil {
		t.Fatalf("second Send returned error: %v", err)
	}
	if !strings.Contains(gen.prompts[1], "【これまでの会話】") || !strings.Contains(gen.prompts[1], "元気？") {
		t.Errorf("second prompt lacks history: %q", gen.prompts[1])
	}
	history := s.History()
	if len(history) != 4 || history[0].Role != prompt.RoleUser || history[1].Role != prompt.RoleAssistant {
		t.Fatalf("history = %+v", history)
	}

	gen.failOn = "壊れて"
	if _, err := s.Send(context.Background(), "壊れて", nil); err == nil {
		t.Fatal("expected error")
	}
	if len(s.History()) != 4 {
		t.Errorf("failed send changed history: %d turns", len(s.History()))
	}
	if got := s.Records(); len(got) != 3 || got[2].Issues[0] != evaluate.IssueExecutionError {
		t.Errorf("records = %+v", got)
	}

	s.Reset()
	if len(s.History()) != 0 || len(s.Records()) != 0 {
		t.Error("Reset did not clear the session")
	}
}
