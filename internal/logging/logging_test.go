package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type testStringer string

func (s testStringer) String() string { return string(s) }

func TestInitAndLoggingToFile(t *testing.T) {
	tempDir := t.TempDir()
	logPath := filepath.Join(tempDir, "nested", "manzai.log")

	var console bytes.Buffer
	if err := InitWithWriter(&console, logPath); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	t.Cleanup(func() {
		_ = Close()
	})

	LogEvent("hello %s", "world")
	LogRequest("manzai->llm", "local", "gemma3:4b", "basic", map[string]any{"prompt": "こんにちは"})
	_ = Close()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "hello world") {
		t.Fatalf("expected LogEvent content, got: %s", content)
	}
	if !strings.Contains(content, "[MANZAI->LLM] host=local model=gemma3:4b scenario=basic") {
		t.Fatalf("expected LogRequest content, got: %s", content)
	}
	if !strings.Contains(console.String(), "hello world") {
		t.Fatalf("expected console copy, got: %s", console.String())
	}
}

func TestBuildRequestMessageDefaults(t *testing.T) {
	msg := buildRequestMessage(" in ", " ", "", " strength ", map[string]any{"ok": true})
	if !strings.Contains(msg, "[IN]") {
		t.Fatalf("expected uppercased direction, got: %s", msg)
	}
	if !strings.Contains(msg, "host=unknown") {
		t.Fatalf("expected default host, got: %s", msg)
	}
	if !strings.Contains(msg, "model=unknown") {
		t.Fatalf("expected default model, got: %s", msg)
	}
	if !strings.Contains(msg, "scenario=strength") {
		t.Fatalf("expected scenario tag, got: %s", msg)
	}
	if !strings.Contains(msg, "payload={\"ok\":true}") {
		t.Fatalf("expected payload json, got: %s", msg)
	}
}

func TestFormatPayloadVariants(t *testing.T) {
	if got := formatPayload(nil); got != "null" {
		t.Fatalf("nil payload: %s", got)
	}
	if got := formatPayload(" "); got != `""` {
		t.Fatalf("empty string payload: %s", got)
	}
	if got := formatPayload([]byte("hi")); got != "hi" {
		t.Fatalf("byte payload: %s", got)
	}
	if got := formatPayload(testStringer("ok")); got != "ok" {
		t.Fatalf("stringer payload: %s", got)
	}
}

func TestBuildRequestMessageKeepsPromptOnOneLine(t *testing.T) {
	prompt := "<start_of_turn>user\nこんにちは<end_of_turn>\n<start_of_turn>model\n"
	tests := []struct {
		name    string
		payload any
		want    string
	}{
		{"string", prompt, `payload=<start_of_turn>user\nこんにちは<end_of_turn>\n<start_of_turn>model`},
		{"struct", map[string]string{"prompt": "<start_of_turn>a\nb"}, `payload={"prompt":"<start_of_turn>a\nb"}`},
	}
	for _, tt := range tests {
		msg := buildRequestMessage("MANZAI->LLM", "local", "gemma3:4b", "", tt.payload)
		if strings.Contains(msg, "\n") {
			t.Errorf("%s: message spans lines: %q", tt.name, msg)
		}
		if !strings.HasSuffix(msg, tt.want) {
			t.Errorf("%s: message = %q, want suffix %q", tt.name, msg, tt.want)
		}
	}
}

func TestInitWithoutWriters(t *testing.T) {
	if err := InitWithWriter(nil, ""); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	t.Cleanup(func() { _ = Close() })
	LogEvent("discarded")
}
