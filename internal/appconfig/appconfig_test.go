// internal/appconfig/appconfig_test.go
package appconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestLoad verifies that a valid configuration file is loaded with defaults
// applied, while files with invalid JSON, no hosts, or that are nonexistent
// result in an error.
func TestLoad(t *testing.T) {
	dir := t.TempDir()
	validConfig := `{
        "hosts": [
            {
                "name": "local",
                "url": "http://localhost:11434/",
                "model": "gemma3:4b",
                "parameters": { "temperature": 0.7 }
            }
        ],
        "character": "characters/yuki.yaml"
    }`
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(validConfig), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() with valid config failed: %v", err)
	}
	if len(cfg.Hosts) != 1 {
		t.Fatalf("expected 1 host, got %d", len(cfg.Hosts))
	}
	if cfg.Hosts[0].Type != HostTypeOllama {
		t.Fatalf("expected default host type %q, got %q", HostTypeOllama, cfg.Hosts[0].Type)
	}
	if cfg.Hosts[0].URL != "http://localhost:11434" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Hosts[0].URL)
	}
	if cfg.Hosts[0].Parameters.Temperature == nil || *cfg.Hosts[0].Parameters.Temperature != 0.7 {
		t.Fatalf("expected host temperature override, got %+v", cfg.Hosts[0].Parameters)
	}
	if cfg.TimeoutSeconds != 600 {
		t.Fatalf("expected default timeout of 600 seconds, got %d", cfg.TimeoutSeconds)
	}
	if cfg.RequestTimeout() != 600*time.Second {
		t.Fatalf("expected default request timeout of 600s, got %v", cfg.RequestTimeout())
	}
	if cfg.ConfigPath != path {
		t.Fatalf("expected ConfigPath %q, got %q", path, cfg.ConfigPath)
	}

	invalid := filepath.Join(dir, "invalid.json")
	if err := os.WriteFile(invalid, []byte(`{ "hosts": [`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(invalid); err == nil {
		t.Fatal("Load() with invalid JSON should have failed")
	}

	noHosts := filepath.Join(dir, "nohosts.json")
	if err := os.WriteFile(noHosts, []byte(`{ "hosts": [] }`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(noHosts); err == nil {
		t.Fatal("Load() with no hosts should have failed")
	}

	if _, err := Load(filepath.Join(dir, "nonexistent.json")); err == nil {
		t.Fatal("Load() with nonexistent file should have failed")
	}
}

func TestLoadDefaultPath(t *testing.T) {
	tempDir := t.TempDir()
	configDir := filepath.Join(tempDir, "config")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("mkdir config: %v", err)
	}
	payload := `{ "hosts": [ { "name": "A", "url": "http://localhost:8080", "type": "openai" } ] }`
	if err := os.WriteFile(filepath.Join(configDir, "config.json"), []byte(payload), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	oldCwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(tempDir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldCwd) })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Hosts[0].Type != HostTypeOpenAI {
		t.Fatalf("expected openai host type, got %q", cfg.Hosts[0].Type)
	}
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	if cfg.InterCallDelay() != 500*time.Millisecond {
		t.Fatalf("expected default delay 500ms, got %v", cfg.InterCallDelay())
	}
	cfg.InterCallDelayMs = -1
	if cfg.InterCallDelay() != 0 {
		t.Fatalf("expected negative delay to disable pause, got %v", cfg.InterCallDelay())
	}
	if cfg.LogFilePath() != "manzai.log" {
		t.Fatalf("unexpected log path %q", cfg.LogFilePath())
	}
	if cfg.ResultsDirectory() != "manzaiData/results" {
		t.Fatalf("unexpected results dir %q", cfg.ResultsDirectory())
	}
	if cfg.Listen() != "127.0.0.1:8787" {
		t.Fatalf("unexpected listen addr %q", cfg.Listen())
	}
	if _, err := cfg.PrimaryHost(); err == nil {
		t.Fatal("expected error without hosts")
	}
}

func TestHostByName(t *testing.T) {
	cfg := Config{Hosts: []Host{{Name: "first"}, {Name: "Second"}}}
	h, err := cfg.HostByName("second")
	if err != nil || h.Name != "Second" {
		t.Fatalf("expected case-insensitive match, got %+v, %v", h, err)
	}
	h, err = cfg.HostByName("")
	if err != nil || h.Name != "first" {
		t.Fatalf("expected primary host, got %+v, %v", h, err)
	}
	if _, err := cfg.HostByName("missing"); err == nil {
		t.Fatal("expected error for unknown host")
	}
}

func TestNormalize(t *testing.T) {
	cfg := Config{Hosts: []Host{{Name: "a", URL: " http://gpu:11434/ "}, {Name: "b", URL: "http://oai/v1", Type: HostTypeOpenAI}}}
	cfg.Normalize()
	if cfg.TimeoutSeconds != 600 {
		t.Fatalf("expected default timeout, got %d", cfg.TimeoutSeconds)
	}
	if cfg.Hosts[0].Type != HostTypeOllama || cfg.Hosts[0].URL != "http://gpu:11434" {
		t.Fatalf("host not normalized: %+v", cfg.Hosts[0])
	}
	if cfg.Hosts[1].Type != HostTypeOpenAI {
		t.Fatalf("explicit type overwritten: %+v", cfg.Hosts[1])
	}
}
