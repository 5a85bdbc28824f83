// internal/util/util_test.go
package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
)

func TestWriteFileCreatesParents(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "sample.txt")
	data := []byte("test payload")

	if err := WriteFile(path, data); err != nil {
		t.Fatalf("WriteFile returned error: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if string(got) != string(data) {
		t.Fatalf("unexpected file contents: got %q want %q", got, data)
	}
}

func TestAppendLine(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "results", "run.jsonl")
	for _, line := range []string{`{"a":1}`, `{"a":2}`} {
		if err := AppendLine(path, []byte(line)); err != nil {
			t.Fatalf("AppendLine: %v", err)
		}
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if want := "{\"a\":1}\n{\"a\":2}\n"; string(got) != want {
		t.Fatalf("contents = %q want %q", got, want)
	}
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "Yuki", want: "yuki"},
		{in: "gemma3:4b", want: "gemma3_4b"},
		{in: "  Boke & Tsukkomi!! ", want: "boke-tsukkomi"},
		{in: "ゆき", want: "character"},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in, "character"); got != tt.want {
			t.Errorf("Slugify(%q) = %q want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncateRunes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "no truncation", in: "hello", max: 10, want: "hello"},
		{name: "ascii truncation", in: "helloworld", max: 5, want: "hello…"},
		{name: "multibyte truncation", in: "こんにちは世界", max: 4, want: "こんにち…"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateRunes(tt.in, tt.max); got != tt.want {
				t.Fatalf("TruncateRunes(%q,%d)=%q want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func TestTruncateWidth(t *testing.T) {
	t.Parallel()

	if got := TruncateWidth("short", 10); got != "short" {
		t.Fatalf("TruncateWidth short = %q", got)
	}
	got := TruncateWidth("こんにちは世界", 8)
	if w := runewidth.StringWidth(got); w > 8 {
		t.Fatalf("TruncateWidth width = %d (%q), want <= 8", w, got)
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("TruncateWidth(%q) missing ellipsis", got)
	}
	if got := TruncateWidth("a\nb", 10); got != "a b" {
		t.Fatalf("newlines not flattened: %q", got)
	}
}

func TestPadWidth(t *testing.T) {
	t.Parallel()

	got := PadWidth("ゆき", 6)
	if w := runewidth.StringWidth(got); w != 6 {
		t.Fatalf("PadWidth width = %d want 6", w)
	}
}

func TestMin(t *testing.T) {
	t.Parallel()

	if Min(2, 5) != 2 || Min(7, 3) != 3 {
		t.Fatalf("Min returned unexpected value")
	}
}
