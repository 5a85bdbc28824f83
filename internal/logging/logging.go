// Package logging routes the standard logger to stdout and an optional log
// file, and formats the request/event lines written around model calls.
package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	mu      sync.Mutex
	logFile *os.File
)

// Init sends log output to stdout and, when logPath is set, appends it to that file.
func Init(logPath string) error {
	return InitWithWriter(os.Stdout, logPath)
}

// InitWithWriter is Init with a caller-chosen console writer. The TUI passes
// io.Discard so log lines do not tear the alternate screen.
func InitWithWriter(console io.Writer, logPath string) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}

	var writers []io.Writer
	if console != nil {
		writers = append(writers, console)
	}

	if logPath != "" {
		if dir := filepath.Dir(logPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		logFile = file
		writers = append(writers, logFile)
	}

	if len(writers) == 0 {
		log.SetOutput(io.Discard)
		return nil
	}
	log.SetOutput(io.MultiWriter(writers...))
	return nil
}

// Close restores stderr logging and closes the log file.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	log.SetOutput(os.Stderr)
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// LogEvent writes a formatted lifecycle line.
func LogEvent(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Println(msg)
}

// LogRequest writes one line describing traffic to or from a model server.
func LogRequest(direction, host, model, scenario string, payload any) {
	msg := buildRequestMessage(direction, host, model, scenario, payload)
	log.Println(msg)
}

// buildRequestMessage renders one request line. Multi-line payloads such as
// rendered prompts are folded onto the line with escaped newlines.
func buildRequestMessage(direction, host, model, scenario string, payload any) string {
	var b strings.Builder
	b.WriteString("[" + strings.ToUpper(strings.TrimSpace(direction)) + "]")
	b.WriteString(" host=" + orUnknown(host))
	b.WriteString(" model=" + orUnknown(model))
	if scenario = strings.TrimSpace(scenario); scenario != "" {
		b.WriteString(" scenario=" + scenario)
	}
	b.WriteString(" payload=" + oneLine(formatPayload(payload)))
	return b.String()
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return "unknown"
}

var lineFolder = strings.NewReplacer("\r\n", `\n`, "\n", `\n`, "\r", `\n`)

func oneLine(s string) string {
	return lineFolder.Replace(strings.TrimRight(s, "\n"))
}

// formatPayload turns a payload into text. Structured values are encoded as
// JSON without HTML escaping so turn tags stay readable.
func formatPayload(payload any) string {
	switch v := payload.(type) {
	case nil:
		return "null"
	case string:
		if strings.TrimSpace(v) == "" {
			return `""`
		}
		return v
	case []byte:
		if len(v) == 0 {
			return "[]"
		}
		return string(v)
	case fmt.Stringer:
		return v.String()
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return fmt.Sprintf("%v", payload)
	}
	return strings.TrimRight(buf.String(), "\n")
}
