// Package report renders evaluation runs for the terminal, as JSON and as a
// standalone HTML page.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/mwiater/manzai/internal/character"
	"github.com/mwiater/manzai/internal/evaluate"
	"github.com/mwiater/manzai/internal/util"
)

const (
	inputWidth  = 24
	outputWidth = 40
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Bold(true)
	sectionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	goodScore = color.New(color.FgGreen).SprintFunc()
	fairScore = color.New(color.FgYellow).SprintFunc()
	poorScore = color.New(color.FgRed).SprintFunc()
)

// Run is the serialized form of one evaluation batch.
type Run struct {
	GeneratedAt time.Time         `json:"generatedAt"`
	Character   string            `json:"character"`
	CharacterID string            `json:"characterId"`
	Role        character.Role    `json:"role"`
	Tier        character.Tier    `json:"tier"`
	Model       string            `json:"model,omitempty"`
	Host        string            `json:"host,omitempty"`
	Summary     evaluate.Summary  `json:"summary"`
	Records     []evaluate.Record `json:"records"`
}

// NewRun bundles records for p with their summary.
func NewRun(p character.Profile, host, model string, records []evaluate.Record, now time.Time) Run {
	if records == nil {
		records = []evaluate.Record{}
	}
	return Run{
		GeneratedAt: now.UTC(),
		Character:   p.Name,
		CharacterID: p.ID,
		Role:        p.Role,
		Tier:        p.ModelTier,
		Model:       model,
		Host:        host,
		Summary:     evaluate.Summarize(records),
		Records:     records,
	}
}

// Score colors a score green at 0.8 and above, yellow from 0.6, red below.
func Score(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	switch {
	case v >= 0.8:
		return goodScore(s)
	case v >= 0.6:
		return fairScore(s)
	default:
		return poorScore(s)
	}
}

// Render writes a per-exchange table followed by the run summary.
func Render(w io.Writer, run Run) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s (%s, %s)", run.Character, run.Role, run.Tier)))
	if run.Model != "" {
		fmt.Fprintln(w, sectionStyle.Render(fmt.Sprintf("model %s on %s", run.Model, run.Host)))
	}
	fmt.Fprintln(w)

	header := fmt.Sprintf("%-8s %s %s %5s %5s %5s %5s %5s", "scenario",
		util.PadWidth("input", inputWidth), util.PadWidth("output", outputWidth),
		"cons", "len", "style", "qual", "total")
	fmt.Fprintln(w, headerStyle.Render(header))
	for _, r := range run.Records {
		fmt.Fprintf(w, "%-8s %s %s %s  %s  %s  %s  %s\n",
			r.Scenario,
			util.PadWidth(util.TruncateWidth(r.Input, inputWidth), inputWidth),
			util.PadWidth(util.TruncateWidth(r.Output, outputWidth), outputWidth),
			Score(r.Scores.CharacterConsistency),
			Score(r.Scores.LengthCompliance),
			Score(r.Scores.StyleAccuracy),
			Score(r.Scores.ResponseQuality),
			Score(r.Scores.Overall),
		)
		if len(r.Issues) > 0 {
			fmt.Fprintln(w, sectionStyle.Render("         ! "+strings.Join(r.Issues, "; ")))
		}
	}
	fmt.Fprintln(w)
	RenderSummary(w, run.Summary)
}

// RenderSummary writes the averaged scores and the most frequent issues.
func RenderSummary(w io.Writer, s evaluate.Summary) {
	fmt.Fprintln(w, headerStyle.Render("Summary"))
	fmt.Fprintf(w, "  exchanges:             %d (%d failed)\n", s.Count, s.Failures)
	fmt.Fprintf(w, "  character consistency: %s\n", Score(s.Averages.CharacterConsistency))
	fmt.Fprintf(w, "  length compliance:     %s\n", Score(s.Averages.LengthCompliance))
	fmt.Fprintf(w, "  style accuracy:        %s\n", Score(s.Averages.StyleAccuracy))
	fmt.Fprintf(w, "  response quality:      %s\n", Score(s.Averages.ResponseQuality))
	fmt.Fprintf(w, "  overall:               %s\n", Score(s.Averages.Overall))
	fmt.Fprintf(w, "  avg latency:           %.0f ms\n", s.AvgLatencyMs)
	fmt.Fprintf(w, "  avg tokens/s:          %.1f\n", s.AvgTokensPerSecond)
	if len(s.TopIssues) == 0 {
		return
	}
	fmt.Fprintln(w, headerStyle.Render("Top issues"))
	for _, ic := range s.TopIssues {
		fmt.Fprintf(w, "  %3d  %s\n", ic.Count, ic.Issue)
	}
}

// WriteJSON writes run as indented JSON to w.
func WriteJSON(w io.Writer, run Run) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(run)
}

// SaveJSON writes run to path, creating parent directories.
func SaveJSON(path string, run Run) error {
	var b strings.Builder
	if err := WriteJSON(&b, run); err != nil {
		return err
	}
	return util.WriteFile(path, []byte(b.String()))
}
