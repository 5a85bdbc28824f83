package scenario

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mwiater/manzai/internal/appconfig"
	"github.com/mwiater/manzai/internal/character"
	"github.com/mwiater/manzai/internal/evaluate"
	"github.com/mwiater/manzai/internal/logging"
	"github.com/mwiater/manzai/internal/prompt"
	"github.com/mwiater/manzai/internal/providers"
	"github.com/mwiater/manzai/internal/util"
)

// Progress is reported after every completed exchange of a batch.
type Progress struct {
	Index    int
	Total    int
	Scenario evaluate.Tag
	Input    string
	Record   evaluate.Record
}

// Runner executes scenarios one call at a time.
type Runner struct {
	Generator  providers.Generator
	Evaluator  *evaluate.Evaluator
	Host       appconfig.Host
	Delay      time.Duration
	ResultsDir string
	Stream     bool
	// Progress, when set, is called after each exchange.
	Progress func(Progress)

	sleep func(context.Context, time.Duration) error
	now   func() time.Time
}

// NewRunner builds a Runner from the application config.
func NewRunner(cfg *appconfig.Config, g providers.Generator, host appconfig.Host) *Runner {
	return &Runner{
		Generator:  g,
		Evaluator:  evaluate.New(evaluate.DefaultVocabulary()),
		Host:       host,
		Delay:      cfg.InterCallDelay(),
		ResultsDir: cfg.ResultsDirectory(),
		Stream:     cfg.Stream,
	}
}

// resultLine is one JSONL entry of a results file.
type resultLine struct {
	Timestamp   time.Time `json:"timestamp"`
	Character   string    `json:"character"`
	CharacterID string    `json:"characterId"`
	Tier        string    `json:"tier"`
	Host        string    `json:"host"`
	Model       string    `json:"model"`
	evaluate.Record
}

// ResolveModel picks the model name for p on host: a model pinned on the
// host wins, then the profile's model, then the tier default.
func ResolveModel(p character.Profile, host appconfig.Host) string {
	if m := strings.TrimSpace(host.Model); m != "" {
		return m
	}
	if m := strings.TrimSpace(p.Model); m != "" {
		return m
	}
	return character.DefaultModel(p.ModelTier)
}

// ResultsPath returns the JSONL file records for p are appended to.
func (r *Runner) ResultsPath(p character.Profile) string {
	fallback := "character"
	if id := util.Slugify(p.ID, ""); id != "" {
		fallback = "character-" + id[:util.Min(len(id), 8)]
	}
	return filepath.Join(r.ResultsDir, util.Slugify(p.Name, fallback)+".jsonl")
}

// Run sends every scenario input in order, waiting Delay between calls.
// A failed generation becomes a zero-score record and the batch continues.
// Cancelling ctx stops the batch before the next call; the records gathered
// so far are returned with the context error.
func (r *Runner) Run(ctx context.Context, p character.Profile, scenarios []Scenario) ([]evaluate.Record, error) {
	if err := character.ValidateIdentity(p); err != nil {
		return nil, err
	}
	p = character.WithDefaults(p)
	model := ResolveModel(p, r.Host)
	total := Count(scenarios)
	logging.LogEvent("Running %d inputs for %s on %s (%s)", total, p.Name, providers.HostIdentifier(r.Host), model)

	records := make([]evaluate.Record, 0, total)
	index := 0
	for _, s := range scenarios {
		for _, input := range s.Inputs {
			if index > 0 {
				if err := r.wait(ctx); err != nil {
					return records, err
				}
			}
			if err := ctx.Err(); err != nil {
				return records, err
			}
			index++

			rec := r.exchange(ctx, p, model, s.Tag, input)
			records = append(records, rec)
			r.persist(p, model, rec)
			if r.Progress != nil {
				r.Progress(Progress{Index: index, Total: total, Scenario: s.Tag, Input: input, Record: rec})
			}
			if err := ctx.Err(); err != nil {
				return records, err
			}
		}
	}
	return records, nil
}

func (r *Runner) exchange(ctx context.Context, p character.Profile, model string, tag evaluate.Tag, input string) evaluate.Record {
	rendered, err := prompt.RenderSingle(p, input)
	if err != nil {
		return evaluate.Failed(tag, input, err)
	}
	gen, err := providers.Collect(ctx, r.Generator, providers.GenerateRequest{
		Host:       r.Host,
		Model:      model,
		Prompt:     rendered,
		Parameters: p.EffectiveParams(r.Host.Parameters),
		Stream:     r.Stream,
		Scenario:   string(tag),
	}, nil)
	if err != nil {
		if providers.IsDeadlineExceeded(err) {
			err = fmt.Errorf("request timed out: %w", err)
		}
		logging.LogEvent("Generation failed [%s] %q: %v", tag, input, err)
		return evaluate.Failed(tag, input, err)
	}
	return r.Evaluator.Evaluate(p, tag, input, gen.Text, gen.LatencyMs, gen.TokenCount)
}

func (r *Runner) persist(p character.Profile, model string, rec evaluate.Record) {
	if r.ResultsDir == "" {
		return
	}
	now := time.Now
	if r.now != nil {
		now = r.now
	}
	line, err := json.Marshal(resultLine{
		Timestamp:   now().UTC(),
		Character:   p.Name,
		CharacterID: p.ID,
		Tier:        string(p.ModelTier),
		Host:        providers.HostIdentifier(r.Host),
		Model:       model,
		Record:      rec,
	})
	if err != nil {
		logging.LogEvent("Could not encode result: %v", err)
		return
	}
	if err := util.AppendLine(r.ResultsPath(p), line); err != nil {
		logging.LogEvent("Could not append result to %s: %v", r.ResultsPath(p), err)
	}
}

func (r *Runner) wait(ctx context.Context) error {
	if r.sleep != nil {
		return r.sleep(ctx, r.Delay)
	}
	if r.Delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(r.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
