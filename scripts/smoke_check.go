// scripts/smoke_check.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mwiater/manzai/internal/appconfig"
	"github.com/mwiater/manzai/internal/character"
	"github.com/mwiater/manzai/internal/evaluate"
	"github.com/mwiater/manzai/internal/logging"
	"github.com/mwiater/manzai/internal/prompt"
	"github.com/mwiater/manzai/internal/providerfactory"
	"github.com/mwiater/manzai/internal/providers"
	"github.com/mwiater/manzai/internal/scenario"
)

// smoke_check sends one rendered prompt to every configured host and prints
// the raw reply with its scores. It is a quick end-to-end check of a config
// file and a character before a full test run.
func main() {
	configPath := flag.String("config", appconfig.DefaultConfigPath, "Path to config JSON")
	charPath := flag.String("character", "", "Character profile (default: from config)")
	input := flag.String("input", "こんにちは", "User utterance to send")
	timeout := flag.Duration("timeout", 60*time.Second, "Per-host timeout")
	flag.Parse()

	cfg, err := appconfig.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	path := *charPath
	if path == "" {
		path = cfg.CharacterPath
	}
	if path == "" {
		fmt.Fprintln(os.Stderr, "no character: pass -character or set it in the config")
		os.Exit(1)
	}
	p, err := character.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "character error: %v\n", err)
		os.Exit(1)
	}

	rendered, err := prompt.RenderSingle(p, *input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "prompt error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Character: %s (%s, %s)\n", p.Name, p.Role, p.ModelTier)
	fmt.Printf("Prompt: %d chars\n\n", len([]rune(rendered)))

	evaluator := evaluate.New(evaluate.DefaultVocabulary())
	failed := 0
	for _, host := range cfg.Hosts {
		if err := checkHost(&cfg, host, p, rendered, *input, *timeout, evaluator); err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %v\n\n", providers.HostIdentifier(host), err)
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func checkHost(cfg *appconfig.Config, host appconfig.Host, p character.Profile, rendered, input string, timeout time.Duration, evaluator *evaluate.Evaluator) error {
	fmt.Printf("== %s (%s) ==\n", providers.HostIdentifier(host), host.URL)
	g, _, err := providerfactory.NewGenerator(cfg, host)
	if err != nil {
		return err
	}
	defer func() {
		if err := g.Close(); err != nil {
			logging.LogEvent("Close generator for %s: %v", providers.HostIdentifier(host), err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	st := g.Status(ctx, host)
	if !st.Connected {
		return fmt.Errorf("unreachable: %s", st.Error)
	}
	fmt.Printf("Models: %s\n", strings.Join(st.AvailableModels, ", "))

	model := scenario.ResolveModel(p, host)
	gen, err := providers.Collect(ctx, g, providers.GenerateRequest{
		Host:       host,
		Model:      model,
		Prompt:     rendered,
		Parameters: p.EffectiveParams(host.Parameters),
		Scenario:   string(evaluate.TagBasic),
	}, nil)
	if err != nil {
		return err
	}
	rec := evaluator.Evaluate(p, evaluate.TagBasic, input, gen.Text, gen.LatencyMs, gen.TokenCount)
	out, _ := json.MarshalIndent(rec, "", "  ")
	fmt.Printf("Model: %s\n%s\n\n", model, out)
	return nil
}
