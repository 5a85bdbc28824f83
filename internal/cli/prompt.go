package manzai

import (
	"fmt"
	"os"

	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mwiater/manzai/internal/prompt"
)

// promptCmd prints the prompt that would be sent for an input without
// contacting any model server.
var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Render the prompt for a character and an input",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		p, err := loadCharacter(cfg)
		if err != nil {
			return err
		}
		input, _ := cmd.Flags().GetString("input")
		historyPath, _ := cmd.Flags().GetString("history")

		var rendered string
		if historyPath != "" {
			history, err := loadHistory(historyPath)
			if err != nil {
				return err
			}
			rendered, err = prompt.RenderConversation(p, history, input)
			if err != nil {
				return err
			}
		} else {
			rendered, err = prompt.RenderSingle(p, input)
			if err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, rendered)

		analysis := prompt.Analyze(rendered)
		if cfg.Debug {
			pp.Fprintln(out, analysis)
			return nil
		}
		fmt.Fprintf(out, "\n%d chars, ~%d tokens\n", analysis.Runes, analysis.EstimatedTokens)
		for _, w := range analysis.Warnings {
			fmt.Fprintf(out, "warning: %s\n", w)
		}
		return nil
	},
}

// loadHistory reads a YAML or JSON list of {role, content} turns.
func loadHistory(path string) ([]prompt.Turn, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read history %q: %w", path, err)
	}
	var history []prompt.Turn
	if err := yaml.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("decode history %q: %w", path, err)
	}
	return history, nil
}

func init() {
	promptCmd.Flags().StringP("input", "i", "", "user utterance to render")
	promptCmd.Flags().String("history", "", "conversation history file (list of {role, content})")
	rootCmd.AddCommand(promptCmd)
}
