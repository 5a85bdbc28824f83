package manzai

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mwiater/manzai/internal/character"
	"github.com/mwiater/manzai/internal/prompt"
	"github.com/mwiater/manzai/internal/util"
)

// exportCmd writes the agent-config document (and optionally an Ollama
// Modelfile) for the character.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a character as an agent config document",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		p, err := loadCharacter(cfg)
		if err != nil {
			return err
		}
		style, err := prompt.Template(p)
		if err != nil {
			return err
		}

		endpoint, _ := cmd.Flags().GetString("endpoint")
		if endpoint == "" {
			if host, err := selectHost(cmd, cfg); err == nil {
				endpoint = host.URL
			}
		}
		exp := character.BuildExport(p, endpoint, style, time.Now())
		data, err := json.MarshalIndent(exp, "", "  ")
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		path, _ := cmd.Flags().GetString("out")
		if path == "" {
			fmt.Fprintln(out, string(data))
		} else {
			if err := util.WriteFile(path, append(data, '\n')); err != nil {
				return err
			}
			fmt.Fprintf(out, "Export written to %s\n", path)
		}

		if mf, _ := cmd.Flags().GetString("modelfile"); mf != "" {
			if err := util.WriteFile(mf, []byte(exp.Modelfile)); err != nil {
				return err
			}
			fmt.Fprintf(out, "Modelfile written to %s\n", mf)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("out", "o", "", "write the export to this file instead of stdout")
	exportCmd.Flags().String("modelfile", "", "also write an Ollama Modelfile to this path")
	exportCmd.Flags().String("endpoint", "", "model server endpoint recorded in the export (default: selected host URL)")
	rootCmd.AddCommand(exportCmd)
}
