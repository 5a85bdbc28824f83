package manzai

import (
	"fmt"

	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"

	"github.com/mwiater/manzai/internal/appconfig"
	"github.com/mwiater/manzai/internal/scenario"
)

// showParamsCmd prints the sampling options a character would be sent with:
// the tier template overlaid with the host's and then the character's own.
var showParamsCmd = &cobra.Command{
	Use:   "params",
	Short: "Show the effective sampling parameters for the character",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		p, err := loadCharacter(cfg)
		if err != nil {
			return err
		}
		var host appconfig.Host
		if len(cfg.Hosts) > 0 {
			if host, err = selectHost(cmd, cfg); err != nil {
				return err
			}
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s (%s tier) on %s, model %s\n", p.Name, p.ModelTier, host.Name, scenario.ResolveModel(p, host))
		pp.Fprintln(out, p.EffectiveParams(host.Parameters))
		return nil
	},
}

func init() {
	showCmd.AddCommand(showParamsCmd)
}
