package manzai

import (
	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/manzai/internal/appconfig"
)

// showConfigCmd prints the merged configuration, confirming that the config
// file was read and flags override it. With --debug the whole struct is dumped.
var showConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show config settings",
	Long:  `Show config settings ensuring that the JSON configs are loaded properly and overridden by flags accordingly.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := GetConfig()
		out := cmd.OutOrStdout()
		appconfig.ShowConfig(out, viper.ConfigFileUsed(), cfg)
		if cfg != nil && cfg.Debug {
			pp.Fprintln(out, cfg)
		}
	},
}

func init() {
	showCmd.AddCommand(showConfigCmd)
}
