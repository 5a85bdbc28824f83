package manzai

import (
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show resolved settings",
}

func init() {
	rootCmd.AddCommand(showCmd)
}
