package manzai

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mwiater/manzai/internal/logging"
	"github.com/mwiater/manzai/internal/report"
	"github.com/mwiater/manzai/internal/scenario"
	"github.com/mwiater/manzai/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with a character interactively",
	Long:  `The 'chat' command opens a terminal chat with the character. Each reply is scored as it arrives.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		p, err := loadCharacter(cfg)
		if err != nil {
			return err
		}
		g, host, err := newGenerator(cmd, cfg)
		if err != nil {
			return err
		}
		defer closeGenerator(g, host)

		if err := logging.InitWithWriter(io.Discard, cfg.LogFilePath()); err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		session := scenario.NewSession(g, host, p, cfg.Stream)
		records, err := tui.Run(ctx, cfg, g, session)
		if err != nil {
			return err
		}
		if len(records) > 0 {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out)
			report.RenderSummary(out, report.NewRun(session.Profile(), host.Name, session.Model(), records, time.Now()).Summary)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
