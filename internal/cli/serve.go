package manzai

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/mwiater/manzai/internal/character"
	"github.com/mwiater/manzai/internal/logging"
	"github.com/mwiater/manzai/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Serve prompt composition, evaluation, live testing and export over HTTP.
The configured character, when set, is used for requests that omit one.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if addr, _ := cmd.Flags().GetString("listen"); addr != "" {
			cfg.ListenAddr = addr
		}

		var fallback *character.Profile
		if cfg.CharacterPath != "" {
			p, err := loadCharacter(cfg)
			if err != nil {
				return err
			}
			fallback = &p
			logging.LogEvent("Default character: %s", p.Name)
		}

		g, host, err := newGenerator(cmd, cfg)
		if err != nil {
			return err
		}
		defer closeGenerator(g, host)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return server.New(cfg, host, g, fallback).Run(ctx)
	},
}

func init() {
	serveCmd.Flags().String("listen", "", "address to listen on (default from config, then 127.0.0.1:8787)")
	rootCmd.AddCommand(serveCmd)
}
