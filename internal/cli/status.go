package manzai

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mwiater/manzai/internal/appconfig"
	"github.com/mwiater/manzai/internal/providerfactory"
	"github.com/mwiater/manzai/internal/providers"
)

// statusCmd probes every configured host concurrently.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show reachability and models of the configured hosts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		hosts := cfg.Hosts
		if name, _ := cmd.Flags().GetString("host"); name != "" {
			h, err := cfg.HostByName(name)
			if err != nil {
				return err
			}
			hosts = []appconfig.Host{h}
		}
		if len(hosts) == 0 {
			return fmt.Errorf("config must contain at least one host")
		}

		statuses := probeHosts(cmd.Context(), cfg, hosts)

		out := cmd.OutOrStdout()
		nodeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Bold(true)
		okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
		downStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
		loadedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
		for _, st := range statuses {
			fmt.Fprintln(out, nodeStyle.Render(fmt.Sprintf("%s (%s, %s):", st.Host, st.Type, st.URL)))
			if !st.Connected {
				fmt.Fprintln(out, "  "+downStyle.Render("unreachable: "+st.Error))
				fmt.Fprintln(out)
				continue
			}
			line := "  connected"
			if st.Version != "" {
				line += " (version " + st.Version + ")"
			}
			fmt.Fprintln(out, okStyle.Render(line))
			loaded := map[string]bool{}
			for _, m := range st.LoadedModels {
				loaded[m] = true
			}
			for _, m := range st.AvailableModels {
				if loaded[m] {
					fmt.Fprintln(out, "  >>> "+loadedStyle.Render(m+" (loaded)"))
				} else {
					fmt.Fprintln(out, "  >>> "+m)
				}
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}

const maxConcurrentProbes = 4

// probeHosts asks every host for its status in parallel. Metrics are off
// for the probes so concurrent generators never write the same file.
func probeHosts(ctx context.Context, cfg *appconfig.Config, hosts []appconfig.Host) []providers.Status {
	probeCfg := *cfg
	probeCfg.Metrics = false
	statuses := make([]providers.Status, len(hosts))
	var g errgroup.Group
	g.SetLimit(maxConcurrentProbes)
	for i, h := range hosts {
		g.Go(func() error {
			gen, _, err := providerfactory.NewGenerator(&probeCfg, h)
			if err != nil {
				statuses[i] = providers.Status{Host: providers.HostIdentifier(h), URL: h.URL, Type: h.Type, Error: err.Error()}
				return nil
			}
			defer closeGenerator(gen, h)
			statuses[i] = gen.Status(ctx, h)
			if strings.TrimSpace(statuses[i].Host) == "" {
				statuses[i].Host = providers.HostIdentifier(h)
			}
			return nil
		})
	}
	_ = g.Wait()
	return statuses
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
