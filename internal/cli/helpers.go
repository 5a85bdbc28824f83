package manzai

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mwiater/manzai/internal/appconfig"
	"github.com/mwiater/manzai/internal/character"
	"github.com/mwiater/manzai/internal/logging"
	"github.com/mwiater/manzai/internal/providerfactory"
	"github.com/mwiater/manzai/internal/providers"
)

var errNoCharacter = errors.New("no character profile given: pass --character or set \"character\" in the config file")

// loadCharacter loads the profile named by --character or the config file.
func loadCharacter(cfg *appconfig.Config) (character.Profile, error) {
	path := strings.TrimSpace(cfg.CharacterPath)
	if path == "" {
		return character.Profile{}, errNoCharacter
	}
	return character.Load(path)
}

// selectHost resolves --host against the configured hosts.
func selectHost(cmd *cobra.Command, cfg *appconfig.Config) (appconfig.Host, error) {
	name, _ := cmd.Flags().GetString("host")
	return cfg.HostByName(name)
}

// newGenerator builds the generator for the selected host. Callers must
// Close it so that metrics are flushed.
func newGenerator(cmd *cobra.Command, cfg *appconfig.Config) (providers.Generator, appconfig.Host, error) {
	host, err := selectHost(cmd, cfg)
	if err != nil {
		return nil, appconfig.Host{}, err
	}
	g, _, err := providerfactory.NewGenerator(cfg, host)
	if err != nil {
		return nil, appconfig.Host{}, err
	}
	return g, host, nil
}

// closeGenerator closes g and logs a failure, which for a metrics-wrapped
// generator means the metrics file was not written.
func closeGenerator(g providers.Generator, host appconfig.Host) {
	if err := g.Close(); err != nil {
		logging.LogEvent("Close generator for %s: %v", providers.HostIdentifier(host), err)
	}
}
