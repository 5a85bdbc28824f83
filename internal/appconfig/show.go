package appconfig

import (
	"fmt"
	"io"
)

// ShowConfig prints the current configuration summary.
func ShowConfig(out io.Writer, file string, cfg *Config) {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}

	fmt.Fprintln(out, "Current configuration:")
	if cfg == nil {
		fmt.Fprintln(out, "  (configuration is not initialized)")
		return
	}

	fmt.Fprintf(out, "  Debug:            %v\n", cfg.Debug)
	fmt.Fprintf(out, "  Stream:           %v\n", cfg.Stream)
	fmt.Fprintf(out, "  Metrics:          %v (%s)\n", cfg.Metrics, cfg.MetricsFilePath())
	fmt.Fprintf(out, "  Request Timeout:  %s\n", cfg.RequestTimeout())
	fmt.Fprintf(out, "  Inter-call Delay: %s\n", cfg.InterCallDelay())
	fmt.Fprintf(out, "  Character:        %s\n", cfg.CharacterPath)
	if cfg.SuitePath != "" {
		fmt.Fprintf(out, "  Scenario Suite:   %s\n", cfg.SuitePath)
	}
	fmt.Fprintf(out, "  Results Dir:      %s\n", cfg.ResultsDirectory())
	fmt.Fprintf(out, "  Log File:         %s\n", cfg.LogFilePath())
	fmt.Fprintf(out, "  Listen:           %s\n", cfg.Listen())
	for _, h := range cfg.Hosts {
		fmt.Fprintf(out, "  Host %-12s %s (%s) model=%s\n", h.Name+":", h.URL, h.Type, h.Model)
	}
}
