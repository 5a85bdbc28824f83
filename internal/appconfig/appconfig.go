// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// legacyConfigPath is the path used before configs moved under config/.
	legacyConfigPath = "config.json"
	// defaultRequestTimeout is the default timeout for HTTP requests.
	defaultRequestTimeout = 600 * time.Second
	// defaultInterCallDelay separates consecutive generation calls in a batch run.
	defaultInterCallDelay = 500 * time.Millisecond
	defaultResultsDir     = "manzaiData/results"
	defaultMetricsFile    = "manzaiData/metrics.json"
	defaultListenAddr     = "127.0.0.1:8787"
)

// Host types understood by the provider factory.
const (
	HostTypeOllama = "ollama"
	HostTypeOpenAI = "openai"
)

// Config represents the top-level application configuration.
type Config struct {
	Hosts            []Host `json:"hosts" mapstructure:"hosts"`
	Debug            bool   `json:"debug" mapstructure:"debug"`
	TimeoutSeconds   int    `json:"timeout,omitempty" mapstructure:"timeout"`
	LogFile          string `json:"logFile,omitempty" mapstructure:"logFile"`
	CharacterPath    string `json:"character,omitempty" mapstructure:"character"`
	SuitePath        string `json:"suite,omitempty" mapstructure:"suite"`
	ResultsDir       string `json:"resultsDir,omitempty" mapstructure:"resultsDir"`
	InterCallDelayMs int    `json:"interCallDelayMs,omitempty" mapstructure:"interCallDelayMs"`
	Stream           bool   `json:"stream" mapstructure:"stream"`
	Metrics          bool   `json:"metrics" mapstructure:"metrics"`
	MetricsFile      string `json:"metricsFile,omitempty" mapstructure:"metricsFile"`
	ListenAddr       string `json:"listen,omitempty" mapstructure:"listen"`
	ConfigPath       string `json:"-" mapstructure:"-"`
}

// Host represents a single model server.
type Host struct {
	Name       string     `json:"name" mapstructure:"name"`
	URL        string     `json:"url" mapstructure:"url"`
	Type       string     `json:"type" mapstructure:"type"`
	Model      string     `json:"model,omitempty" mapstructure:"model"`
	APIKey     string     `json:"apiKey,omitempty" mapstructure:"apiKey"`
	Parameters Parameters `json:"parameters" mapstructure:"parameters"`
}

// Parameters holds sampling options sent to the model server. Nil fields are
// left to the server (or to a lower-priority template during merging).
type Parameters struct {
	Temperature   *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty" mapstructure:"temperature"`
	TopK          *int     `json:"top_k,omitempty" yaml:"top_k,omitempty" mapstructure:"top_k"`
	TopP          *float64 `json:"top_p,omitempty" yaml:"top_p,omitempty" mapstructure:"top_p"`
	MinP          *float64 `json:"min_p,omitempty" yaml:"min_p,omitempty" mapstructure:"min_p"`
	RepeatPenalty *float64 `json:"repeat_penalty,omitempty" yaml:"repeat_penalty,omitempty" mapstructure:"repeat_penalty"`
	NumPredict    *int     `json:"num_predict,omitempty" yaml:"num_predict,omitempty" mapstructure:"num_predict"`
	NumCtx        *int     `json:"num_ctx,omitempty" yaml:"num_ctx,omitempty" mapstructure:"num_ctx"`
	Stop          []string `json:"stop,omitempty" yaml:"stop,omitempty" mapstructure:"stop"`
}

// RequestTimeout returns the timeout duration for HTTP requests, falling back to the default if not specified.
func (c Config) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// InterCallDelay returns the pause between two generation calls of a batch run.
// A negative value disables the pause.
func (c Config) InterCallDelay() time.Duration {
	if c.InterCallDelayMs < 0 {
		return 0
	}
	if c.InterCallDelayMs == 0 {
		return defaultInterCallDelay
	}
	return time.Duration(c.InterCallDelayMs) * time.Millisecond
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return "manzai.log"
}

// ResultsDirectory returns where batch results are appended.
func (c Config) ResultsDirectory() string {
	if dir := strings.TrimSpace(c.ResultsDir); dir != "" {
		return dir
	}
	return defaultResultsDir
}

// MetricsFilePath returns where aggregated performance metrics are persisted.
func (c Config) MetricsFilePath() string {
	if path := strings.TrimSpace(c.MetricsFile); path != "" {
		return path
	}
	return defaultMetricsFile
}

// Listen returns the address the HTTP API binds to.
func (c Config) Listen() string {
	if addr := strings.TrimSpace(c.ListenAddr); addr != "" {
		return addr
	}
	return defaultListenAddr
}

// PrimaryHost returns the first configured host.
func (c Config) PrimaryHost() (Host, error) {
	if len(c.Hosts) == 0 {
		return Host{}, errors.New("config must contain at least one host")
	}
	return c.Hosts[0], nil
}

// HostByName looks up a host by name; an empty name selects the primary host.
func (c Config) HostByName(name string) (Host, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return c.PrimaryHost()
	}
	for _, h := range c.Hosts {
		if strings.EqualFold(h.Name, name) {
			return h, nil
		}
	}
	return Host{}, fmt.Errorf("no host named %q in configuration", name)
}

// Load reads the application configuration from the specified path, with fallback to a legacy path.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	config, err := loadFromPath(path)
	if err == nil {
		if len(config.Hosts) == 0 {
			return Config{}, errors.New("config must contain at least one host")
		}
		config.ConfigPath = path
		return config, nil
	}

	if errors.Is(err, os.ErrNotExist) {
		if path == DefaultConfigPath {
			config, legacyErr := loadFromPath(legacyConfigPath)
			if legacyErr == nil {
				config.ConfigPath = legacyConfigPath
				return config, nil
			}
			if errors.Is(legacyErr, os.ErrNotExist) {
				return Config{}, fmt.Errorf("no configuration file found (searched %q and %q)", DefaultConfigPath, legacyConfigPath)
			}
			return Config{}, fmt.Errorf("could not read config file %q: %w", legacyConfigPath, legacyErr)
		}
		return Config{}, fmt.Errorf("no configuration file found at %q", path)
	}

	return Config{}, fmt.Errorf("could not read config file %q: %w", path, err)
}

// loadFromPath is a helper function that loads the configuration from a specific file path.
func loadFromPath(path string) (Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	if err := json.NewDecoder(file).Decode(&config); err != nil {
		return Config{}, err
	}
	config.Normalize()
	return config, nil
}

// Normalize fills the request timeout and cleans host entries: an empty type
// means Ollama and trailing slashes are dropped from URLs. The CLI calls it
// after merging flags, since that path bypasses Load.
func (c *Config) Normalize() {
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = int(defaultRequestTimeout.Seconds())
	}
	for i := range c.Hosts {
		if strings.TrimSpace(c.Hosts[i].Type) == "" {
			c.Hosts[i].Type = HostTypeOllama
		}
		c.Hosts[i].URL = strings.TrimRight(strings.TrimSpace(c.Hosts[i].URL), "/")
	}
}
