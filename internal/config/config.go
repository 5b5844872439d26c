package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

var (
	ErrInvalidConfig = errors.New("invalid config")
)

// Config holds the global snipstage configuration.
type Config struct {
	Minimize      *bool   `toml:"minimize"`       // Shrink snippets to their changed lines before staging (default: true)
	HeadLabel     string  `toml:"head_label"`     // Label after <<<<<<< (default: HEAD)
	SnippetLabel  string  `toml:"snippet_label"`  // Label after >>>>>>> (default: Snippet)
	Debounce      string  `toml:"debounce"`       // Watcher debounce as a Go duration (default: 200ms)
	SummaryFormat string  `toml:"summary_format"` // "json" or "yaml" (default: json)
	Display       Display `toml:"display"`

	debounce time.Duration
}

// Display holds transcript rendering options.
type Display struct {
	Spinner []string `toml:"spinner"`
}

// DebounceInterval returns the parsed debounce duration.
func (c *Config) DebounceInterval() time.Duration {
	return c.debounce
}

// Path returns the default config location, ~/.config/snipstage/config.toml.
func Path() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "snipstage", "config.toml"), nil
}

// Load reads the config from the default location.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config from a specific path. A missing file yields
// the defaults.
func LoadFrom(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: decode %s: %v", ErrInvalidConfig, path, err)
		}
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	var cfg Config
	_ = cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() error {
	if c.Minimize == nil {
		t := true
		c.Minimize = &t
	}
	if c.HeadLabel == "" {
		c.HeadLabel = "HEAD"
	}
	if c.SnippetLabel == "" {
		c.SnippetLabel = "Snippet"
	}
	if c.Debounce == "" {
		c.Debounce = "200ms"
	}
	if c.SummaryFormat == "" {
		c.SummaryFormat = "json"
	}

	d, err := time.ParseDuration(c.Debounce)
	if err != nil || d < 0 {
		return fmt.Errorf("%w: debounce %q is not a duration", ErrInvalidConfig, c.Debounce)
	}
	c.debounce = d

	switch c.SummaryFormat {
	case "json", "yaml":
		// valid
	default:
		return fmt.Errorf("%w: summary_format must be \"json\" or \"yaml\", got %q", ErrInvalidConfig, c.SummaryFormat)
	}
	for _, f := range c.Display.Spinner {
		if f == "" {
			return fmt.Errorf("%w: display.spinner frames must not be empty", ErrInvalidConfig)
		}
	}
	return nil
}
