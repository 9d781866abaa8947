// Package config handles retitle's defaults and the global configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Settings represents configuration stored in ~/.config/retitle/config.yml.
// Zero values fall back to defaults when loaded through Load.
type Settings struct {
	Style        string   `yaml:"style,omitempty"`         // year placement: prefix or suffix
	MaxLen       int      `yaml:"maxlen,omitempty"`        // filename length bound, extension included
	Pages        int      `yaml:"pages,omitempty"`         // pages of body text to read per document
	Workers      int      `yaml:"workers,omitempty"`       // preview pool size
	UnmatchedDir string   `yaml:"unmatched_dir,omitempty"` // folder name for files without a usable title
	Crossref     Crossref `yaml:"crossref"`
	LogLevel     string   `yaml:"log_level,omitempty"`
	LogFormat    string   `yaml:"log_format,omitempty"`
}

// Crossref holds lookup settings.
type Crossref struct {
	Enabled bool    `yaml:"enabled"`
	Mailto  string  `yaml:"mailto,omitempty"`     // polite-pool contact address
	Timeout int     `yaml:"timeout,omitempty"`    // per-request timeout in seconds
	Rate    float64 `yaml:"rate_limit,omitempty"` // requests per second
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "retitle"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

// StylePrefix and StyleSuffix are the two year placements.
const (
	StylePrefix = "prefix"
	StyleSuffix = "suffix"
)

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		Style:        StylePrefix,
		MaxLen:       140,
		Pages:        2,
		Workers:      4,
		UnmatchedDir: "_unmatched",
		Crossref: Crossref{
			Enabled: true,
			Timeout: 20,
			Rate:    5,
		},
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Path returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/retitle/config.yml.
func Path() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// Load reads the global configuration file over the defaults.
// A missing file is not an error: defaults come back unchanged.
func Load() (Settings, error) {
	cfg := Default()

	path := Path()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	// Keys absent from the file keep their default values.
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes the settings to the global config file, creating the
// directory if needed.
func (s Settings) Save() error {
	path := Path()
	if path == "" {
		return fmt.Errorf("cannot determine config path")
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate checks every field that has a constrained domain.
func (s Settings) Validate() error {
	if err := ValidateStyle(s.Style); err != nil {
		return err
	}
	if s.MaxLen < MinMaxLen {
		return fmt.Errorf("maxlen must be at least %d, got %d", MinMaxLen, s.MaxLen)
	}
	if s.Pages < 1 {
		return fmt.Errorf("pages must be at least 1, got %d", s.Pages)
	}
	if s.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", s.Workers)
	}
	if s.UnmatchedDir == "" || strings.ContainsAny(s.UnmatchedDir, `/\`) {
		return fmt.Errorf("unmatched_dir must be a bare directory name, got %q", s.UnmatchedDir)
	}
	if s.Crossref.Timeout < 1 {
		return fmt.Errorf("crossref timeout must be at least 1 second, got %d", s.Crossref.Timeout)
	}
	if s.Crossref.Rate <= 0 {
		return fmt.Errorf("crossref rate_limit must be positive, got %v", s.Crossref.Rate)
	}
	return nil
}

// MinMaxLen is the smallest usable filename bound: room for a short
// title, a year segment, a collision marker, and the .pdf extension.
const MinMaxLen = 20

// ValidateStyle checks that the style value is valid.
func ValidateStyle(style string) error {
	switch style {
	case StylePrefix, StyleSuffix:
		return nil
	default:
		return fmt.Errorf("invalid style: %q (valid: %s, %s)", style, StylePrefix, StyleSuffix)
	}
}

// Keys lists the keys accepted by Get and Set, in display order.
func Keys() []string {
	return []string{
		"style", "maxlen", "pages", "workers", "unmatched-dir",
		"crossref", "mailto", "timeout", "rate-limit",
		"log-level", "log-format",
	}
}

// Get returns the printable value for a config key.
func (s Settings) Get(key string) (string, error) {
	switch NormalizeKey(key) {
	case "style":
		return s.Style, nil
	case "maxlen":
		return strconv.Itoa(s.MaxLen), nil
	case "pages":
		return strconv.Itoa(s.Pages), nil
	case "workers":
		return strconv.Itoa(s.Workers), nil
	case "unmatched-dir":
		return s.UnmatchedDir, nil
	case "crossref":
		return strconv.FormatBool(s.Crossref.Enabled), nil
	case "mailto":
		return s.Crossref.Mailto, nil
	case "timeout":
		return strconv.Itoa(s.Crossref.Timeout), nil
	case "rate-limit":
		return strconv.FormatFloat(s.Crossref.Rate, 'g', -1, 64), nil
	case "log-level":
		return s.LogLevel, nil
	case "log-format":
		return s.LogFormat, nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// Set parses and validates a value for a config key.
func (s *Settings) Set(key, value string) error {
	switch NormalizeKey(key) {
	case "style":
		if err := ValidateStyle(value); err != nil {
			return err
		}
		s.Style = value
	case "maxlen":
		n, err := parsePositiveInt(key, value)
		if err != nil {
			return err
		}
		if n < MinMaxLen {
			return fmt.Errorf("maxlen must be at least %d, got %d", MinMaxLen, n)
		}
		s.MaxLen = n
	case "pages":
		n, err := parsePositiveInt(key, value)
		if err != nil {
			return err
		}
		s.Pages = n
	case "workers":
		n, err := parsePositiveInt(key, value)
		if err != nil {
			return err
		}
		s.Workers = n
	case "unmatched-dir":
		if value == "" || strings.ContainsAny(value, `/\`) {
			return fmt.Errorf("unmatched-dir must be a bare directory name, got %q", value)
		}
		s.UnmatchedDir = value
	case "crossref":
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("crossref expects true or false, got %q", value)
		}
		s.Crossref.Enabled = enabled
	case "mailto":
		s.Crossref.Mailto = value
	case "timeout":
		n, err := parsePositiveInt(key, value)
		if err != nil {
			return err
		}
		s.Crossref.Timeout = n
	case "rate-limit":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("rate-limit expects a positive number, got %q", value)
		}
		s.Crossref.Rate = f
	case "log-level":
		s.LogLevel = value
	case "log-format":
		switch value {
		case "text", "json":
			s.LogFormat = value
		default:
			return fmt.Errorf("invalid log-format: %q (valid: text, json)", value)
		}
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

// NormalizeKey converts key formats (unmatched_dir, unmatched-dir) to a
// consistent format.
func NormalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	key = strings.ReplaceAll(key, "_", "-")
	return key
}

func parsePositiveInt(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s expects a positive integer, got %q", key, value)
	}
	return n, nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}
