package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// DefaultScanTimeoutSeconds is the per-root discovery timeout applied when
// no override is configured or the override does not parse.
const DefaultScanTimeoutSeconds = 6

// Settings represents the optional sessionizer settings file. The
// search-directory list lives in its own line-oriented file (see resolver.go);
// this covers everything else.
type Settings struct {
	Scan      ScanConfig      `mapstructure:"scan"`
	Templates TemplatesConfig `mapstructure:"templates"`
	Picker    PickerConfig    `mapstructure:"picker"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ScanConfig controls directory discovery.
type ScanConfig struct {
	// TimeoutSeconds is the per-root discovery timeout. Non-positive or
	// non-numeric values fall back to the default of 6.
	TimeoutSeconds string `mapstructure:"timeout_seconds"`
}

// TemplatesConfig controls layout template resolution.
type TemplatesConfig struct {
	// Dir is the templates directory. Empty means <configdir>/templates.
	Dir string `mapstructure:"dir"`
}

// PickerConfig holds values forwarded opaquely to the external picker.
// The core does not interpret them.
type PickerConfig struct {
	// Height is passed to fzf as --height (e.g. "40%").
	Height string `mapstructure:"height"`
	// Preview is passed to fzf as --preview when non-empty.
	Preview string `mapstructure:"preview"`
}

// LoggingConfig controls debug logging behavior.
type LoggingConfig struct {
	// Enabled controls whether debug logging is emitted at all.
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// File is an optional log file path. Empty logs to stderr.
	File string `mapstructure:"file"`
}

// DefaultSettings returns a Settings with sensible default values.
func DefaultSettings() *Settings {
	return &Settings{
		Scan: ScanConfig{
			TimeoutSeconds: strconv.Itoa(DefaultScanTimeoutSeconds),
		},
		Templates: TemplatesConfig{
			Dir: "",
		},
		Picker: PickerConfig{
			Height:  "40%",
			Preview: "",
		},
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "info",
			File:    "",
		},
	}
}

// ScanTimeout returns the per-root discovery timeout as a time.Duration.
// Falls back to the default when the configured value is non-numeric or
// non-positive.
func (s *ScanConfig) ScanTimeout() time.Duration {
	secs, err := strconv.Atoi(s.TimeoutSeconds)
	if err != nil || secs <= 0 {
		secs = DefaultScanTimeoutSeconds
	}
	return time.Duration(secs) * time.Second
}

// ResolveTemplatesDir returns the templates directory, defaulting to
// <configdir>/templates and expanding a leading tilde.
func (t *TemplatesConfig) ResolveTemplatesDir() string {
	if t.Dir == "" {
		return filepath.Join(ConfigDir(), "templates")
	}
	return expandTilde(t.Dir)
}

// SetDefaults registers default values and environment bindings with viper.
func SetDefaults() {
	defaults := DefaultSettings()

	viper.SetDefault("scan.timeout_seconds", defaults.Scan.TimeoutSeconds)
	viper.SetDefault("templates.dir", defaults.Templates.Dir)
	viper.SetDefault("picker.height", defaults.Picker.Height)
	viper.SetDefault("picker.preview", defaults.Picker.Preview)
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.file", defaults.Logging.File)

	// Spec-named environment variables map onto settings keys. These are
	// explicit bindings because their names predate the settings file.
	_ = viper.BindEnv("scan.timeout_seconds", "SESSIONIZER_SCAN_TIMEOUT")
	_ = viper.BindEnv("templates.dir", "SESSIONIZER_TEMPLATES_DIR")
	_ = viper.BindEnv("picker.height", "SESSIONIZER_FZF_HEIGHT")
	_ = viper.BindEnv("picker.preview", "SESSIONIZER_FZF_PREVIEW")
}

// LoadSettings reads the settings from viper into a Settings struct.
func LoadSettings() (*Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetSettings returns the current settings, falling back to defaults if
// unmarshaling fails.
func GetSettings() *Settings {
	s, err := LoadSettings()
	if err != nil {
		return DefaultSettings()
	}
	return s
}

// ConfigDir returns the path to the user's config directory.
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "sessionizer")
	}
	// Fall back to ~/.config/sessionizer
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sessionizer"
	}
	return filepath.Join(home, ".config", "sessionizer")
}

// SettingsFile returns the path to the yaml settings file.
func SettingsFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// ListFile returns the path to the line-oriented search-directory list.
func ListFile() string {
	return filepath.Join(ConfigDir(), "directories")
}
