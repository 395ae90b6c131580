// Package config loads devloop configuration from file and environment.
//
// Precedence (highest to lowest):
//  1. Environment variables (DEVLOOP_*, plus the standard OTEL_EXPORTER_OTLP_*)
//  2. Config file
//  3. Built-in defaults
//
// Config file search order:
//  1. .devloop.yaml in current directory
//  2. ~/.config/devloop/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/timvw/devloop/internal/artifact"
	"github.com/timvw/devloop/internal/events"
	"github.com/timvw/devloop/internal/keybind"
	"github.com/timvw/devloop/internal/model"
)

// Config holds all devloop configuration.
type Config struct {
	// Build loop
	ReloadShortcut    string `yaml:"reload_shortcut"`
	BuildCommand      string `yaml:"build_command"`
	OutputDir         string `yaml:"output_dir"`
	ArtifactExtension string `yaml:"artifact_extension"`
	FilepickerURL     string `yaml:"filepicker_url"`

	// Host transport
	Listen string `yaml:"listen"` // unixgram socket for notifications
	Emit   string `yaml:"emit"`   // "-", a file path, or unix:/path

	// Rebuild on save
	Watch         bool   `yaml:"watch"`
	WatchDebounce string `yaml:"watch_debounce"` // Go duration string, e.g. "500ms"

	LogLevel string `yaml:"log_level"`

	// OTEL
	OTELEndpoint string `yaml:"otel_endpoint"`
	OTELHeaders  string `yaml:"otel_headers"` // Comma-separated key=value pairs

	// Parsed values (not from YAML, set after loading)
	Shortcut              keybind.Key        `yaml:"-"`
	Command               model.CommandToRun `yaml:"-"`
	WatchDebounceDuration time.Duration      `yaml:"-"`
	Level                 zapcore.Level      `yaml:"-"`

	// ConfigFile is the path to the config file that was loaded (empty if none).
	ConfigFile string `yaml:"-"`

	// Warnings lists settings that were ignored in favor of their default.
	Warnings []string `yaml:"-"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		ReloadShortcut:    keybind.Default.String(),
		BuildCommand:      "cargo build",
		OutputDir:         artifact.DefaultOutputDir,
		ArtifactExtension: artifact.DefaultExtension,
		FilepickerURL:     "filepicker",
		Listen:            events.DefaultSocketPath(),
		Emit:              "-",
		WatchDebounce:     "500ms",
		LogLevel:          "info",
	}
}

// Layout returns the artifact layout configured by OutputDir and
// ArtifactExtension.
func (c *Config) Layout() artifact.Layout {
	return artifact.Layout{OutputDir: c.OutputDir, Extension: c.ArtifactExtension}
}

// Load reads configuration from file and environment variables.
// Environment variables always override file values.
func Load() (*Config, error) {
	cfg := Defaults()

	if path, data, err := findConfigFile(); err == nil {
		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
		cfg.ConfigFile = path
		mergeFile(cfg, &fileCfg)
	}

	mergeEnv(cfg)

	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolve parses the string settings into their typed forms.
func (c *Config) resolve() error {
	var err error
	c.Shortcut, err = keybind.Parse(c.ReloadShortcut)
	if err != nil {
		c.Warnings = append(c.Warnings, fmt.Sprintf("ignoring reload shortcut %q: %v", c.ReloadShortcut, err))
		c.Shortcut = keybind.Default
		c.ReloadShortcut = keybind.Default.String()
	}
	c.Command, err = model.ParseCommand(c.BuildCommand)
	if err != nil {
		return fmt.Errorf("invalid build command %q: %w", c.BuildCommand, err)
	}
	c.WatchDebounceDuration, err = parseDuration(c.WatchDebounce, 500*time.Millisecond)
	if err != nil {
		return fmt.Errorf("invalid watch debounce %q: %w", c.WatchDebounce, err)
	}
	c.Level, err = zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return nil
}

// findConfigFile searches for a config file and returns its path and contents.
func findConfigFile() (string, []byte, error) {
	// 1. Current directory
	if data, err := os.ReadFile(".devloop.yaml"); err == nil {
		return ".devloop.yaml", data, nil
	}

	// 2. ~/.config
	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, ".config", "devloop", "config.yaml")
		if data, err := os.ReadFile(path); err == nil {
			return path, data, nil
		}
	}

	return "", nil, fmt.Errorf("no config file found")
}

// mergeFile applies non-zero file values onto cfg.
func mergeFile(cfg *Config, file *Config) {
	if file.ReloadShortcut != "" {
		cfg.ReloadShortcut = file.ReloadShortcut
	}
	if file.BuildCommand != "" {
		cfg.BuildCommand = file.BuildCommand
	}
	if file.OutputDir != "" {
		cfg.OutputDir = file.OutputDir
	}
	if file.ArtifactExtension != "" {
		cfg.ArtifactExtension = file.ArtifactExtension
	}
	if file.FilepickerURL != "" {
		cfg.FilepickerURL = file.FilepickerURL
	}
	if file.Listen != "" {
		cfg.Listen = file.Listen
	}
	if file.Emit != "" {
		cfg.Emit = file.Emit
	}
	if file.Watch {
		cfg.Watch = file.Watch
	}
	if file.WatchDebounce != "" {
		cfg.WatchDebounce = file.WatchDebounce
	}
	if file.LogLevel != "" {
		cfg.LogLevel = file.LogLevel
	}
	if file.OTELEndpoint != "" {
		cfg.OTELEndpoint = file.OTELEndpoint
	}
	if file.OTELHeaders != "" {
		cfg.OTELHeaders = file.OTELHeaders
	}
}

// mergeEnv applies environment variables onto cfg. Env always wins.
func mergeEnv(cfg *Config) {
	if v := os.Getenv("DEVLOOP_RELOAD_SHORTCUT"); v != "" {
		cfg.ReloadShortcut = v
	}
	if v := os.Getenv("DEVLOOP_BUILD_COMMAND"); v != "" {
		cfg.BuildCommand = v
	}
	if v := os.Getenv("DEVLOOP_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("DEVLOOP_ARTIFACT_EXTENSION"); v != "" {
		cfg.ArtifactExtension = v
	}
	if v := os.Getenv("DEVLOOP_FILEPICKER_URL"); v != "" {
		cfg.FilepickerURL = v
	}
	if v := os.Getenv("DEVLOOP_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("DEVLOOP_EMIT"); v != "" {
		cfg.Emit = v
	}
	switch os.Getenv("DEVLOOP_WATCH") {
	case "true", "1":
		cfg.Watch = true
	case "false", "0":
		cfg.Watch = false
	}
	if v := os.Getenv("DEVLOOP_WATCH_DEBOUNCE"); v != "" {
		cfg.WatchDebounce = v
	}
	if v := os.Getenv("DEVLOOP_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("DEVLOOP_OTEL_ENDPOINT"); v != "" {
		cfg.OTELEndpoint = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.OTELEndpoint = v
	}
	if v := os.Getenv("DEVLOOP_OTEL_HEADERS"); v != "" {
		cfg.OTELHeaders = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"); v != "" {
		cfg.OTELHeaders = v
	}
}

// parseDuration parses a positive duration string. Empty string returns the
// fallback value.
func parseDuration(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive")
	}
	return d, nil
}
