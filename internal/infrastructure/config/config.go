package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all engine configuration.
type Config struct {
	Storage StorageConfig `toml:"storage"`
	Editor  EditorConfig  `toml:"editor"`
	Window  WindowConfig  `toml:"window"`
	Tree    TreeConfig    `toml:"tree"`
	Logging LogConfig     `toml:"logging"`
}

// StorageConfig controls where session records live.
type StorageConfig struct {
	// Dir holds the record files. Empty means the user's home directory.
	Dir string `envconfig:"FLICK_CONFIG_DIR" toml:"dir"`
	// ExpansionSaveRPS bounds how often the tree expansion record is
	// rewritten while the user expands and collapses directories.
	ExpansionSaveRPS float64 `envconfig:"FLICK_EXPANSION_SAVE_RPS" toml:"expansion_save_rps"`
	// After FailureThreshold consecutive write failures, record writes are
	// skipped for CooldownMS before one is retried.
	FailureThreshold int `envconfig:"FLICK_STORAGE_FAILURE_THRESHOLD" toml:"failure_threshold"`
	CooldownMS       int `envconfig:"FLICK_STORAGE_COOLDOWN_MS" toml:"cooldown_ms"`
}

// EditorConfig holds buffer and preference defaults.
type EditorConfig struct {
	LargeFileBytes int64  `envconfig:"FLICK_LARGE_FILE_BYTES" toml:"large_file_bytes"`
	FontSize       int    `envconfig:"FLICK_FONT_SIZE" toml:"font_size"`
	MinFontSize    int    `envconfig:"FLICK_MIN_FONT_SIZE" toml:"min_font_size"`
	Theme          string `envconfig:"FLICK_THEME" toml:"theme"`
}

// WindowConfig holds geometry clamping and persistence settings.
type WindowConfig struct {
	ScreenWidth  int `envconfig:"FLICK_SCREEN_WIDTH" toml:"screen_width"`
	ScreenHeight int `envconfig:"FLICK_SCREEN_HEIGHT" toml:"screen_height"`
	MinWidth     int `envconfig:"FLICK_MIN_WIDTH" toml:"min_width"`
	MinHeight    int `envconfig:"FLICK_MIN_HEIGHT" toml:"min_height"`
	// SaveEvery persists geometry on every Nth move/resize event.
	SaveEvery int `envconfig:"FLICK_GEOMETRY_SAVE_EVERY" toml:"save_every"`
}

// TreeConfig holds file tree settings.
type TreeConfig struct {
	IgnoreFile      string `envconfig:"FLICK_IGNORE_FILE" toml:"ignore_file"`
	Watch           bool   `envconfig:"FLICK_WATCH" toml:"watch"`
	WatchDebounceMS int    `envconfig:"FLICK_WATCH_DEBOUNCE_MS" toml:"watch_debounce_ms"`
	DefaultWidth    int    `envconfig:"FLICK_TREE_WIDTH" toml:"default_width"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" toml:"development"`
}

// Load loads configuration from environment variables on top of Default.
// Unset variables keep their default value.
func Load() (*Config, error) {
	cfg := Default()
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile layers a TOML file between the defaults and the environment.
// A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			ExpansionSaveRPS: 2,
			FailureThreshold: 5,
			CooldownMS:       30000,
		},
		Editor: EditorConfig{
			LargeFileBytes: 512 * 1024,
			FontSize:       14,
			MinFontSize:    4,
			Theme:          "dark",
		},
		Window: WindowConfig{
			ScreenWidth:  1920,
			ScreenHeight: 1080,
			MinWidth:     800,
			MinHeight:    600,
			SaveEvery:    10,
		},
		Tree: TreeConfig{
			IgnoreFile:      ".flickignore",
			WatchDebounceMS: 200,
			DefaultWidth:    200,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
	}
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Editor.LargeFileBytes <= 0:
		return fmt.Errorf("invalid config: large file threshold must be positive, got %d", c.Editor.LargeFileBytes)
	case c.Editor.MinFontSize < 1:
		return fmt.Errorf("invalid config: min font size must be at least 1, got %d", c.Editor.MinFontSize)
	case c.Editor.FontSize < c.Editor.MinFontSize:
		return fmt.Errorf("invalid config: font size %d below minimum %d", c.Editor.FontSize, c.Editor.MinFontSize)
	case c.Editor.Theme != "dark" && c.Editor.Theme != "light":
		return fmt.Errorf("invalid config: unknown theme %q", c.Editor.Theme)
	case c.Window.SaveEvery < 1:
		return fmt.Errorf("invalid config: geometry save interval must be at least 1, got %d", c.Window.SaveEvery)
	case c.Window.MinWidth < 0 || c.Window.MinHeight < 0:
		return fmt.Errorf("invalid config: negative minimum window size")
	case c.Storage.ExpansionSaveRPS <= 0:
		return fmt.Errorf("invalid config: expansion save rate must be positive")
	case c.Storage.FailureThreshold < 1:
		return fmt.Errorf("invalid config: storage failure threshold must be at least 1, got %d", c.Storage.FailureThreshold)
	case c.Storage.CooldownMS < 0:
		return fmt.Errorf("invalid config: negative storage cooldown")
	}
	return nil
}

// Path returns the record directory, resolving the home directory when Dir
// is unset.
func (s StorageConfig) Path() (string, error) {
	if s.Dir != "" {
		return s.Dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return home, nil
}

// Cooldown returns how long failing record writes are suspended.
func (s StorageConfig) Cooldown() time.Duration {
	return time.Duration(s.CooldownMS) * time.Millisecond
}

// WatchDebounce returns the watcher debounce interval.
func (t TreeConfig) WatchDebounce() time.Duration {
	return time.Duration(t.WatchDebounceMS) * time.Millisecond
}
