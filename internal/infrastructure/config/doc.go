// Package config provides 12-factor configuration for the Flick engine.
//
// Values are layered: Default, then an optional TOML file, then
// environment variables. Unset variables never clobber earlier layers.
//
// Configuration Sections:
//   - Storage: record directory and expansion save rate
//   - Editor: large-file threshold, font size floor and default, theme
//   - Window: screen bounds used for clamping, minimum size, save interval
//   - Tree: ignore file name, directory watcher
//   - Logging: log level and output format
//
// Example Usage:
//
//	cfg, err := config.LoadFile(filepath.Join(home, ".config", "flick.toml"))
//	if err != nil {
//		cfg = config.Default()
//	}
//
// Environment Variables:
//   - FLICK_CONFIG_DIR, FLICK_EXPANSION_SAVE_RPS
//   - FLICK_LARGE_FILE_BYTES, FLICK_FONT_SIZE, FLICK_MIN_FONT_SIZE, FLICK_THEME
//   - FLICK_SCREEN_WIDTH, FLICK_SCREEN_HEIGHT, FLICK_MIN_WIDTH, FLICK_MIN_HEIGHT
//   - FLICK_GEOMETRY_SAVE_EVERY
//   - FLICK_IGNORE_FILE, FLICK_WATCH, FLICK_WATCH_DEBOUNCE_MS, FLICK_TREE_WIDTH
//   - LOG_LEVEL, LOG_DEV
package config
