// Package config provides configuration types and defaults for chime.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds all configuration options for chime.
type Config struct {
	// Manifest is the path to the sound manifest (sounds.yaml).
	Manifest string `mapstructure:"manifest"`

	// WatchManifest re-registers sounds when the manifest file changes.
	WatchManifest bool `mapstructure:"watch_manifest"`

	// LogFile enables file logging when set.
	LogFile string `mapstructure:"log_file"`

	Engine EngineConfig `mapstructure:"engine"`
	Speech SpeechConfig `mapstructure:"speech"`
}

// EngineConfig holds playback engine options.
type EngineConfig struct {
	SampleRate int           `mapstructure:"sample_rate"`
	BufferMs   int           `mapstructure:"buffer_ms"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`
}

// SpeechConfig holds speech synthesizer options.
type SpeechConfig struct {
	// Binary is the synthesizer executable (say, espeak, ...).
	// Auto-detected when empty.
	Binary string `mapstructure:"binary"`
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		WatchManifest: true,
		Engine: EngineConfig{
			SampleRate: 44100,
			BufferMs:   100,
			CacheTTL:   10 * time.Minute,
		},
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.Engine.SampleRate < 0 {
		return fmt.Errorf("engine.sample_rate must not be negative")
	}
	if c.Engine.BufferMs < 0 {
		return fmt.Errorf("engine.buffer_ms must not be negative")
	}
	if c.Engine.CacheTTL < 0 {
		return fmt.Errorf("engine.cache_ttl must not be negative")
	}
	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# Chime Configuration

# Sound manifest listing the assets to register at startup
# manifest: /path/to/sounds.yaml

# Re-register sounds when the manifest changes on disk
watch_manifest: true

# Write logs to a file (silent when unset; CHIME_LOG overrides)
# log_file: /tmp/chime.log

# Playback engine
engine:
  sample_rate: 44100   # device sample rate
  buffer_ms: 100       # speaker buffer length
  cache_ttl: 10m       # how long decoded assets stay cached

# Speech synthesis
speech:
  # Synthesizer executable; auto-detected from PATH when unset
  # (say on macOS, espeak/espeak-ng elsewhere)
  # binary: espeak
`
}

// WriteDefaultConfig creates a config file at the given path with default
// settings and comments. Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
