// Package config loads the library's tunables from YAML: how wide the
// materialization window reaches around the cursor month, and how the
// occurrence cache behaves. Host applications that configure everything in
// code can ignore this package and fill the structs directly.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/routina/routina/recurrence"
)

// WindowConfig controls how the planner derives the materialization window
// from the visible month.
type WindowConfig struct {
	// MonthsBefore is how many whole months before the cursor month the
	// window starts.
	MonthsBefore int `yaml:"months_before"`
	// MonthsAfter is how many whole months after the cursor month the
	// window ends.
	MonthsAfter int `yaml:"months_after"`
}

// CacheConfig mirrors the recurrence cache tunables in YAML-friendly form.
// Durations are whole seconds; yaml.v3 has no duration syntax.
type CacheConfig struct {
	Enabled        bool `yaml:"enabled"`
	TTLSeconds     int  `yaml:"ttl_seconds"`
	MaxEntries     int  `yaml:"max_entries"`
	CleanupSeconds int  `yaml:"cleanup_seconds"`
}

// Config is the top-level configuration.
type Config struct {
	Window WindowConfig `yaml:"window"`
	Cache  CacheConfig  `yaml:"cache"`
}

// Default returns the in-memory default configuration: the window spans
// from the start of the previous month through the end of the next one, the
// cache runs with the engine defaults.
func Default() *Config {
	return &Config{
		Window: WindowConfig{MonthsBefore: 1, MonthsAfter: 1},
		Cache: CacheConfig{
			Enabled:        true,
			TTLSeconds:     int(recurrence.DefaultCacheConfig.TTL / time.Second),
			MaxEntries:     recurrence.DefaultCacheConfig.MaxEntries,
			CleanupSeconds: int(recurrence.DefaultCacheConfig.CleanupInterval / time.Second),
		},
	}
}

// Normalize fills missing or nonsensical values with defaults so partially
// filled configs behave.
func (c *Config) Normalize() {
	if c.Window.MonthsBefore < 0 {
		c.Window.MonthsBefore = 0
	}
	if c.Window.MonthsAfter < 0 {
		c.Window.MonthsAfter = 0
	}
	if c.Cache.TTLSeconds <= 0 {
		c.Cache.TTLSeconds = int(recurrence.DefaultCacheConfig.TTL / time.Second)
	}
	if c.Cache.MaxEntries <= 0 {
		c.Cache.MaxEntries = recurrence.DefaultCacheConfig.MaxEntries
	}
	if c.Cache.CleanupSeconds <= 0 {
		c.Cache.CleanupSeconds = int(recurrence.DefaultCacheConfig.CleanupInterval / time.Second)
	}
}

// EngineConfig converts the configuration into the recurrence engine's form.
func (c *Config) EngineConfig() recurrence.EngineConfig {
	return recurrence.EngineConfig{
		CacheEnabled: c.Cache.Enabled,
		CacheConfig: recurrence.CacheConfig{
			TTL:             time.Duration(c.Cache.TTLSeconds) * time.Second,
			MaxEntries:      c.Cache.MaxEntries,
			CleanupInterval: time.Duration(c.Cache.CleanupSeconds) * time.Second,
		},
		MaxOccurrences: recurrence.DefaultEngineConfig.MaxOccurrences,
	}
}

// Load reads configuration from the given YAML path, normalizing defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Normalize()

	return &cfg, nil
}
