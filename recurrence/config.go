package recurrence

import "time"

// EngineConfig holds configuration options for the recurrence engine.
type EngineConfig struct {
	// Cache configuration
	CacheEnabled bool
	CacheConfig  CacheConfig

	// MaxOccurrences caps how many occurrences a single Generate call may
	// return, as a safety net against runaway schedules.
	MaxOccurrences int
}

// DefaultEngineConfig provides sensible defaults for production use.
var DefaultEngineConfig = EngineConfig{
	CacheEnabled:   true,
	CacheConfig:    DefaultCacheConfig,
	MaxOccurrences: 1000,
}

// LowMemoryConfig is tuned for memory-constrained environments.
var LowMemoryConfig = EngineConfig{
	CacheEnabled: true,
	CacheConfig: CacheConfig{
		TTL:             5 * time.Minute,
		MaxEntries:      100,
		CleanupInterval: 2 * time.Minute,
	},
	MaxOccurrences: 500,
}

// DisabledCacheConfig turns off caching entirely.
var DisabledCacheConfig = EngineConfig{
	CacheEnabled:   false,
	CacheConfig:    CacheConfig{}, // Not used
	MaxOccurrences: 1000,
}

// NewEngineWithConfig creates a new recurrence engine with custom configuration.
func NewEngineWithConfig(config EngineConfig) *Engine {
	var cache *OccurrenceCache
	if config.CacheEnabled {
		cache = NewOccurrenceCache(config.CacheConfig)
	}

	return &Engine{
		cache:  cache,
		config: config,
	}
}
