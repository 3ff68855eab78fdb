package config

import "time"

// CacheConfig defines settings for the top-searches response cache.  When
// Enabled is false or no Redis client is configured, caching is disabled
// and every request hits the database aggregation.
type CacheConfig struct {
	Enabled bool          // master switch for the cache middleware
	TTL     time.Duration // lifetime of a cached response
	Prefix  string        // Redis key namespace
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
// Defaults are used when variables are not set.
func LoadCacheConfig() CacheConfig {
	cfg := CacheConfig{
		Enabled: envBool("CACHE_ENABLED", true),
		TTL:     envDur("CACHE_TTL", 30*time.Second),
		Prefix:  getenv("CACHE_PREFIX", "cache"),
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	return cfg
}
