package config

import "time"

// CacheConfig defines settings for the response cache middleware that
// fronts the public number pages.  When Enabled is false or no Redis client
// is configured, caching is disabled.  TTL bounds how long an admin edit
// can stay invisible to guests.
type CacheConfig struct {
    Enabled      bool
    Methods      map[string]bool
    TTL          time.Duration
    KeyStrategy  string
    Prefix       string
    MaxBodyBytes int
}

// LoadCacheConfig reads the CACHE_* variables.
func LoadCacheConfig() CacheConfig {
    cfg := CacheConfig{
        Enabled:      envBool("CACHE_ENABLED", true),
        Methods:      envSet("CACHE_METHODS", "GET"),
        TTL:          envDur("CACHE_TTL", 30*time.Second),
        KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "route_query"),
        Prefix:       envStr("CACHE_PREFIX", "booking:cache"),
        MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
    }
    if cfg.TTL <= 0 {
        cfg.TTL = 30 * time.Second
    }
    return cfg
}
