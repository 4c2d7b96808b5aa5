package config

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
)

func TestLoadMemoryDriverNeedsNoDatabase(t *testing.T) {
    t.Setenv("STORE_DRIVER", "memory")
    t.Setenv("JWT_SECRET", "s3cret")
    t.Setenv("LOCKOUT_DURATION", "90s")
    t.Setenv("REFRESH_TOKEN_TTL_DAYS", "2")

    cfg := Load()
    assert.Equal(t, DriverMemory, cfg.StoreDriver)
    assert.Equal(t, "8080", cfg.Port)
    assert.Equal(t, 90*time.Second, cfg.LockoutDuration)
    assert.Equal(t, 48*time.Hour, cfg.RefreshTTL())
    assert.Equal(t, 5, cfg.LockoutMax)
    assert.Empty(t, cfg.DBHost)
}

func TestRateLimitClamps(t *testing.T) {
    t.Setenv("RATE_LIMIT_CAPACITY", "0")
    t.Setenv("RATE_LIMIT_REFILL_EVERY", "1m")
    t.Setenv("RATE_LIMIT_TTL", "1s")

    cfg := LoadRateLimitConfig()
    assert.Equal(t, 1, cfg.Capacity)
    assert.Equal(t, 1, cfg.RefillTokens)
    assert.Equal(t, time.Minute, cfg.RefillInterval)
    assert.Equal(t, 5*time.Minute, cfg.TTL)
}

func TestCacheAndRedisDefaults(t *testing.T) {
    t.Setenv("CACHE_METHODS", "get, head")
    t.Setenv("REDIS_HOST", "cache")
    t.Setenv("REDIS_PORT", "6380")
    t.Setenv("REDIS_DB", "x")

    c := LoadCacheConfig()
    assert.True(t, c.Methods["GET"])
    assert.True(t, c.Methods["HEAD"])
    assert.Equal(t, 30*time.Second, c.TTL)

    r := LoadRedisConfig()
    assert.Equal(t, "cache:6380", r.Addr)
    assert.Equal(t, 0, r.DB)
}
