package config

// Redis backs the rate limiter and the response cache.  Both degrade to
// pass-through when the client is nil, so a missing Redis never stops the
// server.

import (
    "context"
    "crypto/tls"
    "strings"
    "time"

    "github.com/redis/go-redis/v9"
)

// RedisConfig holds the REDIS_* settings.
type RedisConfig struct {
    Addr     string
    Password string
    DB       int
    TLS      bool
}

// LoadRedisConfig reads REDIS_HOST/REDIS_PORT (or the REDIS_ADDR
// shorthand), REDIS_PASSWORD, REDIS_DB and REDIS_TLS.
func LoadRedisConfig() RedisConfig {
    addr := envStr("REDIS_ADDR", "")
    host, port := envStr("REDIS_HOST", ""), envStr("REDIS_PORT", "")
    if host != "" && port != "" {
        addr = host + ":" + port
    }
    if addr == "" {
        addr = "localhost:6379"
    }
    return RedisConfig{
        Addr:     addr,
        Password: envStr("REDIS_PASSWORD", ""),
        DB:       envInt("REDIS_DB", 0),
        TLS:      envBool("REDIS_TLS", false),
    }
}

// NewRedisClient connects and pings with a short timeout.  It returns nil
// when the server cannot be reached.
func NewRedisClient(cfg RedisConfig) *redis.Client {
    opts := &redis.Options{
        Addr:     cfg.Addr,
        Password: cfg.Password,
        DB:       cfg.DB,
    }
    if cfg.TLS {
        opts.TLSConfig = &tls.Config{ServerName: strings.Split(cfg.Addr, ":")[0]}
    }
    client := redis.NewClient(opts)
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        _ = client.Close()
        return nil
    }
    return client
}
