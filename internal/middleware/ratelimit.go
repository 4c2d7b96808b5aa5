package middleware

import (
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/presenter-booking/internal/config"
)

// takeToken is a token bucket kept in one Redis hash per key.
//
//  KEYS[1]  bucket key
//  ARGV     now_ms, capacity, refill_tokens, interval_ms, ttl_s
//  returns  {allowed (0|1), tokens left, retry_after_ms}
var takeToken = redis.NewScript(`
local now, cap, step, every, ttl = tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4]), tonumber(ARGV[5])
local b = redis.call('HMGET', KEYS[1], 't', 'at')
local tokens, at = tonumber(b[1]) or cap, tonumber(b[2]) or now
local n = math.floor(math.max(0, now - at) / every)
if n > 0 then
  tokens = math.min(cap, tokens + n * step)
  at = at + n * every
end
local ok, wait = 0, 0
if tokens >= 1 then
  ok, tokens = 1, tokens - 1
else
  wait = every - (now - at)
end
redis.call('HSET', KEYS[1], 't', tokens, 'at', at)
redis.call('EXPIRE', KEYS[1], ttl)
return {ok, tokens, wait}
`)

// NewTokenBucket limits requests per key.  It is a no-op without Redis, and
// a Redis error lets the request through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return passThrough
    }
    limit := strconv.Itoa(cfg.Capacity)
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := buildRateKey(cfg, c)
            res, err := takeToken.Run(c.Request().Context(), rdb, []string{key},
                time.Now().UnixMilli(), cfg.Capacity, cfg.RefillTokens,
                cfg.RefillInterval.Milliseconds(), int64(cfg.TTL/time.Second),
            ).Int64Slice()
            if err != nil || len(res) != 3 {
                if cfg.Debug {
                    c.Logger().Warnf("ratelimit: key=%s result=%v err=%v", key, res, err)
                }
                return next(c)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", limit)
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(res[1], 10))
            if res[0] == 1 {
                return next(c)
            }
            retry := (res[2] + 999) / 1000
            h.Set("Retry-After", strconv.FormatInt(retry, 10))
            return c.JSON(http.StatusTooManyRequests, echo.Map{
                "error":       "too_many_requests",
                "retry_after": retry,
            })
        }
    }
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

// rateKeyParts lists the key components of each RATE_LIMIT_KEY_STRATEGY.
// Unknown strategies use all three.
var rateKeyParts = map[string][]string{
    "ip":         {"ip"},
    "user":       {"user"},
    "route":      {"route"},
    "ip_user":    {"ip", "user"},
    "ip_route":   {"ip", "route"},
    "user_route": {"user", "route"},
}

func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
    parts, ok := rateKeyParts[strings.ToLower(cfg.KeyStrategy)]
    if !ok {
        parts = []string{"ip", "user", "route"}
    }
    key := []string{cfg.Prefix}
    for _, p := range parts {
        var v string
        switch p {
        case "ip":
            if v = c.RealIP(); v == "" {
                v = "unknown"
            }
        case "user":
            v = subject(c)
        case "route":
            v = c.Request().Method + " " + c.Path()
        }
        key = append(key, p, v)
    }
    return strings.Join(key, ":")
}
