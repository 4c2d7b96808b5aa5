package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/hex"
    "encoding/json"
    "log"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/presenter-booking/internal/config"
)

// cachedResponse is what the cache stores per key.
type cachedResponse struct {
    Status int         `json:"s"`
    Header http.Header `json:"h"`
    Body   []byte      `json:"b"`
}

// teeWriter copies the body into buf while writing it through.  Bodies
// larger than limit are not kept.
type teeWriter struct {
    http.ResponseWriter
    status int
    buf    bytes.Buffer
    limit  int
    over   bool
}

func (w *teeWriter) WriteHeader(code int) {
    w.status = code
    w.ResponseWriter.WriteHeader(code)
}

func (w *teeWriter) Write(b []byte) (int, error) {
    if !w.over {
        if w.limit > 0 && w.buf.Len()+len(b) > w.limit {
            w.over = true
            w.buf.Reset()
        } else {
            w.buf.Write(b)
        }
    }
    return w.ResponseWriter.Write(b)
}

func cacheKeyFrom(cfg config.CacheConfig, c echo.Context) string {
    r := c.Request()
    var parts []string
    switch strings.ToLower(cfg.KeyStrategy) {
    case "route":
        parts = []string{c.Path()}
    case "method_route_query":
        parts = []string{r.Method, r.URL.Path, r.URL.RawQuery}
    default:
        parts = []string{r.URL.Path, r.URL.RawQuery}
    }
    sum := sha1.Sum([]byte(strings.Join(parts, "?")))
    return cfg.Prefix + ":" + hex.EncodeToString(sum[:])
}

// NewRedisCache caches 200 responses of anonymous requests.  Requests with
// an Authorization header skip the cache since their bodies depend on the
// caller.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return passThrough
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            req := c.Request()
            if !cfg.Methods[strings.ToUpper(req.Method)] || req.Header.Get(echo.HeaderAuthorization) != "" {
                return next(c)
            }
            ctx := req.Context()
            key := cacheKeyFrom(cfg, c)
            res := c.Response()

            if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
                var hit cachedResponse
                if json.Unmarshal(bs, &hit) == nil {
                    for k, vals := range hit.Header {
                        if k != echo.HeaderContentLength {
                            res.Header()[k] = vals
                        }
                    }
                    res.Header().Set("X-Cache", "HIT")
                    res.WriteHeader(hit.Status)
                    _, err := res.Write(hit.Body)
                    return err
                }
            }

            tee := &teeWriter{ResponseWriter: res.Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
            res.Writer = tee
            res.Header().Set("X-Cache", "MISS")
            if err := next(c); err != nil {
                return err
            }
            if tee.status != http.StatusOK || tee.over {
                return nil
            }
            hdr := res.Header().Clone()
            hdr.Del("X-Cache")
            if bs, err := json.Marshal(cachedResponse{Status: tee.status, Header: hdr, Body: tee.buf.Bytes()}); err == nil {
                _ = rdb.Set(context.WithoutCancel(ctx), key, bs, cfg.TTL).Err()
            }
            return nil
        }
    }
}

// PurgeCacheOnWrite drops every cached response after a successful write
// request, so admin edits show up on the public pages immediately.
func PurgeCacheOnWrite(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return passThrough
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            err := next(c)
            if c.Request().Method == http.MethodGet || err != nil || c.Response().Status >= http.StatusBadRequest {
                return err
            }
            ctx := context.WithoutCancel(c.Request().Context())
            iter := rdb.Scan(ctx, 0, cfg.Prefix+":*", 100).Iterator()
            var keys []string
            for iter.Next(ctx) {
                keys = append(keys, iter.Val())
            }
            if len(keys) > 0 {
                if derr := rdb.Del(ctx, keys...).Err(); derr != nil {
                    log.Printf("cache: purge failed: %v", derr)
                }
            }
            return err
        }
    }
}
