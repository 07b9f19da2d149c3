package middleware

import (
    "math"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/photo-share-backend/internal/config"
)

// tokenBucketScript refills and drains a per-key bucket atomically.  State is
// a Redis hash {tokens, last_refill_ms}; the reply is {allowed, remaining,
// retry_after_ms}.
var tokenBucketScript = redis.NewScript(`
    local key = KEYS[1]
    local now_ms = tonumber(ARGV[1])
    local burst = tonumber(ARGV[2])
    local refill = tonumber(ARGV[3])
    local interval_ms = tonumber(ARGV[4])
    local ttl_s = tonumber(ARGV[5])

    local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
    local tokens = tonumber(state[1])
    local last = tonumber(state[2])
    if tokens == nil or last == nil then
        tokens = burst
        last = now_ms
    end

    local intervals = math.floor(math.max(0, now_ms - last) / interval_ms)
    if intervals > 0 then
        tokens = math.min(burst, tokens + intervals * refill)
        last = last + intervals * interval_ms
    end

    local allowed = 0
    local retry_ms = 0
    if tokens > 0 then
        allowed = 1
        tokens = tokens - 1
    else
        retry_ms = math.max(0, interval_ms - (now_ms - last))
    end

    redis.call('HMSET', key, 'tokens', tokens, 'last_refill_ms', last)
    redis.call('EXPIRE', key, ttl_s)
    return { allowed, tokens, retry_ms }
`)

// NewTokenBucket rate-limits the credential endpoints.  Buckets are keyed by
// client IP and route; the endpoints it guards run before authentication so
// there is no account to key on.  On a Redis error or a nil client the
// request passes through: throttling is protection, not a gate.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc {
            return func(c echo.Context) error { return next(c) }
        }
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            ip := c.RealIP()
            if ip == "" {
                ip = "unknown"
            }
            key := cfg.Prefix + ":" + ip + ":" + c.Request().Method + " " + c.Path()

            args := []interface{}{
                time.Now().UnixMilli(),
                cfg.Burst,
                cfg.RefillTokens,
                cfg.RefillInterval.Milliseconds(),
                int64(cfg.TTL / time.Second),
            }
            vals, err := tokenBucketScript.Run(c.Request().Context(), rdb, []string{key}, args...).Int64Slice()
            if err != nil || len(vals) != 3 {
                if cfg.Debug {
                    c.Logger().Warnf("[ratelimit] key=%s bypassed: %v", key, err)
                }
                return next(c)
            }
            allowed, remaining, retryMs := vals[0] == 1, vals[1], vals[2]

            c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Burst))
            c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
            if !allowed {
                secs := int(math.Ceil(float64(retryMs) / 1000.0))
                c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
                return c.JSON(http.StatusTooManyRequests, echo.Map{
                    "error":       "too many requests",
                    "retry_after": secs,
                })
            }
            return next(c)
        }
    }
}
