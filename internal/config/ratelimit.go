package config

import (
    "os"
    "strconv"
    "time"
)

// RateLimitConfig tunes the Redis token bucket guarding the signup and login
// routes.  These endpoints run before any authentication, so buckets are
// keyed by client IP and route.
type RateLimitConfig struct {
    Enabled        bool
    Burst          int           // bucket capacity
    RefillTokens   int           // tokens added per interval
    RefillInterval time.Duration // interval between refills
    TTL            time.Duration // idle bucket expiry in Redis
    Prefix         string        // Redis key prefix
    Debug          bool
}

// LoadRateLimitConfig reads the rate limit tunables from the environment.
// The defaults allow a burst of 3 attempts refilled every minute.
func LoadRateLimitConfig() RateLimitConfig {
    cfg := RateLimitConfig{
        Enabled:        envBool("RATE_LIMIT_ENABLED", true),
        Burst:          envInt("RATE_LIMIT_BURST", 3),
        RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 3),
        RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Minute),
        TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
        Prefix:         envStr("RATE_LIMIT_PREFIX", "rl"),
        Debug:          envBool("RATE_LIMIT_DEBUG", false),
    }
    if cfg.Burst < 1 {
        cfg.Burst = 1
    }
    if cfg.RefillTokens < 1 {
        cfg.RefillTokens = 1
    }
    if cfg.RefillInterval <= 0 {
        cfg.RefillInterval = time.Minute
    }
    // The bucket key must outlive a few refill cycles or idle buckets reset
    // early and the burst becomes renewable.
    if min := 5 * cfg.RefillInterval; cfg.TTL < min {
        cfg.TTL = min
    }
    return cfg
}

func envStr(k, d string) string {
    if v := os.Getenv(k); v != "" {
        return v
    }
    return d
}

func envBool(k string, d bool) bool {
    switch os.Getenv(k) {
    case "1", "true", "TRUE", "True", "yes", "on":
        return true
    case "0", "false", "FALSE", "False", "no", "off":
        return false
    }
    return d
}

func envInt(k string, d int) int {
    if v := os.Getenv(k); v != "" {
        if n, err := strconv.Atoi(v); err == nil {
            return n
        }
    }
    return d
}

func envDur(k string, d time.Duration) time.Duration {
    if v := os.Getenv(k); v != "" {
        if dur, err := time.ParseDuration(v); err == nil {
            return dur
        }
    }
    return d
}
