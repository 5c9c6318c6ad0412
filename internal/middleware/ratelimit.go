package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/iliyamo/stock-inventory/internal/config"
	"github.com/iliyamo/stock-inventory/internal/logging"
)

const msgTooManyRequests = "Demasiadas solicitudes. Intente de nuevo más tarde."

// tokenBucketScript refills a per-key bucket and takes one token.  Returns
// {allowed, remaining, retry_after_ms}.
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local now_ms = tonumber(ARGV[1])
	local capacity = tonumber(ARGV[2])
	local refill_tokens = tonumber(ARGV[3])
	local interval_ms = tonumber(ARGV[4])
	local ttl_seconds = tonumber(ARGV[5])

	local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
	local tokens = tonumber(state[1])
	local last_refill = tonumber(state[2])

	if tokens == nil or last_refill == nil then
		tokens = capacity
		last_refill = now_ms
	end

	if interval_ms > 0 and refill_tokens > 0 then
		local elapsed = math.max(0, now_ms - last_refill)
		local intervals = math.floor(elapsed / interval_ms)
		if intervals > 0 then
			tokens = math.min(capacity, tokens + (intervals * refill_tokens))
			last_refill = last_refill + (intervals * interval_ms)
		end
	end

	local allowed = 0
	local retry_after_ms = 0
	if tokens > 0 then
		allowed = 1
		tokens = tokens - 1
	else
		local until_next = interval_ms - (now_ms - last_refill)
		if until_next < 0 then until_next = 0 end
		retry_after_ms = until_next
	end

	redis.call('HMSET', key, 'tokens', tokens, 'last_refill_ms', last_refill, 'capacity', capacity)
	redis.call('EXPIRE', key, ttl_seconds)

	return { allowed, tokens, retry_after_ms }
`)

// NewRateLimiter guards the session endpoints.  With Redis it runs the
// shared token bucket above; without Redis, or when the script fails, an
// in-process ulule limiter at fallbackRate (e.g. "10-M") takes over.
func NewRateLimiter(cfg config.RateLimitConfig, rdb *redis.Client, fallbackRate string) (echo.MiddlewareFunc, error) {
	if !cfg.Enabled {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }, nil
	}
	rate, err := limiter.NewRateFromFormatted(fallbackRate)
	if err != nil {
		return nil, fmt.Errorf("invalid fallback rate %q: %w", fallbackRate, err)
	}
	local := limiter.New(memory.NewStore(), rate)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := buildRateKey(cfg, c)
			if cfg.Debug {
				c.Response().Header().Set("X-RateLimit-Key", key)
			}
			if rdb != nil {
				res, err := takeToken(c, rdb, cfg, key)
				if err == nil {
					return res.apply(c, next)
				}
				logging.FromContext(c).Warn("rate limit: redis unavailable, using local limiter", "key", key, "err", err)
			}

			lc, err := local.Get(c.Request().Context(), key)
			if err != nil {
				logging.FromContext(c).Error("rate limit: local limiter failed", "key", key, "err", err)
				return next(c)
			}
			return bucketResult{
				allowed:   !lc.Reached,
				limit:     lc.Limit,
				remaining: lc.Remaining,
				retry:     time.Until(time.Unix(lc.Reset, 0)),
			}.apply(c, next)
		}
	}, nil
}

type bucketResult struct {
	allowed   bool
	limit     int64
	remaining int64
	retry     time.Duration
}

func (r bucketResult) apply(c echo.Context, next echo.HandlerFunc) error {
	h := c.Response().Header()
	h.Set("X-RateLimit-Limit", strconv.FormatInt(r.limit, 10))
	h.Set("X-RateLimit-Remaining", strconv.FormatInt(r.remaining, 10))
	if r.allowed {
		return next(c)
	}
	secs := int(math.Ceil(r.retry.Seconds()))
	if secs < 0 {
		secs = 0
	}
	h.Set("Retry-After", strconv.Itoa(secs))
	logging.FromContext(c).Warn("rate limit exceeded", "ip", c.RealIP(), "route", c.Path())
	return c.JSON(http.StatusTooManyRequests, map[string]any{
		"message":     msgTooManyRequests,
		"retry_after": secs,
	})
}

func takeToken(c echo.Context, rdb *redis.Client, cfg config.RateLimitConfig, key string) (bucketResult, error) {
	args := []any{
		time.Now().UnixMilli(),
		cfg.Capacity,
		cfg.RefillTokens,
		cfg.RefillInterval.Milliseconds(),
		int64(cfg.TTL / time.Second),
	}
	vals, err := tokenBucketScript.Run(c.Request().Context(), rdb, []string{key}, args...).Result()
	if err != nil {
		return bucketResult{}, err
	}
	arr, ok := vals.([]any)
	if !ok || len(arr) != 3 {
		return bucketResult{}, fmt.Errorf("unexpected script result %#v", vals)
	}
	return bucketResult{
		allowed:   asInt64(arr[0]) == 1,
		limit:     int64(cfg.Capacity),
		remaining: asInt64(arr[1]),
		retry:     time.Duration(asInt64(arr[2])) * time.Millisecond,
	}, nil
}

func asInt64(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
	}
	return 0
}

func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	uid := userID(c)
	route := c.Request().Method + " " + c.Path()

	parts := []string{cfg.Prefix}
	switch strings.ToLower(cfg.KeyStrategy) {
	case "ip":
		parts = append(parts, "ip", ip)
	case "user":
		parts = append(parts, "user", uid)
	case "route":
		parts = append(parts, "route", route)
	case "ip_user":
		parts = append(parts, "ip", ip, "user", uid)
	case "user_route":
		parts = append(parts, "user", uid, "route", route)
	case "ip_route":
		parts = append(parts, "ip", ip, "route", route)
	default:
		parts = append(parts, "ip", ip, "user", uid, "route", route)
	}
	return strings.Join(parts, ":")
}
