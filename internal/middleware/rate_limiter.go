package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/queue-rush/internal/metrics"
	"github.com/prohmpiriya/queue-rush/pkg/logger"
	pkgredis "github.com/prohmpiriya/queue-rush/pkg/redis"
	"github.com/prohmpiriya/queue-rush/pkg/response"
	"github.com/prohmpiriya/queue-rush/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// RateLimitMessage is returned with every 429
const RateLimitMessage = "Too many requests from this IP, please try again later."

// RateLimitConfig holds fixed-window rate limiting configuration
type RateLimitConfig struct {
	// Max requests per client IP in one window
	Max int
	// Window length
	Window time.Duration
	// RedisClient shares counters across instances; nil keeps them in process
	RedisClient *pkgredis.Client
	// Key prefix for Redis
	KeyPrefix string
	// Cleanup interval for the local limiter
	CleanupInterval time.Duration
	// Now is the clock; defaults to time.Now
	Now func() time.Time
}

// DefaultRateLimitConfig returns 100 requests per 15 minutes per IP
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Max:             100,
		Window:          15 * time.Minute,
		KeyPrefix:       "queue-rush:ratelimit:",
		CleanupInterval: time.Minute,
		Now:             time.Now,
	}
}

// Decision is the outcome of one rate limit check
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// windowEntry tracks one client's current window
type windowEntry struct {
	count int
	start time.Time
	// removed is set by sweep under mu; a removed entry must not be counted
	removed bool
	mu      sync.Mutex
}

// LocalRateLimiter implements an in-memory fixed window per key
type LocalRateLimiter struct {
	config  RateLimitConfig
	entries sync.Map
	stop    chan struct{}
	once    sync.Once
}

// NewLocalRateLimiter creates a new local rate limiter and starts its cleanup loop
func NewLocalRateLimiter(config RateLimitConfig) *LocalRateLimiter {
	rl := &LocalRateLimiter{
		config: config,
		stop:   make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// Allow counts one request for key
func (rl *LocalRateLimiter) Allow(key string) Decision {
	now := rl.config.Now()

	for {
		entry, _ := rl.entries.LoadOrStore(key, &windowEntry{start: now})
		if decision, ok := rl.count(entry.(*windowEntry), now); ok {
			return decision
		}
	}
}

// count adds one hit to e. It reports false when sweep removed e after it
// was loaded, in which case the caller retries on a fresh entry.
func (rl *LocalRateLimiter) count(e *windowEntry, now time.Time) (Decision, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.removed {
		return Decision{}, false
	}
	if !now.Before(e.start.Add(rl.config.Window)) {
		e.start = now
		e.count = 0
	}
	e.count++

	return Decision{
		Allowed:   e.count <= rl.config.Max,
		Remaining: max(rl.config.Max-e.count, 0),
		ResetAt:   e.start.Add(rl.config.Window),
	}, true
}

// cleanup periodically removes expired windows
func (rl *LocalRateLimiter) cleanup() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweep(rl.config.Now())
		case <-rl.stop:
			return
		}
	}
}

func (rl *LocalRateLimiter) sweep(now time.Time) {
	rl.entries.Range(func(key, value interface{}) bool {
		e := value.(*windowEntry)
		e.mu.Lock()
		if !now.Before(e.start.Add(rl.config.Window)) {
			e.removed = true
			rl.entries.Delete(key)
		}
		e.mu.Unlock()
		return true
	})
}

// Stop stops the cleanup goroutine
func (rl *LocalRateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

// fixedWindowScript increments the window counter, starting the expiry on
// the first hit, and returns {count, remaining ttl in ms}
const fixedWindowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
    redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
    redis.call("PEXPIRE", KEYS[1], ARGV[1])
    ttl = tonumber(ARGV[1])
end
return {current, ttl}
`

// RedisRateLimiter implements a fixed window shared through Redis
type RedisRateLimiter struct {
	config RateLimitConfig
}

// NewRedisRateLimiter creates a new Redis rate limiter
func NewRedisRateLimiter(config RateLimitConfig) *RedisRateLimiter {
	return &RedisRateLimiter{config: config}
}

// Allow counts one request for key
func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	values, err := rl.config.RedisClient.EvalWithFallback(ctx, "rate_limit_fixed_window", fixedWindowScript,
		[]string{rl.config.KeyPrefix + key},
		rl.config.Window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return Decision{}, err
	}
	if len(values) < 2 {
		return Decision{}, fmt.Errorf("unexpected result length: %d", len(values))
	}

	count := int(values[0])
	return Decision{
		Allowed:   count <= rl.config.Max,
		Remaining: max(rl.config.Max-count, 0),
		ResetAt:   rl.config.Now().Add(time.Duration(values[1]) * time.Millisecond),
	}, nil
}

// RateLimiter limits requests per client IP
type RateLimiter struct {
	config RateLimitConfig
	local  *LocalRateLimiter
	redis  *RedisRateLimiter
}

// NewRateLimiter picks the Redis limiter when a client is configured
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	defaults := DefaultRateLimitConfig()
	if config.Max <= 0 {
		config.Max = defaults.Max
	}
	if config.Window <= 0 {
		config.Window = defaults.Window
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = defaults.KeyPrefix
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = defaults.CleanupInterval
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	rl := &RateLimiter{config: config}
	if config.RedisClient != nil {
		rl.redis = NewRedisRateLimiter(config)
	} else {
		rl.local = NewLocalRateLimiter(config)
	}
	return rl
}

// Stop releases the local limiter's goroutine
func (rl *RateLimiter) Stop() {
	if rl.local != nil {
		rl.local.Stop()
	}
}

// Handler returns the gin middleware
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := telemetry.StartSpan(c.Request.Context(), "middleware.rate_limiter")
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		clientIP := c.ClientIP()
		span.SetAttributes(attribute.String("client_ip", clientIP))

		var decision Decision
		if rl.redis != nil {
			var err error
			decision, err = rl.redis.Allow(ctx, clientIP)
			if err != nil {
				// fail open
				logger.Get().WithContext(ctx).Warn("Rate limiter unavailable", zap.Error(err))
				c.Next()
				return
			}
		} else {
			decision = rl.local.Allow(clientIP)
		}

		span.SetAttributes(attribute.Bool("allowed", decision.Allowed))

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.config.Max))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

		if !decision.Allowed {
			span.SetStatus(codes.Error, "rate limit exceeded")
			metrics.RateLimitRejections.Inc()

			retryAfter := int(math.Ceil(decision.ResetAt.Sub(rl.config.Now()).Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			response.Abort(c, http.StatusTooManyRequests, RateLimitMessage)
			return
		}

		c.Next()
	}
}
