package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/Tharoon321/worldpeace-api/metrics"
)

// Limiter decides whether the client identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// windowIndex numbers the fixed window containing t. Memory and Redis
// limiters share it so both reset at the same instants.
func windowIndex(t time.Time, window time.Duration) int64 {
	return t.UnixNano() / int64(window)
}

type windowCount struct {
	index int64
	count int
}

// MemoryLimiter counts requests per client in fixed windows held in process
// memory. At most max requests pass in any one window.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*windowCount
	max     int
	window  time.Duration
	now     func() time.Time
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		windows: make(map[string]*windowCount),
		max:     max,
		window:  window,
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	idx := windowIndex(l.now(), l.window)

	l.mu.Lock()
	defer l.mu.Unlock()
	w, ok := l.windows[key]
	if !ok || w.index != idx {
		w = &windowCount{index: idx}
		l.windows[key] = w
	}
	if w.count >= l.max {
		return false, nil
	}
	w.count++
	return true, nil
}

// Cleanup drops counters from windows that have already closed.
func (l *MemoryLimiter) Cleanup() {
	idx := windowIndex(l.now(), l.window)

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, w := range l.windows {
		if w.index < idx {
			delete(l.windows, key)
		}
	}
}

// RedisLimiter counts requests per client in fixed windows shared by every
// API instance.
type RedisLimiter struct {
	client *redis.Client
	max    int64
	window time.Duration
	now    func() time.Time
}

func NewRedisLimiter(client *redis.Client, max int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, max: int64(max), window: window, now: time.Now}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := "ratelimit:" + key + ":" + strconv.FormatInt(windowIndex(l.now(), l.window), 10)

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, redisKey)
		p.Expire(ctx, redisKey, l.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rate limit incr: %w", err)
	}
	return incr.Val() <= l.max, nil
}

// RateLimit rejects clients over their allowance with 429. Limiter errors
// let the request through. Rejections are logged at most once per second.
func RateLimit(l Limiter, log logrus.FieldLogger) gin.HandlerFunc {
	rejected := &rate.Sometimes{Interval: time.Second}
	return func(c *gin.Context) {
		key := c.ClientIP()
		ok, err := l.Allow(c.Request.Context(), key)
		if err != nil {
			log.WithError(err).Warn("rate limiter unavailable")
			c.Next()
			return
		}
		if !ok {
			metrics.RecordRateLimited()
			rejected.Do(func() {
				log.WithFields(logrus.Fields{"ip": key, "path": c.Request.URL.Path}).Warn("rate limit exceeded")
			})
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, please try again later."})
			return
		}
		c.Next()
	}
}
