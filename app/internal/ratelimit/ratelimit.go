package ratelimit

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Limiter is a per-key token bucket. Report generation walks every
// observation of a store, so callers are limited per client.
type Limiter struct {
	mu           sync.Mutex
	buckets      map[string]*bucket
	perMinute    float64
	burst        float64
	errorMessage string
	now          func() time.Time

	stopOnce    sync.Once
	stopCleanup chan struct{}
}

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// Config for creating a new rate limiter
type Config struct {
	TokensPerMinute int    // refill rate
	Burst           int    // bucket size, defaults to TokensPerMinute
	ErrorMessage    string // body message for rejected requests
}

// New creates a limiter and starts its stale-bucket cleanup
func New(cfg Config) *Limiter {
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.TokensPerMinute
	}
	if cfg.ErrorMessage == "" {
		cfg.ErrorMessage = "Too many requests. Please slow down."
	}
	l := &Limiter{
		buckets:      make(map[string]*bucket),
		perMinute:    float64(cfg.TokensPerMinute),
		burst:        float64(cfg.Burst),
		errorMessage: cfg.ErrorMessage,
		now:          time.Now,
		stopCleanup:  make(chan struct{}),
	}
	go l.cleanup(5 * time.Minute)
	return l
}

func (l *Limiter) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.mu.Lock()
			cutoff := l.now().Add(-10 * time.Minute)
			for key, b := range l.buckets {
				if b.lastSeen.Before(cutoff) {
					delete(l.buckets, key)
				}
			}
			l.mu.Unlock()
		case <-l.stopCleanup:
			return
		}
	}
}

// Stop ends the cleanup goroutine. Safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCleanup) })
}

// refill must be called with l.mu held
func (l *Limiter) refill(key string) *bucket {
	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.burst, lastSeen: now}
		l.buckets[key] = b
		return b
	}
	b.tokens = math.Min(l.burst, b.tokens+now.Sub(b.lastSeen).Seconds()*l.perMinute/60)
	b.lastSeen = now
	return b
}

// Allow takes one token for key, reporting whether the request may proceed
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.refill(key)
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// RetryAfter estimates how long until key has a token again
func (l *Limiter) RetryAfter(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.refill(key)
	if b.tokens >= 1 || l.perMinute <= 0 {
		return 0
	}
	return time.Duration((1 - b.tokens) * float64(time.Minute) / l.perMinute)
}

// Middleware rejects requests over the limit with 429. keyFn picks the
// bucket, usually the client IP.
func (l *Limiter) Middleware(keyFn func(*http.Request) string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := keyFn(r)
		if l.Allow(key) {
			next.ServeHTTP(w, r)
			return
		}
		secs := int(math.Ceil(l.RetryAfter(key).Seconds()))
		if secs < 1 {
			secs = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(secs))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":   "rate_limited",
			"message": l.errorMessage,
		})
	})
}
