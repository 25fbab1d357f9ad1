package rest

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Default rate limits applied before the server reports its own.
const (
	DefaultGlobalRate = 50
	DefaultBucketRate = 5
)

// Rate limit response headers.
const (
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderResetAfter = "X-RateLimit-Reset-After"
	HeaderGlobal     = "X-RateLimit-Global"
	HeaderRetryAfter = "Retry-After"
)

// RateLimiter throttles requests with one global token bucket and one
// token bucket per route bucket. Server headers tighten the local limits:
// an exhausted bucket blocks until its reset, a 429 blocks until
// Retry-After. Requests are never retried automatically.
type RateLimiter struct {
	global *rate.Limiter

	bucketRate  rate.Limit
	bucketBurst int

	mu          sync.Mutex
	buckets     map[string]*bucket
	globalUntil time.Time

	now func() time.Time
}

type bucket struct {
	limiter *rate.Limiter

	mu        sync.Mutex
	remaining int
	resetAt   time.Time
}

// NewRateLimiter creates a limiter allowing globalPerSecond requests per
// second overall and bucketPerSecond per route bucket. Zero values select
// the defaults.
func NewRateLimiter(globalPerSecond, bucketPerSecond float64) *RateLimiter {
	if globalPerSecond <= 0 {
		globalPerSecond = DefaultGlobalRate
	}
	if bucketPerSecond <= 0 {
		bucketPerSecond = DefaultBucketRate
	}
	return &RateLimiter{
		global:      rate.NewLimiter(rate.Limit(globalPerSecond), burstFor(globalPerSecond)),
		bucketRate:  rate.Limit(bucketPerSecond),
		bucketBurst: burstFor(bucketPerSecond),
		buckets:     make(map[string]*bucket),
		now:         time.Now,
	}
}

// burstFor allows one second worth of requests at once.
func burstFor(perSecond float64) int {
	return max(1, int(perSecond))
}

func (l *RateLimiter) bucket(key string) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{
			limiter:   rate.NewLimiter(l.bucketRate, l.bucketBurst),
			remaining: -1,
		}
		l.buckets[key] = b
	}
	return b
}

// Wait blocks until a request on the given bucket may be sent.
func (l *RateLimiter) Wait(ctx context.Context, key string) error {
	if err := l.global.Wait(ctx); err != nil {
		return err
	}

	l.mu.Lock()
	globalUntil := l.globalUntil
	l.mu.Unlock()
	if err := sleepUntil(ctx, l.now(), globalUntil); err != nil {
		return err
	}

	b := l.bucket(key)
	if err := b.limiter.Wait(ctx); err != nil {
		return err
	}

	// Holding b.mu while sleeping serialises requests on an exhausted bucket.
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.remaining == 0 {
		if err := sleepUntil(ctx, l.now(), b.resetAt); err != nil {
			return err
		}
		b.remaining = -1
	}
	if b.remaining > 0 {
		b.remaining--
	}
	return nil
}

// Update records the rate limit headers of a response on the given bucket.
func (l *RateLimiter) Update(key string, status int, header http.Header) {
	now := l.now()

	if status == http.StatusTooManyRequests {
		retry := parseSeconds(header.Get(HeaderRetryAfter))
		if header.Get(HeaderGlobal) == "true" {
			l.mu.Lock()
			l.globalUntil = now.Add(retry)
			l.mu.Unlock()
			return
		}
		b := l.bucket(key)
		b.mu.Lock()
		b.remaining = 0
		b.resetAt = now.Add(retry)
		b.mu.Unlock()
		return
	}

	raw := header.Get(HeaderRemaining)
	if raw == "" {
		return
	}
	remaining, err := strconv.Atoi(raw)
	if err != nil {
		return
	}
	b := l.bucket(key)
	b.mu.Lock()
	b.remaining = remaining
	b.resetAt = now.Add(parseSeconds(header.Get(HeaderResetAfter)))
	b.mu.Unlock()
}

// parseSeconds reads a possibly fractional number of seconds.
func parseSeconds(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 {
		return 0
	}
	return time.Duration(f * float64(time.Second))
}

func sleepUntil(ctx context.Context, now, until time.Time) error {
	d := until.Sub(now)
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
