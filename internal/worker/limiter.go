package worker

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter implements per-platform rate limiting in requests per minute
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a limiter that allows requestsPerMinute for any platform without an
// explicit rate
func NewLimiter(requestsPerMinute int, burst int) *Limiter {
	if burst <= 0 {
		burst = 1
	}

	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  perMinute(requestsPerMinute),
		defaultBurst: burst,
	}
}

// Wait blocks until the platform may send another request or ctx is done
func (l *Limiter) Wait(ctx context.Context, platform string) error {
	return l.getLimiter(platform).Wait(ctx)
}

// getLimiter returns the rate limiter for a platform
func (l *Limiter) getLimiter(platform string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[platform]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := l.limiters[platform]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[platform] = limiter

	return limiter
}

// SetPlatformRate sets a custom requests-per-minute limit for one platform
func (l *Limiter) SetPlatformRate(platform string, requestsPerMinute int, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if burst <= 0 {
		burst = l.defaultBurst
	}

	l.limiters[platform] = rate.NewLimiter(perMinute(requestsPerMinute), burst)
}

// WaitWithDelay waits for the platform's rate limit, then for additionalDelay
func (l *Limiter) WaitWithDelay(ctx context.Context, platform string, additionalDelay time.Duration) error {
	if err := l.Wait(ctx, platform); err != nil {
		return err
	}

	if additionalDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(additionalDelay):
		}
	}

	return nil
}

// perMinute converts an RPM budget to a rate. Zero or negative means unlimited.
func perMinute(rpm int) rate.Limit {
	if rpm <= 0 {
		return rate.Inf
	}
	return rate.Every(time.Minute / time.Duration(rpm))
}
