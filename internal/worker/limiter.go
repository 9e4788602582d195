package worker

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// Idle keys are forgotten after this long
const limiterIdleTTL = 10 * time.Minute

// Limiter is a token bucket per key. Keys are client addresses for inbound
// requests and hosts for outbound fetches.
type Limiter struct {
	limiters     *gocache.Cache
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a limiter allowing requestsPerSecond per key
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}

	return &Limiter{
		limiters:     gocache.New(limiterIdleTTL, limiterIdleTTL),
		defaultRate:  rate.Limit(requestsPerSecond),
		defaultBurst: burst,
	}
}

// Allow reports whether key may proceed now
func (l *Limiter) Allow(key string) bool {
	return l.get(key).Allow()
}

// Wait blocks until key may proceed or ctx is done
func (l *Limiter) Wait(ctx context.Context, key string) error {
	return l.get(key).Wait(ctx)
}

// SetRate pins a custom rate for key. Pinned keys never expire.
func (l *Limiter) SetRate(key string, requestsPerSecond float64, burst int) {
	if burst <= 0 {
		burst = l.defaultBurst
	}
	l.limiters.Set(key, rate.NewLimiter(rate.Limit(requestsPerSecond), burst), gocache.NoExpiration)
}

func (l *Limiter) get(key string) *rate.Limiter {
	item, expiration, ok := l.limiters.GetWithExpiration(key)
	if ok {
		limiter := item.(*rate.Limiter)
		if !expiration.IsZero() {
			l.limiters.SetDefault(key, limiter)
		}
		return limiter
	}

	limiter := rate.NewLimiter(l.defaultRate, l.defaultBurst)
	if err := l.limiters.Add(key, limiter, gocache.DefaultExpiration); err != nil {
		// lost the race to another caller
		if existing, ok := l.limiters.Get(key); ok {
			return existing.(*rate.Limiter)
		}
	}
	return limiter
}

func extractHost(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("URL %q has no host", rawURL)
	}
	return strings.ToLower(parsed.Host), nil
}
