// internal/ratelimit/limiter.go
package ratelimit

import (
	"context"
	"sync"

	urlutil "github.com/law-makers/leadcrawl/internal/utils/url"
	"golang.org/x/time/rate"
)

// RateLimiter throttles page visits per website.
type RateLimiter interface {
	// Wait blocks until a visit to urlStr may proceed or ctx ends.
	Wait(ctx context.Context, urlStr string) error

	// Allow reports whether a visit may proceed right now, consuming a token if so.
	Allow(urlStr string) bool
}

// DomainLimiter keeps one token bucket per registrable domain, so contact
// pages of one business site share a budget.
type DomainLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	perHost  rate.Limit
	burst    int
}

// NewDomainLimiter creates a limiter with the given per-site rate.
func NewDomainLimiter(requestsPerSecond float64, burst int) *DomainLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1.0
	}
	if burst <= 0 {
		burst = 2
	}

	return &DomainLimiter{
		limiters: make(map[string]*rate.Limiter),
		perHost:  rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

// Wait blocks until the visit may proceed.
func (dl *DomainLimiter) Wait(ctx context.Context, urlStr string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	domain := urlutil.RegistrableDomain(urlStr)
	if domain == "" {
		return nil
	}

	return dl.getLimiter(domain).Wait(ctx)
}

// Allow checks if a visit can proceed immediately.
func (dl *DomainLimiter) Allow(urlStr string) bool {
	domain := urlutil.RegistrableDomain(urlStr)
	if domain == "" {
		return true
	}

	return dl.getLimiter(domain).Allow()
}

func (dl *DomainLimiter) getLimiter(domain string) *rate.Limiter {
	dl.mu.RLock()
	limiter, exists := dl.limiters[domain]
	dl.mu.RUnlock()

	if exists {
		return limiter
	}

	dl.mu.Lock()
	defer dl.mu.Unlock()

	if limiter, exists := dl.limiters[domain]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(dl.perHost, dl.burst)
	dl.limiters[domain] = limiter

	return limiter
}

// SetLimit overrides the rate for one domain.
func (dl *DomainLimiter) SetLimit(domain string, requestsPerSecond float64, burst int) {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	if limiter, exists := dl.limiters[domain]; exists {
		limiter.SetLimit(rate.Limit(requestsPerSecond))
		limiter.SetBurst(burst)
	} else {
		dl.limiters[domain] = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
}

// Unlimited lets every visit through.
type Unlimited struct{}

func (Unlimited) Wait(context.Context, string) error { return nil }
func (Unlimited) Allow(string) bool                  { return true }
