package proxy

import (
	"strings"
	"sync"
	"time"
)

// DefaultCooldown is how long a proxy that failed to launch a browser is skipped.
const DefaultCooldown = 5 * time.Minute

// ProxyPool rotates browser proxies round-robin, skipping recently failed ones.
type ProxyPool struct {
	proxies  []string
	index    int
	cooldown time.Duration
	mu       sync.Mutex
	failed   map[string]time.Time
	now      func() time.Time
}

// NewProxyPool creates a pool from proxy URLs. Blank and duplicate entries are dropped.
func NewProxyPool(proxies []string) *ProxyPool {
	seen := make(map[string]bool)
	var clean []string
	for _, p := range proxies {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		clean = append(clean, p)
	}
	return &ProxyPool{
		proxies:  clean,
		cooldown: DefaultCooldown,
		failed:   make(map[string]time.Time),
		now:      time.Now,
	}
}

// Len returns the number of proxies in the pool.
func (p *ProxyPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.proxies)
}

// GetNext returns the next healthy proxy, or "" for a direct connection when the pool is empty.
// When every proxy is cooling down the next one in line is returned anyway.
func (p *ProxyPool) GetNext() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.proxies) == 0 {
		return ""
	}

	start := p.index
	for {
		proxy := p.proxies[p.index]
		p.index = (p.index + 1) % len(p.proxies)

		failTime, failed := p.failed[proxy]
		if !failed {
			return proxy
		}
		if p.now().Sub(failTime) >= p.cooldown {
			delete(p.failed, proxy)
			return proxy
		}
		if p.index == start {
			return proxy
		}
	}
}

// MarkFailed puts a proxy on cooldown.
func (p *ProxyPool) MarkFailed(proxy string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed[proxy] = p.now()
}

// MarkHealthy clears the failure status of a proxy
func (p *ProxyPool) MarkHealthy(proxy string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.failed, proxy)
}
