package emails

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"
	"github.com/rs/zerolog/log"
)

// MXVerifier drops addresses whose domain publishes no MX record.
// Lookups are cached per domain for the verifier's lifetime.
type MXVerifier struct {
	Servers []string
	Timeout time.Duration

	client *dns.Client
	mu     sync.Mutex
	cache  map[string]bool
}

// NewMXVerifier builds a verifier that queries the given resolvers in order.
func NewMXVerifier(servers []string, timeout time.Duration) *MXVerifier {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &MXVerifier{
		Servers: servers,
		Timeout: timeout,
		client:  &dns.Client{Net: "udp", Timeout: timeout},
		cache:   make(map[string]bool),
	}
}

// HasMX reports whether domain has at least one MX record. known is false
// when every resolver failed, in which case the answer means nothing.
func (v *MXVerifier) HasMX(ctx context.Context, domain string) (has, known bool) {
	domain = strings.ToLower(strings.TrimSuffix(domain, "."))
	if domain == "" {
		return false, true
	}

	v.mu.Lock()
	if cached, ok := v.cache[domain]; ok {
		v.mu.Unlock()
		return cached, true
	}
	v.mu.Unlock()

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(domain), dns.TypeMX)
	msg.RecursionDesired = true

	for _, server := range v.Servers {
		if ctx.Err() != nil {
			return false, false
		}
		resp, _, err := v.client.ExchangeContext(ctx, msg, server)
		if err != nil {
			log.Debug().Err(err).Str("server", server).Str("domain", domain).Msg("MX lookup failed")
			continue
		}
		found := false
		if resp.Rcode == dns.RcodeSuccess {
			for _, rr := range resp.Answer {
				if _, ok := rr.(*dns.MX); ok {
					found = true
					break
				}
			}
		}
		v.mu.Lock()
		v.cache[domain] = found
		v.mu.Unlock()
		return found, true
	}
	return false, false
}

// Filter keeps addresses whose domain accepts mail. Addresses on domains that
// could not be checked are kept.
func (v *MXVerifier) Filter(ctx context.Context, list []string) []string {
	out := make([]string, 0, len(list))
	for _, addr := range list {
		has, known := v.HasMX(ctx, Domain(addr))
		if known && !has {
			log.Debug().Str("email", addr).Msg("Dropping address without MX record")
			continue
		}
		out = append(out, addr)
	}
	return out
}
