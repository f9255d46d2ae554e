package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestDomainLimiterSharesBucketAcrossSubdomains(t *testing.T) {
	dl := NewDomainLimiter(0.001, 1)

	if !dl.Allow("https://www.example.com/") {
		t.Fatalf("first visit should be allowed")
	}
	if dl.Allow("https://shop.example.com/contact") {
		t.Errorf("subdomain should share the exhausted bucket")
	}
	if !dl.Allow("https://other.org/") {
		t.Errorf("a different site has its own bucket")
	}
}

func TestDomainLimiterWaitHonoursContext(t *testing.T) {
	dl := NewDomainLimiter(0.001, 1)
	_ = dl.Wait(context.Background(), "https://example.com")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := dl.Wait(ctx, "https://example.com/about"); err == nil {
		t.Errorf("expected wait to fail once the context expires")
	}
}

func TestDomainLimiterIgnoresHostlessURL(t *testing.T) {
	dl := NewDomainLimiter(1, 1)
	if err := dl.Wait(context.Background(), "not a url"); err != nil {
		t.Errorf("unexpected error %v", err)
	}
}
