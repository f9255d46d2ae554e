package proxy

import (
	"testing"
	"time"
)

func TestProxyPool(t *testing.T) {
	pool := NewProxyPool([]string{"p1", "p2", " p3 ", "p1", ""})

	if pool.Len() != 3 {
		t.Fatalf("expected 3 proxies after cleanup, got %d", pool.Len())
	}

	// Test rotation
	for _, want := range []string{"p1", "p2", "p3", "p1"} {
		if p := pool.GetNext(); p != want {
			t.Errorf("Expected %s, got %s", want, p)
		}
	}

	// Test failure
	pool.MarkFailed("p2")

	// Should skip p2
	if p := pool.GetNext(); p != "p3" {
		t.Errorf("Expected p3 (skipping p2), got %s", p)
	}
	if p := pool.GetNext(); p != "p1" {
		t.Errorf("Expected p1, got %s", p)
	}
	if p := pool.GetNext(); p != "p3" {
		t.Errorf("Expected p3, got %s", p)
	}

	// Mark healthy
	pool.MarkHealthy("p2")

	if p := pool.GetNext(); p != "p1" {
		t.Errorf("Expected p1, got %s", p)
	}
	if p := pool.GetNext(); p != "p2" {
		t.Errorf("Expected p2, got %s", p)
	}
}

func TestProxyPoolCooldownExpires(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	pool := NewProxyPool([]string{"p1", "p2"})
	pool.now = func() time.Time { return now }

	pool.MarkFailed("p1")
	if p := pool.GetNext(); p != "p2" {
		t.Fatalf("Expected p2 while p1 cools down, got %s", p)
	}

	now = now.Add(DefaultCooldown)
	if p := pool.GetNext(); p != "p1" {
		t.Errorf("Expected p1 after cooldown, got %s", p)
	}
}

func TestProxyPoolAllFailed(t *testing.T) {
	pool := NewProxyPool([]string{"p1", "p2"})
	pool.MarkFailed("p1")
	pool.MarkFailed("p2")

	if p := pool.GetNext(); p == "" {
		t.Errorf("expected a proxy even when all are cooling down")
	}
}

func TestEmptyPool(t *testing.T) {
	pool := NewProxyPool(nil)
	if p := pool.GetNext(); p != "" {
		t.Errorf("expected direct connection, got %s", p)
	}
}
