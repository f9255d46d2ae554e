package app

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/law-makers/leadcrawl/internal/config"
)

func TestNewWiresOptionalCollaborators(t *testing.T) {
	cfg := config.Defaults()
	cfg.JSONLog = true
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close(context.Background())

	if a.Cache == nil || a.Limiter == nil {
		t.Errorf("cache and limiter are always created")
	}
	if a.Verifier != nil || a.Proxies != nil {
		t.Errorf("verifier and proxies are opt-in")
	}
	if a.Runner(nil) == nil {
		t.Errorf("Runner returned nil")
	}

	cfg = config.Defaults()
	cfg.JSONLog = true
	cfg.VerifyMX = true
	cfg.Proxies = []string{"http://127.0.0.1:8080"}
	b, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer b.Close(context.Background())
	if b.Verifier == nil || b.Proxies == nil || b.Proxies.Len() != 1 {
		t.Errorf("configured verifier and proxies must be wired")
	}
}

func TestNewRequiresConfig(t *testing.T) {
	if _, err := New(context.Background(), nil); err == nil {
		t.Errorf("expected an error without config")
	}
}

func TestEnsureStoreWithoutDSN(t *testing.T) {
	cfg := config.Defaults()
	cfg.JSONLog = true
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close(context.Background())

	store, err := a.EnsureStore(context.Background())
	if store != nil || err != nil {
		t.Errorf("no DSN means no store and no error, got %v, %v", store, err)
	}
}

func TestSetupLoggingLevels(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)
	cases := map[string]zerolog.Level{
		"debug": zerolog.DebugLevel,
		"info":  zerolog.WarnLevel,
		"error": zerolog.ErrorLevel,
		"":      zerolog.WarnLevel,
	}
	for in, want := range cases {
		SetupLogging(&config.Config{LogLevel: in, JSONLog: true})
		if got := zerolog.GlobalLevel(); got != want {
			t.Errorf("level %q = %v, want %v", in, got, want)
		}
	}
}
