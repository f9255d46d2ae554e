// Package app provides the core application initialization and lifecycle management.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/leadcrawl/internal/cache"
	"github.com/law-makers/leadcrawl/internal/config"
	"github.com/law-makers/leadcrawl/internal/emails"
	"github.com/law-makers/leadcrawl/internal/progress"
	"github.com/law-makers/leadcrawl/internal/proxy"
	"github.com/law-makers/leadcrawl/internal/ratelimit"
	"github.com/law-makers/leadcrawl/internal/scrape"
	"github.com/law-makers/leadcrawl/internal/storage"
)

// Application holds all application dependencies and manages their lifecycle.
//
// It is created once per CLI invocation. Use Close() to release the cache
// and the database connection.
type Application struct {
	Config   *config.Config
	Logger   *zerolog.Logger
	Cache    *cache.MemoryCache
	Limiter  *ratelimit.DomainLimiter
	Verifier *emails.MXVerifier
	Proxies  *proxy.ProxyPool

	storeMu sync.Mutex
	store   *storage.MySQLStore

	startTime time.Time
}

// New creates and initializes a new Application with all dependencies.
//
// It performs the following initialization steps:
//   - Configures logging based on the provided config
//   - Creates the website crawl cache
//   - Creates the per-site rate limiter
//   - Creates the MX verifier when verification is enabled
//   - Creates the proxy rotation pool when proxies are configured
//
// The MySQL store is opened lazily by EnsureStore.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := SetupLogging(cfg)

	memCache := cache.NewMemoryCache(cfg.CacheMaxEntries)
	logger.Debug().
		Int("max_entries", cfg.CacheMaxEntries).
		Dur("ttl", cfg.CacheTTL).
		Msg("Crawl cache initialized")

	limiter := ratelimit.NewDomainLimiter(cfg.CrawlRateLimitRPS, cfg.CrawlRateLimitBurst)
	logger.Debug().
		Float64("rps", cfg.CrawlRateLimitRPS).
		Int("burst", cfg.CrawlRateLimitBurst).
		Msg("Rate limiter initialized")

	var verifier *emails.MXVerifier
	if cfg.VerifyMX {
		verifier = emails.NewMXVerifier(cfg.DNSServers, cfg.DNSTimeout)
		logger.Debug().Strs("servers", cfg.DNSServers).Msg("MX verification enabled")
	}

	var proxies *proxy.ProxyPool
	if len(cfg.Proxies) > 0 {
		proxies = proxy.NewProxyPool(cfg.Proxies)
		logger.Debug().Int("proxies", proxies.Len()).Msg("Proxy pool initialized")
	}

	a := &Application{
		Config:    cfg,
		Logger:    &logger,
		Cache:     memCache,
		Limiter:   limiter,
		Verifier:  verifier,
		Proxies:   proxies,
		startTime: time.Now(),
	}

	logger.Debug().Msg("Application initialized successfully")
	return a, nil
}

// SetupLogging points the global zerolog logger at stderr, as JSON or console
// output, and applies the configured level.
func SetupLogging(cfg *config.Config) zerolog.Logger {
	// Info lines would fight with the progress bar, so they need -v.
	level := zerolog.WarnLevel
	switch cfg.LogLevel {
	case "debug":
		level = zerolog.DebugLevel
	case "error":
		level = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(level)

	var w io.Writer = os.Stderr
	if !cfg.JSONLog {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()

	logger := log.Logger
	logger.Debug().
		Str("level", level.String()).
		Bool("json", cfg.JSONLog).
		Msg("Logger initialized")
	return logger
}

// Runner builds a scrape runner over the shared collaborators. rep receives
// the run's progress events.
func (a *Application) Runner(rep progress.Reporter) *scrape.Runner {
	return scrape.NewRunner(a.Config, scrape.Deps{
		Reporter: rep,
		Cache:    a.Cache,
		Limiter:  a.Limiter,
		Verifier: a.Verifier,
		Proxies:  a.Proxies,
	})
}

// EnsureStore opens the MySQL store on first use. It returns nil without an
// error when no DSN is configured.
func (a *Application) EnsureStore(ctx context.Context) (*storage.MySQLStore, error) {
	if a == nil {
		return nil, fmt.Errorf("application is nil")
	}
	if a.Config.MySQLDSN == "" {
		return nil, nil
	}

	a.storeMu.Lock()
	defer a.storeMu.Unlock()

	if a.store != nil {
		return a.store, nil
	}

	a.Logger.Debug().Msg("Opening MySQL store on demand")
	store, err := storage.Open(ctx, a.Config.MySQLDSN)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to open MySQL store")
		return nil, err
	}
	a.store = store
	return store, nil
}

// Close gracefully shuts down the application and all its resources.
// Any errors during shutdown are logged but do not prevent other shutdown steps.
func (a *Application) Close(ctx context.Context) error {
	a.Logger.Debug().Msg("Shutting down application")

	a.storeMu.Lock()
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Error closing MySQL store")
		}
		a.store = nil
	}
	a.storeMu.Unlock()

	if a.Cache != nil {
		stats := a.Cache.Stats()
		a.Logger.Debug().Interface("cache", stats).Msg("Crawl cache statistics")
		a.Cache.Close()
	}

	a.Logger.Debug().Dur("uptime", a.Uptime()).Msg("Application shutdown complete")
	return nil
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}
