// Package scrape runs one map search end to end: it starts the browser,
// opens the search, walks the result feed and hands back the records.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/law-makers/leadcrawl/internal/browser"
	"github.com/law-makers/leadcrawl/internal/cache"
	"github.com/law-makers/leadcrawl/internal/config"
	"github.com/law-makers/leadcrawl/internal/emails"
	"github.com/law-makers/leadcrawl/internal/extract"
	"github.com/law-makers/leadcrawl/internal/feed"
	"github.com/law-makers/leadcrawl/internal/progress"
	"github.com/law-makers/leadcrawl/internal/proxy"
	"github.com/law-makers/leadcrawl/internal/ratelimit"
	"github.com/law-makers/leadcrawl/internal/retry"
	"github.com/law-makers/leadcrawl/internal/runctx"
	"github.com/law-makers/leadcrawl/internal/sitecrawl"
	"github.com/law-makers/leadcrawl/pkg/models"
)

// ErrEmptyQuery is returned when neither a search term nor a location is set.
var ErrEmptyQuery = errors.New("search term is empty")

// consentSelectors match the cookie consent buttons shown before the first search.
var consentSelectors = []string{
	`button[aria-label="Accept all"]`,
	`button[aria-label="Tümünü kabul et"]`,
	`button[aria-label="Alles akzeptieren"]`,
	`form[action*="consent"] button`,
	"button.VfPpkd-LgbsSe-OWXEXe-k8QpJ",
}

// Deps are the collaborators shared across runs. Zero values are replaced
// by working defaults.
type Deps struct {
	Launcher browser.Launcher
	Reporter progress.Reporter
	Cache    cache.Cache
	Limiter  ratelimit.RateLimiter
	Verifier *emails.MXVerifier
	Proxies  *proxy.ProxyPool
}

// Runner executes scrape runs. Stop may be called from any goroutine.
type Runner struct {
	cfg     *config.Config
	deps    Deps
	stopped atomic.Bool
}

// NewRunner creates a Runner.
func NewRunner(cfg *config.Config, deps Deps) *Runner {
	if cfg == nil {
		cfg = config.Defaults()
	}
	if deps.Launcher == nil {
		deps.Launcher = browser.ChromeLauncher
	}
	if deps.Reporter == nil {
		deps.Reporter = progress.Nop{}
	}
	return &Runner{cfg: cfg, deps: deps}
}

// Stop asks the run to finish after the item in progress. A Runner stays
// stopped, so a Stop that arrives before Run starts skips the run.
func (r *Runner) Stop() {
	r.stopped.Store(true)
}

// Stopped reports whether Stop was called.
func (r *Runner) Stopped() bool {
	return r.stopped.Load()
}

// Run performs one search. The records collected before a fatal error or a
// cancellation are always returned; the error is set only for failures that
// ended the run early.
func (r *Runner) Run(ctx context.Context, rc models.RunConfig) ([]models.BusinessRecord, error) {
	rep := r.deps.Reporter

	opts := rc.Options.Normalize()
	maxItems := rc.MaxItems
	if maxItems <= 0 {
		maxItems = r.cfg.MaxItems
	}
	query := rc.Query()
	if query == "" {
		return []models.BusinessRecord{}, ErrEmptyQuery
	}

	ctx = runctx.WithRun(ctx, query)
	logger := runctx.Logger(ctx, log.Logger)
	logger.Info().
		Str("query", query).
		Int("max_items", maxItems).
		Interface("options", opts).
		Msg("Run started")

	rep.Lifecycle(progress.Started)
	rep.Lifecycle(progress.ControlsDisabled)
	defer func() {
		rep.Lifecycle(progress.Finished)
		rep.Lifecycle(progress.ControlsEnabled)
	}()

	if r.stopped.Load() {
		logger.Info().Msg("Run stopped before the browser was started")
		return []models.BusinessRecord{}, nil
	}

	s := r.newSession()
	defer s.Close()

	rep.Status("Starting browser")
	if err := r.initialize(ctx, s); err != nil {
		rep.Status(fmt.Sprintf("Browser could not be started: %v", err))
		return []models.BusinessRecord{}, runctx.NewRunError(ctx, err)
	}

	if err := r.openSearch(ctx, s, query); err != nil {
		if ctx.Err() != nil {
			return []models.BusinessRecord{}, nil
		}
		rep.Status(fmt.Sprintf("Search page could not be opened: %v", err))
		return []models.BusinessRecord{}, runctx.NewRunError(ctx, err)
	}

	rep.MaxProgress(maxItems)
	rep.Progress(0)

	var harvester extract.EmailHarvester
	if opts.CollectEmail {
		harvester = r.newCrawler(s)
	}
	ex := extract.New(s, harvester, rep)

	fo := feed.OptionsFromConfig(r.cfg)
	fo.MaxItems = maxItems
	fo.Data = opts
	fo.Reporter = rep
	fo.Continue = func() bool { return !r.stopped.Load() }

	records, err := feed.New(s, ex, fo).Run(ctx)
	if records == nil {
		records = []models.BusinessRecord{}
	}
	if err != nil {
		rep.Status(fmt.Sprintf("Run ended early: %v", err))
	}

	logger.Info().
		Int("records", len(records)).
		Dur("elapsed", runctx.Get(ctx).Elapsed()).
		Msg("Run finished")
	return records, runctx.NewRunError(ctx, err)
}

// HarvestSite crawls a single website for addresses without touching the map.
func (r *Runner) HarvestSite(ctx context.Context, website string) ([]string, error) {
	ctx = runctx.WithRun(ctx, website)
	s := r.newSession()
	defer s.Close()

	if err := r.initialize(ctx, s); err != nil {
		return nil, runctx.NewRunError(ctx, err)
	}
	return r.newCrawler(s).Harvest(ctx, website), nil
}

func (r *Runner) newSession() *browser.Session {
	return browser.NewSession(r.deps.Launcher, browser.Options{
		Launch: browser.LaunchOptions{
			Headless:        r.cfg.Headless,
			ChromePath:      r.cfg.ChromePath,
			UserAgent:       r.cfg.UserAgent,
			WindowWidth:     r.cfg.WindowWidth,
			WindowHeight:    r.cfg.WindowHeight,
			PageLoadTimeout: r.cfg.PageLoadTimeout,
			LaunchTimeout:   r.cfg.LaunchTimeout,
		},
		Pacing:  r.cfg.Pacing,
		Proxies: r.deps.Proxies,
	})
}

func (r *Runner) newCrawler(s *browser.Session) *sitecrawl.Crawler {
	co := sitecrawl.OptionsFromConfig(r.cfg)
	co.Cache = r.deps.Cache
	co.Limiter = r.deps.Limiter
	co.Verifier = r.deps.Verifier
	co.Reporter = r.deps.Reporter
	return sitecrawl.New(s, co)
}

// initialize launches the browser, retrying with the next proxy on failure.
// A missing Chrome binary is not retried.
func (r *Runner) initialize(ctx context.Context, s *browser.Session) error {
	cfg := retry.Config{
		MaxAttempts:    r.cfg.MaxRetry,
		InitialBackoff: r.cfg.Pacing.Default.Min,
		MaxBackoff:     r.cfg.Pacing.Default.Max,
		Multiplier:     2,
	}
	return retry.WithRetry(ctx, cfg, func(attempt int) error {
		err := s.Initialize(ctx)
		if err == nil {
			return nil
		}
		log.Warn().Err(err).Int("attempt", attempt+1).Msg("Browser launch failed")
		if errors.Is(err, browser.ErrBrowserNotFound) {
			return retry.Permanent(err)
		}
		return err
	})
}

// SearchURL is the map search address for query.
func SearchURL(base, query string) string {
	if base == "" {
		base = config.DefaultMapsBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + url.QueryEscape(query)
}

func (r *Runner) openSearch(ctx context.Context, s *browser.Session, query string) error {
	target := SearchURL(r.cfg.MapsBaseURL, query)
	r.deps.Reporter.Status(fmt.Sprintf("Searching for %q", query))
	if err := s.Navigate(ctx, target); err != nil {
		return fmt.Errorf("open search page: %w", err)
	}
	s.RandomSleep(ctx, s.Pacing().Default)
	if dismissConsent(ctx, s) {
		r.deps.Reporter.Status("Cookie consent accepted")
		s.RandomSleep(ctx, s.Pacing().Default)
	}
	return nil
}

// dismissConsent clicks the first consent button present, if any.
func dismissConsent(ctx context.Context, s *browser.Session) bool {
	for _, sel := range consentSelectors {
		for _, n := range s.FindAll(ctx, sel, nil) {
			if s.SafeClick(ctx, n, 1) {
				log.Debug().Str("selector", sel).Msg("Consent dismissed")
				return true
			}
		}
	}
	return false
}
