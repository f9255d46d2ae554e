// Package feed walks the lazily loaded result list of a map search, opening
// each business once and collecting its record.
package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/leadcrawl/internal/browser"
	"github.com/law-makers/leadcrawl/internal/config"
	"github.com/law-makers/leadcrawl/internal/progress"
	"github.com/law-makers/leadcrawl/internal/retry"
	"github.com/law-makers/leadcrawl/pkg/models"
)

// ErrFeedNotFound means no result list appeared after every retry.
var ErrFeedNotFound = errors.New("result feed not found")

var containerSelectors = []string{
	"div[role='feed']",
	"div.ecceSd",
	"div.m6QErb",
	"div.section-scrollbox",
}

var itemSelectors = []string{
	"div.Nv2PK",
	"a.hfpxzc",
	"div[jsaction*='mouseover']",
	"div.bfdHYd",
}

var panelSelectors = []string{
	"div.m6QErb",
	"div.TIHn2",
	"div[role='main']",
	"div[role='dialog']",
	"div.rogA2c",
}

const (
	scrollHeightJS = `function() { return this.scrollHeight; }`
	scrollByJS     = `function(px) { this.scrollTop += px; return this.scrollTop; }`
)

const (
	stallNudgeAt  = 3
	stallReloadAt = 5
	nudgeCount    = 3
	nudgePixels   = 500
	stepPixels    = 300
	scrollFactor  = 3
	clickRetries  = 3
)

// RecordExtractor reads the detail panel that is currently open.
type RecordExtractor interface {
	Extract(ctx context.Context, opts models.DataOptions) models.BusinessRecord
}

// Options bounds one pagination run.
type Options struct {
	MaxItems        int
	Data            models.DataOptions
	MaxRetry        int
	FeedWait        time.Duration
	PanelWait       time.Duration
	MinScrollBudget int

	// Continue is polled before every item and every scroll pass; returning
	// false ends the run like a cancelled context does.
	Continue func() bool
	Reporter progress.Reporter
}

// OptionsFromConfig maps feed settings from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		MaxItems:        cfg.MaxItems,
		MaxRetry:        cfg.MaxRetry,
		FeedWait:        cfg.FeedWait,
		PanelWait:       cfg.PanelWait,
		MinScrollBudget: cfg.MinScrollBudget,
	}
}

// Paginator is single use: create one per search.
type Paginator struct {
	s    *browser.Session
	ex   RecordExtractor
	opts Options

	container  *cdp.Node
	seen       map[string]bool
	records    []models.BusinessRecord
	lastHeight int64
	haveHeight bool
	stalls     int
	cancelled  bool
}

// New creates a paginator over the search page already loaded in s.
func New(s *browser.Session, ex RecordExtractor, opts Options) *Paginator {
	if opts.MaxItems <= 0 {
		opts.MaxItems = config.DefaultMaxItems
	}
	if opts.MaxRetry <= 0 {
		opts.MaxRetry = config.DefaultMaxRetry
	}
	if opts.FeedWait <= 0 {
		opts.FeedWait = config.DefaultFeedWait
	}
	if opts.PanelWait <= 0 {
		opts.PanelWait = config.DefaultPanelWait
	}
	if opts.MinScrollBudget <= 0 {
		opts.MinScrollBudget = config.DefaultMinScrollBudget
	}
	if opts.Reporter == nil {
		opts.Reporter = progress.Nop{}
	}
	return &Paginator{s: s, ex: ex, opts: opts, seen: make(map[string]bool)}
}

// ScrollBudget is the number of scroll passes allowed before giving up.
func (p *Paginator) ScrollBudget() int {
	return max(p.opts.MaxItems*scrollFactor, p.opts.MinScrollBudget)
}

// Run collects records until the cap, cancellation, or the scroll budget.
// It returns the records gathered so far; the error is non-nil only when the
// result list could not be found.
func (p *Paginator) Run(ctx context.Context) ([]models.BusinessRecord, error) {
	if err := p.search(ctx); err != nil {
		return p.records, p.fatal(ctx, err)
	}

	budget := p.ScrollBudget()
	for pass := 0; pass < budget; pass++ {
		if p.done(ctx) {
			break
		}

		items := p.list(ctx)
		if len(items) == 0 {
			p.opts.Reporter.Status("No businesses listed, reloading the page")
			if err := p.reloadAndSearch(ctx); err != nil {
				return p.records, p.fatal(ctx, err)
			}
			continue
		}

		for _, item := range items {
			if p.done(ctx) {
				break
			}
			p.process(ctx, item)
		}

		if p.done(ctx) {
			break
		}
		if err := p.scroll(ctx); err != nil {
			return p.records, p.fatal(ctx, err)
		}
	}

	if len(p.records) >= p.opts.MaxItems {
		p.opts.Reporter.Status(fmt.Sprintf("Collected %d businesses, target reached", len(p.records)))
	} else {
		p.opts.Reporter.Status(fmt.Sprintf("Collected %d businesses, target was %d", len(p.records), p.opts.MaxItems))
	}
	return p.records, nil
}

// fatal drops errors caused by cancellation.
func (p *Paginator) fatal(ctx context.Context, err error) error {
	if p.cancelled || ctx.Err() != nil || !p.proceed() {
		return nil
	}
	return err
}

func (p *Paginator) proceed() bool {
	return p.opts.Continue == nil || p.opts.Continue()
}

func (p *Paginator) done(ctx context.Context) bool {
	if len(p.records) >= p.opts.MaxItems {
		return true
	}
	if p.cancelled {
		return true
	}
	if ctx.Err() != nil || !p.proceed() {
		p.cancelled = true
		p.opts.Reporter.Status("Run cancelled")
		return true
	}
	return false
}

// search locates the result container, reloading between attempts.
func (p *Paginator) search(ctx context.Context) error {
	pacing := p.s.Pacing()
	cfg := retry.Config{
		MaxAttempts:    p.opts.MaxRetry,
		InitialBackoff: pacing.Default.Min,
		MaxBackoff:     pacing.Default.Max,
		Multiplier:     1.5,
	}

	return retry.WithRetry(ctx, cfg, func(attempt int) error {
		if attempt > 0 {
			if err := p.s.Reload(ctx); err != nil {
				log.Debug().Err(err).Msg("Reload failed")
			}
			p.s.RandomSleep(ctx, pacing.Default)
		}
		for _, sel := range containerSelectors {
			if n, ok := p.s.SafeFind(ctx, sel, p.opts.FeedWait); ok {
				p.container = n
				p.opts.Reporter.Status(fmt.Sprintf("Result list found: %s", sel))
				return nil
			}
		}
		p.opts.Reporter.Status(fmt.Sprintf("Result list not found, retrying (%d/%d)", attempt+1, p.opts.MaxRetry))
		return ErrFeedNotFound
	})
}

func (p *Paginator) reloadAndSearch(ctx context.Context) error {
	if err := p.s.Reload(ctx); err != nil {
		log.Debug().Err(err).Msg("Reload failed")
	}
	p.s.RandomSleep(ctx, p.s.Pacing().Default)
	p.haveHeight = false
	p.stalls = 0
	return p.search(ctx)
}

func (p *Paginator) list(ctx context.Context) []*cdp.Node {
	for _, sel := range itemSelectors {
		if items := p.s.FindAll(ctx, sel, p.container); len(items) > 0 {
			log.Debug().Str("selector", sel).Int("items", len(items)).Msg("Feed items listed")
			return items
		}
	}
	return nil
}

// process opens one item, extracts it and closes the panel again.
func (p *Paginator) process(ctx context.Context, item *cdp.Node) {
	id := Identity(ctx, p.s, item)
	if p.seen[id] {
		return
	}
	p.seen[id] = true

	pacing := p.s.Pacing()
	p.opts.Reporter.Status(fmt.Sprintf("Opening business: %s (#%d/%d)", itemLabel(ctx, p.s, item), len(p.records)+1, p.opts.MaxItems))

	if !p.s.SafeClick(ctx, item, clickRetries) {
		p.opts.Reporter.Status("Could not click this business, skipping")
		return
	}
	p.s.RandomSleep(ctx, pacing.Default)

	defer func() {
		p.s.PressEscape(ctx)
		p.s.RandomSleep(ctx, pacing.Short)
	}()

	if !p.waitPanel(ctx) {
		p.opts.Reporter.Status("Detail panel did not load, moving on")
		return
	}

	rec := p.ex.Extract(ctx, p.opts.Data)
	if !models.Found(rec.Name) {
		log.Debug().Str("item", id).Msg("Dropping record without a name")
		return
	}
	p.records = append(p.records, rec)
	p.opts.Reporter.Progress(len(p.records))
}

func (p *Paginator) waitPanel(ctx context.Context) bool {
	for _, sel := range panelSelectors {
		if _, ok := p.s.SafeFind(ctx, sel, p.opts.PanelWait); ok {
			return true
		}
	}
	return false
}

// scroll measures the container, handles stalls and advances the list.
func (p *Paginator) scroll(ctx context.Context) error {
	pacing := p.s.Pacing()

	var height int64
	if err := p.s.ExecOn(ctx, p.container, scrollHeightJS, &height); err != nil {
		p.opts.Reporter.Status(fmt.Sprintf("Scroll error: %v", err))
		return p.reloadAndSearch(ctx)
	}

	if p.haveHeight && height == p.lastHeight {
		p.stalls++
		if p.stalls >= stallNudgeAt {
			p.opts.Reporter.Status("Scrolling harder to load more results")
			for i := 0; i < nudgeCount; i++ {
				_ = p.s.ExecOn(ctx, p.container, scrollByJS, nil, nudgePixels)
				p.s.RandomSleep(ctx, pacing.Nudge)
			}
			p.s.RandomSleep(ctx, pacing.StallWait)
		}
		if p.stalls >= stallReloadAt {
			p.opts.Reporter.Status("No new results, reloading the page")
			return p.reloadAndSearch(ctx)
		}
	} else {
		p.stalls = 0
	}

	_ = p.s.ExecOn(ctx, p.container, scrollByJS, nil, stepPixels)
	p.s.RandomSleep(ctx, pacing.Scroll)
	p.lastHeight = height
	p.haveHeight = true
	return nil
}
