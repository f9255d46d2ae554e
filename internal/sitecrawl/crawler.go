// Package sitecrawl harvests e-mail addresses from a business website in a
// secondary browser window, leaving the map window untouched.
package sitecrawl

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/law-makers/leadcrawl/internal/browser"
	"github.com/law-makers/leadcrawl/internal/cache"
	"github.com/law-makers/leadcrawl/internal/config"
	"github.com/law-makers/leadcrawl/internal/emails"
	"github.com/law-makers/leadcrawl/internal/progress"
	"github.com/law-makers/leadcrawl/internal/ratelimit"
	urlutil "github.com/law-makers/leadcrawl/internal/utils/url"
)

// Options bounds a crawl and wires its optional collaborators.
type Options struct {
	MaxContactPages  int
	MaxInternalLinks int
	MaxExtraPages    int
	CacheTTL         time.Duration

	Limiter  ratelimit.RateLimiter
	Cache    cache.Cache
	Verifier *emails.MXVerifier
	Reporter progress.Reporter
}

// OptionsFromConfig maps crawler settings from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		MaxContactPages:  cfg.CrawlMaxContactPages,
		MaxInternalLinks: cfg.CrawlMaxInternalLinks,
		MaxExtraPages:    cfg.CrawlMaxExtraPages,
		CacheTTL:         cfg.CacheTTL,
	}
}

// Crawler visits a website and its contact pages. It drives the shared
// session and must not be called concurrently.
type Crawler struct {
	s    *browser.Session
	opts Options
}

// New creates a crawler over s.
func New(s *browser.Session, opts Options) *Crawler {
	if opts.MaxContactPages <= 0 {
		opts.MaxContactPages = config.DefaultCrawlMaxContactPages
	}
	if opts.MaxInternalLinks <= 0 {
		opts.MaxInternalLinks = config.DefaultCrawlMaxInternalLinks
	}
	if opts.MaxExtraPages <= 0 {
		opts.MaxExtraPages = config.DefaultCrawlMaxExtraPages
	}
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.Unlimited{}
	}
	if opts.Reporter == nil {
		opts.Reporter = progress.Nop{}
	}
	return &Crawler{s: s, opts: opts}
}

// Harvest returns prioritized addresses found on website, or nil. Results
// are cached per registrable domain when a cache is configured.
func (c *Crawler) Harvest(ctx context.Context, website string) []string {
	if !urlutil.IsBusinessWebsite(website) {
		c.opts.Reporter.Status(fmt.Sprintf("Not a business website, skipping e-mail search: %s", website))
		return nil
	}

	key := cache.KeyFromURL(website)
	if c.opts.Cache != nil {
		if cached, ok := c.opts.Cache.Get(key); ok {
			c.opts.Reporter.Status(fmt.Sprintf("Using cached e-mails for %s", key))
			return cached
		}
	}

	found := c.crawl(ctx, website)

	if c.opts.Cache != nil && ctx.Err() == nil {
		_ = c.opts.Cache.Set(key, found, c.opts.CacheTTL)
	}
	return found
}

func (c *Crawler) crawl(ctx context.Context, website string) []string {
	original, ok := c.s.OpenNewWindow(ctx, "")
	if !ok {
		c.opts.Reporter.Status("Could not open a new window, skipping e-mail search")
		return nil
	}
	defer func() {
		if !c.s.CloseCurrentAndSwitchTo(context.WithoutCancel(ctx), original) {
			log.Error().Str("window", original).Str("url", website).Msg("Could not restore the original window after crawling")
		}
	}()

	pacing := c.s.Pacing()

	c.opts.Reporter.Status(fmt.Sprintf("Visiting website: %s", website))
	if !c.load(ctx, website, pacing.WebsiteLoad) {
		return nil
	}

	landing := c.s.CurrentURL(ctx)
	if landing == "" {
		landing = website
	}
	if urlutil.Canonical(landing) != urlutil.Canonical(website) {
		log.Debug().Str("from", website).Str("to", landing).Msg("Website redirected")
		if urlutil.IsExcluded(landing) {
			c.opts.Reporter.Status(fmt.Sprintf("Website redirects to a platform page, skipping: %s", landing))
			return nil
		}
	}

	visited := map[string]bool{
		urlutil.Canonical(website): true,
		urlutil.Canonical(landing): true,
	}

	source := c.s.PageSource(ctx)
	found := emails.ScanPage(source, c.s.BodyText(ctx))
	c.opts.Reporter.Status(fmt.Sprintf("Found %d e-mail(s) on the home page", len(found)))

	contact := ContactLinks(source, landing)
	c.opts.Reporter.Status(fmt.Sprintf("Found %d possible contact page(s)", len(contact)))
	found = append(found, c.visitSome(ctx, contact, c.opts.MaxContactPages, visited, pacing.ContactPage)...)

	if len(found) == 0 && ctx.Err() == nil {
		others := InternalLinks(source, landing, c.opts.MaxInternalLinks)
		c.opts.Reporter.Status("No e-mail yet, checking other pages")
		found = append(found, c.visitSome(ctx, others, c.opts.MaxExtraPages, visited, pacing.ExtraPage)...)
	}

	result := emails.Prioritize(found)
	if c.opts.Verifier != nil && len(result) > 0 {
		result = c.opts.Verifier.Filter(ctx, result)
	}

	if len(result) > 0 {
		c.opts.Reporter.Status(fmt.Sprintf("Found %d unique e-mail(s) on %s", len(result), website))
	} else {
		c.opts.Reporter.Status(fmt.Sprintf("No e-mail found on %s", website))
	}
	return result
}

// visitSome loads up to limit unvisited links and scans each for addresses.
func (c *Crawler) visitSome(ctx context.Context, links []string, limit int, visited map[string]bool, pause config.Range) []string {
	var found []string
	n := 0
	for _, link := range links {
		if n >= limit || ctx.Err() != nil {
			break
		}
		key := urlutil.Canonical(link)
		if visited[key] {
			continue
		}
		visited[key] = true
		n++

		c.opts.Reporter.Status(fmt.Sprintf("Checking page (%d/%d): %s", n, limit, link))
		if !c.load(ctx, link, pause) {
			continue
		}
		page := emails.ScanPage(c.s.PageSource(ctx), c.s.BodyText(ctx))
		log.Debug().Str("url", link).Int("emails", len(page)).Msg("Page scanned")
		found = append(found, page...)
	}
	return found
}

func (c *Crawler) load(ctx context.Context, url string, pause config.Range) bool {
	if err := c.opts.Limiter.Wait(ctx, url); err != nil {
		return false
	}
	if err := c.s.Navigate(ctx, url); err != nil {
		c.opts.Reporter.Status(fmt.Sprintf("Could not load %s: %v", url, err))
		return false
	}
	c.s.RandomSleep(ctx, pause)
	return true
}
