package extract

import (
	"context"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	"github.com/rs/zerolog/log"

	urlutil "github.com/law-makers/leadcrawl/internal/utils/url"
)

var websiteSelectors = []string{
	"a[data-item-id='authority']",
	"button[data-item-id='authority']",
	"a[data-tooltip='Web sitesi']",
	"a[data-tooltip='Open website']",
	"a[aria-label*='site']",
	"a[href*='http']:not([href*='google.com']):not([href*='goo.gl'])",
}

var websiteButtonSelectors = []string{
	"button[data-item-id='authority']",
	"a[data-item-id='authority']",
	"a[aria-label*='web']",
	"button[aria-label*='web']",
}

const websiteButtonXPath = "//button[contains(text(), 'Web') or contains(., 'Site') or contains(@aria-label, 'web')]"

// Website returns the business's own website or models.NotFound. Links to
// map, social and listing platforms never count.
func (e *Extractor) Website(ctx context.Context) string {
	return e.firstOf(ctx, "Website", []namedStrategy{
		{"authority link", e.websiteFromLinks},
		{"website button", e.websiteFromButtons},
	})
}

// checkWebsite unwraps redirect links and applies business-site validation.
func checkWebsite(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if !strings.HasPrefix(strings.ToLower(href), "http") {
		return "", false
	}
	href = urlutil.UnwrapRedirect(href)
	if !urlutil.IsBusinessWebsite(href) {
		log.Debug().Str("url", href).Msg("Discarding non-business website")
		return "", false
	}
	return href, true
}

func (e *Extractor) websiteFromLinks(ctx context.Context) (string, bool) {
	for _, sel := range websiteSelectors {
		for _, n := range e.s.FindAll(ctx, sel, nil) {
			if v, ok := checkWebsite(e.s.SafeAttr(ctx, n, "href")); ok {
				return v, true
			}
		}
	}
	return "", false
}

func (e *Extractor) websiteFromButtons(ctx context.Context) (string, bool) {
	var candidates []*cdp.Node
	for _, sel := range websiteButtonSelectors {
		candidates = append(candidates, e.s.FindAll(ctx, sel, nil)...)
	}
	candidates = append(candidates, e.s.FindXPath(ctx, websiteButtonXPath)...)

	for _, n := range candidates {
		if ctx.Err() != nil {
			return "", false
		}
		if href := e.s.SafeAttr(ctx, n, "href"); href != "" {
			if v, ok := checkWebsite(href); ok {
				return v, true
			}
			continue
		}
		if v, ok := e.websiteFromPopup(ctx, n); ok {
			return v, true
		}
	}
	return "", false
}

// websiteFromPopup clicks n and reads the URL of any window the click opened.
// Every new window is closed again before returning.
func (e *Extractor) websiteFromPopup(ctx context.Context, n *cdp.Node) (string, bool) {
	main := e.s.CurrentWindow()
	before := make(map[string]bool)
	for _, h := range e.s.WindowHandles(ctx) {
		before[h] = true
	}

	if !e.s.SafeClick(ctx, n, 1) {
		return "", false
	}
	e.s.RandomSleep(ctx, e.s.Pacing().Click)

	found := ""
	for _, h := range e.s.WindowHandles(ctx) {
		if before[h] {
			continue
		}
		if e.s.SwitchTo(ctx, h) {
			if v, ok := checkWebsite(e.s.CurrentURL(ctx)); ok && found == "" {
				found = v
			}
		}
		e.s.CloseCurrentAndSwitchTo(ctx, main)
	}
	return found, found != ""
}
