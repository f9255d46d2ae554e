// Package extract reads business fields out of an open map detail panel.
//
// Every field is an ordered list of strategies; the first strategy that
// yields a value wins and absence is reported as models.NotFound.
package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/law-makers/leadcrawl/internal/browser"
	"github.com/law-makers/leadcrawl/internal/emails"
	"github.com/law-makers/leadcrawl/internal/progress"
	"github.com/law-makers/leadcrawl/pkg/models"
)

// Strategy tries to produce one field value.
type Strategy func(ctx context.Context) (string, bool)

type namedStrategy struct {
	name string
	try  Strategy
}

// EmailHarvester crawls a business website for addresses.
type EmailHarvester interface {
	Harvest(ctx context.Context, website string) []string
}

// Extractor builds BusinessRecords from the detail panel shown in the session.
type Extractor struct {
	s         *browser.Session
	harvester EmailHarvester
	report    progress.Reporter
	now       func() time.Time
}

// New returns an Extractor. harvester may be nil, in which case only the panel
// itself is scanned for e-mail addresses.
func New(s *browser.Session, harvester EmailHarvester, report progress.Reporter) *Extractor {
	if report == nil {
		report = progress.Nop{}
	}
	return &Extractor{s: s, harvester: harvester, report: report, now: time.Now}
}

// Extract collects the fields selected by opts. It never fails.
func (e *Extractor) Extract(ctx context.Context, opts models.DataOptions) models.BusinessRecord {
	rec := models.BusinessRecord{
		DetailURL:   models.NotFound,
		Name:        models.NotFound,
		Address:     models.NotFound,
		Phone:       models.NotFound,
		Website:     models.NotFound,
		CollectedAt: e.now(),
	}

	if u := e.s.CurrentURL(ctx); u != "" {
		rec.DetailURL = u
	}
	rec.Name = e.Name(ctx)

	if opts.CollectAddress {
		rec.Address = e.Address(ctx)
	}
	if opts.CollectPhone {
		rec.Phone = e.Phone(ctx)
	}
	if opts.CollectWebsite {
		rec.Website = e.Website(ctx)
	}

	if opts.CollectEmail {
		found := emails.WithoutPlatformDomains(emails.ScanPage(e.s.PageSource(ctx), e.s.BodyText(ctx)))
		if len(found) > 0 {
			e.report.Status(fmt.Sprintf("Found %d e-mail(s) in the detail panel", len(found)))
		}
		switch {
		case !models.Found(rec.Website):
			e.report.Status("No website found, skipping e-mail crawl")
		case e.harvester != nil:
			found = append(found, e.harvester.Harvest(ctx, rec.Website)...)
		}
		rec.Emails = emails.Prioritize(found)
	}

	return rec
}

// firstOf runs strategies in order and returns the first value with the
// name of the strategy that produced it.
func (e *Extractor) firstOf(ctx context.Context, field string, strategies []namedStrategy) string {
	for _, st := range strategies {
		if ctx.Err() != nil {
			break
		}
		if v, ok := st.try(ctx); ok {
			log.Debug().Str("field", field).Str("strategy", st.name).Str("value", v).Msg("Field extracted")
			e.report.Status(fmt.Sprintf("%s found (%s): %s", field, st.name, v))
			return v
		}
	}
	log.Debug().Str("field", field).Msg("Field not found")
	return models.NotFound
}

// textOf returns the first element text under selectors that passes accept.
func (e *Extractor) textOf(ctx context.Context, selectors []string, accept func(string) bool) (string, bool) {
	for _, sel := range selectors {
		for _, n := range e.s.FindAll(ctx, sel, nil) {
			if t := e.s.SafeText(ctx, n); t != "" && accept(t) {
				return t, true
			}
		}
	}
	return "", false
}

func longerThan(n int) func(string) bool {
	return func(s string) bool { return len([]rune(s)) > n }
}
