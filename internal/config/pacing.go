package config

import (
	"fmt"
	"time"
)

// Range is a closed interval of pause durations.
type Range struct {
	Min time.Duration
	Max time.Duration
}

// Pacing holds every human-like pause used by the browser-facing packages.
// A zero Pacing disables all pauses, which is what tests use.
type Pacing struct {
	Default     Range // after page loads
	Click       Range // after opening a feed item
	Short       Range // between click attempts and small UI steps
	WebsiteLoad Range // after loading a business website
	ContactPage Range // after loading a contact page
	ExtraPage   Range // after loading an extra internal page
	Scroll      Range // after every scroll step
	StallWait   Range // after stall nudges
	Nudge       Range // between stall nudges
}

// Scale returns a copy with every range multiplied by f.
func (p Pacing) Scale(f float64) Pacing {
	s := func(r Range) Range {
		return Range{
			Min: time.Duration(float64(r.Min) * f),
			Max: time.Duration(float64(r.Max) * f),
		}
	}
	return Pacing{
		Default:     s(p.Default),
		Click:       s(p.Click),
		Short:       s(p.Short),
		WebsiteLoad: s(p.WebsiteLoad),
		ContactPage: s(p.ContactPage),
		ExtraPage:   s(p.ExtraPage),
		Scroll:      s(p.Scroll),
		StallWait:   s(p.StallWait),
		Nudge:       s(p.Nudge),
	}
}

func (r Range) validate(name string) error {
	if r.Min < 0 || r.Max < 0 {
		return fmt.Errorf("pacing %s must not be negative", name)
	}
	if r.Max < r.Min {
		return fmt.Errorf("pacing %s max (%s) is below min (%s)", name, r.Max, r.Min)
	}
	return nil
}

func (p Pacing) validate() error {
	ranges := map[string]Range{
		"default":      p.Default,
		"click":        p.Click,
		"short":        p.Short,
		"website-load": p.WebsiteLoad,
		"contact-page": p.ContactPage,
		"extra-page":   p.ExtraPage,
		"scroll":       p.Scroll,
		"stall-wait":   p.StallWait,
		"nudge":        p.Nudge,
	}
	for name, r := range ranges {
		if err := r.validate(name); err != nil {
			return err
		}
	}
	return nil
}
