package extract

import (
	"context"
	"strings"
)

var addressTaggedSelectors = []string{
	"button[data-item-id*='address']",
	"button[data-tooltip='Adresi kopyala']",
	"button[data-tooltip='Copy address']",
	"[aria-label*='adres']",
	"[aria-label*='Address']",
}

var addressButtonSelectors = []string{
	"button[data-item-id^='address']",
	"[data-tooltip='Adres kopyala']",
}

const addressIconXPath = "//img[contains(@src, 'location') or contains(@src, 'address')]/ancestor::button"

var addressKeywords = []string{"adres", "konum", "address", "location"}

var addressLabelPrefixes = []string{"Adres:", "Address:", "Konum:", "Location:"}

// Address returns the postal address or models.NotFound.
func (e *Extractor) Address(ctx context.Context) string {
	return e.firstOf(ctx, "Address", []namedStrategy{
		{"aria-label", e.addressFromTagged},
		{"address button", func(ctx context.Context) (string, bool) {
			return e.textOf(ctx, addressButtonSelectors, longerThan(10))
		}},
		{"data-item-id", func(ctx context.Context) (string, bool) {
			return e.textOf(ctx, []string{"[data-item-id*='address']"}, longerThan(10))
		}},
		{"location icon", e.addressFromIcon},
		{"url", e.addressFromURL},
	})
}

func (e *Extractor) addressFromTagged(ctx context.Context) (string, bool) {
	for _, sel := range addressTaggedSelectors {
		for _, n := range e.s.FindAll(ctx, sel, nil) {
			if label := e.s.SafeAttr(ctx, n, "aria-label"); containsAny(label, addressKeywords) {
				if v := stripLabel(label, addressLabelPrefixes); v != "" {
					return v, true
				}
			}
			if t := e.s.SafeText(ctx, n); longerThan(10)(t) {
				return t, true
			}
		}
	}
	return "", false
}

func (e *Extractor) addressFromIcon(ctx context.Context) (string, bool) {
	for _, n := range e.s.FindXPath(ctx, addressIconXPath) {
		if t := e.s.SafeText(ctx, n); longerThan(10)(t) {
			return t, true
		}
	}
	return "", false
}

func (e *Extractor) addressFromURL(ctx context.Context) (string, bool) {
	place := PlaceSegment(e.s.CurrentURL(ctx))
	return place, longerThan(5)(place)
}

func containsAny(s string, keywords []string) bool {
	lower := strings.ToLower(s)
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// stripLabel removes a leading "Address:"-style prefix, case-insensitively.
func stripLabel(label string, prefixes []string) string {
	label = strings.TrimSpace(label)
	for _, p := range prefixes {
		if len(label) >= len(p) && strings.EqualFold(label[:len(p)], p) {
			return strings.TrimSpace(label[len(p):])
		}
	}
	return label
}
