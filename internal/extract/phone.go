package extract

import (
	"context"
	"regexp"
	"strings"
)

var phonePattern = regexp.MustCompile(`(\+\d{1,3}\s?)?(\(\d{1,4}\)\s?)?[\d\s]{7,}`)

const (
	minPhoneDigits  = 7
	maxPhoneDigits  = 15
	maxPhoneTextLen = 30
)

var phoneTaggedSelectors = []string{
	"button[data-tooltip='Telefon numarasını kopyala']",
	"button[data-tooltip='Copy phone number']",
	"button[data-item-id*='phone']",
	"[aria-label*='telefon']",
	"[aria-label*='Phone']",
}

var phoneButtonSelectors = []string{
	"button[data-item-id^='phone']",
	"[data-tooltip='Telefon numarasını kopyala']",
}

var phoneKeywords = []string{"telefon", "phone"}

var phoneLabelPrefixes = []string{"Telefon:", "Phone:"}

// Phone returns the phone number or models.NotFound.
func (e *Extractor) Phone(ctx context.Context) string {
	return e.firstOf(ctx, "Phone", []namedStrategy{
		{"tagged element", e.phoneFromTagged},
		{"phone button", func(ctx context.Context) (string, bool) {
			return e.phoneFromTexts(ctx, phoneButtonSelectors, 0)
		}},
		{"any button", func(ctx context.Context) (string, bool) {
			return e.phoneFromTexts(ctx, []string{"button"}, maxPhoneTextLen)
		}},
		{"page source", func(ctx context.Context) (string, bool) {
			return LongestPhone(e.s.PageSource(ctx))
		}},
	})
}

func (e *Extractor) phoneFromTagged(ctx context.Context) (string, bool) {
	for _, sel := range phoneTaggedSelectors {
		for _, n := range e.s.FindAll(ctx, sel, nil) {
			if label := e.s.SafeAttr(ctx, n, "aria-label"); containsAny(label, phoneKeywords) {
				if v, ok := FindPhone(stripLabel(label, phoneLabelPrefixes)); ok {
					return v, true
				}
			}
			if t := e.s.SafeText(ctx, n); len([]rune(t)) < maxPhoneTextLen {
				if v, ok := FindPhone(t); ok {
					return v, true
				}
			}
		}
	}
	return "", false
}

// phoneFromTexts scans element texts; maxLen of 0 means no length ceiling.
func (e *Extractor) phoneFromTexts(ctx context.Context, selectors []string, maxLen int) (string, bool) {
	for _, sel := range selectors {
		for _, n := range e.s.FindAll(ctx, sel, nil) {
			t := e.s.SafeText(ctx, n)
			if t == "" || (maxLen > 0 && len([]rune(t)) >= maxLen) {
				continue
			}
			if v, ok := FindPhone(t); ok {
				return v, true
			}
		}
	}
	return "", false
}

// FindPhone returns the first phone-shaped run in s carrying 7 to 15 digits.
func FindPhone(s string) (string, bool) {
	for _, m := range phonePattern.FindAllString(s, -1) {
		if m = strings.TrimSpace(m); validPhone(m) {
			return m, true
		}
	}
	return "", false
}

// LongestPhone returns the longest valid phone-shaped run in s.
func LongestPhone(s string) (string, bool) {
	best := ""
	for _, m := range phonePattern.FindAllString(s, -1) {
		if m = strings.TrimSpace(m); validPhone(m) && len(m) > len(best) {
			best = m
		}
	}
	return best, best != ""
}

func validPhone(s string) bool {
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= minPhoneDigits && digits <= maxPhoneDigits
}
