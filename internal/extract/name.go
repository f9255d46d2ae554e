package extract

import (
	"context"
	"net/url"
	"regexp"
	"strings"
)

var headlineSelectors = []string{
	"h1.DUwDvf",
	"h1.fontHeadlineLarge",
	"h1.tAiQdd",
	"h1",
	"[role='main'] h1",
	"[role='dialog'] h1",
	".fontHeadlineLarge",
	".DUwDvf",
}

var panelNameSelectors = []string{
	".w4GYrb span",
	".UlEimf span",
	".qBF1Pd",
	".lMbq3e h2",
}

// namePlaceholders are list headings that show up where the name should be.
var namePlaceholders = []string{"Results", "Sonuçlar"}

var (
	placePattern   = regexp.MustCompile(`/place/([^/?#]+)`)
	percentPattern = regexp.MustCompile(`%[0-9A-Za-z]{0,2}`)
	spacePattern   = regexp.MustCompile(`\s+`)
)

// Name returns the business name or models.NotFound.
func (e *Extractor) Name(ctx context.Context) string {
	return e.firstOf(ctx, "Name", []namedStrategy{
		{"headline", func(ctx context.Context) (string, bool) { return e.textOf(ctx, headlineSelectors, acceptName) }},
		{"panel", func(ctx context.Context) (string, bool) { return e.textOf(ctx, panelNameSelectors, acceptName) }},
		{"url", e.nameFromURL},
		{"title", e.nameFromTitle},
	})
}

func acceptName(s string) bool {
	s = strings.TrimSpace(s)
	if len([]rune(s)) <= 2 || strings.HasPrefix(strings.ToLower(s), "http") {
		return false
	}
	for _, p := range namePlaceholders {
		if strings.EqualFold(s, p) {
			return false
		}
	}
	return true
}

func (e *Extractor) nameFromURL(ctx context.Context) (string, bool) {
	name := PlaceSegment(e.s.CurrentURL(ctx))
	return name, name != "" && acceptName(name)
}

func (e *Extractor) nameFromTitle(ctx context.Context) (string, bool) {
	title := e.s.Title(ctx)
	i := strings.Index(title, " - Google")
	if i < 0 {
		return "", false
	}
	name := strings.TrimSpace(title[:i])
	return name, acceptName(name)
}

// PlaceSegment decodes the /place/<name>/ segment of a map detail URL,
// turning "+" into spaces and dropping escapes that do not decode.
func PlaceSegment(rawURL string) string {
	m := placePattern.FindStringSubmatch(rawURL)
	if m == nil {
		return ""
	}
	seg := strings.ReplaceAll(m[1], "+", " ")
	if decoded, err := url.PathUnescape(seg); err == nil {
		seg = decoded
	} else {
		seg = percentPattern.ReplaceAllString(seg, " ")
	}
	return strings.TrimSpace(spacePattern.ReplaceAllString(seg, " "))
}
