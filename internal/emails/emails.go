// Package emails finds, validates and ranks e-mail addresses in rendered pages.
package emails

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	urlutil "github.com/law-makers/leadcrawl/internal/utils/url"
)

var (
	candidatePattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	strictPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// ExcludedPatterns mark bounce and no-reply mailboxes.
var ExcludedPatterns = []string{"noreply", "no-reply", "donotreply", "do-not-reply", "mailer-daemon", "mailerdaemon", "postmaster"}

// GenericPrefixes mark shared role mailboxes.
var GenericPrefixes = []string{"info@", "contact@", "mail@", "iletisim@", "bilgi@", "hello@", "destek@", "support@", "office@", "sales@"}

// assetSuffixes reject retina image names like logo@2x.png that look like addresses.
var assetSuffixes = []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".css", ".js"}

// IsValid applies the strict address shape check.
func IsValid(s string) bool {
	if !strictPattern.MatchString(s) {
		return false
	}
	lower := strings.ToLower(s)
	for _, suffix := range assetSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return false
		}
	}
	domain := lower[strings.LastIndex(lower, "@")+1:]
	return !strings.Contains(domain, "..") && !strings.HasPrefix(domain, ".") && !strings.HasPrefix(domain, "-")
}

// FindAll returns every address-shaped substring of text in order of appearance.
func FindAll(text string) []string {
	return candidatePattern.FindAllString(text, -1)
}

// MailtoTargets extracts the addresses of mailto: links, without scheme or query.
func MailtoTargets(html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var out []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if len(href) < 7 || !strings.EqualFold(href[:7], "mailto:") {
			return
		}
		target := href[7:]
		if i := strings.Index(target, "?"); i != -1 {
			target = target[:i]
		}
		if decoded, err := url.PathUnescape(target); err == nil {
			target = decoded
		}
		for _, addr := range strings.Split(target, ",") {
			if addr = strings.TrimSpace(addr); addr != "" {
				out = append(out, addr)
			}
		}
	})
	return out
}

// ScanPage collects addresses from the rendered markup, the visible body text
// and mailto: links. Only strictly valid addresses survive; the result is
// de-duplicated in discovery order.
func ScanPage(source, bodyText string) []string {
	var candidates []string
	candidates = append(candidates, FindAll(source)...)
	candidates = append(candidates, FindAll(bodyText)...)
	candidates = append(candidates, MailtoTargets(source)...)

	valid := make([]string, 0, len(candidates))
	for _, c := range candidates {
		c = strings.Trim(c, " .;,")
		if IsValid(c) {
			valid = append(valid, c)
		}
	}
	return Dedupe(valid)
}

// Dedupe lower-cases addresses and drops repeats, keeping first-seen order.
func Dedupe(list []string) []string {
	seen := make(map[string]bool, len(list))
	out := make([]string, 0, len(list))
	for _, e := range list {
		key := strings.ToLower(strings.TrimSpace(e))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	return out
}

// IsExcluded reports bounce and no-reply addresses.
func IsExcluded(addr string) bool {
	lower := strings.ToLower(addr)
	for _, p := range ExcludedPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// IsGeneric reports shared role mailboxes such as info@.
func IsGeneric(addr string) bool {
	lower := strings.ToLower(addr)
	for _, p := range GenericPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// Prioritize de-duplicates and orders addresses personal first, then generic.
// Excluded addresses are returned only when nothing else was found.
func Prioritize(list []string) []string {
	var personal, generic, excluded []string
	for _, e := range Dedupe(list) {
		switch {
		case IsExcluded(e):
			excluded = append(excluded, e)
		case IsGeneric(e):
			generic = append(generic, e)
		default:
			personal = append(personal, e)
		}
	}
	if len(personal)+len(generic) == 0 {
		return excluded
	}
	return append(personal, generic...)
}

// WithoutPlatformDomains drops addresses hosted on excluded platforms (maps, social, listings).
func WithoutPlatformDomains(list []string) []string {
	out := make([]string, 0, len(list))
	for _, e := range list {
		domain := e[strings.LastIndex(e, "@")+1:]
		if urlutil.IsExcludedHost(domain) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Domain returns the part after @.
func Domain(addr string) string {
	i := strings.LastIndex(addr, "@")
	if i < 0 {
		return ""
	}
	return strings.ToLower(addr[i+1:])
}
