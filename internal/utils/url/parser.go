package urlutil

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// MinWebsiteLength is the shortest string accepted as a business website.
const MinWebsiteLength = 10

// ExcludedDomains are map, social, video and listing platforms that are never a business's own site.
var ExcludedDomains = []string{
	"google.com",
	"goo.gl",
	"maps.app.goo.gl",
	"youtube.com",
	"facebook.com",
	"instagram.com",
	"twitter.com",
	"x.com",
	"linkedin.com",
	"yelp.com",
	"tripadvisor.com",
}

// excludedBrands match a registrable label under any public suffix, so
// google.com.tr, google.co.uk and facebook.de are excluded too.
var excludedBrands = []string{
	"google",
	"youtube",
	"facebook",
	"instagram",
	"linkedin",
	"yelp",
	"tripadvisor",
}

// FileExtensions mark links that point at assets rather than pages.
var FileExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".svg", ".webp", ".pdf", ".doc", ".docx", ".xls", ".xlsx", ".zip", ".rar"}

// ValidateURL performs comprehensive URL validation
func ValidateURL(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: must be http or https, got %s", parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("invalid URL: missing host")
	}

	return nil
}

// ResolveURL resolves a possibly-relative href against a base URL and returns a string
func ResolveURL(base, href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if u.IsAbs() {
		return href
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(u).String()
}

// Hostname returns the lower-cased host of rawURL without port or "www.".
func Hostname(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// IsExcluded reports whether rawURL belongs to a platform in ExcludedDomains.
func IsExcluded(rawURL string) bool {
	host := Hostname(rawURL)
	if host == "" {
		return false
	}
	return IsExcludedHost(host)
}

// IsExcludedHost is IsExcluded for a bare host name.
func IsExcludedHost(host string) bool {
	host = strings.TrimSuffix(strings.TrimPrefix(strings.ToLower(host), "www."), ".")
	label := brandLabel(host)
	for _, b := range excludedBrands {
		if label == b {
			return true
		}
	}
	for _, d := range ExcludedDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// brandLabel returns the label left of the public suffix
// ("maps.google.com.tr" -> "google").
func brandLabel(host string) string {
	etld1, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return ""
	}
	label, _, _ := strings.Cut(etld1, ".")
	return label
}

// IsBusinessWebsite accepts http(s) URLs of a minimal length that are not on an excluded platform.
func IsBusinessWebsite(rawURL string) bool {
	rawURL = strings.TrimSpace(rawURL)
	lower := strings.ToLower(rawURL)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return false
	}
	if len(rawURL) < MinWebsiteLength {
		return false
	}
	if ValidateURL(rawURL) != nil {
		return false
	}
	return !IsExcluded(rawURL)
}

// UnwrapRedirect returns the target of a google.*/url?q= redirect link, or rawURL unchanged.
func UnwrapRedirect(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return rawURL
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if !strings.HasPrefix(host, "google.") || u.Path != "/url" {
		return rawURL
	}
	for _, key := range []string{"q", "url"} {
		if target := u.Query().Get(key); strings.HasPrefix(target, "http") {
			return target
		}
	}
	return rawURL
}

// RegistrableDomain returns the eTLD+1 of rawURL ("shop.example.co.uk" -> "example.co.uk"),
// falling back to the bare host when the public suffix list has no answer.
func RegistrableDomain(rawURL string) string {
	host := Hostname(rawURL)
	if host == "" {
		return ""
	}
	if d, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return d
	}
	return host
}

// SameSite reports whether two URLs share a registrable domain.
func SameSite(a, b string) bool {
	da, db := RegistrableDomain(a), RegistrableDomain(b)
	return da != "" && da == db
}

// HasFileExtension reports whether the URL path ends in an asset extension.
func HasFileExtension(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	ext := strings.ToLower(path.Ext(u.Path))
	for _, e := range FileExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Canonical strips the fragment and a trailing slash so visited-page checks compare like with like.
func Canonical(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return rawURL
	}
	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)
	s := u.String()
	if u.RawQuery == "" {
		s = strings.TrimSuffix(s, "/")
	}
	return s
}
