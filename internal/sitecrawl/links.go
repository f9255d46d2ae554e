package sitecrawl

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	urlutil "github.com/law-makers/leadcrawl/internal/utils/url"
)

// ContactKeywords mark contact and about pages in the languages we see most.
var ContactKeywords = []string{
	"iletişim", "iletisim", "contact", "kontakt", "связаться", "contacto",
	"contatto", "contato", "連絡先", "联系", "bize ulaşın",
	"contact-us", "contact_us", "get-in-touch", "reach-us", "bize-yazın",
	"bize_ulasin", "hakkimizda", "about-us", "about_us", "kurumsal", "about",
}

const menuSelector = "nav a, .menu a, .nav a, .navbar a, header a, .header a, footer a, .footer a"

type anchor struct {
	href string
	text string
}

// anchors returns absolute http(s) links of doc matched by selector that stay on base's site.
func anchors(doc *goquery.Document, selector, base string) []anchor {
	var out []anchor
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		abs := urlutil.ResolveURL(base, href)
		if !strings.HasPrefix(strings.ToLower(abs), "http") || !urlutil.SameSite(base, abs) {
			return
		}
		out = append(out, anchor{href: abs, text: strings.ToLower(strings.TrimSpace(sel.Text()))})
	})
	return out
}

func isContactLike(a anchor) bool {
	href := strings.ToLower(a.href)
	for _, k := range ContactKeywords {
		if strings.Contains(a.text, k) || strings.Contains(href, k) {
			return true
		}
	}
	return false
}

// ContactLinks lists same-site links whose text or URL looks like a contact
// page. Matches inside navigation, header, footer and menu regions come first.
func ContactLinks(html, base string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	seen := map[string]bool{urlutil.Canonical(base): true}
	var out []string
	add := func(list []anchor) {
		for _, a := range list {
			key := urlutil.Canonical(a.href)
			if seen[key] || urlutil.HasFileExtension(a.href) || !isContactLike(a) {
				continue
			}
			seen[key] = true
			out = append(out, a.href)
		}
	}
	add(anchors(doc, menuSelector, base))
	add(anchors(doc, "a[href]", base))
	return out
}

// InternalLinks lists up to limit same-site page links in document order,
// skipping assets and base itself.
func InternalLinks(html, base string, limit int) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	seen := map[string]bool{urlutil.Canonical(base): true}
	var out []string
	for _, a := range anchors(doc, "a[href]", base) {
		if limit > 0 && len(out) >= limit {
			break
		}
		key := urlutil.Canonical(a.href)
		if seen[key] || urlutil.HasFileExtension(a.href) {
			continue
		}
		seen[key] = true
		out = append(out, a.href)
	}
	return out
}
