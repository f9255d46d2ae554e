package sitecrawl

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/law-makers/leadcrawl/internal/browser"
	"github.com/law-makers/leadcrawl/internal/browser/browsertest"
	"github.com/law-makers/leadcrawl/internal/cache"
)

const site = "https://lezzetfirini.com.tr/"

const landingHTML = `<html><body>
<header><nav><a href="/iletisim">İletişim</a><a href="/urunler">Ürünler</a></nav></header>
<a href="https://www.facebook.com/lezzet">Facebook</a>
<a href="/menu.pdf">Menü</a>
<a href="/subeler">Şubeler</a>
</body></html>`

func newCrawler(t *testing.T, pages map[string]*browsertest.Page, opts Options) (*Crawler, *browsertest.FakeDriver) {
	t.Helper()
	f := browsertest.New(pages)
	s := browser.NewSession(f.Launcher(), browser.Options{})
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return New(s, opts), f
}

func assertRestored(t *testing.T, f *browsertest.FakeDriver) {
	t.Helper()
	if f.WindowCount() != 1 || f.CurrentWindow() != "window-1" {
		t.Errorf("original window not restored: %d windows, current %s", f.WindowCount(), f.CurrentWindow())
	}
}

func TestHarvestContactPage(t *testing.T) {
	c, f := newCrawler(t, map[string]*browsertest.Page{
		site: {Source: landingHTML, BodyText: "Hoş geldiniz"},
		"https://lezzetfirini.com.tr/iletisim": {
			Source:   `<a href="mailto:siparis@lezzetfirini.com.tr?subject=Siparis">Yazın</a>`,
			BodyText: "info@lezzetfirini.com.tr",
		},
	}, Options{})

	got := c.Harvest(context.Background(), site)
	want := []string{"siparis@lezzetfirini.com.tr", "info@lezzetfirini.com.tr"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Harvest = %v, want %v", got, want)
	}

	wantNav := []string{site, "https://lezzetfirini.com.tr/iletisim"}
	if !reflect.DeepEqual(f.Navigations, wantNav) {
		t.Errorf("navigations = %v, want %v", f.Navigations, wantNav)
	}
	assertRestored(t, f)
}

func TestHarvestFallsBackToOtherPages(t *testing.T) {
	c, f := newCrawler(t, map[string]*browsertest.Page{
		site:                                   {Source: landingHTML},
		"https://lezzetfirini.com.tr/iletisim": {BodyText: "Bize telefonla ulaşın"},
		"https://lezzetfirini.com.tr/urunler":  {BodyText: "Toptan satış: toptan@lezzetfirini.com.tr"},
	}, Options{MaxExtraPages: 2})

	got := c.Harvest(context.Background(), site)
	if !reflect.DeepEqual(got, []string{"toptan@lezzetfirini.com.tr"}) {
		t.Errorf("Harvest = %v", got)
	}

	for _, n := range f.Navigations {
		switch n {
		case "https://www.facebook.com/lezzet", "https://lezzetfirini.com.tr/menu.pdf":
			t.Errorf("must not visit %s", n)
		}
	}
	wantNav := []string{
		site,
		"https://lezzetfirini.com.tr/iletisim",
		"https://lezzetfirini.com.tr/urunler",
		"https://lezzetfirini.com.tr/subeler",
	}
	if !reflect.DeepEqual(f.Navigations, wantNav) {
		t.Errorf("navigations = %v, want %v", f.Navigations, wantNav)
	}
	assertRestored(t, f)
}

func TestHarvestRejectsPlatforms(t *testing.T) {
	c, f := newCrawler(t, nil, Options{})

	if got := c.Harvest(context.Background(), "https://www.instagram.com/lezzet"); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
	if got := c.Harvest(context.Background(), "lezzetfirini.com.tr"); got != nil {
		t.Errorf("expected nil for a scheme-less url, got %v", got)
	}
	if len(f.Navigations) != 0 || f.WindowCount() != 1 {
		t.Errorf("rejected urls must not touch the browser")
	}
}

func TestHarvestAbortsOnPlatformRedirect(t *testing.T) {
	c, f := newCrawler(t, map[string]*browsertest.Page{
		"https://kisa.link/lezzet": {RedirectTo: "https://www.instagram.com/lezzet"},
	}, Options{})

	if got := c.Harvest(context.Background(), "https://kisa.link/lezzet"); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
	if len(f.Navigations) != 1 {
		t.Errorf("nothing after the redirect should load, got %v", f.Navigations)
	}
	assertRestored(t, f)
}

func TestHarvestWithoutNewWindow(t *testing.T) {
	c, f := newCrawler(t, nil, Options{})
	f.NewWindowErr = errors.New("target creation refused")

	if got := c.Harvest(context.Background(), site); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
	if len(f.Navigations) != 0 {
		t.Errorf("no page should load without a window")
	}
}

func TestHarvestLoadFailureRestoresWindow(t *testing.T) {
	c, f := newCrawler(t, nil, Options{})
	f.FailNavigation(site, errors.New("net::ERR_NAME_NOT_RESOLVED"))

	if got := c.Harvest(context.Background(), site); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
	assertRestored(t, f)
}

func TestHarvestUsesCache(t *testing.T) {
	mc := cache.NewMemoryCache(10)
	defer mc.Close()

	c, f := newCrawler(t, map[string]*browsertest.Page{
		site: {BodyText: "owner@lezzetfirini.com.tr"},
	}, Options{Cache: mc, CacheTTL: time.Minute})

	first := c.Harvest(context.Background(), site)
	second := c.Harvest(context.Background(), "https://www.lezzetfirini.com.tr/hakkimizda")
	if !reflect.DeepEqual(first, second) || len(first) != 1 {
		t.Errorf("cached result differs: %v vs %v", first, second)
	}
	if len(f.Navigations) != 1 {
		t.Errorf("second harvest of the same site should not navigate, got %v", f.Navigations)
	}
}

func TestContactLinksMenuFirst(t *testing.T) {
	html := `<body>
		<a href="/about-us">About us</a>
		<footer><a href="https://shop.lezzetfirini.com.tr/contact">Contact</a></footer>
		<a href="https://other.com/contact">Other</a>
		<a href="mailto:x@lezzetfirini.com.tr">Mail</a>
	</body>`
	got := ContactLinks(html, site)
	want := []string{"https://shop.lezzetfirini.com.tr/contact", "https://lezzetfirini.com.tr/about-us"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ContactLinks = %v, want %v", got, want)
	}
}

func TestInternalLinksLimit(t *testing.T) {
	html := `<a href="/a">a</a><a href="/a#x">a again</a><a href="/b">b</a><a href="/c.jpg">c</a><a href="/d">d</a>`
	got := InternalLinks(html, site, 2)
	want := []string{"https://lezzetfirini.com.tr/a", "https://lezzetfirini.com.tr/b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("InternalLinks = %v, want %v", got, want)
	}
}
