package extract

import (
	"context"
	"reflect"
	"testing"

	"github.com/law-makers/leadcrawl/internal/browser"
	"github.com/law-makers/leadcrawl/internal/browser/browsertest"
	"github.com/law-makers/leadcrawl/pkg/models"
)

const detailURL = "https://www.google.com/maps/place/Lezzet+F%C4%B1r%C4%B1n%C4%B1/@41.0,29.0,17z"

func newExtractor(t *testing.T, url string, page *browsertest.Page, h EmailHarvester) (*Extractor, *browsertest.FakeDriver) {
	t.Helper()
	f := browsertest.New(map[string]*browsertest.Page{url: page})
	s := browser.NewSession(f.Launcher(), browser.Options{})
	ctx := context.Background()
	if err := s.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := s.Navigate(ctx, url); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	return New(s, h, nil), f
}

func el(text string, attrs ...string) *browsertest.Element {
	e := &browsertest.Element{Text: text, Attrs: map[string]string{}}
	for i := 0; i+1 < len(attrs); i += 2 {
		e.Attrs[attrs[i]] = attrs[i+1]
	}
	return e
}

func TestName(t *testing.T) {
	cases := []struct {
		name string
		url  string
		page *browsertest.Page
		want string
	}{
		{
			name: "headline skips placeholder",
			url:  detailURL,
			page: &browsertest.Page{Nodes: map[string][]*browsertest.Element{
				"h1.DUwDvf": {el("Results")},
				"h1":        {el("Kahve Dünyası")},
			}},
			want: "Kahve Dünyası",
		},
		{
			name: "panel selector",
			url:  detailURL,
			page: &browsertest.Page{Nodes: map[string][]*browsertest.Element{
				".qBF1Pd": {el("ab"), el("Simit Sarayı")},
			}},
			want: "Simit Sarayı",
		},
		{
			name: "url place segment",
			url:  detailURL,
			page: &browsertest.Page{},
			want: "Lezzet Fırını",
		},
		{
			name: "document title",
			url:  "https://www.google.com/maps/search/bakery",
			page: &browsertest.Page{Title: "Pastane Ali - Google Maps"},
			want: "Pastane Ali",
		},
		{
			name: "nothing",
			url:  "https://www.google.com/maps/search/bakery",
			page: &browsertest.Page{Title: "Google Maps"},
			want: models.NotFound,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e, _ := newExtractor(t, tc.url, tc.page, nil)
			if got := e.Name(context.Background()); got != tc.want {
				t.Errorf("Name() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestAddress(t *testing.T) {
	cases := []struct {
		name string
		url  string
		page *browsertest.Page
		want string
	}{
		{
			name: "aria label with prefix",
			url:  detailURL,
			page: &browsertest.Page{Nodes: map[string][]*browsertest.Element{
				"button[data-item-id*='address']": {el("", "aria-label", "Address: Bağdat Cd. No:5, İstanbul")},
			}},
			want: "Bağdat Cd. No:5, İstanbul",
		},
		{
			name: "tagged element text",
			url:  detailURL,
			page: &browsertest.Page{Nodes: map[string][]*browsertest.Element{
				"button[data-item-id*='address']": {el("Moda Cd. 12, Kadıköy")},
			}},
			want: "Moda Cd. 12, Kadıköy",
		},
		{
			name: "short texts skipped until icon button",
			url:  detailURL,
			page: &browsertest.Page{Nodes: map[string][]*browsertest.Element{
				"[data-item-id*='address']": {el("Kadıköy")},
				addressIconXPath:            {el("Caferağa Mh. 34710 Kadıköy")},
			}},
			want: "Caferağa Mh. 34710 Kadıköy",
		},
		{
			name: "url fallback",
			url:  detailURL,
			page: &browsertest.Page{},
			want: "Lezzet Fırını",
		},
		{
			name: "not found",
			url:  "https://www.google.com/maps/search/bakery",
			page: &browsertest.Page{},
			want: models.NotFound,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e, _ := newExtractor(t, tc.url, tc.page, nil)
			if got := e.Address(context.Background()); got != tc.want {
				t.Errorf("Address() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestPhone(t *testing.T) {
	cases := []struct {
		name string
		page *browsertest.Page
		want string
	}{
		{
			name: "aria label",
			page: &browsertest.Page{Nodes: map[string][]*browsertest.Element{
				"button[data-item-id*='phone']": {el("", "aria-label", "Phone: +90 212 555 12 34 ")},
			}},
			want: "+90 212 555 12 34",
		},
		{
			name: "generic button",
			page: &browsertest.Page{Nodes: map[string][]*browsertest.Element{
				"button": {el("Directions"), el("0216 444 55 66")},
			}},
			want: "0216 444 55 66",
		},
		{
			name: "long button text ignored, source wins",
			page: &browsertest.Page{
				Source: `<div>call +1 (555) 123 4567 now</div>`,
				Nodes: map[string][]*browsertest.Element{
					"button": {el("Open 24 hours, reservations 0216 444 55 66 daily")},
				},
			},
			want: "+1 (555) 123 4567",
		},
		{
			name: "nothing",
			page: &browsertest.Page{Source: "<p>42</p>"},
			want: models.NotFound,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e, _ := newExtractor(t, detailURL, tc.page, nil)
			if got := e.Phone(context.Background()); got != tc.want {
				t.Errorf("Phone() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestPhoneShape(t *testing.T) {
	if _, ok := FindPhone("12345"); ok {
		t.Errorf("five digits is not a phone number")
	}
	if _, ok := FindPhone("1700000000000000000"); ok {
		t.Errorf("nineteen digits is not a phone number")
	}
	got, ok := LongestPhone("id 12345 call +1 (555) 123 4567 ts 1700000000000000000")
	if !ok || got != "+1 (555) 123 4567" {
		t.Errorf("LongestPhone = %q, %v", got, ok)
	}
}

func TestWebsite(t *testing.T) {
	t.Run("unwraps redirect and skips platforms", func(t *testing.T) {
		e, _ := newExtractor(t, detailURL, &browsertest.Page{Nodes: map[string][]*browsertest.Element{
			"a[data-item-id='authority']": {el("", "href", "https://www.facebook.com/lezzet")},
			"a[aria-label*='site']":       {el("", "href", "https://www.google.com/url?q=https://lezzetfirini.com.tr/&sa=U")},
		}}, nil)
		if got := e.Website(context.Background()); got != "https://lezzetfirini.com.tr/" {
			t.Errorf("Website() = %q", got)
		}
	})

	t.Run("button opening a new window", func(t *testing.T) {
		btn := el("Website")
		e, f := newExtractor(t, detailURL, &browsertest.Page{Nodes: map[string][]*browsertest.Element{
			"button[aria-label*='web']": {btn},
		}}, nil)
		btn.OnClick = func() { f.OpenPopup("https://lezzetfirini.com.tr/") }

		if got := e.Website(context.Background()); got != "https://lezzetfirini.com.tr/" {
			t.Errorf("Website() = %q", got)
		}
		if f.WindowCount() != 1 {
			t.Errorf("popup window should be closed, %d windows open", f.WindowCount())
		}
		if f.CurrentWindow() != "window-1" {
			t.Errorf("should be back on the main window, got %s", f.CurrentWindow())
		}
	})

	t.Run("popup to a platform is discarded", func(t *testing.T) {
		btn := el("Website")
		e, f := newExtractor(t, detailURL, &browsertest.Page{Nodes: map[string][]*browsertest.Element{
			"button[aria-label*='web']": {btn},
		}}, nil)
		btn.OnClick = func() { f.OpenPopup("https://instagram.com/lezzet") }

		if got := e.Website(context.Background()); got != models.NotFound {
			t.Errorf("Website() = %q, want not found", got)
		}
		if f.WindowCount() != 1 {
			t.Errorf("popup window should be closed")
		}
	})
}

type stubHarvester struct {
	calls []string
	found []string
}

func (h *stubHarvester) Harvest(ctx context.Context, website string) []string {
	h.calls = append(h.calls, website)
	return h.found
}

func TestExtractHonoursDataOptions(t *testing.T) {
	page := &browsertest.Page{
		BodyText: "Write to owner@lezzetfirini.com.tr or ads@google.com",
		Nodes: map[string][]*browsertest.Element{
			"h1":                              {el("Lezzet Fırını")},
			"button[data-item-id*='address']": {el("Moda Cd. 12, Kadıköy")},
			"button[data-item-id*='phone']":   {el("0216 444 55 66")},
			"a[data-item-id='authority']":     {el("", "href", "https://lezzetfirini.com.tr/")},
		},
	}

	t.Run("everything", func(t *testing.T) {
		h := &stubHarvester{found: []string{"info@lezzetfirini.com.tr", "OWNER@lezzetfirini.com.tr"}}
		e, _ := newExtractor(t, detailURL, page, h)

		rec := e.Extract(context.Background(), models.AllData())
		if rec.Name != "Lezzet Fırını" || rec.Address != "Moda Cd. 12, Kadıköy" || rec.Phone != "0216 444 55 66" {
			t.Errorf("unexpected record %+v", rec)
		}
		if rec.Website != "https://lezzetfirini.com.tr/" || rec.DetailURL != detailURL {
			t.Errorf("unexpected website or detail url %+v", rec)
		}
		want := []string{"owner@lezzetfirini.com.tr", "info@lezzetfirini.com.tr"}
		if !reflect.DeepEqual(rec.Emails, want) {
			t.Errorf("Emails = %v, want %v", rec.Emails, want)
		}
		if len(h.calls) != 1 || h.calls[0] != "https://lezzetfirini.com.tr/" {
			t.Errorf("harvester calls %v", h.calls)
		}
	})

	t.Run("name only", func(t *testing.T) {
		h := &stubHarvester{}
		e, _ := newExtractor(t, detailURL, page, h)

		rec := e.Extract(context.Background(), models.DataOptions{})
		if rec.Name != "Lezzet Fırını" {
			t.Errorf("unexpected name %q", rec.Name)
		}
		if rec.Address != models.NotFound || rec.Phone != models.NotFound || rec.Website != models.NotFound || rec.Emails != nil {
			t.Errorf("unrequested fields were filled: %+v", rec)
		}
		if len(h.calls) != 0 {
			t.Errorf("harvester must not run")
		}
	})
}

func TestPlaceSegment(t *testing.T) {
	cases := map[string]string{
		detailURL: "Lezzet Fırını",
		"https://www.google.com/maps/place/Cafe+%ZZ+Bar/data": "Cafe Bar",
		"https://www.google.com/maps/search/bakery":           "",
	}
	for in, want := range cases {
		if got := PlaceSegment(in); got != want {
			t.Errorf("PlaceSegment(%q) = %q, want %q", in, got, want)
		}
	}
}
