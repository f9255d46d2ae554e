package browser_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/law-makers/leadcrawl/internal/browser"
	"github.com/law-makers/leadcrawl/internal/browser/browsertest"
	"github.com/law-makers/leadcrawl/internal/config"
	"github.com/law-makers/leadcrawl/internal/proxy"
)

func newSession(t *testing.T, f *browsertest.FakeDriver) *browser.Session {
	t.Helper()
	s := browser.NewSession(f.Launcher(), browser.Options{})
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return s
}

func TestInitializeRestartsPreviousBrowser(t *testing.T) {
	var launched []*browsertest.FakeDriver
	launch := func(ctx context.Context, opts browser.LaunchOptions) (browser.Driver, error) {
		f := browsertest.New(nil)
		launched = append(launched, f)
		return f, nil
	}

	s := browser.NewSession(launch, browser.Options{})
	ctx := context.Background()
	if err := s.Initialize(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Initialize(ctx); err != nil {
		t.Fatal(err)
	}

	if len(launched) != 2 {
		t.Fatalf("expected 2 launches, got %d", len(launched))
	}
	if !launched[0].Stopped {
		t.Errorf("first browser should have been stopped before relaunch")
	}
	if launched[1].Stopped {
		t.Errorf("second browser should still be running")
	}

	s.Close()
	s.Close()
	if !launched[1].Stopped || s.Active() {
		t.Errorf("Close should stop the browser")
	}
}

func TestInitializeRotatesProxyOnFailure(t *testing.T) {
	var used []string
	launch := func(ctx context.Context, opts browser.LaunchOptions) (browser.Driver, error) {
		used = append(used, opts.Proxy)
		if opts.Proxy == "http://bad:1" {
			return nil, errors.New("proxy refused")
		}
		return browsertest.New(nil), nil
	}

	pool := proxy.NewProxyPool([]string{"http://bad:1", "http://good:2"})
	s := browser.NewSession(launch, browser.Options{Proxies: pool})

	err := s.Initialize(context.Background())
	if err == nil {
		t.Fatal("expected launch failure")
	}
	if !errors.Is(err, browser.NewError(browser.ErrCodeLaunch, "", nil)) {
		t.Errorf("expected launch error code, got %v", err)
	}
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("second attempt should use the healthy proxy: %v", err)
	}
	if len(used) != 2 || used[1] != "http://good:2" {
		t.Errorf("unexpected proxy order: %v", used)
	}
}

func TestUninitializedSessionNeverPanics(t *testing.T) {
	s := browser.NewSession(browsertest.New(nil).Launcher(), browser.Options{})
	ctx := context.Background()

	if err := s.Navigate(ctx, "https://example.com"); !errors.Is(err, browser.ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
	if s.SafeClick(ctx, nil, 3) {
		t.Errorf("click without browser should fail")
	}
	if _, ok := s.OpenNewWindow(ctx, "https://example.com"); ok {
		t.Errorf("new window without browser should fail")
	}
	if s.CurrentURL(ctx) != "" || s.PageSource(ctx) != "" {
		t.Errorf("reads without browser should be empty")
	}
}

func TestSafeClickFallsThroughClickKinds(t *testing.T) {
	f := browsertest.New(nil)
	s := newSession(t, f)
	ctx := context.Background()

	el := &browsertest.Element{RejectMouse: true}
	if !s.SafeClick(ctx, f.Node(el), 3) {
		t.Fatal("expected script click to succeed")
	}
	if len(f.ClickKinds) != 1 || f.ClickKinds[0] != "script" {
		t.Errorf("expected a single script click, got %v", f.ClickKinds)
	}

	direct := &browsertest.Element{RejectMouse: true, RejectScript: true}
	if !s.SafeClick(ctx, f.Node(direct), 3) {
		t.Fatal("expected the direct click to succeed")
	}
	if got := f.ClickKinds[len(f.ClickKinds)-1]; got != "direct" {
		t.Errorf("expected direct click, got %s", got)
	}

	stuck := &browsertest.Element{RejectMouse: true, RejectScript: true, RejectDirect: true}
	if s.SafeClick(ctx, f.Node(stuck), 2) {
		t.Errorf("expected click to fail after retries")
	}

	scrolls := 0
	for _, c := range f.Calls {
		if c.Element == stuck {
			scrolls++
		}
	}
	if scrolls != 2 {
		t.Errorf("expected element scrolled into view once per attempt, got %d", scrolls)
	}
}

func TestSafeFindMissing(t *testing.T) {
	f := browsertest.New(map[string]*browsertest.Page{
		"https://maps.test/": {Nodes: map[string][]*browsertest.Element{"div[role='feed']": {{}}}},
	})
	s := newSession(t, f)
	ctx := context.Background()
	if err := s.Navigate(ctx, "https://maps.test/"); err != nil {
		t.Fatal(err)
	}

	if _, ok := s.SafeFind(ctx, "div[role='feed']", time.Second); !ok {
		t.Errorf("expected feed to be found")
	}
	if n, ok := s.SafeFind(ctx, "div.missing", time.Second); ok || n != nil {
		t.Errorf("missing selector should report false")
	}
}

func TestSafelyNavigateBack(t *testing.T) {
	ctx := context.Background()

	t.Run("back control", func(t *testing.T) {
		back := &browsertest.Element{}
		f := browsertest.New(map[string]*browsertest.Page{
			"https://maps.test/place": {Nodes: map[string][]*browsertest.Element{"button[jsaction*='back']": {back}}},
		})
		s := newSession(t, f)
		_ = s.Navigate(ctx, "https://maps.test/place")

		if !s.SafelyNavigateBack(ctx, "https://maps.test/") {
			t.Fatal("expected success")
		}
		if len(f.Clicks) != 1 || f.Clicks[0] != back {
			t.Errorf("expected back control to be clicked")
		}
	})

	t.Run("history", func(t *testing.T) {
		f := browsertest.New(nil)
		s := newSession(t, f)
		_ = s.Navigate(ctx, "https://maps.test/list")
		_ = s.Navigate(ctx, "https://maps.test/place")

		if !s.SafelyNavigateBack(ctx, "") {
			t.Fatal("expected success")
		}
		if got := s.CurrentURL(ctx); got != "https://maps.test/list" {
			t.Errorf("expected to be back on the list, got %s", got)
		}
	})

	t.Run("fallback url", func(t *testing.T) {
		f := browsertest.New(nil)
		f.EvalErr = errors.New("script blocked")
		f.BackErr = errors.New("no history")
		s := newSession(t, f)

		if !s.SafelyNavigateBack(ctx, "https://maps.test/search") {
			t.Fatal("expected fallback navigation to succeed")
		}
		if got := s.CurrentURL(ctx); got != "https://maps.test/search" {
			t.Errorf("expected fallback url, got %s", got)
		}
	})

	t.Run("nothing works", func(t *testing.T) {
		f := browsertest.New(nil)
		f.EvalErr = errors.New("script blocked")
		f.BackErr = errors.New("no history")
		s := newSession(t, f)
		if s.SafelyNavigateBack(ctx, "") {
			t.Errorf("expected failure without fallback url")
		}
	})
}

func TestOpenNewWindow(t *testing.T) {
	ctx := context.Background()

	f := browsertest.New(nil)
	s := newSession(t, f)
	primary := s.CurrentWindow()

	original, ok := s.OpenNewWindow(ctx, "https://bakery.test/")
	if !ok || original != primary {
		t.Fatalf("expected original handle %s, got %s (ok=%v)", primary, original, ok)
	}
	if s.CurrentWindow() == primary {
		t.Errorf("expected to be switched to the new window")
	}
	if got := s.CurrentURL(ctx); got != "https://bakery.test/" {
		t.Errorf("unexpected url %s", got)
	}

	if !s.CloseCurrentAndSwitchTo(ctx, original) {
		t.Fatal("expected to return to the primary window")
	}
	if f.WindowCount() != 1 || s.CurrentWindow() != primary {
		t.Errorf("secondary window should be closed")
	}
}

func TestOpenNewWindowFailures(t *testing.T) {
	ctx := context.Background()

	f := browsertest.New(nil)
	f.NewWindowErr = errors.New("target refused")
	s := newSession(t, f)
	if _, ok := s.OpenNewWindow(ctx, "https://bakery.test/"); ok {
		t.Errorf("expected failure when no window opens")
	}

	g := browsertest.New(nil)
	g.FailNavigation("https://down.test/", errors.New("net::ERR_NAME_NOT_RESOLVED"))
	s2 := newSession(t, g)
	primary := s2.CurrentWindow()
	if _, ok := s2.OpenNewWindow(ctx, "https://down.test/"); ok {
		t.Errorf("expected failure when navigation fails")
	}
	if g.WindowCount() != 1 || s2.CurrentWindow() != primary {
		t.Errorf("failed window should be cleaned up")
	}
}

func TestRandomSleepHonoursContext(t *testing.T) {
	s := browser.NewSession(browsertest.New(nil).Launcher(), browser.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	s.RandomSleep(ctx, config.Range{Min: time.Hour, Max: 2 * time.Hour})
	if time.Since(start) > time.Second {
		t.Errorf("sleep ignored cancellation")
	}

	start = time.Now()
	s.RandomSleep(context.Background(), config.Range{Min: 5 * time.Millisecond, Max: 10 * time.Millisecond})
	if elapsed := time.Since(start); elapsed < 5*time.Millisecond {
		t.Errorf("slept %s, below range minimum", elapsed)
	}
}
