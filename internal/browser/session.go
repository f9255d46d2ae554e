package browser

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp/kb"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/leadcrawl/internal/config"
	"github.com/law-makers/leadcrawl/internal/proxy"
)

const (
	scrollIntoViewJS = `function() { this.scrollIntoView({block: 'center', inline: 'nearest'}); return true; }`
	historyBackJS    = `window.history.back(); true`
	bodyTextJS       = `document.body ? document.body.innerText : ''`
)

// DefaultBackSelectors match the "back" control of the map detail panel.
var DefaultBackSelectors = []string{
	"button.g88MCb",
	"button.VfPpkd-icon-LgbsSe",
	"button[jsaction*='back']",
	"button[aria-label*='Back']",
	"button[aria-label*='geri']",
}

// Options configures a Session.
type Options struct {
	Launch        LaunchOptions
	Pacing        config.Pacing
	Proxies       *proxy.ProxyPool
	BackSelectors []string
}

// Session wraps a Driver with operations that report failure as a boolean or
// zero value instead of an error. Only Initialize and Navigate return errors.
//
// A Session is driven by one goroutine; Close may be called from another.
type Session struct {
	launch Launcher
	opts   Options

	mu     sync.Mutex
	driver Driver
}

// NewSession creates a session that starts browsers through launch.
func NewSession(launch Launcher, opts Options) *Session {
	if launch == nil {
		launch = ChromeLauncher
	}
	if len(opts.BackSelectors) == 0 {
		opts.BackSelectors = DefaultBackSelectors
	}
	return &Session{launch: launch, opts: opts}
}

// Initialize launches the browser, tearing down a previous one first.
func (s *Session) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.driver != nil {
		log.Debug().Msg("Session already running, restarting browser")
		if err := s.driver.Quit(); err != nil {
			log.Warn().Err(err).Msg("Error stopping previous browser")
		}
		s.driver = nil
	}

	launch := s.opts.Launch
	if s.opts.Proxies != nil {
		launch.Proxy = s.opts.Proxies.GetNext()
	}

	d, err := s.launch(ctx, launch)
	if err != nil {
		if s.opts.Proxies != nil && launch.Proxy != "" {
			s.opts.Proxies.MarkFailed(launch.Proxy)
		}
		return NewError(ErrCodeLaunch, "browser launch failed", err).WithDetail("proxy", launch.Proxy)
	}
	if s.opts.Proxies != nil && launch.Proxy != "" {
		s.opts.Proxies.MarkHealthy(launch.Proxy)
	}

	s.driver = d
	log.Info().Str("proxy", launch.Proxy).Bool("headless", launch.Headless).Msg("Browser session started")
	return nil
}

// Close stops the browser. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.driver == nil {
		return
	}
	if err := s.driver.Quit(); err != nil {
		log.Warn().Err(err).Msg("Error closing browser")
	}
	s.driver = nil
	log.Debug().Msg("Browser session closed")
}

// Active reports whether a browser is running.
func (s *Session) Active() bool {
	return s.drv() != nil
}

// Pacing exposes the configured pause ranges.
func (s *Session) Pacing() config.Pacing {
	return s.opts.Pacing
}

func (s *Session) drv() Driver {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.driver
}

// RandomSleep pauses for a uniformly random duration within r, or until ctx ends.
func (s *Session) RandomSleep(ctx context.Context, r config.Range) {
	d := r.Min
	if span := r.Max - r.Min; span > 0 {
		d += time.Duration(rand.Int64N(int64(span) + 1))
	}
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// Navigate loads url in the current window.
func (s *Session) Navigate(ctx context.Context, url string) error {
	d := s.drv()
	if d == nil {
		return ErrNotInitialized
	}
	if err := d.Navigate(ctx, url); err != nil {
		log.Debug().Err(err).Str("url", url).Msg("Navigation failed")
		return err
	}
	return nil
}

// Reload reloads the current window.
func (s *Session) Reload(ctx context.Context) error {
	d := s.drv()
	if d == nil {
		return ErrNotInitialized
	}
	return d.Reload(ctx)
}

// CurrentURL returns the current location or "".
func (s *Session) CurrentURL(ctx context.Context) string {
	d := s.drv()
	if d == nil {
		return ""
	}
	loc, err := d.Location(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("Could not read location")
		return ""
	}
	return loc
}

// Title returns the document title or "".
func (s *Session) Title(ctx context.Context) string {
	d := s.drv()
	if d == nil {
		return ""
	}
	title, err := d.Title(ctx)
	if err != nil {
		return ""
	}
	return title
}

// PageSource returns the rendered markup or "".
func (s *Session) PageSource(ctx context.Context) string {
	d := s.drv()
	if d == nil {
		return ""
	}
	html, err := d.Source(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("Could not read page source")
		return ""
	}
	return html
}

// BodyText returns the visible text of the document body or "".
func (s *Session) BodyText(ctx context.Context) string {
	var text string
	if err := s.Exec(ctx, bodyTextJS, &text); err != nil {
		return ""
	}
	return text
}

// Exec evaluates a script in the page.
func (s *Session) Exec(ctx context.Context, script string, res any) error {
	d := s.drv()
	if d == nil {
		return ErrNotInitialized
	}
	return d.Evaluate(ctx, script, res)
}

// ExecOn calls a JS function declaration with this bound to n.
func (s *Session) ExecOn(ctx context.Context, n *cdp.Node, fn string, res any, args ...any) error {
	d := s.drv()
	if d == nil {
		return ErrNotInitialized
	}
	return d.CallOn(ctx, n, fn, res, args...)
}

// SafeFind waits up to timeout for selector; absence is reported as false.
func (s *Session) SafeFind(ctx context.Context, selector string, timeout time.Duration) (*cdp.Node, bool) {
	d := s.drv()
	if d == nil {
		return nil, false
	}
	n, err := d.WaitFor(ctx, selector, timeout)
	if err != nil || n == nil {
		return nil, false
	}
	return n, true
}

// FindAll returns every match for selector, optionally inside within.
func (s *Session) FindAll(ctx context.Context, selector string, within *cdp.Node) []*cdp.Node {
	d := s.drv()
	if d == nil {
		return nil
	}
	nodes, err := d.QueryAll(ctx, selector, within)
	if err != nil {
		log.Debug().Err(err).Str("selector", selector).Msg("Query failed")
		return nil
	}
	return nodes
}

// FindXPath returns every match for an XPath expression.
func (s *Session) FindXPath(ctx context.Context, expr string) []*cdp.Node {
	d := s.drv()
	if d == nil {
		return nil
	}
	nodes, err := d.XPathAll(ctx, expr)
	if err != nil {
		log.Debug().Err(err).Str("xpath", expr).Msg("XPath query failed")
		return nil
	}
	return nodes
}

// SafeText returns the trimmed visible text of n or "".
func (s *Session) SafeText(ctx context.Context, n *cdp.Node) string {
	d := s.drv()
	if d == nil || n == nil {
		return ""
	}
	text, err := d.Text(ctx, n)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

// SafeAttr returns the trimmed attribute (or property) name of n or "".
func (s *Session) SafeAttr(ctx context.Context, n *cdp.Node, name string) string {
	d := s.drv()
	if d == nil || n == nil {
		return ""
	}
	v, err := d.Attribute(ctx, n, name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(v)
}

// SafeClick scrolls n into view and tries a pointer click, then a script
// click, then a direct click, pausing between rounds.
func (s *Session) SafeClick(ctx context.Context, n *cdp.Node, retries int) bool {
	d := s.drv()
	if d == nil || n == nil {
		return false
	}
	if retries <= 0 {
		retries = 3
	}

	for attempt := 1; attempt <= retries; attempt++ {
		if ctx.Err() != nil {
			return false
		}
		_ = d.CallOn(ctx, n, scrollIntoViewJS, nil)

		err := d.MouseClick(ctx, n)
		if err == nil {
			return true
		}
		log.Debug().Err(err).Int("attempt", attempt).Msg("Pointer click failed")

		if err = d.ScriptClick(ctx, n); err == nil {
			return true
		}
		log.Debug().Err(err).Int("attempt", attempt).Msg("Script click failed")

		if err = d.DirectClick(ctx, n); err == nil {
			return true
		}
		log.Debug().Err(err).Int("attempt", attempt).Msg("Direct click failed")

		s.RandomSleep(ctx, s.opts.Pacing.Short)
	}

	log.Debug().Int("retries", retries).Msg("Element could not be clicked")
	return false
}

// PressEscape sends the Escape key to the current window.
func (s *Session) PressEscape(ctx context.Context) bool {
	d := s.drv()
	if d == nil {
		return false
	}
	if err := d.PressKey(ctx, kb.Escape); err != nil {
		log.Debug().Err(err).Msg("Escape key failed")
		return false
	}
	return true
}

// WindowHandles lists open top-level windows.
func (s *Session) WindowHandles(ctx context.Context) []string {
	d := s.drv()
	if d == nil {
		return nil
	}
	handles, err := d.Windows(ctx)
	if err != nil {
		return nil
	}
	return handles
}

// CurrentWindow returns the handle of the active window.
func (s *Session) CurrentWindow() string {
	d := s.drv()
	if d == nil {
		return ""
	}
	return d.CurrentWindow()
}

// SwitchTo makes handle the active window.
func (s *Session) SwitchTo(ctx context.Context, handle string) bool {
	d := s.drv()
	if d == nil {
		return false
	}
	if err := d.SwitchTo(ctx, handle); err != nil {
		log.Debug().Err(err).Str("handle", handle).Msg("Switch window failed")
		return false
	}
	return true
}

// OpenNewWindow opens a second window, switches to it and loads url (skipped
// when url is empty). It returns the handle to come back to, or false after
// cleaning up when anything fails.
func (s *Session) OpenNewWindow(ctx context.Context, url string) (string, bool) {
	d := s.drv()
	if d == nil {
		return "", false
	}
	original := d.CurrentWindow()

	if _, err := d.NewWindow(ctx); err != nil {
		log.Warn().Err(err).Msg("Could not open a new window")
		return "", false
	}

	if url != "" {
		if err := d.Navigate(ctx, url); err != nil {
			log.Warn().Err(err).Str("url", url).Msg("New window failed to load")
			s.CloseCurrentAndSwitchTo(ctx, original)
			return "", false
		}
	}
	return original, true
}

// CloseCurrentAndSwitchTo closes the active window unless it is handle, then
// switches to handle. It reports whether handle is active afterwards.
func (s *Session) CloseCurrentAndSwitchTo(ctx context.Context, handle string) bool {
	d := s.drv()
	if d == nil {
		return false
	}
	if d.CurrentWindow() != handle {
		if err := d.CloseWindow(ctx); err != nil {
			log.Warn().Err(err).Msg("Error closing window")
		}
	}
	if err := d.SwitchTo(ctx, handle); err != nil {
		log.Warn().Err(err).Str("handle", handle).Msg("Error switching back to window")
		return false
	}
	return true
}

// SafelyNavigateBack returns to the previous view: back control (pointer,
// then script), history.back(), engine back, and finally a fresh load of
// fallbackURL. It reports whether any step succeeded.
func (s *Session) SafelyNavigateBack(ctx context.Context, fallbackURL string) bool {
	d := s.drv()
	if d == nil {
		return false
	}

	for _, sel := range s.opts.BackSelectors {
		nodes := s.FindAll(ctx, sel, nil)
		if len(nodes) == 0 {
			continue
		}
		if err := d.MouseClick(ctx, nodes[0]); err == nil {
			log.Debug().Str("selector", sel).Msg("Back control clicked")
			s.RandomSleep(ctx, s.opts.Pacing.Short)
			return true
		}
		if err := d.ScriptClick(ctx, nodes[0]); err == nil {
			log.Debug().Str("selector", sel).Msg("Back control clicked via script")
			s.RandomSleep(ctx, s.opts.Pacing.Short)
			return true
		}
	}

	if err := d.Evaluate(ctx, historyBackJS, nil); err == nil {
		log.Debug().Msg("Navigated back via history")
		s.RandomSleep(ctx, s.opts.Pacing.Short)
		return true
	}

	if err := d.Back(ctx); err == nil {
		log.Debug().Msg("Navigated back via browser")
		s.RandomSleep(ctx, s.opts.Pacing.Short)
		return true
	}

	if fallbackURL != "" {
		if err := d.Navigate(ctx, fallbackURL); err == nil {
			log.Debug().Str("url", fallbackURL).Msg("Reloaded fallback url")
			s.RandomSleep(ctx, s.opts.Pacing.Default)
			return true
		}
	}

	log.Warn().Msg("All back navigation strategies failed")
	return false
}
