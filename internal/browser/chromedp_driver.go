package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/go-rod/stealth"
	"github.com/rs/zerolog/log"
)

// commandTimeout bounds every non-navigation command.
const commandTimeout = 10 * time.Second

const (
	attributeJS = `function(name) {
	const v = this[name];
	if (v !== undefined && v !== null && typeof v !== 'object' && typeof v !== 'function') {
		return String(v);
	}
	const a = this.getAttribute(name);
	return a === null ? '' : a;
}`
	textJS  = `function() { return this.innerText || this.textContent || ''; }`
	clickJS = `function() { this.click(); return true; }`
)

type tab struct {
	ctx    context.Context
	cancel context.CancelFunc // nil for the primary tab, which owns the browser
}

// ChromeDriver implements Driver on top of chromedp. Each window is a
// chromedp target context; the primary one also owns the browser process.
type ChromeDriver struct {
	opts          LaunchOptions
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	mu      sync.Mutex
	tabs    map[string]*tab
	current string
}

// ChromeLauncher is the production Launcher.
func ChromeLauncher(ctx context.Context, opts LaunchOptions) (Driver, error) {
	return NewChromeDriver(ctx, opts)
}

// NewChromeDriver starts Chrome with anti-detection flags and the stealth
// script registered on the primary tab.
func NewChromeDriver(ctx context.Context, opts LaunchOptions) (*ChromeDriver, error) {
	if opts.PageLoadTimeout <= 0 {
		opts.PageLoadTimeout = 30 * time.Second
	}
	if opts.LaunchTimeout <= 0 {
		opts.LaunchTimeout = 45 * time.Second
	}

	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-breakpad", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-hang-monitor", true),
		chromedp.Flag("disable-prompt-on-repost", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("disable-notifications", true),
		chromedp.Flag("disable-popup-blocking", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("log-level", "3"),
		chromedp.Flag("mute-audio", true),
		chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight),
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	path := FindChrome(opts.ChromePath)
	if path == "" && opts.ChromePath != "" {
		return nil, NewError(ErrCodeLaunch, "configured chrome path unusable", ErrBrowserNotFound).WithDetail("path", opts.ChromePath)
	}
	if path != "" {
		allocOpts = append([]chromedp.ExecAllocatorOption{chromedp.ExecPath(path)}, allocOpts...)
	}
	if opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", "new"))
	} else {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	if opts.Proxy != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(opts.Proxy))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	d := &ChromeDriver{
		opts:          opts,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		tabs:          make(map[string]*tab),
	}

	// The first Run allocates the browser and must not carry a deadline,
	// otherwise the process dies with it.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, NewError(ErrCodeLaunch, "failed to start chrome", err)
	}

	handle := string(chromedp.FromContext(browserCtx).Target.TargetID)
	d.tabs[handle] = &tab{ctx: browserCtx}
	d.current = handle

	if err := d.run(ctx, opts.LaunchTimeout, stealthAction(), chromedp.Navigate("about:blank")); err != nil {
		_ = d.Quit()
		return nil, NewError(ErrCodeLaunch, "failed to prepare primary tab", err)
	}

	log.Debug().
		Bool("headless", opts.Headless).
		Str("proxy", opts.Proxy).
		Str("window", handle).
		Msg("Chrome started")
	return d, nil
}

func stealthAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		_, err := page.AddScriptToEvaluateOnNewDocument(stealth.JS).Do(ctx)
		return err
	})
}

func (d *ChromeDriver) currentTab() (*tab, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.tabs[d.current]
	if !ok {
		return nil, ErrNoWindow
	}
	return t, nil
}

// run executes actions on the current tab, bounded by timeout and by ctx.
func (d *ChromeDriver) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	t, err := d.currentTab()
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithTimeout(t.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err = chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}

func (d *ChromeDriver) Navigate(ctx context.Context, url string) error {
	if err := d.run(ctx, d.opts.PageLoadTimeout, chromedp.Navigate(url)); err != nil {
		return NewError(ErrCodeNavigation, "navigate failed", err).WithDetail("url", url)
	}
	return nil
}

func (d *ChromeDriver) Reload(ctx context.Context) error {
	if err := d.run(ctx, d.opts.PageLoadTimeout, chromedp.Reload()); err != nil {
		return NewError(ErrCodeNavigation, "reload failed", err)
	}
	return nil
}

func (d *ChromeDriver) Back(ctx context.Context) error {
	return d.run(ctx, d.opts.PageLoadTimeout, chromedp.NavigateBack())
}

func (d *ChromeDriver) Location(ctx context.Context) (string, error) {
	var loc string
	err := d.run(ctx, commandTimeout, chromedp.Location(&loc))
	return loc, err
}

func (d *ChromeDriver) Title(ctx context.Context) (string, error) {
	var title string
	err := d.run(ctx, commandTimeout, chromedp.Title(&title))
	return title, err
}

func (d *ChromeDriver) Source(ctx context.Context) (string, error) {
	var html string
	err := d.run(ctx, commandTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (d *ChromeDriver) QueryAll(ctx context.Context, selector string, within *cdp.Node) ([]*cdp.Node, error) {
	opts := []chromedp.QueryOption{chromedp.ByQueryAll, chromedp.AtLeast(0)}
	if within != nil {
		opts = append(opts, chromedp.FromNode(within))
	}
	var nodes []*cdp.Node
	if err := d.run(ctx, commandTimeout, chromedp.Nodes(selector, &nodes, opts...)); err != nil {
		return nil, err
	}
	return nodes, nil
}

func (d *ChromeDriver) XPathAll(ctx context.Context, expr string) ([]*cdp.Node, error) {
	var nodes []*cdp.Node
	if err := d.run(ctx, commandTimeout, chromedp.Nodes(expr, &nodes, chromedp.BySearch, chromedp.AtLeast(0))); err != nil {
		return nil, err
	}
	return nodes, nil
}

func (d *ChromeDriver) WaitFor(ctx context.Context, selector string, timeout time.Duration) (*cdp.Node, error) {
	var nodes []*cdp.Node
	err := d.run(ctx, timeout, chromedp.Nodes(selector, &nodes, chromedp.ByQuery))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, NewError(ErrCodeNotFound, "wait expired", ErrNotFound).WithDetail("selector", selector)
	}
	if len(nodes) == 0 {
		return nil, ErrNotFound
	}
	return nodes[0], nil
}

func (d *ChromeDriver) Attribute(ctx context.Context, n *cdp.Node, name string) (string, error) {
	var v string
	err := d.CallOn(ctx, n, attributeJS, &v, name)
	return v, err
}

func (d *ChromeDriver) Text(ctx context.Context, n *cdp.Node) (string, error) {
	var v string
	err := d.CallOn(ctx, n, textJS, &v)
	return v, err
}

func (d *ChromeDriver) Evaluate(ctx context.Context, script string, res any) error {
	return d.run(ctx, commandTimeout, chromedp.Evaluate(script, res))
}

func (d *ChromeDriver) CallOn(ctx context.Context, n *cdp.Node, fn string, res any, args ...any) error {
	if n == nil {
		return ErrNotFound
	}
	return d.run(ctx, commandTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithNodeID(n.NodeID).Do(ctx)
		if err != nil {
			return err
		}
		return chromedp.CallFunctionOn(fn, res, func(p *runtime.CallFunctionOnParams) *runtime.CallFunctionOnParams {
			return p.WithObjectID(obj.ObjectID)
		}, args...).Do(ctx)
	}))
}

func (d *ChromeDriver) MouseClick(ctx context.Context, n *cdp.Node) error {
	return d.run(ctx, commandTimeout, chromedp.MouseClickNode(n))
}

func (d *ChromeDriver) ScriptClick(ctx context.Context, n *cdp.Node) error {
	return d.CallOn(ctx, n, clickJS, nil)
}

// DirectClick re-queries n by node id, waits for it to be visible and clicks
// its centre, the way chromedp.Click does for selectors.
func (d *ChromeDriver) DirectClick(ctx context.Context, n *cdp.Node) error {
	if n == nil {
		return ErrNotFound
	}
	return d.run(ctx, commandTimeout, chromedp.Click([]cdp.NodeID{n.NodeID}, chromedp.ByNodeID))
}

func (d *ChromeDriver) PressKey(ctx context.Context, key string) error {
	return d.run(ctx, commandTimeout, chromedp.KeyEvent(key))
}

func (d *ChromeDriver) Windows(ctx context.Context) ([]string, error) {
	infos, err := chromedp.Targets(d.browserCtx)
	if err != nil {
		return nil, NewError(ErrCodeWindow, "list targets", err)
	}
	var handles []string
	for _, info := range infos {
		if info.Type == "page" {
			handles = append(handles, string(info.TargetID))
		}
	}
	return handles, nil
}

func (d *ChromeDriver) CurrentWindow() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

func (d *ChromeDriver) NewWindow(ctx context.Context) (string, error) {
	tabCtx, cancel := chromedp.NewContext(d.browserCtx)
	if err := chromedp.Run(tabCtx, stealthAction()); err != nil {
		cancel()
		return "", NewError(ErrCodeWindow, "open window", err)
	}
	handle := string(chromedp.FromContext(tabCtx).Target.TargetID)

	d.mu.Lock()
	d.tabs[handle] = &tab{ctx: tabCtx, cancel: cancel}
	d.current = handle
	d.mu.Unlock()
	return handle, nil
}

func (d *ChromeDriver) SwitchTo(ctx context.Context, handle string) error {
	d.mu.Lock()
	if _, ok := d.tabs[handle]; ok {
		d.current = handle
		d.mu.Unlock()
		return nil
	}
	d.mu.Unlock()

	// A window the page opened by itself; attach to it.
	tabCtx, cancel := chromedp.NewContext(d.browserCtx, chromedp.WithTargetID(target.ID(handle)))
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return NewError(ErrCodeWindow, "attach window", ErrNoWindow).WithDetail("handle", handle)
	}

	d.mu.Lock()
	d.tabs[handle] = &tab{ctx: tabCtx, cancel: cancel}
	d.current = handle
	d.mu.Unlock()
	return nil
}

func (d *ChromeDriver) CloseWindow(ctx context.Context) error {
	t, err := d.currentTab()
	if err != nil {
		return err
	}
	closeErr := d.run(ctx, commandTimeout, page.Close())
	if t.cancel != nil {
		t.cancel()
	}

	d.mu.Lock()
	delete(d.tabs, d.current)
	d.current = ""
	d.mu.Unlock()
	return closeErr
}

func (d *ChromeDriver) Quit() error {
	d.mu.Lock()
	for _, t := range d.tabs {
		if t.cancel != nil {
			t.cancel()
		}
	}
	d.tabs = make(map[string]*tab)
	d.current = ""
	d.mu.Unlock()

	err := chromedp.Cancel(d.browserCtx)
	d.browserCancel()
	d.allocCancel()
	return err
}
