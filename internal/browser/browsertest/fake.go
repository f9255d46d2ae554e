// Package browsertest provides a scripted in-memory browser.Driver.
package browsertest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"

	"github.com/law-makers/leadcrawl/internal/browser"
)

// Element is a scripted DOM element.
type Element struct {
	Attrs    map[string]string
	Text     string
	Children map[string][]*Element // selector -> matches inside this element

	RejectMouse  bool
	RejectScript bool
	RejectDirect bool
	// OnClick runs after any successful click.
	OnClick func()
}

// Page is a scripted document. Nodes is keyed by CSS selector or XPath expression.
type Page struct {
	Title      string
	Source     string
	BodyText   string
	Nodes      map[string][]*Element
	RedirectTo string
}

// Call records a CallOn invocation.
type Call struct {
	Element *Element
	Fn      string
	Args    []any
}

type window struct {
	handle  string
	history []string
}

// FakeDriver implements browser.Driver against scripted pages.
type FakeDriver struct {
	mu sync.Mutex

	pages       map[string]*Page
	navigateErr map[string]error
	windows     []*window
	current     string
	nextWindow  int

	nodes  map[*Element]*cdp.Node
	byID   map[cdp.NodeID]*Element
	nextID cdp.NodeID

	// Hooks. They run without the driver lock held and may call back into the driver.
	OnEval   func(script string) (any, error)
	OnCall   func(el *Element, fn string, args []any) (any, error)
	OnReload func(url string)

	LaunchErr    error
	NewWindowErr error
	BackErr      error
	EvalErr      error

	Launches    int
	Navigations []string
	Reloads     int
	Clicks      []*Element
	ClickKinds  []string
	Keys        []string
	Calls       []Call
	Evals       []string
	Stopped     bool
}

// New returns a driver with one window on about:blank.
func New(pages map[string]*Page) *FakeDriver {
	if pages == nil {
		pages = make(map[string]*Page)
	}
	f := &FakeDriver{
		pages:       pages,
		navigateErr: make(map[string]error),
		nodes:       make(map[*Element]*cdp.Node),
		byID:        make(map[cdp.NodeID]*Element),
	}
	f.current = f.addWindowLocked("about:blank")
	return f
}

// Launcher returns a browser.Launcher that hands out f.
func (f *FakeDriver) Launcher() browser.Launcher {
	return func(ctx context.Context, opts browser.LaunchOptions) (browser.Driver, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.Launches++
		if f.LaunchErr != nil {
			return nil, f.LaunchErr
		}
		f.Stopped = false
		return f, nil
	}
}

// SetPage registers or replaces the document served at url.
func (f *FakeDriver) SetPage(url string, p *Page) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[url] = p
}

// FailNavigation makes every navigation to url fail with err.
func (f *FakeDriver) FailNavigation(url string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.navigateErr[url] = err
}

// SetLocation replaces the current URL without recording a navigation.
func (f *FakeDriver) SetLocation(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w := f.currentWindowLocked(); w != nil {
		w.history[len(w.history)-1] = url
	}
}

// OpenPopup opens a window the way a target=_blank link would, without switching to it.
func (f *FakeDriver) OpenPopup(url string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addWindowLocked(url)
}

// Node returns the handle for el, allocating one on first use.
func (f *FakeDriver) Node(el *Element) *cdp.Node {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nodeLocked(el)
}

// ClickCount returns how many successful clicks were recorded.
func (f *FakeDriver) ClickCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Clicks)
}

// WindowCount returns the number of open windows.
func (f *FakeDriver) WindowCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.windows)
}

func (f *FakeDriver) addWindowLocked(url string) string {
	f.nextWindow++
	handle := fmt.Sprintf("window-%d", f.nextWindow)
	f.windows = append(f.windows, &window{handle: handle, history: []string{url}})
	return handle
}

func (f *FakeDriver) currentWindowLocked() *window {
	for _, w := range f.windows {
		if w.handle == f.current {
			return w
		}
	}
	return nil
}

func (f *FakeDriver) currentURLLocked() string {
	if w := f.currentWindowLocked(); w != nil {
		return w.history[len(w.history)-1]
	}
	return ""
}

func (f *FakeDriver) pageLocked() *Page {
	if p, ok := f.pages[f.currentURLLocked()]; ok && p != nil {
		return p
	}
	return &Page{}
}

func (f *FakeDriver) nodeLocked(el *Element) *cdp.Node {
	if n, ok := f.nodes[el]; ok {
		return n
	}
	f.nextID++
	n := &cdp.Node{NodeID: f.nextID, BackendNodeID: cdp.BackendNodeID(f.nextID)}
	f.nodes[el] = n
	f.byID[n.NodeID] = el
	return n
}

func (f *FakeDriver) elementLocked(n *cdp.Node) (*Element, error) {
	if n == nil {
		return nil, browser.ErrNotFound
	}
	el, ok := f.byID[n.NodeID]
	if !ok {
		return nil, browser.ErrNotFound
	}
	return el, nil
}

func (f *FakeDriver) toNodesLocked(els []*Element) []*cdp.Node {
	out := make([]*cdp.Node, 0, len(els))
	for _, el := range els {
		out = append(out, f.nodeLocked(el))
	}
	return out
}

func (f *FakeDriver) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Navigations = append(f.Navigations, url)
	if err, ok := f.navigateErr[url]; ok {
		return err
	}
	w := f.currentWindowLocked()
	if w == nil {
		return browser.ErrNoWindow
	}
	final := url
	if p, ok := f.pages[url]; ok && p != nil && p.RedirectTo != "" {
		final = p.RedirectTo
	}
	w.history = append(w.history, final)
	return nil
}

func (f *FakeDriver) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	f.Reloads++
	url := f.currentURLLocked()
	hook := f.OnReload
	f.mu.Unlock()
	if hook != nil {
		hook(url)
	}
	return nil
}

func (f *FakeDriver) Back(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.BackErr != nil {
		return f.BackErr
	}
	w := f.currentWindowLocked()
	if w == nil || len(w.history) < 2 {
		return errors.New("no history entry")
	}
	w.history = w.history[:len(w.history)-1]
	return nil
}

func (f *FakeDriver) Location(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.currentWindowLocked() == nil {
		return "", browser.ErrNoWindow
	}
	return f.currentURLLocked(), nil
}

func (f *FakeDriver) Title(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pageLocked().Title, nil
}

func (f *FakeDriver) Source(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pageLocked().Source, nil
}

func (f *FakeDriver) QueryAll(ctx context.Context, selector string, within *cdp.Node) ([]*cdp.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if within != nil {
		parent, err := f.elementLocked(within)
		if err != nil {
			return nil, err
		}
		return f.toNodesLocked(parent.Children[selector]), nil
	}
	return f.toNodesLocked(f.pageLocked().Nodes[selector]), nil
}

func (f *FakeDriver) XPathAll(ctx context.Context, expr string) ([]*cdp.Node, error) {
	return f.QueryAll(ctx, expr, nil)
}

func (f *FakeDriver) WaitFor(ctx context.Context, selector string, timeout time.Duration) (*cdp.Node, error) {
	nodes, err := f.QueryAll(ctx, selector, nil)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, browser.ErrNotFound
	}
	return nodes[0], nil
}

func (f *FakeDriver) Attribute(ctx context.Context, n *cdp.Node, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	el, err := f.elementLocked(n)
	if err != nil {
		return "", err
	}
	return el.Attrs[name], nil
}

func (f *FakeDriver) Text(ctx context.Context, n *cdp.Node) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	el, err := f.elementLocked(n)
	if err != nil {
		return "", err
	}
	return el.Text, nil
}

func (f *FakeDriver) Evaluate(ctx context.Context, script string, res any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	f.Evals = append(f.Evals, script)
	hook := f.OnEval
	evalErr := f.EvalErr
	body := f.pageLocked().BodyText
	f.mu.Unlock()

	if evalErr != nil {
		return evalErr
	}
	if hook != nil {
		v, err := hook(script)
		if err != nil {
			return err
		}
		return assign(v, res)
	}
	switch {
	case strings.Contains(script, "innerText"):
		return assign(body, res)
	case strings.Contains(script, "history.back"):
		return f.Back(ctx)
	}
	return nil
}

func (f *FakeDriver) CallOn(ctx context.Context, n *cdp.Node, fn string, res any, args ...any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	el, err := f.elementLocked(n)
	if err != nil {
		f.mu.Unlock()
		return err
	}
	f.Calls = append(f.Calls, Call{Element: el, Fn: fn, Args: args})
	hook := f.OnCall
	f.mu.Unlock()

	if hook == nil {
		return nil
	}
	v, err := hook(el, fn, args)
	if err != nil {
		return err
	}
	return assign(v, res)
}

func (f *FakeDriver) click(ctx context.Context, n *cdp.Node, kind string, reject func(*Element) bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	el, err := f.elementLocked(n)
	if err != nil {
		f.mu.Unlock()
		return err
	}
	if reject(el) {
		f.mu.Unlock()
		return fmt.Errorf("%s click intercepted", kind)
	}
	f.Clicks = append(f.Clicks, el)
	f.ClickKinds = append(f.ClickKinds, kind)
	hook := el.OnClick
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	return nil
}

func (f *FakeDriver) MouseClick(ctx context.Context, n *cdp.Node) error {
	return f.click(ctx, n, "mouse", func(el *Element) bool { return el.RejectMouse })
}

func (f *FakeDriver) ScriptClick(ctx context.Context, n *cdp.Node) error {
	return f.click(ctx, n, "script", func(el *Element) bool { return el.RejectScript })
}

func (f *FakeDriver) DirectClick(ctx context.Context, n *cdp.Node) error {
	return f.click(ctx, n, "direct", func(el *Element) bool { return el.RejectDirect })
}

func (f *FakeDriver) PressKey(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Keys = append(f.Keys, key)
	return nil
}

func (f *FakeDriver) Windows(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	handles := make([]string, 0, len(f.windows))
	for _, w := range f.windows {
		handles = append(handles, w.handle)
	}
	return handles, nil
}

func (f *FakeDriver) CurrentWindow() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *FakeDriver) NewWindow(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.NewWindowErr != nil {
		return "", f.NewWindowErr
	}
	f.current = f.addWindowLocked("about:blank")
	return f.current, nil
}

func (f *FakeDriver) SwitchTo(ctx context.Context, handle string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range f.windows {
		if w.handle == handle {
			f.current = handle
			return nil
		}
	}
	return browser.ErrNoWindow
}

func (f *FakeDriver) CloseWindow(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, w := range f.windows {
		if w.handle == f.current {
			f.windows = append(f.windows[:i], f.windows[i+1:]...)
			f.current = ""
			return nil
		}
	}
	return browser.ErrNoWindow
}

func (f *FakeDriver) Quit() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Stopped = true
	return nil
}

func assign(v any, res any) error {
	if res == nil || v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, res)
}
