// Package browser owns the automation session: one Chrome instance behind a
// narrow Driver interface plus defensive wrappers that never fail on a missing
// element or a timed-out navigation.
package browser

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/cdp"
)

// Driver is the automation capability the rest of the system relies on.
//
// Node handles are only valid in the window they were obtained from and only
// until that window navigates. Window handles are opaque strings.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	Reload(ctx context.Context) error
	Back(ctx context.Context) error
	Location(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)
	Source(ctx context.Context) (string, error)

	// QueryAll returns every element matching a CSS selector without waiting.
	// A nil within searches the whole document.
	QueryAll(ctx context.Context, selector string, within *cdp.Node) ([]*cdp.Node, error)
	// XPathAll returns every element matching an XPath expression without waiting.
	XPathAll(ctx context.Context, expr string) ([]*cdp.Node, error)
	// WaitFor blocks until selector matches or timeout elapses, returning ErrNotFound on timeout.
	WaitFor(ctx context.Context, selector string, timeout time.Duration) (*cdp.Node, error)

	// Attribute reads the live DOM property when one exists and falls back to the markup attribute.
	Attribute(ctx context.Context, n *cdp.Node, name string) (string, error)
	Text(ctx context.Context, n *cdp.Node) (string, error)
	Evaluate(ctx context.Context, script string, res any) error
	// CallOn invokes a JS function declaration with this bound to n.
	CallOn(ctx context.Context, n *cdp.Node, fn string, res any, args ...any) error

	MouseClick(ctx context.Context, n *cdp.Node) error
	ScriptClick(ctx context.Context, n *cdp.Node) error
	DirectClick(ctx context.Context, n *cdp.Node) error
	PressKey(ctx context.Context, key string) error

	Windows(ctx context.Context) ([]string, error)
	CurrentWindow() string
	NewWindow(ctx context.Context) (string, error)
	SwitchTo(ctx context.Context, handle string) error
	// CloseWindow closes the current window; callers must SwitchTo another one afterwards.
	CloseWindow(ctx context.Context) error
	Quit() error
}

// LaunchOptions configures a new Chrome instance.
type LaunchOptions struct {
	Headless        bool
	ChromePath      string
	UserAgent       string
	WindowWidth     int
	WindowHeight    int
	PageLoadTimeout time.Duration
	LaunchTimeout   time.Duration
	Proxy           string
}

// Launcher starts a Driver. ChromeLauncher is the production implementation.
type Launcher func(ctx context.Context, opts LaunchOptions) (Driver, error)
