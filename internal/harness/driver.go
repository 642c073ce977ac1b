package harness

import (
	"context"
	"time"
)

// LoadState names a document lifecycle milestone.
type LoadState string

const (
	// LoadStateCommit fires once the navigation request is accepted, before parsing.
	LoadStateCommit LoadState = "commit"
	// LoadStateDOMContentLoaded fires once the DOM tree is built.
	LoadStateDOMContentLoaded LoadState = "domcontentloaded"
	// LoadStateLoad fires once the document and its subresources have loaded.
	LoadStateLoad LoadState = "load"
)

// LaunchOptions are per-launch overrides on top of the driver's configured flags.
type LaunchOptions struct {
	// ProxyServer routes all browser traffic through the given host:port.
	ProxyServer string
	Timeout     time.Duration
}

// ContextOptions configure a new isolated browsing context.
type ContextOptions struct {
	// DefaultTimeout bounds every page call that does not carry its own timeout.
	DefaultTimeout time.Duration
}

// GotoOptions configure a single navigation.
type GotoOptions struct {
	WaitUntil LoadState
	Timeout   time.Duration
}

// Driver hands out automation sessions.
type Driver interface {
	Start(ctx context.Context) (Session, error)
}

// Session is the top-level handle to an automation backend capable of launching browsers.
type Session interface {
	Launch(ctx context.Context, opts LaunchOptions) (Browser, error)
	Stop(ctx context.Context) error
}

// Browser is a single launched browser instance.
type Browser interface {
	NewContext(ctx context.Context, opts ContextOptions) (BrowsingContext, error)
	Close(ctx context.Context) error
}

// BrowsingContext is an isolated cookie and storage sandbox that owns its pages.
type BrowsingContext interface {
	NewPage(ctx context.Context) (Page, error)
	Close(ctx context.Context) error
}

// Page is a navigable document view.
//
// Selectors prefixed with "xpath=" (or starting with "/" or "html/") are
// XPath expressions; anything else is a CSS selector.
type Page interface {
	Goto(ctx context.Context, url string, opts GotoOptions) error
	WaitForLoadState(ctx context.Context, state LoadState, timeout time.Duration) error
	Frames(ctx context.Context) ([]Frame, error)

	Click(ctx context.Context, selector string, timeout time.Duration) error
	Fill(ctx context.Context, selector, value string, timeout time.Duration) error
	Wheel(ctx context.Context, deltaX, deltaY float64) error
	SetViewport(ctx context.Context, width, height int) error

	Evaluate(ctx context.Context, expression string) (any, error)
	Count(ctx context.Context, selector string) (int, error)
	Visible(ctx context.Context, selector string) (bool, error)
	Attribute(ctx context.Context, selector, name string) (string, bool, error)
	Text(ctx context.Context, selector string) (string, error)
	URL(ctx context.Context) (string, error)

	Screenshot(ctx context.Context) ([]byte, error)
	Content(ctx context.Context) (string, error)
}

// Frame is an embedded sub-frame of a page.
type Frame interface {
	Name() string
	WaitForLoadState(ctx context.Context, state LoadState, timeout time.Duration) error
}
