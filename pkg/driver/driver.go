// Package driver defines the browser-automation capability consumed by the
// execution core. The core never talks to a real browser directly; it drives
// an opaque Page handle supplied by a Driver implementation. The production
// implementation lives in the playwright subpackage.
package driver

// BrowserKind identifies the browser engine backing a session.
type BrowserKind string

const (
	Chromium BrowserKind = "chromium"
	Firefox  BrowserKind = "firefox"
	WebKit   BrowserKind = "webkit"
)

// SessionOptions configures a new browser session.
type SessionOptions struct {
	// Headless controls whether the browser runs without a visible window
	Headless bool

	// ViewportWidth and ViewportHeight set the initial viewport size.
	// Zero values use the driver's defaults.
	ViewportWidth  int
	ViewportHeight int

	// Timeout is the driver-level default operation timeout in milliseconds
	// (0 means driver default)
	Timeout float64
}

// Driver launches and releases browser sessions.
type Driver interface {
	// NewSession launches a fresh browser session of the given kind and
	// returns its page handle.
	NewSession(kind BrowserKind, opts SessionOptions) (Page, error)

	// Stop releases the underlying automation runtime. No sessions may be
	// created afterwards.
	Stop() error
}

// Page is one session's handle to the browser. All element operations take a
// selector string; the page resolves it against the current document.
type Page interface {
	// Goto navigates to the given URL.
	Goto(url string) error

	// Click clicks the first element matching selector.
	Click(selector string) error

	// Fill clears and types into the first input matching selector.
	Fill(selector, value string) error

	// Hover moves the pointer over the first element matching selector.
	Hover(selector string) error

	// SelectOption selects the option with the given value in the first
	// select element matching selector and returns the selected values.
	SelectOption(selector, value string) ([]string, error)

	// TextContent returns the text content of the first matching element.
	TextContent(selector string) (string, error)

	// GetAttribute returns the named attribute of the first matching
	// element. A missing attribute yields an empty string and no error.
	GetAttribute(selector, name string) (string, error)

	// IsVisible reports whether the first matching element is visible.
	// A non-existent element is not visible, not an error.
	IsVisible(selector string) (bool, error)

	// IsEnabled reports whether the first matching element is enabled.
	IsEnabled(selector string) (bool, error)

	// Count returns the number of elements matching selector.
	Count(selector string) (int, error)

	// Evaluate runs a JavaScript expression in the page and returns its
	// result.
	Evaluate(script string) (interface{}, error)

	// Screenshot captures the current viewport as PNG bytes.
	Screenshot() ([]byte, error)

	// URL returns the current page URL. It fails when the session is no
	// longer usable, which makes it the cheapest liveness probe.
	URL() (string, error)

	// Close releases the session's browser resources.
	Close() error
}
