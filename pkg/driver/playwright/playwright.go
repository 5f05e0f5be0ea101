// Package playwright adapts the Playwright automation runtime to the driver
// capability consumed by the execution core.
package playwright

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/selfheal/pkg/driver"
)

// Default viewport used when the caller does not specify one.
const (
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
	DefaultTimeout        = 30000.0 // 30 seconds in milliseconds
)

// Driver launches browser sessions through a shared Playwright runtime.
type Driver struct {
	mu          sync.Mutex
	pw          *playwright.Playwright
	initialized bool
}

// New installs (if needed) and starts the Playwright runtime.
func New() (*Driver, error) {
	// Run with verbose=false and discard output so driver chatter never
	// reaches the test runner's stdout
	opts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}

	if err := playwright.Install(opts); err != nil {
		return nil, fmt.Errorf("failed to install playwright: %w", err)
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	return &Driver{pw: pw, initialized: true}, nil
}

// NewSession launches a browser of the given kind and returns its page handle.
func (d *Driver) NewSession(kind driver.BrowserKind, opts driver.SessionOptions) (driver.Page, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return nil, fmt.Errorf("playwright driver stopped")
	}

	var browserType playwright.BrowserType
	switch kind {
	case driver.Firefox:
		browserType = d.pw.Firefox
	case driver.WebKit:
		browserType = d.pw.WebKit
	case driver.Chromium, "":
		browserType = d.pw.Chromium
	default:
		return nil, fmt.Errorf("unsupported browser kind: %s", kind)
	}

	if opts.ViewportWidth == 0 {
		opts.ViewportWidth = DefaultViewportWidth
	}
	if opts.ViewportHeight == 0 {
		opts.ViewportHeight = DefaultViewportHeight
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}

	browser, err := browserType.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: &opts.Headless,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	context, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  opts.ViewportWidth,
			Height: opts.ViewportHeight,
		},
	})
	if err != nil {
		browser.Close()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	pwPage, err := context.NewPage()
	if err != nil {
		context.Close()
		browser.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	pwPage.SetDefaultTimeout(opts.Timeout)

	return &page{
		browser: browser,
		context: context,
		page:    pwPage,
	}, nil
}

// Stop shuts down the Playwright runtime. Sessions created earlier become
// unusable.
func (d *Driver) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return nil
	}
	d.initialized = false

	if err := d.pw.Stop(); err != nil {
		return fmt.Errorf("failed to stop playwright: %w", err)
	}
	return nil
}

// page implements driver.Page over a Playwright browser/context/page triple.
type page struct {
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
}

func (p *page) Goto(url string) error {
	if _, err := p.page.Goto(url, playwright.PageGotoOptions{}); err != nil {
		return translate("goto", url, err)
	}
	return nil
}

func (p *page) Click(selector string) error {
	if err := p.page.Click(selector, playwright.PageClickOptions{}); err != nil {
		return translate("click", selector, err)
	}
	return nil
}

func (p *page) Fill(selector, value string) error {
	if err := p.page.Fill(selector, value, playwright.PageFillOptions{}); err != nil {
		return translate("fill", selector, err)
	}
	return nil
}

func (p *page) Hover(selector string) error {
	if err := p.page.Hover(selector, playwright.PageHoverOptions{}); err != nil {
		return translate("hover", selector, err)
	}
	return nil
}

func (p *page) SelectOption(selector, value string) ([]string, error) {
	selected, err := p.page.SelectOption(selector, playwright.SelectOptionValues{
		Values: &[]string{value},
	})
	if err != nil {
		return nil, translate("select", selector, err)
	}
	return selected, nil
}

func (p *page) TextContent(selector string) (string, error) {
	element, err := p.page.QuerySelector(selector)
	if err != nil {
		return "", translate("text", selector, err)
	}
	if element == nil {
		return "", driver.NewError("text", selector, driver.ErrElementNotFound)
	}
	text, err := element.TextContent()
	if err != nil {
		return "", translate("text", selector, err)
	}
	return text, nil
}

func (p *page) GetAttribute(selector, name string) (string, error) {
	element, err := p.page.QuerySelector(selector)
	if err != nil {
		return "", translate("attribute", selector, err)
	}
	if element == nil {
		return "", driver.NewError("attribute", selector, driver.ErrElementNotFound)
	}
	value, err := element.GetAttribute(name)
	if err != nil {
		return "", translate("attribute", selector, err)
	}
	return value, nil
}

func (p *page) IsVisible(selector string) (bool, error) {
	element, err := p.page.QuerySelector(selector)
	if err != nil {
		return false, translate("visible", selector, err)
	}
	if element == nil {
		return false, nil
	}
	visible, err := element.IsVisible()
	if err != nil {
		return false, translate("visible", selector, err)
	}
	return visible, nil
}

func (p *page) IsEnabled(selector string) (bool, error) {
	element, err := p.page.QuerySelector(selector)
	if err != nil {
		return false, translate("enabled", selector, err)
	}
	if element == nil {
		return false, driver.NewError("enabled", selector, driver.ErrElementNotFound)
	}
	enabled, err := element.IsEnabled()
	if err != nil {
		return false, translate("enabled", selector, err)
	}
	return enabled, nil
}

func (p *page) Count(selector string) (int, error) {
	elements, err := p.page.QuerySelectorAll(selector)
	if err != nil {
		return 0, translate("count", selector, err)
	}
	return len(elements), nil
}

func (p *page) Evaluate(script string) (interface{}, error) {
	result, err := p.page.Evaluate(script)
	if err != nil {
		return nil, translate("evaluate", "", err)
	}
	return result, nil
}

func (p *page) Screenshot() ([]byte, error) {
	data, err := p.page.Screenshot()
	if err != nil {
		return nil, translate("screenshot", "", err)
	}
	return data, nil
}

func (p *page) URL() (string, error) {
	// Round-trip through the browser so a dead session surfaces an error
	// instead of returning cached state.
	result, err := p.page.Evaluate("window.location.href")
	if err != nil {
		return "", translate("url", "", err)
	}
	href, _ := result.(string)
	return href, nil
}

func (p *page) Close() error {
	// Continue cleanup past individual failures; the last error wins.
	var lastErr error
	if err := p.page.Close(); err != nil {
		lastErr = err
	}
	if err := p.context.Close(); err != nil {
		lastErr = err
	}
	if err := p.browser.Close(); err != nil {
		lastErr = err
	}
	return lastErr
}

// translate maps Playwright failures onto the driver error taxonomy by
// message inspection, since the runtime does not expose stable error types
// across versions.
func translate(op, selector string, err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"):
		return driver.NewError(op, selector, fmt.Errorf("%w: %v", driver.ErrTimeout, err))
	case strings.Contains(msg, "not attached") || strings.Contains(msg, "detached"):
		return driver.NewError(op, selector, fmt.Errorf("%w: %v", driver.ErrStaleElement, err))
	case strings.Contains(msg, "no element") || strings.Contains(msg, "not found"):
		return driver.NewError(op, selector, fmt.Errorf("%w: %v", driver.ErrElementNotFound, err))
	case strings.Contains(msg, "closed"):
		return driver.NewError(op, selector, fmt.Errorf("%w: %v", driver.ErrSessionClosed, err))
	default:
		return driver.NewError(op, selector, err)
	}
}
