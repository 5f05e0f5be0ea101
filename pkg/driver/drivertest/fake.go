// Package drivertest provides in-memory driver fakes for tests.
package drivertest

import (
	"sync"

	"github.com/entrhq/selfheal/pkg/driver"
)

// FakePage implements driver.Page with per-method hooks. Unset hooks return
// zero values and nil errors, so tests only configure what they assert on.
type FakePage struct {
	mu     sync.Mutex
	calls  map[string]int
	closed bool

	GotoFunc         func(url string) error
	ClickFunc        func(selector string) error
	FillFunc         func(selector, value string) error
	HoverFunc        func(selector string) error
	SelectOptionFunc func(selector, value string) ([]string, error)
	TextContentFunc  func(selector string) (string, error)
	GetAttributeFunc func(selector, name string) (string, error)
	IsVisibleFunc    func(selector string) (bool, error)
	IsEnabledFunc    func(selector string) (bool, error)
	CountFunc        func(selector string) (int, error)
	EvaluateFunc     func(script string) (interface{}, error)
	ScreenshotFunc   func() ([]byte, error)
	URLFunc          func() (string, error)
	CloseFunc        func() error
}

// NewFakePage creates a page fake with no hooks configured.
func NewFakePage() *FakePage {
	return &FakePage{calls: make(map[string]int)}
}

func (p *FakePage) bump(method string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[method]++
}

// Calls returns how many times the named method was invoked.
func (p *FakePage) Calls(method string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[method]
}

// Closed reports whether Close was called.
func (p *FakePage) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *FakePage) Goto(url string) error {
	p.bump("Goto")
	if p.GotoFunc != nil {
		return p.GotoFunc(url)
	}
	return nil
}

func (p *FakePage) Click(selector string) error {
	p.bump("Click")
	if p.ClickFunc != nil {
		return p.ClickFunc(selector)
	}
	return nil
}

func (p *FakePage) Fill(selector, value string) error {
	p.bump("Fill")
	if p.FillFunc != nil {
		return p.FillFunc(selector, value)
	}
	return nil
}

func (p *FakePage) Hover(selector string) error {
	p.bump("Hover")
	if p.HoverFunc != nil {
		return p.HoverFunc(selector)
	}
	return nil
}

func (p *FakePage) SelectOption(selector, value string) ([]string, error) {
	p.bump("SelectOption")
	if p.SelectOptionFunc != nil {
		return p.SelectOptionFunc(selector, value)
	}
	return []string{value}, nil
}

func (p *FakePage) TextContent(selector string) (string, error) {
	p.bump("TextContent")
	if p.TextContentFunc != nil {
		return p.TextContentFunc(selector)
	}
	return "", nil
}

func (p *FakePage) GetAttribute(selector, name string) (string, error) {
	p.bump("GetAttribute")
	if p.GetAttributeFunc != nil {
		return p.GetAttributeFunc(selector, name)
	}
	return "", nil
}

func (p *FakePage) IsVisible(selector string) (bool, error) {
	p.bump("IsVisible")
	if p.IsVisibleFunc != nil {
		return p.IsVisibleFunc(selector)
	}
	return true, nil
}

func (p *FakePage) IsEnabled(selector string) (bool, error) {
	p.bump("IsEnabled")
	if p.IsEnabledFunc != nil {
		return p.IsEnabledFunc(selector)
	}
	return true, nil
}

func (p *FakePage) Count(selector string) (int, error) {
	p.bump("Count")
	if p.CountFunc != nil {
		return p.CountFunc(selector)
	}
	return 1, nil
}

func (p *FakePage) Evaluate(script string) (interface{}, error) {
	p.bump("Evaluate")
	if p.EvaluateFunc != nil {
		return p.EvaluateFunc(script)
	}
	return nil, nil
}

func (p *FakePage) Screenshot() ([]byte, error) {
	p.bump("Screenshot")
	if p.ScreenshotFunc != nil {
		return p.ScreenshotFunc()
	}
	return []byte("png"), nil
}

func (p *FakePage) URL() (string, error) {
	p.bump("URL")
	if p.URLFunc != nil {
		return p.URLFunc()
	}
	return "about:blank", nil
}

func (p *FakePage) Close() error {
	p.bump("Close")
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	if p.CloseFunc != nil {
		return p.CloseFunc()
	}
	return nil
}

// FakeDriver implements driver.Driver, handing out FakePages.
type FakeDriver struct {
	mu    sync.Mutex
	pages []*FakePage

	// NewSessionFunc overrides session creation when set.
	NewSessionFunc func(kind driver.BrowserKind, opts driver.SessionOptions) (driver.Page, error)

	// NewPage customizes the fake handed out per session when set.
	NewPage func() *FakePage

	stopped bool
}

// NewFakeDriver creates a driver fake that vends plain FakePages.
func NewFakeDriver() *FakeDriver {
	return &FakeDriver{}
}

func (d *FakeDriver) NewSession(kind driver.BrowserKind, opts driver.SessionOptions) (driver.Page, error) {
	if d.NewSessionFunc != nil {
		return d.NewSessionFunc(kind, opts)
	}
	page := NewFakePage()
	if d.NewPage != nil {
		page = d.NewPage()
	}
	d.mu.Lock()
	d.pages = append(d.pages, page)
	d.mu.Unlock()
	return page, nil
}

func (d *FakeDriver) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	return nil
}

// Pages returns every page the fake has vended.
func (d *FakeDriver) Pages() []*FakePage {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*FakePage, len(d.pages))
	copy(out, d.pages)
	return out
}

// Stopped reports whether Stop was called.
func (d *FakeDriver) Stopped() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopped
}
