package wait

import (
	"fmt"
	"strings"

	"github.com/entrhq/selfheal/pkg/driver"
)

// Visible blocks until the element matching selector is visible.
func (p *Provider) Visible(workerID, selector string, opts Options) error {
	target := fmt.Sprintf("element visible: %s", selector)
	_, err := For(p, workerID, target, func(page driver.Page) (struct{}, bool, error) {
		visible, err := page.IsVisible(selector)
		return struct{}{}, visible, err
	}, opts)
	return err
}

// Invisible blocks until no visible element matches selector. A selector
// matching nothing at all also satisfies the condition.
func (p *Provider) Invisible(workerID, selector string, opts Options) error {
	target := fmt.Sprintf("element invisible: %s", selector)
	_, err := For(p, workerID, target, func(page driver.Page) (struct{}, bool, error) {
		visible, err := page.IsVisible(selector)
		if err != nil {
			if driver.IsNotFound(err) {
				return struct{}{}, true, nil
			}
			return struct{}{}, false, err
		}
		return struct{}{}, !visible, nil
	}, opts)
	return err
}

// Present blocks until at least one element matches selector, regardless of
// visibility.
func (p *Provider) Present(workerID, selector string, opts Options) error {
	target := fmt.Sprintf("element present: %s", selector)
	_, err := For(p, workerID, target, func(page driver.Page) (struct{}, bool, error) {
		count, err := page.Count(selector)
		return struct{}{}, count > 0, err
	}, opts)
	return err
}

// Clickable blocks until the element matching selector is both visible and
// enabled.
func (p *Provider) Clickable(workerID, selector string, opts Options) error {
	target := fmt.Sprintf("element clickable: %s", selector)
	_, err := For(p, workerID, target, func(page driver.Page) (struct{}, bool, error) {
		visible, err := page.IsVisible(selector)
		if err != nil || !visible {
			return struct{}{}, false, err
		}
		enabled, err := page.IsEnabled(selector)
		return struct{}{}, enabled, err
	}, opts)
	return err
}

// TextContains blocks until the element's text contains substr and returns
// the full text observed.
func (p *Provider) TextContains(workerID, selector, substr string, opts Options) (string, error) {
	target := fmt.Sprintf("text of %s contains %q", selector, substr)
	return For(p, workerID, target, func(page driver.Page) (string, bool, error) {
		text, err := page.TextContent(selector)
		if err != nil {
			return "", false, err
		}
		return text, strings.Contains(text, substr), nil
	}, opts)
}

// AttributeEquals blocks until the element's attribute equals want.
func (p *Provider) AttributeEquals(workerID, selector, name, want string, opts Options) error {
	target := fmt.Sprintf("attribute %s of %s equals %q", name, selector, want)
	_, err := For(p, workerID, target, func(page driver.Page) (struct{}, bool, error) {
		value, err := page.GetAttribute(selector, name)
		if err != nil {
			return struct{}{}, false, err
		}
		return struct{}{}, value == want, nil
	}, opts)
	return err
}

// Until blocks until the caller-supplied predicate is satisfied. target is
// used in logs and in the timeout error.
func (p *Provider) Until(workerID, target string, pred Predicate[struct{}], opts Options) error {
	_, err := For(p, workerID, target, pred, opts)
	return err
}
