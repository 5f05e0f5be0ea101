// Package actions executes single UI actions with a bounded local recovery
// ladder. The ladder smooths transient UI timing (late renders, moving
// overlays, brief detachments) and is independent of test-level retries:
// nothing here feeds back into the retry decision for the whole test.
package actions

import (
	"errors"
	"fmt"
	"time"

	"github.com/entrhq/selfheal/pkg/config"
	"github.com/entrhq/selfheal/pkg/driver"
	"github.com/entrhq/selfheal/pkg/evidence"
	"github.com/entrhq/selfheal/pkg/logging"
	"github.com/entrhq/selfheal/pkg/metrics"
	"github.com/entrhq/selfheal/pkg/session"
	"github.com/entrhq/selfheal/pkg/wait"
)

// Action names a single UI operation.
type Action string

const (
	ActionClick         Action = "click"
	ActionType          Action = "type"
	ActionReadText      Action = "read-text"
	ActionReadAttribute Action = "read-attribute"
	ActionSelect        Action = "select"
	ActionHover         Action = "hover"
	ActionScroll        Action = "scroll"
	ActionNavigate      Action = "navigate"
)

const (
	// ladderAttempts is the fixed bound on in-action attempts.
	ladderAttempts = 3

	// DefaultStabilizeDelay is the pause applied before a recovery attempt.
	DefaultStabilizeDelay = 500 * time.Millisecond
)

// overlayHideScript suppresses the blocking overlays we know about before
// the final attempt. Unknown overlays still fail the action, which is
// correct: hiding arbitrary elements would mask real regressions.
const overlayHideScript = `(() => {
	window.scrollTo(0, 0);
	const selectors = ['.modal', '.overlay', '.popup', '.cookie-banner', '[role="dialog"]'];
	let hidden = 0;
	for (const sel of selectors) {
		for (const el of document.querySelectorAll(sel)) {
			el.style.display = 'none';
			hidden++;
		}
	}
	return hidden;
})()`

// Executor runs UI actions against the calling worker's active session.
type Executor struct {
	waits *wait.Provider
	sink  evidence.Sink
	cfg   config.Provider
	log   logging.Sink
}

// NewExecutor creates an action executor. sink and log may be nil.
func NewExecutor(waits *wait.Provider, sink evidence.Sink, cfg config.Provider, log logging.Sink) *Executor {
	if sink == nil {
		sink = evidence.Nop{}
	}
	if log == nil {
		log = logging.Nop{}
	}
	return &Executor{waits: waits, sink: sink, cfg: cfg, log: log}
}

func (e *Executor) stabilizeDelay() time.Duration {
	return e.cfg.GetDuration(config.KeyActionStabilize, DefaultStabilizeDelay)
}

// run drives op through the recovery ladder:
//
//	attempt 1: execute directly
//	attempt 2: after a stabilize pause and session liveness check
//	attempt 3: after decluttering the page (scroll to top, hide overlays)
//
// A second-or-later success is a recovery. The final failure captures
// evidence and wraps the last cause in an ActionError.
func run[T any](e *Executor, workerID string, action Action, selector, description string, op func(page driver.Page) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= ladderAttempts; attempt++ {
		sess, err := e.waits.Sessions().Get(workerID)
		if err != nil {
			return zero, err
		}

		value, err := op(sess.Page)
		if err == nil {
			if attempt > 1 {
				e.log.Infof("%s on %q recovered on attempt %d", action, selector, attempt)
				metrics.ActionRecoveriesTotal.WithLabelValues(string(action)).Inc()
			}
			metrics.ActionsTotal.WithLabelValues(string(action), "success").Inc()
			return value, nil
		}

		// Session misuse is a programmer error, not flakiness. Surface it
		// without burning ladder attempts.
		var noSession *session.NoActiveSessionError
		if errors.As(err, &noSession) {
			return zero, err
		}

		lastErr = err
		e.log.Warnf("attempt %d/%d of %s on %q failed: %v", attempt, ladderAttempts, action, selector, err)

		switch attempt {
		case 1:
			e.stabilize(workerID)
		case 2:
			e.declutter(workerID)
		}
	}

	metrics.ActionsTotal.WithLabelValues(string(action), "failure").Inc()
	e.captureFailureEvidence(action, selector)

	return zero, &ActionError{
		Action:      action,
		Description: description,
		Selector:    selector,
		Attempts:    ladderAttempts,
		Err:         lastErr,
	}
}

// stabilize pauses briefly and verifies the session still responds before
// the next attempt.
func (e *Executor) stabilize(workerID string) {
	time.Sleep(e.stabilizeDelay())
	if !e.waits.Sessions().IsSessionLive(workerID) {
		e.log.Warnf("session for worker %q is not responding during action recovery", workerID)
	}
}

// declutter moves the document to a neutral scroll position and hides known
// blocking overlays. Script failures are logged and ignored; the next
// attempt decides whether the page is usable.
func (e *Executor) declutter(workerID string) {
	time.Sleep(e.stabilizeDelay())

	sess, err := e.waits.Sessions().Get(workerID)
	if err != nil {
		return
	}
	if hidden, err := sess.Page.Evaluate(overlayHideScript); err != nil {
		e.log.Debugf("declutter script failed for worker %q: %v", workerID, err)
	} else {
		e.log.Debugf("declutter hid %v overlay element(s) for worker %q", hidden, workerID)
	}
}

func (e *Executor) captureFailureEvidence(action Action, selector string) {
	path, err := e.sink.Capture(fmt.Sprintf("action_%s_%s", action, selector))
	if err != nil {
		e.log.Warnf("failed to capture evidence for failed %s on %q: %v", action, selector, err)
		return
	}
	if path != "" {
		e.log.Infof("evidence for failed %s on %q: %s", action, selector, path)
	}
}

// Click waits for the element to be clickable and clicks it.
func (e *Executor) Click(workerID, selector, description string) error {
	_, err := run(e, workerID, ActionClick, selector, description, func(page driver.Page) (struct{}, error) {
		if err := e.waits.Clickable(workerID, selector, wait.Options{}); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, page.Click(selector)
	})
	return err
}

// Type waits for the input to be visible, fills it, and verifies the value
// landed. A silently dropped value is re-applied through the DOM before the
// attempt is counted as failed.
func (e *Executor) Type(workerID, selector, value, description string) error {
	_, err := run(e, workerID, ActionType, selector, description, func(page driver.Page) (struct{}, error) {
		if err := e.waits.Visible(workerID, selector, wait.Options{}); err != nil {
			return struct{}{}, err
		}
		if err := page.Fill(selector, value); err != nil {
			return struct{}{}, err
		}

		got, err := page.GetAttribute(selector, "value")
		if err != nil {
			return struct{}{}, err
		}
		if got == value {
			return struct{}{}, nil
		}

		// Some inputs intercept keystrokes; set the value directly and fire
		// an input event so framework bindings notice.
		script := fmt.Sprintf(`(() => {
	const el = document.querySelector(%q);
	if (!el) return false;
	el.value = %q;
	el.dispatchEvent(new Event('input', { bubbles: true }));
	return true;
})()`, selector, value)
		if _, err := page.Evaluate(script); err != nil {
			return struct{}{}, err
		}

		got, err = page.GetAttribute(selector, "value")
		if err != nil {
			return struct{}{}, err
		}
		if got != value {
			return struct{}{}, &ValidationError{Selector: selector, Want: value, Got: got}
		}
		return struct{}{}, nil
	})
	return err
}

// ReadText waits for the element to be visible and returns its text.
func (e *Executor) ReadText(workerID, selector, description string) (string, error) {
	return run(e, workerID, ActionReadText, selector, description, func(page driver.Page) (string, error) {
		if err := e.waits.Visible(workerID, selector, wait.Options{}); err != nil {
			return "", err
		}
		return page.TextContent(selector)
	})
}

// ReadAttribute waits for the element to be present and returns the named
// attribute. A missing attribute reads as an empty string.
func (e *Executor) ReadAttribute(workerID, selector, name, description string) (string, error) {
	return run(e, workerID, ActionReadAttribute, selector, description, func(page driver.Page) (string, error) {
		if err := e.waits.Present(workerID, selector, wait.Options{}); err != nil {
			return "", err
		}
		return page.GetAttribute(selector, name)
	})
}

// Select waits for the select element to be visible, chooses the option with
// the given value, and verifies the selection took effect.
func (e *Executor) Select(workerID, selector, value, description string) error {
	_, err := run(e, workerID, ActionSelect, selector, description, func(page driver.Page) (struct{}, error) {
		if err := e.waits.Visible(workerID, selector, wait.Options{}); err != nil {
			return struct{}{}, err
		}
		selected, err := page.SelectOption(selector, value)
		if err != nil {
			return struct{}{}, err
		}
		for _, s := range selected {
			if s == value {
				return struct{}{}, nil
			}
		}
		return struct{}{}, &ValidationError{Selector: selector, Want: value, Got: fmt.Sprintf("%v", selected)}
	})
	return err
}

// Hover waits for the element to be visible and moves the pointer over it.
func (e *Executor) Hover(workerID, selector, description string) error {
	_, err := run(e, workerID, ActionHover, selector, description, func(page driver.Page) (struct{}, error) {
		if err := e.waits.Visible(workerID, selector, wait.Options{}); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, page.Hover(selector)
	})
	return err
}

// Scroll brings the element into view.
func (e *Executor) Scroll(workerID, selector, description string) error {
	_, err := run(e, workerID, ActionScroll, selector, description, func(page driver.Page) (struct{}, error) {
		if err := e.waits.Present(workerID, selector, wait.Options{}); err != nil {
			return struct{}{}, err
		}
		script := fmt.Sprintf(`(() => {
	const el = document.querySelector(%q);
	if (!el) return false;
	el.scrollIntoView({ block: 'center' });
	return true;
})()`, selector)
		found, err := page.Evaluate(script)
		if err != nil {
			return struct{}{}, err
		}
		if ok, _ := found.(bool); !ok {
			return struct{}{}, driver.NewError("scroll", selector, driver.ErrElementNotFound)
		}
		return struct{}{}, nil
	})
	return err
}

// Navigate loads the given URL in the worker's session.
func (e *Executor) Navigate(workerID, url, description string) error {
	_, err := run(e, workerID, ActionNavigate, url, description, func(page driver.Page) (struct{}, error) {
		return struct{}{}, page.Goto(url)
	})
	return err
}
