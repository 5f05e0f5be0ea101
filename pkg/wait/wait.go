// Package wait provides blocking, polling wait primitives used to observe
// UI state. Strategies resolve the calling worker's active session through
// the session manager and poll until satisfied or timed out.
package wait

import (
	"fmt"
	"time"

	"github.com/entrhq/selfheal/pkg/config"
	"github.com/entrhq/selfheal/pkg/driver"
	"github.com/entrhq/selfheal/pkg/logging"
	"github.com/entrhq/selfheal/pkg/session"
)

// Default timing applied when neither the caller nor the configuration
// provides a value. Mirrors the framework-wide explicit wait settings.
const (
	DefaultTimeout      = 20 * time.Second
	DefaultPollInterval = 2 * time.Second
)

// TimeoutError is returned when a condition is not satisfied within the
// wait window. It carries the description of what was being waited for.
type TimeoutError struct {
	Target  string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("condition %q not satisfied within %s", e.Target, e.Timeout)
}

// Options override the provider's configured timing. Zero values fall back
// to configuration, which falls back to the package defaults.
type Options struct {
	Timeout      time.Duration
	PollInterval time.Duration
}

// Predicate inspects the page on each poll tick. Returning done=false keeps
// polling. Element-not-found and stale-element errors are swallowed as
// "not yet satisfied"; any other error aborts the wait.
type Predicate[T any] func(page driver.Page) (T, bool, error)

// Provider builds wait strategies bound to a session manager.
type Provider struct {
	sessions *session.Manager
	cfg      config.Provider
	log      logging.Sink
}

// NewProvider creates a wait strategy provider. log may be nil.
func NewProvider(sessions *session.Manager, cfg config.Provider, log logging.Sink) *Provider {
	if log == nil {
		log = logging.Nop{}
	}
	return &Provider{sessions: sessions, cfg: cfg, log: log}
}

// Sessions exposes the underlying session manager.
func (p *Provider) Sessions() *session.Manager {
	return p.sessions
}

func (p *Provider) timing(opts Options) (time.Duration, time.Duration) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = p.cfg.GetDuration(config.KeyExplicitWaitTimeout, DefaultTimeout)
	}
	poll := opts.PollInterval
	if poll <= 0 {
		poll = p.cfg.GetDuration(config.KeyPollInterval, DefaultPollInterval)
	}
	return timeout, poll
}

// For polls pred against the worker's active session until it reports done,
// an unexpected error occurs, or the timeout elapses. The session is
// resolved on every tick, so a wait follows a session recreated mid-poll
// instead of watching the dead page until timeout.
func For[T any](p *Provider, workerID, target string, pred Predicate[T], opts Options) (T, error) {
	var zero T

	timeout, poll := p.timing(opts)
	deadline := time.Now().Add(timeout)

	for {
		sess, err := p.sessions.Get(workerID)
		if err != nil {
			return zero, err
		}

		value, done, err := pred(sess.Page)
		if err != nil {
			if driver.IsNotFound(err) || driver.IsStale(err) {
				p.log.Debugf("condition %q not ready: %v", target, err)
			} else {
				return zero, fmt.Errorf("wait for %q failed: %w", target, err)
			}
		} else if done {
			return value, nil
		}

		if time.Now().Add(poll).After(deadline) {
			p.log.Warnf("timed out waiting for %q after %s", target, timeout)
			return zero, &TimeoutError{Target: target, Timeout: timeout}
		}
		time.Sleep(poll)
	}
}
