// Package retry decides whether a failed test should run again. The
// decision follows one of two paths: a policy declared for the test, or a
// process-wide heuristic over the failure message. Attempt history is kept
// in a shared, concurrent-safe store so parallel workers never lose counts.
package retry

import (
	"errors"
	"time"
)

// Process-wide retry defaults, used when no declared policy applies and the
// configuration provider has nothing to say.
const (
	DefaultMaxRetries = 2
	DefaultDelay      = time.Second
	DefaultMaxDelay   = 10 * time.Second
	DefaultReason     = "Transient failure recovery"
)

// CauseMatcher reports whether a failure cause belongs to a retryable kind.
type CauseMatcher func(error) bool

// On matches causes carrying an error of type T anywhere in their chain.
func On[T error]() CauseMatcher {
	return func(err error) bool {
		var target T
		return errors.As(err, &target)
	}
}

// OnSentinel matches causes wrapping the given sentinel error.
func OnSentinel(sentinel error) CauseMatcher {
	return func(err error) bool {
		return errors.Is(err, sentinel)
	}
}

// Policy governs whether, how often, and how fast a test is retried.
// Resolved once per test invocation and immutable afterwards.
type Policy struct {
	// MaxRetries bounds the number of retry-performed attempts
	MaxRetries int

	// RetryOn restricts retries to matching causes. Empty means any cause.
	RetryOn []CauseMatcher

	// Delay is the base pause before a retry
	Delay time.Duration

	// ProgressiveDelay doubles the pause per retry, capped at MaxDelay
	ProgressiveDelay bool

	// MaxDelay caps the progressive pause. Zero means DefaultMaxDelay.
	MaxDelay time.Duration

	// CaptureEvidenceOnRetry triggers an evidence capture before each retry
	CaptureEvidenceOnRetry bool

	// Reason is recorded with every retry-performed attempt
	Reason string
}

// DefaultPolicy returns the process-wide fallback policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:             DefaultMaxRetries,
		Delay:                  DefaultDelay,
		MaxDelay:               DefaultMaxDelay,
		CaptureEvidenceOnRetry: true,
		Reason:                 DefaultReason,
	}
}

// normalized fills gaps a declared policy is allowed to leave open.
func (p Policy) normalized() Policy {
	if p.Reason == "" {
		p.Reason = DefaultReason
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultMaxDelay
	}
	return p
}

// Matches reports whether the cause is retryable under this policy. An
// empty RetryOn set accepts any cause.
func (p Policy) Matches(cause error) bool {
	if len(p.RetryOn) == 0 {
		return true
	}
	for _, match := range p.RetryOn {
		if match(cause) {
			return true
		}
	}
	return false
}

// DelayFor computes the pause before retry n (zero-based index of the
// retry about to happen). Progressive policies double per retry, capped.
func (p Policy) DelayFor(n int) time.Duration {
	return delayFor(p.Delay, p.MaxDelay, p.ProgressiveDelay, n)
}

// delayFor is the single progressive-delay rule shared by both decision
// paths: min(base * 2^n, max) when progressive, base otherwise.
func delayFor(base, max time.Duration, progressive bool, n int) time.Duration {
	if !progressive || base <= 0 {
		return base
	}
	if n > 30 {
		n = 30
	}
	d := base << uint(n)
	if max > 0 && d > max {
		return max
	}
	return d
}
