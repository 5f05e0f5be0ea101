package retry

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/entrhq/selfheal/pkg/classify"
	"github.com/entrhq/selfheal/pkg/config"
	"github.com/entrhq/selfheal/pkg/evidence"
	"github.com/entrhq/selfheal/pkg/logging"
	"github.com/entrhq/selfheal/pkg/metrics"
)

// Reasons recorded with non-retry attempts.
const (
	reasonMaxRetries   = "max retries exceeded"
	reasonNotRetryable = "cause type not retryable"
	reasonInterrupted  = "retry delay interrupted"
)

// Heuristic keyword lists for the global-default path, scanned in order
// against the lowercased failure message. Retryable keywords are checked
// first; a cause matching neither list falls to the configured default
// verdict.
var (
	retryableKeywords = []string{
		"timeout", "connection", "network", "stale element",
		"element not found", "element not interactable",
		"server error", "socket", "session",
	}
	nonRetryableKeywords = []string{
		"assertion", "expected", "invalid argument", "nil pointer",
		"index out of range", "permission denied", "security",
	}
)

// Engine is the test-level retry decision function. It is stateless apart
// from the shared attempt store; the blocking delay is its only side
// effect on the caller.
type Engine struct {
	store      *Store
	registry   *Registry
	classifier *classify.Classifier
	sink       evidence.Sink
	cfg        config.Provider
	log        logging.Sink

	// keyLocks serializes decisions per test key so the budget check and
	// the attempt increment act as one atomic step.
	mu       sync.Mutex
	keyLocks map[string]*sync.Mutex
}

// NewEngine creates a retry decision engine. registry, classifier, sink,
// and log may be nil.
func NewEngine(store *Store, registry *Registry, classifier *classify.Classifier, sink evidence.Sink, cfg config.Provider, log logging.Sink) *Engine {
	if log == nil {
		log = logging.Nop{}
	}
	if registry == nil {
		registry = NewRegistry()
	}
	if classifier == nil {
		classifier = classify.NewClassifier(log)
	}
	if sink == nil {
		sink = evidence.Nop{}
	}
	return &Engine{
		store:      store,
		registry:   registry,
		classifier: classifier,
		sink:       sink,
		cfg:        cfg,
		log:        log,
		keyLocks:   make(map[string]*sync.Mutex),
	}
}

func (e *Engine) lockFor(testKey string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.keyLocks[testKey]
	if !ok {
		lock = &sync.Mutex{}
		e.keyLocks[testKey] = lock
	}
	return lock
}

// Store exposes the shared attempt ledger for external reporting.
func (e *Engine) Store() *Store {
	return e.store
}

// ShouldRetry decides whether the failed test should run again. A declared
// policy for the test key takes the declarative path; otherwise the global
// heuristic applies. The call blocks for the computed retry delay before
// answering true; ctx cancellation aborts the delay and denies the retry.
//
// ShouldRetry never panics outward: any unexpected internal condition
// degrades to a no-retry verdict, because a decision engine that blows up
// would take down the very failure path it exists to handle.
func (e *Engine) ShouldRetry(ctx context.Context, testKey string, cause error) (verdict bool) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Errorf("retry decision for %s failed internally: %v", testKey, r)
			verdict = false
		}
	}()

	lock := e.lockFor(testKey)
	lock.Lock()
	defer lock.Unlock()

	if policy, ok := e.registry.Resolve(testKey); ok {
		return e.decideDeclared(ctx, testKey, cause, policy)
	}
	return e.decideHeuristic(ctx, testKey, cause)
}

func (e *Engine) decideDeclared(ctx context.Context, testKey string, cause error, policy Policy) bool {
	n := e.store.RetriesPerformed(testKey)
	if n >= policy.MaxRetries {
		return e.deny(testKey, "declared", reasonMaxRetries, n)
	}

	category := e.classifier.Classify(cause)
	if !policy.Matches(cause) {
		e.log.Infof("not retrying %s: cause (%s) outside the declared retryable set", testKey, category)
		return e.deny(testKey, "declared", reasonNotRetryable, n)
	}

	delay := policy.DelayFor(n)
	if err := e.pause(ctx, delay); err != nil {
		e.log.Warnf("retry delay for %s interrupted: %v", testKey, err)
		return e.deny(testKey, "declared", reasonInterrupted, n)
	}

	if policy.CaptureEvidenceOnRetry {
		e.captureRetryEvidence(testKey, n+1)
	}

	e.store.Record(testKey, true, policy.Reason)
	metrics.RetryDecisionsTotal.WithLabelValues("retry", "declared").Inc()
	e.log.Infof("retrying %s (attempt %d/%d, %s failure, waited %s): %s",
		testKey, n+1, policy.MaxRetries, category, delay, policy.Reason)
	return true
}

func (e *Engine) decideHeuristic(ctx context.Context, testKey string, cause error) bool {
	maxRetries := e.cfg.GetInt(config.KeyRetryMaxAttempts, DefaultMaxRetries)
	n := e.store.RetriesPerformed(testKey)
	if n >= maxRetries {
		return e.deny(testKey, "heuristic", reasonMaxRetries, n)
	}

	category := e.classifier.Classify(cause)
	if !e.heuristicRetryable(cause) {
		e.log.Infof("not retrying %s: %s failure looks permanent", testKey, category)
		return e.deny(testKey, "heuristic", reasonNotRetryable, n)
	}

	delay := delayFor(
		e.cfg.GetDuration(config.KeyRetryDelay, DefaultDelay),
		e.cfg.GetDuration(config.KeyRetryMaxDelay, DefaultMaxDelay),
		false, n)
	if err := e.pause(ctx, delay); err != nil {
		e.log.Warnf("retry delay for %s interrupted: %v", testKey, err)
		return e.deny(testKey, "heuristic", reasonInterrupted, n)
	}

	e.captureRetryEvidence(testKey, n+1)

	e.store.Record(testKey, true, DefaultReason)
	metrics.RetryDecisionsTotal.WithLabelValues("retry", "heuristic").Inc()
	e.log.Infof("retrying %s (attempt %d/%d, %s failure, waited %s)",
		testKey, n+1, maxRetries, category, delay)
	return true
}

// heuristicRetryable scans the failure message against the keyword lists.
// Retryable keywords win over non-retryable ones; no match at all falls to
// the configured default verdict, which is permissive. That tie-break can
// mask permanent failures as transient, so it stays configurable rather
// than hard-coded.
func (e *Engine) heuristicRetryable(cause error) bool {
	if cause == nil {
		return e.cfg.GetBool(config.KeyRetryDefaultVerdict, true)
	}
	message := strings.ToLower(cause.Error())
	for _, keyword := range retryableKeywords {
		if strings.Contains(message, keyword) {
			return true
		}
	}
	for _, keyword := range nonRetryableKeywords {
		if strings.Contains(message, keyword) {
			return false
		}
	}
	return e.cfg.GetBool(config.KeyRetryDefaultVerdict, true)
}

func (e *Engine) deny(testKey, path, reason string, n int) bool {
	e.store.Record(testKey, false, reason)
	metrics.RetryDecisionsTotal.WithLabelValues("no-retry", path).Inc()
	e.log.Infof("no retry for %s after %d retried attempt(s): %s", testKey, n, reason)
	return false
}

// pause blocks the calling worker for the retry delay. Cancellation of ctx
// aborts the pause and surfaces as an error rather than being swallowed.
func (e *Engine) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) captureRetryEvidence(testKey string, attempt int) {
	path, err := e.sink.Capture(fmt.Sprintf("retry_%s_attempt_%d", testKey, attempt))
	if err != nil {
		e.log.Warnf("failed to capture retry evidence for %s: %v", testKey, err)
		return
	}
	if path != "" {
		e.log.Debugf("retry evidence for %s: %s", testKey, path)
	}
}
