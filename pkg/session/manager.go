// Package session owns the one-session-per-worker invariant: each execution
// worker holds at most one browser session at a time, created on first use
// and destroyed exactly once.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/entrhq/selfheal/pkg/config"
	"github.com/entrhq/selfheal/pkg/driver"
	"github.com/entrhq/selfheal/pkg/logging"
	"github.com/entrhq/selfheal/pkg/metrics"
)

// Session is one worker's exclusive handle to a browser-automation resource.
type Session struct {
	// WorkerID identifies the execution worker that owns this session
	WorkerID string

	// Page is the opaque automation handle for this session
	Page driver.Page

	// Kind is the browser engine backing the session
	Kind driver.BrowserKind

	// CreatedAt is the timestamp when the session was created
	CreatedAt time.Time
}

// Manager tracks active sessions keyed by worker ID.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	drv      driver.Driver
	cfg      config.Provider
	log      logging.Sink
}

// NewManager creates a session manager backed by the given driver.
// cfg supplies browser defaults; log may be nil to discard output.
func NewManager(drv driver.Driver, cfg config.Provider, log logging.Sink) *Manager {
	if log == nil {
		log = logging.Nop{}
	}
	return &Manager{
		sessions: make(map[string]*Session),
		drv:      drv,
		cfg:      cfg,
		log:      log,
	}
}

// Create launches a new session for the worker. It fails with
// *SessionAlreadyActiveError if the worker already owns one.
// An empty kind falls back to the configured default browser.
func (m *Manager) Create(workerID string, kind driver.BrowserKind) (*Session, error) {
	m.mu.Lock()
	if _, exists := m.sessions[workerID]; exists {
		m.mu.Unlock()
		return nil, &SessionAlreadyActiveError{WorkerID: workerID}
	}
	m.mu.Unlock()

	if kind == "" {
		kind = driver.BrowserKind(m.cfg.GetString(config.KeyBrowserKind, string(driver.Chromium)))
	}

	opts := driver.SessionOptions{
		Headless: m.cfg.GetBool(config.KeyHeadless, true),
	}

	page, err := m.drv.NewSession(kind, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to launch %s session for worker %q: %w", kind, workerID, err)
	}

	sess := &Session{
		WorkerID:  workerID,
		Page:      page,
		Kind:      kind,
		CreatedAt: time.Now(),
	}

	m.mu.Lock()
	// Re-check under lock: a concurrent Create for the same worker may have
	// won the race while the browser was launching.
	if _, exists := m.sessions[workerID]; exists {
		m.mu.Unlock()
		if closeErr := page.Close(); closeErr != nil {
			m.log.Warnf("failed to release duplicate session for worker %q: %v", workerID, closeErr)
		}
		return nil, &SessionAlreadyActiveError{WorkerID: workerID}
	}
	m.sessions[workerID] = sess
	m.mu.Unlock()

	metrics.SessionsTotal.WithLabelValues("created").Inc()
	m.log.Infof("session created for worker %q (browser: %s)", workerID, kind)
	return sess, nil
}

// Get returns the worker's active session, or *NoActiveSessionError if the
// worker has none.
func (m *Manager) Get(workerID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, exists := m.sessions[workerID]
	if !exists {
		return nil, &NoActiveSessionError{WorkerID: workerID}
	}
	return sess, nil
}

// IsActive reports whether the worker currently owns a session. Never fails.
func (m *Manager) IsActive(workerID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, exists := m.sessions[workerID]
	return exists
}

// Close releases the worker's session. Release errors are logged and
// swallowed; the worker slot is always cleared so a failed release cannot
// leak the slot. Closing a worker with no session is a no-op.
func (m *Manager) Close(workerID string) {
	m.mu.Lock()
	sess, exists := m.sessions[workerID]
	// Clear the slot up front: even a panicking release must not leave the
	// worker blocked from creating a fresh session.
	delete(m.sessions, workerID)
	m.mu.Unlock()

	if !exists {
		m.log.Warnf("no session to close for worker %q", workerID)
		return
	}

	if err := sess.Page.Close(); err != nil {
		m.log.Errorf("error releasing session for worker %q: %v", workerID, err)
	} else {
		m.log.Infof("session closed for worker %q", workerID)
	}
	metrics.SessionsTotal.WithLabelValues("closed").Inc()
}

// Recreate closes the worker's session (if any) and creates a fresh one of
// the same kind, or the configured default when the worker had none.
func (m *Manager) Recreate(workerID string) (*Session, error) {
	var kind driver.BrowserKind

	m.mu.Lock()
	if sess, exists := m.sessions[workerID]; exists {
		kind = sess.Kind
	}
	m.mu.Unlock()

	m.Close(workerID)
	return m.Create(workerID, kind)
}

// CloseAll releases every active session. Intended for run teardown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	workers := make([]string, 0, len(m.sessions))
	for workerID := range m.sessions {
		workers = append(workers, workerID)
	}
	m.mu.Unlock()

	for _, workerID := range workers {
		m.Close(workerID)
	}
}

// ActiveCount returns the number of workers with an active session.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Describe returns a diagnostic line for the worker's session state.
func (m *Manager) Describe(workerID string) string {
	m.mu.Lock()
	sess, exists := m.sessions[workerID]
	m.mu.Unlock()

	if !exists {
		return fmt.Sprintf("worker %q: no active session", workerID)
	}

	url, err := sess.Page.URL()
	if err != nil {
		return fmt.Sprintf("worker %q: browser %s, session may be invalid", workerID, sess.Kind)
	}
	return fmt.Sprintf("worker %q: browser %s, url %s, created %s",
		workerID, sess.Kind, url, sess.CreatedAt.Format(time.RFC3339))
}

// IsSessionLive probes whether the worker's session can still serve
// requests. Returns false for missing sessions and for sessions whose
// browser no longer responds.
func (m *Manager) IsSessionLive(workerID string) bool {
	sess, err := m.Get(workerID)
	if err != nil {
		return false
	}
	if _, err := sess.Page.URL(); err != nil {
		m.log.Warnf("session for worker %q appears inactive: %v", workerID, err)
		return false
	}
	return true
}
