package config

import (
	"strconv"
	"sync"
	"time"
)

// Provider supplies typed configuration values with caller-provided defaults.
// Every component in the execution core receives a Provider through its
// constructor; there is no global accessor.
type Provider interface {
	// GetString returns the value for key, or def if the key is absent.
	GetString(key string, def string) string

	// GetInt returns the value for key as an int, or def if the key is
	// absent or not parseable as an integer.
	GetInt(key string, def int) int

	// GetBool returns the value for key as a bool, or def if the key is
	// absent or not parseable as a boolean.
	GetBool(key string, def bool) bool

	// GetDuration returns the value for key interpreted as milliseconds,
	// or def if the key is absent or not parseable.
	GetDuration(key string, def time.Duration) time.Duration
}

// Well-known configuration keys used by the execution core.
const (
	KeyExplicitWaitTimeout = "wait.explicit.timeout.ms"
	KeyPollInterval        = "wait.poll.interval.ms"
	KeyRetryMaxAttempts    = "retry.max.attempts"
	KeyRetryDelay          = "retry.delay.ms"
	KeyRetryDefaultVerdict = "retry.default.verdict"
	KeyRetryMaxDelay       = "retry.max.delay.ms"
	KeyActionStabilize     = "action.stabilize.delay.ms"
	KeyBrowserKind         = "browser.kind"
	KeyHeadless            = "browser.headless"
	KeyEvidenceDir         = "evidence.dir"
)

// Static is an in-memory Provider backed by a string map. Values are stored
// as strings and converted on read, mirroring a flat properties file.
type Static struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewStatic creates a Static provider seeded with the given values.
// A nil map yields a provider that always returns defaults.
func NewStatic(values map[string]string) *Static {
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return &Static{values: copied}
}

// Set stores or replaces a value.
func (s *Static) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

func (s *Static) lookup(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// GetString returns the value for key, or def if absent.
func (s *Static) GetString(key string, def string) string {
	if v, ok := s.lookup(key); ok {
		return v
	}
	return def
}

// GetInt returns the value for key as an int, or def on absence or parse failure.
func (s *Static) GetInt(key string, def int) int {
	v, ok := s.lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// GetBool returns the value for key as a bool, or def on absence or parse failure.
func (s *Static) GetBool(key string, def bool) bool {
	v, ok := s.lookup(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// GetDuration returns the value for key interpreted as milliseconds.
func (s *Static) GetDuration(key string, def time.Duration) time.Duration {
	v, ok := s.lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return time.Duration(n) * time.Millisecond
}
