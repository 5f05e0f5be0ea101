package retry

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// AttemptRecord is one entry in a test's retry ledger. Append-only; never
// mutated after insertion.
type AttemptRecord struct {
	AttemptNumber  int
	RetryPerformed bool
	Reason         string
	Timestamp      time.Time
}

// history is the per-test ledger. Guarded by its own mutex so appends for
// different tests never contend.
type history struct {
	mu       sync.Mutex
	attempts []AttemptRecord
	retries  int
}

func (h *history) record(performed bool, reason string) AttemptRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	rec := AttemptRecord{
		AttemptNumber:  len(h.attempts) + 1,
		RetryPerformed: performed,
		Reason:         reason,
		Timestamp:      time.Now(),
	}
	h.attempts = append(h.attempts, rec)
	if performed {
		h.retries++
	}
	return rec
}

// Stats summarizes the store across all tracked tests.
type Stats struct {
	TrackedTests  int
	TotalAttempts int
	TotalRetries  int
}

// Store is the shared attempt ledger, keyed by test key. All methods are
// safe for concurrent use by parallel workers; increments never lose
// updates. State lives only for the life of the process.
type Store struct {
	mu        sync.Mutex
	histories map[string]*history
}

// NewStore creates an empty retry history store.
func NewStore() *Store {
	return &Store{histories: make(map[string]*history)}
}

func (s *Store) get(testKey string) (*history, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.histories[testKey]
	return h, ok
}

func (s *Store) getOrCreate(testKey string) *history {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.histories[testKey]
	if !ok {
		h = &history{}
		s.histories[testKey] = h
	}
	return h
}

// Record appends an attempt for the test and returns the stored record.
func (s *Store) Record(testKey string, performed bool, reason string) AttemptRecord {
	return s.getOrCreate(testKey).record(performed, reason)
}

// RetriesPerformed returns how many retry-performed attempts the test has
// accumulated. Zero for unknown tests.
func (s *Store) RetriesPerformed(testKey string) int {
	h, ok := s.get(testKey)
	if !ok {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.retries
}

// TotalAttempts returns how many attempts (retried or not) were recorded
// for the test.
func (s *Store) TotalAttempts(testKey string) int {
	h, ok := s.get(testKey)
	if !ok {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.attempts)
}

// Attempts returns a copy of the test's ledger in insertion order.
func (s *Store) Attempts(testKey string) []AttemptRecord {
	h, ok := s.get(testKey)
	if !ok {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]AttemptRecord, len(h.attempts))
	copy(out, h.attempts)
	return out
}

// LastAttempt returns the most recent attempt for the test.
func (s *Store) LastAttempt(testKey string) (AttemptRecord, bool) {
	h, ok := s.get(testKey)
	if !ok {
		return AttemptRecord{}, false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.attempts) == 0 {
		return AttemptRecord{}, false
	}
	return h.attempts[len(h.attempts)-1], true
}

// Keys returns the tracked test keys, sorted for stable reporting.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.histories))
	for key := range s.histories {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// Summary returns a one-line report of the test's retry history.
func (s *Store) Summary(testKey string) string {
	h, ok := s.get(testKey)
	if !ok {
		return fmt.Sprintf("%s: no attempts recorded", testKey)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return fmt.Sprintf("%s: %d attempt(s), %d retried", testKey, len(h.attempts), h.retries)
}

// Stats aggregates counts across every tracked test.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{TrackedTests: len(s.histories)}
	for _, h := range s.histories {
		h.mu.Lock()
		stats.TotalAttempts += len(h.attempts)
		stats.TotalRetries += h.retries
		h.mu.Unlock()
	}
	return stats
}

// Clear drops all history. Intended for test cleanup; production runs keep
// the ledger for the whole process.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.histories = make(map[string]*history)
}
