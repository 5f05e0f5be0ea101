package retry

import (
	"fmt"
	"sync"

	"github.com/gobwas/glob"
)

// Registry maps test keys to declared retry policies. Patterns are glob
// expressions over the test key ("CheckoutTest.*", "*.testFlaky*");
// registration order decides between overlapping patterns, first match
// wins. Resolution is deterministic for a fixed registration sequence.
type Registry struct {
	mu      sync.RWMutex
	entries []registration
}

type registration struct {
	pattern string
	matcher glob.Glob
	policy  Policy
}

// NewRegistry creates an empty policy registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register attaches a policy to every test key matching pattern. Separators
// are not special: "LoginTest.*" matches "LoginTest.testValidLogin".
func (r *Registry) Register(pattern string, p Policy) error {
	matcher, err := glob.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid retry policy pattern %q: %w", pattern, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, registration{
		pattern: pattern,
		matcher: matcher,
		policy:  p.normalized(),
	})
	return nil
}

// MustRegister is Register for statically known patterns; it panics on a
// bad pattern.
func (r *Registry) MustRegister(pattern string, p Policy) {
	if err := r.Register(pattern, p); err != nil {
		panic(err)
	}
}

// Resolve returns the first registered policy whose pattern matches the
// test key.
func (r *Registry) Resolve(testKey string) (Policy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, entry := range r.entries {
		if entry.matcher.Match(testKey) {
			return entry.policy, true
		}
	}
	return Policy{}, false
}

// Patterns returns the registered patterns in registration order.
func (r *Registry) Patterns() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.entries))
	for i, entry := range r.entries {
		out[i] = entry.pattern
	}
	return out
}
