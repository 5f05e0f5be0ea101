// Package classify maps failure causes to a fixed set of categories and
// pairs each category with a recovery suggestion. Classification is
// deterministic, idempotent, and never fails: anything unrecognized
// degrades to Unknown.
package classify

import (
	"errors"
	"strings"
	"sync"

	"github.com/entrhq/selfheal/pkg/driver"
	"github.com/entrhq/selfheal/pkg/logging"
	"github.com/entrhq/selfheal/pkg/metrics"
	"github.com/entrhq/selfheal/pkg/wait"
)

// Message keyword lists, scanned in this order after type matching. The
// first matching keyword wins, so list order is load-bearing.
var (
	networkKeywords     = []string{"connection", "network", "timeout", "unreachable", "socket"}
	assertionKeywords   = []string{"assertion", "assert", "expected"}
	configKeywords      = []string{"configuration", "property", "file not found", "invalid"}
	dataKeywords        = []string{"data", "csv", "json", "excel"}
	applicationKeywords = []string{"server error", "500", "404", "application"}
)

// Classifier classifies failure causes and tracks per-category frequency.
type Classifier struct {
	log logging.Sink

	mu     sync.Mutex
	counts map[Category]int
}

// NewClassifier creates a classifier. log may be nil.
func NewClassifier(log logging.Sink) *Classifier {
	if log == nil {
		log = logging.Nop{}
	}
	return &Classifier{
		log:    log,
		counts: make(map[Category]int),
	}
}

// Classify maps cause to a category. Typed matches take precedence over
// message keywords; an unmatched cause is Unknown. Calling Classify twice
// on the same cause always yields the same category.
func (c *Classifier) Classify(cause error) Category {
	category := categorize(cause)
	c.recordOccurrence(category)
	return category
}

// categorize holds the pure mapping so Classify stays idempotent no matter
// what bookkeeping happens around it. A cause whose Error or Is/As methods
// blow up degrades to Unknown instead of taking down the failure path that
// asked for the classification.
func categorize(cause error) (category Category) {
	defer func() {
		if recover() != nil {
			category = Unknown
		}
	}()

	if cause == nil {
		return Unknown
	}

	// Typed matches first: these come from the automation layer and are
	// authoritative regardless of message wording.
	switch {
	case driver.IsNotFound(cause):
		return ElementNotFound
	case driver.IsStale(cause):
		return StaleElement
	case driver.IsTimeout(cause):
		return Timeout
	}
	var waitTimeout *wait.TimeoutError
	if errors.As(cause, &waitTimeout) {
		return Timeout
	}
	var driverErr *driver.Error
	if errors.As(cause, &driverErr) || errors.Is(cause, driver.ErrSessionClosed) {
		return DriverError
	}

	// Fall back to message keywords in fixed priority order.
	message := strings.ToLower(cause.Error())
	for _, group := range []struct {
		keywords []string
		category Category
	}{
		{networkKeywords, Network},
		{assertionKeywords, Assertion},
		{configKeywords, Config},
		{dataKeywords, Data},
		{applicationKeywords, Application},
	} {
		for _, keyword := range group.keywords {
			if strings.Contains(message, keyword) {
				return group.category
			}
		}
	}

	return Unknown
}

// recordOccurrence updates frequency counters and warns when a category is
// recurring. Observability only: the retry verdict never reads these.
func (c *Classifier) recordOccurrence(category Category) {
	metrics.ClassificationsTotal.WithLabelValues(category.String()).Inc()

	c.mu.Lock()
	c.counts[category]++
	count := c.counts[category]
	c.mu.Unlock()

	if count > 1 && count%5 == 0 {
		c.log.Warnf("failure category %q has occurred %d times", category, count)
	}
}

// Counts returns a copy of the per-category occurrence counts.
func (c *Classifier) Counts() map[Category]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[Category]int, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

// Clear resets occurrence counts. Useful for test cleanup.
func (c *Classifier) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts = make(map[Category]int)
}
