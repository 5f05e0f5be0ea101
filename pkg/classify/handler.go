package classify

import (
	"fmt"
	"sync"
	"time"

	"github.com/entrhq/selfheal/pkg/evidence"
	"github.com/entrhq/selfheal/pkg/logging"
)

// ExceptionInfo is the immutable record created once per handled failure.
// The original cause is carried as-is; category, suggestion, and evidence
// path only augment it.
type ExceptionInfo struct {
	Cause              error
	Context            string
	TestKey            string
	Category           Category
	EvidencePath       string
	RecoverySuggestion string
	Timestamp          time.Time
}

func (e *ExceptionInfo) String() string {
	return fmt.Sprintf("ExceptionInfo[test=%s, category=%s, cause=%v, time=%s]",
		e.TestKey, e.Category, e.Cause, e.Timestamp.Format("2006-01-02 15:04:05"))
}

// Handler turns raw failures into ExceptionInfo records: classify, attach
// a suggestion, capture evidence, and remember the last failure per test
// for external reporting.
type Handler struct {
	classifier *Classifier
	sink       evidence.Sink
	log        logging.Sink

	mu   sync.Mutex
	last map[string]*ExceptionInfo
}

// NewHandler creates a failure handler. sink and log may be nil.
func NewHandler(classifier *Classifier, sink evidence.Sink, log logging.Sink) *Handler {
	if sink == nil {
		sink = evidence.Nop{}
	}
	if log == nil {
		log = logging.Nop{}
	}
	return &Handler{
		classifier: classifier,
		sink:       sink,
		log:        log,
		last:       make(map[string]*ExceptionInfo),
	}
}

// Handle processes a failure and returns its record. It never fails:
// evidence capture problems are logged and leave the path empty.
func (h *Handler) Handle(cause error, context, testKey string) *ExceptionInfo {
	category := h.classifier.Classify(cause)

	evidencePath, err := h.sink.Capture(fmt.Sprintf("failure_%s_%s", testKey, category))
	if err != nil {
		h.log.Warnf("failed to capture failure evidence for %s: %v", testKey, err)
		evidencePath = ""
	}

	info := &ExceptionInfo{
		Cause:              cause,
		Context:            context,
		TestKey:            testKey,
		Category:           category,
		EvidencePath:       evidencePath,
		RecoverySuggestion: Suggestion(category),
		Timestamp:          time.Now(),
	}

	h.log.Errorf("test %s failed in %s: category=%s cause=%v suggestion=%s evidence=%s",
		testKey, context, category, cause, info.RecoverySuggestion, evidencePath)

	h.mu.Lock()
	h.last[testKey] = info
	h.mu.Unlock()

	return info
}

// LastException returns the most recent failure record for a test, or nil.
func (h *Handler) LastException(testKey string) *ExceptionInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last[testKey]
}

// Clear drops all remembered failures and resets frequency counters.
func (h *Handler) Clear() {
	h.mu.Lock()
	h.last = make(map[string]*ExceptionInfo)
	h.mu.Unlock()
	h.classifier.Clear()
}
