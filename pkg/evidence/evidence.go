// Package evidence captures diagnostic artifacts (screenshots) tied to
// failures and retries. Capture failures are logged and reported, never
// allowed to break the failure-handling path that requested them.
package evidence

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/entrhq/selfheal/pkg/driver"
	"github.com/entrhq/selfheal/pkg/logging"
)

// Sink captures a diagnostic artifact for the given tag and returns its
// path. An empty path with a nil error means capture was skipped.
type Sink interface {
	Capture(tag string) (string, error)
}

// PageSource resolves the page to screenshot at capture time. Resolution is
// deferred so a sink built before the session exists still works.
type PageSource func() (driver.Page, error)

// DirSink writes PNG screenshots into a directory. File names combine the
// sanitized tag, a timestamp, and a short unique suffix so concurrent
// captures never collide.
type DirSink struct {
	dir    string
	source PageSource
	log    logging.Sink
}

// NewDirSink creates a screenshot sink writing into dir. log may be nil.
func NewDirSink(dir string, source PageSource, log logging.Sink) *DirSink {
	if log == nil {
		log = logging.Nop{}
	}
	return &DirSink{dir: dir, source: source, log: log}
}

// Capture screenshots the source page into the sink's directory.
func (s *DirSink) Capture(tag string) (string, error) {
	page, err := s.source()
	if err != nil {
		return "", fmt.Errorf("no page available for evidence capture: %w", err)
	}

	data, err := page.Screenshot()
	if err != nil {
		return "", fmt.Errorf("screenshot failed: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create evidence directory: %w", err)
	}

	name := fmt.Sprintf("%s_%s_%s.png",
		sanitize(tag),
		time.Now().Format("20060102_150405"),
		uuid.New().String()[:8])
	path := filepath.Join(s.dir, name)

	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write evidence file: %w", err)
	}

	s.log.Debugf("evidence captured: %s", path)
	return path, nil
}

// SessionSource builds a PageSource from a session lookup. get is typically
// a closure over the session manager and the calling worker's id.
func SessionSource(get func() (driver.Page, error)) PageSource {
	return get
}

// Nop is a Sink that captures nothing. Useful when evidence collection is
// disabled and in tests.
type Nop struct{}

func (Nop) Capture(tag string) (string, error) {
	return "", nil
}

// sanitize makes a tag safe for use in a file name.
func sanitize(tag string) string {
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_",
		"?", "_", "\"", "_", "<", "_", ">", "_",
		"|", "_", " ", "_",
	)
	out := replacer.Replace(tag)
	if len(out) > 120 {
		out = out[:120]
	}
	return out
}
