package logging

import (
	"fmt"
	"sync"
)

// Entry is a single recorded log message.
type Entry struct {
	Level   string
	Message string
}

// Recorder is a Sink that keeps entries in memory. It exists for tests that
// assert on what a component logged.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// NewRecorder creates an empty in-memory sink.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) record(level, format string, v ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Level: level, Message: fmt.Sprintf(format, v...)})
}

func (r *Recorder) Debugf(format string, v ...interface{}) { r.record("DEBUG", format, v...) }
func (r *Recorder) Infof(format string, v ...interface{})  { r.record("INFO", format, v...) }
func (r *Recorder) Warnf(format string, v ...interface{})  { r.record("WARN", format, v...) }
func (r *Recorder) Errorf(format string, v ...interface{}) { r.record("ERROR", format, v...) }

// Entries returns a copy of everything recorded so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// ByLevel returns recorded entries matching the given level.
func (r *Recorder) ByLevel(level string) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Entry
	for _, e := range r.entries {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}
