package session

import "fmt"

// SessionAlreadyActiveError is returned by Create when the worker already
// owns an active session. Sessions are never silently replaced.
type SessionAlreadyActiveError struct {
	WorkerID string
}

func (e *SessionAlreadyActiveError) Error() string {
	return fmt.Sprintf("session already active for worker %q", e.WorkerID)
}

// NoActiveSessionError is returned by Get when the worker has no active
// session. This is a programmer error: the session must be created before
// use and cannot be read after close.
type NoActiveSessionError struct {
	WorkerID string
}

func (e *NoActiveSessionError) Error() string {
	return fmt.Sprintf("no active session for worker %q", e.WorkerID)
}
