package api

import (
	"context"
	"sync"
)

// RunRegistry tracks in-flight generation executions by session id so the
// cancel endpoint can reach them. One session runs at most one execution at
// a time; a second request for the same session replaces the tracked cancel.
type RunRegistry struct {
	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// NewRunRegistry creates an empty registry.
func NewRunRegistry() *RunRegistry {
	return &RunRegistry{cancels: map[string]context.CancelFunc{}}
}

// Track registers the cancel function for a session's execution.
func (r *RunRegistry) Track(sessionID string, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancels[sessionID] = cancel
}

// Release removes the session's entry. Safe when already released.
func (r *RunRegistry) Release(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cancels, sessionID)
}

// Cancel fires the session's cancel function. Returns false when no
// execution is in flight for the session.
func (r *RunRegistry) Cancel(sessionID string) bool {
	r.mu.Lock()
	cancel, ok := r.cancels[sessionID]
	r.mu.Unlock()
	if !ok {
		return false
	}
	cancel()
	return true
}

// Active returns the number of tracked executions.
func (r *RunRegistry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cancels)
}
