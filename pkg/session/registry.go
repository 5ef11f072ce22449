package session

import "sync"

// Registry owns the set of live sessions keyed by call identifier. It is the
// only holder of Session references across calls; both the ingest path and
// the flush scheduler go through it.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// GetOrCreate returns the session for a call, creating it on first reference.
func (r *Registry) GetOrCreate(callID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[callID]
	if !ok {
		sess = New()
		r.sessions[callID] = sess
	}
	return sess
}

// Remove deletes the session and all its buffered and transcribed state.
// No-op when the call is unknown. A flush already in flight for the removed
// session finishes against the orphaned object and is discarded with it.
func (r *Registry) Remove(callID string) {
	r.mu.Lock()
	delete(r.sessions, callID)
	r.mu.Unlock()
}

// Snapshot returns a copy of the current call → session mapping for the
// flush scheduler to walk without holding the registry lock.
func (r *Registry) Snapshot() map[string]*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]*Session, len(r.sessions))
	for id, sess := range r.sessions {
		out[id] = sess
	}
	return out
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
