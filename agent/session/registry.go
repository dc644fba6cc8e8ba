package session

import "sync"

// Registry maps user identity to an isolated session. Sessions are created on
// first use and live until reset or process exit; there is no expiry.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Resolve returns the user's session, creating it when absent.
func (r *Registry) Resolve(userID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[userID]; ok {
		return s
	}
	s := New(userID)
	r.sessions[userID] = s
	return s
}

// Reset replaces the user's session with a fresh one and returns it,
// discarding history and auth state.
func (r *Registry) Reset(userID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := New(userID)
	r.sessions[userID] = s
	return s
}

// Len reports how many sessions exist.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
