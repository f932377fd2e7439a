package session

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type entry[W any] struct {
	session   *Session
	workspace W
}

// Registry holds the live sessions keyed by token ID, each with a
// per-session workspace of type W. Sessions older than the TTL or pushed
// out by newer ones are ended.
type Registry[W any] struct {
	mu           sync.Mutex
	sessions     *expirable.LRU[string, *entry[W]]
	newWorkspace func(*Session) W
}

// NewRegistry returns a registry holding at most size sessions for ttl.
// newWorkspace builds the workspace when a session opens.
func NewRegistry[W any](size int, ttl time.Duration, newWorkspace func(*Session) W) *Registry[W] {
	onEvict := func(_ string, e *entry[W]) {
		e.session.End()
	}
	return &Registry[W]{
		sessions:     expirable.NewLRU[string, *entry[W]](size, onEvict, ttl),
		newWorkspace: newWorkspace,
	}
}

// Open returns the session for st.TokenID, starting one if needed.
func (r *Registry[W]) Open(st State) (*Session, W) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.sessions.Get(st.TokenID); ok && !e.session.Current().Ended {
		return e.session, e.workspace
	}

	s := New(st)
	e := &entry[W]{session: s, workspace: r.newWorkspace(s)}
	r.sessions.Add(st.TokenID, e)
	return s, e.workspace
}

// Get returns a live session by token ID.
func (r *Registry[W]) Get(tokenID string) (*Session, W, bool) {
	e, ok := r.sessions.Get(tokenID)
	if !ok || e.session.Current().Ended {
		var zero W
		return nil, zero, false
	}
	return e.session, e.workspace, true
}

// End ends and forgets a session.
func (r *Registry[W]) End(tokenID string) {
	r.sessions.Remove(tokenID)
}

// EndUser ends every session of a user.
func (r *Registry[W]) EndUser(userID int64) int {
	n := 0
	for _, key := range r.sessions.Keys() {
		e, ok := r.sessions.Peek(key)
		if ok && e.session.Current().UserID == userID {
			r.sessions.Remove(key)
			n++
		}
	}
	return n
}

// Len returns the number of tracked sessions.
func (r *Registry[W]) Len() int {
	return r.sessions.Len()
}
