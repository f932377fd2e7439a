// Package session tracks signed-in users. Each session carries the
// authenticated identity and notifies subscribers when it changes or ends.
package session

import (
	"sync"
	"time"
)

// State is a snapshot of a session.
type State struct {
	TokenID   string
	UserID    int64
	Username  string
	Role      string
	ExpiresAt time.Time
	LastSeen  time.Time
	Ended     bool
}

// Session is the auth state of one signed-in client.
type Session struct {
	mu     sync.Mutex
	state  State
	subs   map[int]chan State
	nextID int
	done   chan struct{}
}

// New starts a session in state st.
func New(st State) *Session {
	st.Ended = false
	return &Session{
		state: st,
		subs:  map[int]chan State{},
		done:  make(chan struct{}),
	}
}

// Current returns the latest state.
func (s *Session) Current() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Update changes the state and notifies subscribers. Updates to an ended
// session are ignored.
func (s *Session) Update(fn func(*State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Ended {
		return
	}
	fn(&s.state)
	s.state.Ended = false
	s.publish()
}

// End marks the session as ended, delivers the final state and closes all
// subscriptions. Calling End more than once is a no-op.
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Ended {
		return
	}
	s.state.Ended = true
	s.publish()
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
	close(s.done)
}

// Done is closed when the session ends.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Subscribe returns a channel of state changes, starting with the current
// state. A slow subscriber only sees the latest state. The channel is
// closed when the session ends or cancel is called.
func (s *Session) Subscribe() (<-chan State, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan State, 1)
	ch <- s.state
	if s.state.Ended {
		close(ch)
		return ch, func() {}
	}

	id := s.nextID
	s.nextID++
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if ch, ok := s.subs[id]; ok {
				close(ch)
				delete(s.subs, id)
			}
		})
	}
	return ch, cancel
}

// publish must be called with s.mu held.
func (s *Session) publish() {
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s.state
	}
}
