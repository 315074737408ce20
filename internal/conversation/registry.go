package conversation

import (
	"container/list"
	"sync"
)

const defaultMaxSessions = 1000

// Session is one conversation. Turn serializes turn resolution so a question
// and its answer are always appended next to each other.
type Session struct {
	ID    string
	State *State

	turnMu sync.Mutex
}

func (s *Session) Turn(fn func(st *State)) {
	s.turnMu.Lock()
	defer s.turnMu.Unlock()
	fn(s.State)
}

// Registry maps conversation IDs to sessions, evicting the least recently
// used session once max is exceeded.
type Registry struct {
	mu    sync.Mutex
	max   int
	items map[string]*list.Element
	order *list.List
}

func NewRegistry(maxSessions int) *Registry {
	if maxSessions <= 0 {
		maxSessions = defaultMaxSessions
	}
	return &Registry{
		max:   maxSessions,
		items: make(map[string]*list.Element),
		order: list.New(),
	}
}

// Get returns the session for id, creating an empty one if needed.
func (r *Registry) Get(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if el, ok := r.items[id]; ok {
		r.order.MoveToFront(el)
		return el.Value.(*Session)
	}
	s := &Session{ID: id, State: NewState()}
	r.items[id] = r.order.PushFront(s)
	for r.order.Len() > r.max {
		oldest := r.order.Back()
		r.order.Remove(oldest)
		delete(r.items, oldest.Value.(*Session).ID)
	}
	return s
}

// Lookup returns an existing session without creating one.
func (r *Registry) Lookup(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	el, ok := r.items[id]
	if !ok {
		return nil, false
	}
	r.order.MoveToFront(el)
	return el.Value.(*Session), true
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.order.Len()
}
