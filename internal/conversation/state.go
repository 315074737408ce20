// Package conversation holds per-session turn history. Nothing here is
// persisted; history lives as long as the process does.
package conversation

import (
	"sync"

	"faq-assistant/internal/domain"
)

// State is an append-only ordered sequence of turns.
type State struct {
	mu    sync.RWMutex
	turns []domain.Turn
}

func NewState() *State {
	return &State{}
}

func (s *State) Append(t domain.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, t)
}

// Reset drops every turn at once.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = nil
}

// All returns a copy of the turns in order. The result is never nil.
func (s *State) All() []domain.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}
