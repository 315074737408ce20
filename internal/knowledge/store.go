package knowledge

import (
	"errors"
	"fmt"
	"strings"

	"faq-assistant/internal/domain"
)

// Store is the ordered, immutable set of FAQ entries.
type Store struct {
	entries []domain.FAQEntry
	byKey   map[string]int
}

func NewStore(entries []domain.FAQEntry) (*Store, error) {
	if len(entries) == 0 {
		return nil, errors.New("knowledge: catalog has no entries")
	}
	s := &Store{
		entries: make([]domain.FAQEntry, 0, len(entries)),
		byKey:   make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		q := strings.TrimSpace(e.Question)
		a := strings.TrimSpace(e.Answer)
		if q == "" {
			return nil, fmt.Errorf("knowledge: entry %d has an empty question", i)
		}
		if a == "" {
			return nil, fmt.Errorf("knowledge: entry %q has an empty answer", q)
		}
		key := normalize(q)
		if _, dup := s.byKey[key]; dup {
			return nil, fmt.Errorf("knowledge: duplicate question %q", q)
		}
		s.byKey[key] = len(s.entries)
		s.entries = append(s.entries, domain.FAQEntry{Question: q, Answer: a})
	}
	return s, nil
}

// Lookup returns the answer whose question equals q, ignoring case and
// surrounding whitespace.
func (s *Store) Lookup(q string) (string, bool) {
	i, ok := s.byKey[normalize(q)]
	if !ok {
		return "", false
	}
	return s.entries[i].Answer, true
}

// Entries returns a copy of the entries in insertion order.
func (s *Store) Entries() []domain.FAQEntry {
	out := make([]domain.FAQEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *Store) Len() int {
	return len(s.entries)
}

// Popular returns the first n questions in table order.
func (s *Store) Popular(n int) []string {
	if n <= 0 || n > len(s.entries) {
		n = len(s.entries)
	}
	out := make([]string, 0, n)
	for _, e := range s.entries[:n] {
		out = append(out, e.Question)
	}
	return out
}

// Context serializes every entry as a Q/A block for the remote prompt.
func (s *Store) Context() string {
	var b strings.Builder
	for i, e := range s.entries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("Q: ")
		b.WriteString(e.Question)
		b.WriteString("\nA: ")
		b.WriteString(e.Answer)
	}
	return b.String()
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
