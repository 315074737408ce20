package knowledge

import (
	"fmt"
	"strings"

	"faq-assistant/internal/domain"
)

// KeywordIndex is the ordered list of trigger substrings. Triggers are stored
// lowercased but otherwise verbatim, so padding such as " age " is kept.
// Order encodes priority.
type KeywordIndex struct {
	rules []domain.KeywordRule
}

func NewKeywordIndex(rules []domain.KeywordRule, store *Store) (*KeywordIndex, error) {
	if store == nil {
		return nil, fmt.Errorf("knowledge: store must not be nil")
	}
	out := make([]domain.KeywordRule, 0, len(rules))
	for i, r := range rules {
		trigger := strings.ToLower(r.Trigger)
		if strings.TrimSpace(trigger) == "" {
			return nil, fmt.Errorf("knowledge: keyword rule %d has an empty trigger", i)
		}
		if _, ok := store.Lookup(r.TargetQuestion); !ok {
			return nil, fmt.Errorf("knowledge: keyword %q targets unknown question %q", trigger, r.TargetQuestion)
		}
		out = append(out, domain.KeywordRule{Trigger: trigger, TargetQuestion: strings.TrimSpace(r.TargetQuestion)})
	}
	return &KeywordIndex{rules: out}, nil
}

// Rules returns a copy of the rules in priority order.
func (k *KeywordIndex) Rules() []domain.KeywordRule {
	out := make([]domain.KeywordRule, len(k.rules))
	copy(out, k.rules)
	return out
}
