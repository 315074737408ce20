// Package matcher resolves free text against the FAQ knowledge base without
// any network access.
package matcher

import (
	"errors"
	"fmt"
	"strings"

	"faq-assistant/internal/knowledge"
)

type Pass string

const (
	PassContainment Pass = "containment"
	PassKeyword     Pass = "keyword"
)

// Match is a successful local resolution.
type Match struct {
	Question string
	Answer   string
	Pass     Pass
	Trigger  string
}

// candidate is one FAQ entry with its question pre-lowered.
type candidate struct {
	lowered  string
	question string
	answer   string
}

// rule is a keyword rule with its target answer already resolved.
type rule struct {
	trigger  string
	question string
	answer   string
}

// Matcher holds a snapshot of the knowledge base taken at construction, so
// Match neither copies nor lowercases the catalog per call.
type Matcher struct {
	entries []candidate
	rules   []rule
}

func New(base *knowledge.Base) (*Matcher, error) {
	if base == nil || base.Store == nil || base.Keywords == nil {
		return nil, errors.New("matcher: knowledge base must not be nil")
	}

	m := &Matcher{}
	for _, e := range base.Store.Entries() {
		m.entries = append(m.entries, candidate{
			lowered:  strings.ToLower(e.Question),
			question: e.Question,
			answer:   e.Answer,
		})
	}
	for _, r := range base.Keywords.Rules() {
		answer, ok := base.Store.Lookup(r.TargetQuestion)
		if !ok {
			return nil, fmt.Errorf("matcher: keyword %q targets unknown question %q", r.Trigger, r.TargetQuestion)
		}
		m.rules = append(m.rules, rule{trigger: r.Trigger, question: r.TargetQuestion, answer: answer})
	}
	return m, nil
}

// Match runs the containment pass and then the keyword pass; the first hit in
// table order wins. Both passes compare lowercased text only.
func (m *Matcher) Match(input string) (Match, bool) {
	text := strings.ToLower(input)
	if text == "" {
		return Match{}, false
	}

	for _, e := range m.entries {
		if strings.Contains(text, e.lowered) {
			return Match{Question: e.question, Answer: e.answer, Pass: PassContainment}, true
		}
	}

	for _, r := range m.rules {
		if strings.Contains(text, r.trigger) {
			return Match{Question: r.question, Answer: r.answer, Pass: PassKeyword, Trigger: r.trigger}, true
		}
	}
	return Match{}, false
}
