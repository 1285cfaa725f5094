// Package guide turns lecture notes into a StudyGuide by prompting an LLM and
// parsing the JSON it answers with.
package guide

import (
	"encoding/json"
	"sort"
)

// StudyGuide is the structured summary returned to clients.
type StudyGuide struct {
	KeyConcepts       []string          `json:"keyConcepts"`
	Explanations      map[string]string `json:"explanations"`
	PracticeQuestions []QA              `json:"practiceQuestions"`
	CheatSheet        string            `json:"cheatSheet"`
}

// QA is a practice question and its answer.
type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Explanation is one concept/explanation pair.
type Explanation struct {
	Concept string
	Text    string
}

// normalize guarantees all four fields encode as non-null JSON.
func (g *StudyGuide) normalize() {
	if g.KeyConcepts == nil {
		g.KeyConcepts = []string{}
	}
	if g.Explanations == nil {
		g.Explanations = map[string]string{}
	}
	if g.PracticeQuestions == nil {
		g.PracticeQuestions = []QA{}
	}
}

// MarshalJSON always emits every field, even on a zero StudyGuide.
func (g StudyGuide) MarshalJSON() ([]byte, error) {
	g.normalize()
	type plain StudyGuide
	return json.Marshal(plain(g))
}

// OrderedExplanations lists explanations in key-concept order, then any
// explanation whose concept is not a key concept, sorted by name.
func (g *StudyGuide) OrderedExplanations() []Explanation {
	out := make([]Explanation, 0, len(g.Explanations))
	seen := make(map[string]bool, len(g.Explanations))
	for _, c := range g.KeyConcepts {
		text, ok := g.Explanations[c]
		if !ok || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, Explanation{Concept: c, Text: text})
	}

	var rest []string
	for c := range g.Explanations {
		if !seen[c] {
			rest = append(rest, c)
		}
	}
	sort.Strings(rest)
	for _, c := range rest {
		out = append(out, Explanation{Concept: c, Text: g.Explanations[c]})
	}
	return out
}
