package guide

import (
	"fmt"
	"strings"
)

// Markdown renders the guide as a Markdown document with one section per field.
func (g *StudyGuide) Markdown() string {
	var b strings.Builder
	b.WriteString("# Study Guide\n\n")

	b.WriteString("## Key Concepts\n\n")
	for _, c := range g.KeyConcepts {
		fmt.Fprintf(&b, "- %s\n", c)
	}
	b.WriteString("\n## Explanations\n\n")
	for _, e := range g.OrderedExplanations() {
		fmt.Fprintf(&b, "### %s\n\n%s\n\n", e.Concept, e.Text)
	}

	b.WriteString("## Practice Questions\n\n")
	for i, qa := range g.PracticeQuestions {
		fmt.Fprintf(&b, "**Q%d: %s**\n\n> **Answer:** %s\n\n", i+1, qa.Question, qa.Answer)
	}

	b.WriteString("## Cheat Sheet\n\n")
	b.WriteString(strings.TrimSpace(g.CheatSheet))
	b.WriteString("\n")
	return b.String()
}
