package guide

import (
	"fmt"

	"github.com/papercomputeco/studyguide/pkg/llm"
)

// DefaultMaxChars caps the notes embedded in the prompt.
const DefaultMaxChars = 10000

const truncatedMarker = "... [truncated]"

const systemPrompt = "You are a helpful assistant that generates structured study guides from lecture notes. Always respond with valid JSON only."

const userPromptTemplate = `You are an expert study guide generator. Convert the following lecture notes into a comprehensive study guide.

LECTURE NOTES:
%s

Generate a structured study guide with the following sections:

1. KEY CONCEPTS: List the most important concepts as bullet points (5-10 concepts)
2. EXPLANATIONS: Provide short, clear explanations for each key concept (2-3 sentences each)
3. PRACTICE QUESTIONS: Create 5-8 practice questions with concise answers (questions should test understanding of the material)
4. CHEAT SHEET: A condensed summary with the most critical information in a quick-reference format

Format your response as valid JSON with this exact structure:
{
  "keyConcepts": ["concept1", "concept2", ...],
  "explanations": {
    "concept1": "explanation text",
    "concept2": "explanation text",
    ...
  },
  "practiceQuestions": [
    {
      "question": "question text",
      "answer": "answer text"
    },
    ...
  ],
  "cheatSheet": "condensed summary text"
}`

// Truncate cuts text to maxChars runes and marks the cut.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	r := []rune(text)
	if len(r) <= maxChars {
		return text
	}
	return string(r[:maxChars]) + truncatedMarker
}

// Messages builds the fixed conversation for the given (already truncated) notes.
func Messages(notes string) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: fmt.Sprintf(userPromptTemplate, notes)},
	}
}
