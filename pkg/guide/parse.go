package guide

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedResponse means the model answer is not a study guide JSON object.
var ErrMalformedResponse = errors.New("model response is not a study guide")

// StripCodeFences removes a markdown code fence wrapped around the response.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	// drop the opening fence line, e.g. ```json
	if nl := strings.IndexByte(s, '\n'); nl != -1 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(strings.TrimPrefix(s, "```json"), "```")
	}

	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Parse decodes a model response into a StudyGuide.
func Parse(raw string) (*StudyGuide, error) {
	text := StripCodeFences(raw)

	g, err := decode(text)
	if err != nil {
		obj := firstJSONObject(text)
		if obj == "" {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		g, err = decode(obj)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
	}
	return g, nil
}

func decode(text string) (*StudyGuide, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return nil, err
	}

	known := 0
	for _, k := range []string{"keyConcepts", "explanations", "practiceQuestions", "cheatSheet"} {
		if v, ok := fields[k]; ok && !bytes.Equal(v, []byte("null")) {
			known++
		}
	}
	if known == 0 {
		return nil, errors.New("no study guide fields in object")
	}

	var g StudyGuide
	if err := json.Unmarshal([]byte(text), &g); err != nil {
		return nil, err
	}
	g.normalize()
	return &g, nil
}

// firstJSONObject returns the first balanced {...} in s, skipping braces
// inside JSON strings.
func firstJSONObject(s string) string {
	start := -1
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if start != -1 {
				inString = true
			}
		case '{':
			if start == -1 {
				start = i
			}
			depth++
		case '}':
			if start != -1 {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}
