package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SafeJSONParse extracts and parses a JSON object from LLM output. Providers
// occasionally wrap JSON in markdown fences or surround it with prose even in
// JSON mode, so parsing proceeds in escalating steps:
//
//  1. strict parse of the whole string
//  2. strip a leading ```json / ``` fence and trailing ``` and retry
//  3. extract the first balanced {…} substring (string/escape aware) and retry
//
// The result is unmarshaled into v. Returns an error when no parseable
// object is found.
func SafeJSONParse(raw string, v any) error {
	s := strings.TrimSpace(raw)
	if s == "" {
		return fmt.Errorf("empty llm response")
	}

	// 1. Strict parse
	if err := json.Unmarshal([]byte(s), v); err == nil {
		return nil
	}

	// 2. Strip markdown fences
	if stripped, ok := stripFences(s); ok {
		if err := json.Unmarshal([]byte(stripped), v); err == nil {
			return nil
		}
		s = stripped
	}

	// 3. Balanced-object extraction
	if obj, ok := extractBalancedObject(s); ok {
		if err := json.Unmarshal([]byte(obj), v); err == nil {
			return nil
		}
	}

	return fmt.Errorf("no parseable JSON object in llm response (%d bytes)", len(raw))
}

// stripFences removes a leading ```json or ``` line and a trailing ``` line.
// Returns (content, true) when a fence was found.
func stripFences(s string) (string, bool) {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return s, false
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed), true
}

// extractBalancedObject returns the first balanced {…} substring of s,
// tracking JSON string and escape state so braces inside strings don't
// confuse the depth counter.
func extractBalancedObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}
	return "", false
}
