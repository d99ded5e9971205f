package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// thinkTagPattern matches <think>...</think> blocks emitted by reasoning models.
var thinkTagPattern = regexp.MustCompile(`(?s)^[\s]*<think>.*?</think>[\s]*`)

// codeFencePattern matches a markdown fence opener such as ```json.
var codeFencePattern = regexp.MustCompile("```[a-zA-Z]*")

func cleanResponse(response string) string {
	cleaned := thinkTagPattern.ReplaceAllString(response, "")
	return codeFencePattern.ReplaceAllString(cleaned, "")
}

// ExtractJSON extracts the first complete JSON value from an LLM response
// that may contain <think> tags, markdown fences, or surrounding prose.
func ExtractJSON(response string) (string, error) {
	cleaned := cleanResponse(response)

	objStart := strings.IndexByte(cleaned, '{')
	arrStart := strings.IndexByte(cleaned, '[')

	if objStart >= 0 && (arrStart < 0 || objStart < arrStart) {
		if jsonStr, ok := extractBalancedJSON(cleaned, objStart, '{', '}'); ok && json.Valid([]byte(jsonStr)) {
			return jsonStr, nil
		}
	}

	if arrStart >= 0 {
		if jsonStr, ok := extractBalancedJSON(cleaned, arrStart, '[', ']'); ok && json.Valid([]byte(jsonStr)) {
			return jsonStr, nil
		}
	}

	trimmed := strings.TrimSpace(cleaned)
	if json.Valid([]byte(trimmed)) {
		return trimmed, nil
	}

	return "", fmt.Errorf("no valid JSON found in response")
}

// ExtractObjects salvages every well-formed JSON object from a response,
// including objects inside a truncated or otherwise invalid array. Objects
// nested inside a salvaged object are not returned separately.
func ExtractObjects(response string) []string {
	cleaned := cleanResponse(response)

	var objects []string
	for i := 0; i < len(cleaned); {
		start := strings.IndexByte(cleaned[i:], '{')
		if start < 0 {
			break
		}
		start += i

		if obj, ok := extractBalancedJSON(cleaned, start, '{', '}'); ok && json.Valid([]byte(obj)) {
			objects = append(objects, obj)
			i = start + len(obj)
			continue
		}
		i = start + 1
	}
	return objects
}

// extractBalancedJSON returns the bracket-balanced structure beginning at
// start, ignoring brackets inside string literals.
func extractBalancedJSON(s string, start int, openChar, closeChar byte) (string, bool) {
	if start < 0 || start >= len(s) || s[start] != openChar {
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
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch c {
		case openChar:
			depth++
		case closeChar:
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	return "", false
}

// ParseJSONResponse extracts JSON from a response and unmarshals it into the target.
func ParseJSONResponse[T any](response string) (T, error) {
	var result T

	jsonStr, err := ExtractJSON(response)
	if err != nil {
		return result, err
	}

	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return result, fmt.Errorf("unmarshal JSON: %w", err)
	}

	return result, nil
}
