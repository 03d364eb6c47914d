// Package llmjson recovers structured data from free-text model output.
//
// Generation services are asked for strict JSON but routinely return it
// wrapped in markdown code fences, prefixed with commentary, or truncated.
// Decode never panics and never propagates a parse error past its caller:
// the pipeline substitutes typed placeholders on failure instead.
package llmjson

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Decode extracts the first JSON object from response and unmarshals it
// into T. It tries, in order: the whole response, the response with code
// fences stripped, and the widest first-'{' / last-'}' substring.
func Decode[T any](response string) (T, error) {
	var out T
	raw, err := Extract(response)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return out, fmt.Errorf("unmarshal extracted JSON: %w", err)
	}
	return out, nil
}

// Extract returns the JSON object portion of an LLM response as a string.
func Extract(response string) (string, error) {
	candidate := stripCodeFences(response)

	if json.Valid([]byte(candidate)) {
		return candidate, nil
	}

	start := strings.Index(candidate, "{")
	end := strings.LastIndex(candidate, "}")
	if start != -1 && end > start {
		inner := candidate[start : end+1]
		if json.Valid([]byte(inner)) {
			return inner, nil
		}
	}

	preview := response
	if len(preview) > 100 {
		preview = preview[:100] + "..."
	}
	return "", fmt.Errorf("no JSON object in response: %q", preview)
}

// stripCodeFences removes a surrounding ```json ... ``` or ``` ... ```
// block, the most common wrapper models add despite instructions.
func stripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)

	if strings.HasPrefix(trimmed, "```json") {
		trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, "```json"))
	} else if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
	}
	if strings.HasSuffix(trimmed, "```") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, "```"))
	}
	return trimmed
}
