package services

import (
	"encoding/json"
	"regexp"
	"strings"
)

var jsonArrayRe = regexp.MustCompile(`(?s)\[.*\]`)

// extractJSONArray pulls a JSON array out of a model completion. Models wrap
// their output in prose or code fences often enough that a direct parse is
// only the first attempt; the fallback takes the outermost bracketed
// substring. Returns nil when no candidate parses as an array.
func extractJSONArray(raw string) []json.RawMessage {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	candidates := []string{trimmed}
	if match := jsonArrayRe.FindString(trimmed); match != "" && match != trimmed {
		candidates = append(candidates, match)
	}

	for _, candidate := range candidates {
		var items []json.RawMessage
		if err := json.Unmarshal([]byte(candidate), &items); err == nil {
			return items
		}
	}
	return nil
}
