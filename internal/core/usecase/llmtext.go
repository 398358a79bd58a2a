package usecase

import (
	"encoding/json"
	"strings"
)

// stripFences removes a surrounding markdown code fence (with optional
// language tag) from model output. Structured outputs are always passed
// through here before decoding.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// decodeJSON unmarshals fenced-or-bare JSON model output into v.
func decodeJSON(raw string, v any) error {
	return json.Unmarshal([]byte(stripFences(raw)), v)
}

// parseCommaList splits model output on commas, trims entries, drops empties
// and the NONE sentinel, and truncates to max (0 means unlimited).
func parseCommaList(raw string, max int) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" || strings.EqualFold(part, "none") {
			continue
		}
		out = append(out, part)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}

// splitLines returns the non-empty trimmed lines of text.
func splitLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
