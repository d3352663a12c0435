package ai

import (
	"encoding/json"
	"strings"
)

// StripCodeFence removes a leading ```json (or bare ```) marker and a
// trailing ``` marker, returning the trimmed remainder
func StripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if rest, ok := strings.CutPrefix(s, "```"); ok {
		if len(rest) >= 4 && strings.EqualFold(rest[:4], "json") {
			rest = rest[4:]
		}
		s = rest
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ParseJSON decodes a structured response. It returns nil when the text is
// not valid JSON for T; a nil result means "generated but not interpretable",
// not a provider failure.
func ParseJSON[T any](text string) (result *T) {
	defer func() {
		if recover() != nil {
			result = nil
		}
	}()

	cleaned := StripCodeFence(text)
	if cleaned == "" || cleaned == "null" {
		return nil
	}

	var out T
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil
	}
	return &out
}
