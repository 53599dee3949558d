// Package content extracts a plain-text payload from stored step templates.
package content

import (
	"encoding/json"
	"strings"
)

// Untitled is used whenever a template yields no usable text.
const Untitled = "Untitled"

// nameFields are checked in order on object templates.
var nameFields = []string{"name", "title", "fileName"}

// Normalize turns a stored template into document content. Templates may be
// free text or JSON written by different producers; malformed input never
// fails, it degrades to the raw text.
func Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)

	var parsed any
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		return orUntitled(trimmed)
	}

	switch value := parsed.(type) {
	case string:
		return orUntitled(strings.TrimSpace(value))
	case map[string]any:
		for _, field := range nameFields {
			if name, ok := value[field].(string); ok && strings.TrimSpace(name) != "" {
				return name
			}
		}
	case nil:
		return Untitled
	}

	encoded, err := json.Marshal(parsed)
	if err != nil {
		return orUntitled(trimmed)
	}

	return string(encoded)
}

func orUntitled(s string) string {
	if s == "" {
		return Untitled
	}

	return s
}
