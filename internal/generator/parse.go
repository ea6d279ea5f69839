package generator

import (
	"regexp"
	"strings"
)

var numberedItem = regexp.MustCompile(`^\s*\**(\d+)[.)]\**\s*(.*\S)\s*$`)

// parseNumberedList extracts the items of a numbered list from model
// output. Lines that don't start a new item are treated as continuations
// of the previous one; surrounding whitespace and markdown bold markers
// are stripped. Returns nil if no items are found.
func parseNumberedList(raw string) []string {
	var items []string
	current := -1

	for _, line := range strings.Split(raw, "\n") {
		if m := numberedItem.FindStringSubmatch(line); m != nil {
			items = append(items, cleanItem(m[2]))
			current = len(items) - 1
			continue
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			current = -1
			continue
		}
		if current >= 0 {
			items[current] += " " + cleanItem(trimmed)
		}
	}

	// Drop items that ended up empty after cleaning.
	out := items[:0]
	for _, it := range items {
		if it != "" {
			out = append(out, it)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func cleanItem(s string) string {
	s = strings.Trim(s, "*")
	s = strings.TrimSpace(s)
	// Model sometimes echoes the placeholder brackets from the prompt.
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	return strings.TrimSpace(s)
}
