package chat

import (
	"encoding/json"
	"regexp"
	"strings"
)

// actionPattern matches a single-level brace span carrying the "action"
// key. Nested objects inside a candidate are deliberately unsupported: the
// model is told to emit flat action blocks, and a permissive scan keeps
// trailing prose from breaking extraction.
var actionPattern = regexp.MustCompile(`\{[^{}]*"action"[^{}]*\}`)

// Parse extracts an action from raw model text. The last candidate span
// wins; every candidate span is stripped from the returned display text.
// Malformed JSON fails open: the original text comes back untouched with a
// nil action, degrading the turn to plain chat.
func Parse(raw string) (string, *Action) {
	matches := actionPattern.FindAllString(raw, -1)
	if len(matches) == 0 {
		return raw, nil
	}

	var act Action
	if err := json.Unmarshal([]byte(matches[len(matches)-1]), &act); err != nil {
		return raw, nil
	}
	act.applyDefaults()

	display := strings.TrimSpace(actionPattern.ReplaceAllString(raw, ""))
	if display == "" {
		// Never hand the user an empty bubble.
		display = raw
	}
	return display, &act
}
