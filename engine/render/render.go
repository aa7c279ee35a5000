// Package render materializes response templates against a state view.
package render

import (
	"strings"

	"github.com/nathoo/dialoguecore/engine/state"
)

// Keys returns the placeholder keys a template references, in first-seen
// order. The graph folds these into each node's dependency set so cache
// fingerprints cover everything that can change the rendered text.
func Keys(template string) []string {
	var keys []string
	seen := map[string]bool{}

	rest := template
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			return keys
		}
		close := strings.IndexByte(rest[open:], '}')
		if close < 0 {
			return keys
		}
		close += open

		key := rest[open+1 : close]
		if key == "" || strings.ContainsAny(key, " \t\n{") {
			rest = rest[open+1:]
			continue
		}
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
		rest = rest[close+1:]
	}
}

// Render replaces {key} placeholders in a template with fact values from
// the snapshot. Absent facts render as an empty string — a missing fact is
// an authoring situation, not a rendering failure. Braces with no closing
// match, or enclosing whitespace, pass through literally.
func Render(template string, snap state.Snapshot) string {
	if !strings.Contains(template, "{") {
		return template
	}

	var b strings.Builder
	b.Grow(len(template))

	rest := template
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			return b.String()
		}
		close := strings.IndexByte(rest[open:], '}')
		if close < 0 {
			b.WriteString(rest)
			return b.String()
		}
		close += open

		key := rest[open+1 : close]
		if key == "" || strings.ContainsAny(key, " \t\n{") {
			// Not a placeholder; emit up to and including the brace and rescan.
			b.WriteString(rest[:open+1])
			rest = rest[open+1:]
			continue
		}

		b.WriteString(rest[:open])
		if v := snap.Get(key); !v.IsAbsent() {
			b.WriteString(v.String())
		}
		rest = rest[close+1:]
	}
}
