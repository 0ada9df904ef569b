// Package slug normalizes human text into filesystem-safe tokens used for
// every directory and file name the pipeline writes.
package slug

import "strings"

// Fallback is the token substituted when input normalizes to nothing.
const Fallback = "misc"

// Make lower-cases s, trims surrounding whitespace, turns spaces into
// hyphens and drops every character outside [a-z0-9_-]. Empty input, or
// input that normalizes to the empty string, yields Fallback. The result
// is a fixed point: Make(Make(s)) == Make(s).
func Make(s string) string {
	if out := Normalize(s); out != "" {
		return out
	}
	return Fallback
}

// Normalize applies the slug transform without the Fallback substitution.
// Figure labels use it directly: an empty result means "no label", not
// Fallback.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "-")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '_' || r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Truncate caps s at max runes, trimming any hyphens the cut left dangling.
// Strings within the cap pass through untouched. Non-positive max disables
// the cap.
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimRight(string(runes[:max]), "-")
}
