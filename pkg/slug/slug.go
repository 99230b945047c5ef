// Package slug derives community ids from community names. The derivation is
// deterministic so the same name always yields the same id; uniqueness is
// enforced by the community store, not here.
package slug

import "strings"

// Make lowercases name and collapses every run of non-alphanumeric characters
// into a single dash. Leading and trailing dashes are trimmed.
func Make(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
		default:
			dash = true
		}
	}
	return b.String()
}
