// Package setops provides the slice-as-set arithmetic used by the lifecycle
// cascades. All functions preserve input order and never mutate their
// arguments; set-valued fields on documents stay duplicate-free by only ever
// going through these helpers.
package setops

import "strings"

// Dedupe removes duplicates and empty strings, trimming whitespace from each
// element. Order is preserved.
func Dedupe(values []string) []string {
	if len(values) == 0 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}
	return result
}

// DedupeLower is Dedupe with lowercasing, for case-insensitive id sets.
func DedupeLower(values []string) []string {
	lowered := make([]string, len(values))
	for i, v := range values {
		lowered[i] = strings.ToLower(v)
	}
	return Dedupe(lowered)
}

// Contains reports set membership.
func Contains(set []string, value string) bool {
	for _, v := range set {
		if v == value {
			return true
		}
	}
	return false
}

// AddToSet returns set with each value appended unless already present.
func AddToSet(set []string, values ...string) []string {
	result := make([]string, len(set), len(set)+len(values))
	copy(result, set)
	for _, v := range values {
		if !Contains(result, v) {
			result = append(result, v)
		}
	}
	return result
}

// Pull returns set with every occurrence of value removed. Pulling an absent
// member is a no-op, which keeps cascade steps safe to re-issue.
func Pull(set []string, value string) []string {
	result := make([]string, 0, len(set))
	for _, v := range set {
		if v != value {
			result = append(result, v)
		}
	}
	return result
}
