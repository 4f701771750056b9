package score

import "strings"

// normalize lowercases and trims s for keyword comparison.
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Haystack builds the lowercase text searched by the keyword rules:
// the description followed by the space-joined amenities.
func Haystack(description string, amenities []string) string {
	return strings.ToLower(description + " " + strings.Join(amenities, " "))
}

// containsAny reports whether text contains at least one of the needles.
// text and needles are expected to be lowercase already.
func containsAny(text string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}

// overlaps reports whether a equals, contains, or is contained in b.
func overlaps(a, b string) bool {
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}

func clamp(v, lo, hi int) int {
	return min(hi, max(lo, v))
}
