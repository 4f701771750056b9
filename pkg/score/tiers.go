package score

// tier is one rung of an ordered first-match rule list.
type tier[T any] struct {
	name   string
	points int
	ok     func(T) bool
}

// firstTier walks tiers in order and returns the first whose predicate holds.
// The order of the slice is the precedence; it must not be re-sorted.
func firstTier[T any](tiers []tier[T], in T) (tier[T], bool) {
	for _, t := range tiers {
		if t.ok(in) {
			return t, true
		}
	}
	return tier[T]{}, false
}

// keywordRule awards points once when the haystack contains any of the words.
type keywordRule struct {
	tag    string
	points int
	any    []string
}

// applyRules sums every rule that hits and returns the matching tags.
func applyRules(text string, rules []keywordRule) (int, []string) {
	total := 0
	var tags []string
	for _, r := range rules {
		if containsAny(text, r.any...) {
			total += r.points
			tags = append(tags, r.tag)
		}
	}
	return total, tags
}
