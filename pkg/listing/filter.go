package listing

import (
	"strings"

	"github.com/elonfeng/roomivo/pkg/rental"
	"github.com/elonfeng/roomivo/pkg/score"
)

// Filter holds keyword lists deciding which imported listings are kept.
// An empty include list keeps everything that is not excluded.
type Filter struct {
	include []string
	exclude []string
}

// NewFilter creates a filter from include and exclude keywords.
func NewFilter(includeKeywords, excludeKeywords []string) *Filter {
	return &Filter{include: lowerAll(includeKeywords), exclude: lowerAll(excludeKeywords)}
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, kw := range in {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

// Keep returns true if the listing passes the keyword lists.
func (f *Filter) Keep(p rental.Property) bool {
	text := strings.ToLower(p.Name) + " " + score.Haystack(p.Description, p.Amenities)

	for _, ex := range f.exclude {
		if strings.Contains(text, ex) {
			return false
		}
	}
	if len(f.include) == 0 {
		return true
	}
	for _, kw := range f.include {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
