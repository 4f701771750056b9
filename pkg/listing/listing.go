// Package listing imports rental listings from external sources.
package listing

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/elonfeng/roomivo/pkg/rental"
)

// Source is the interface every listing importer must implement.
type Source interface {
	Name() rental.SourceType
	Collect(ctx context.Context) ([]rental.Property, error)
}

// PropertyID derives a stable ID for an imported listing so re-imports upsert
// instead of duplicating.
func PropertyID(src rental.SourceType, parts ...string) string {
	return fmt.Sprintf("%s:%s", src, strings.Join(parts, ":"))
}

// AllSourceTypes returns the importable source types.
func AllSourceTypes() []rental.SourceType {
	return []rental.SourceType{
		rental.SourceSeed,
		rental.SourceRSS,
		rental.SourceHTML,
	}
}

// Prepare fills derived fields on freshly collected listings and drops the
// ones the filter rejects or that have no usable price.
func Prepare(props []rental.Property, filter *Filter) []rental.Property {
	out := props[:0]
	for _, p := range props {
		if p.Price <= 0 {
			continue
		}
		if filter != nil && !filter.Keep(p) {
			continue
		}
		if p.RentalType == "" {
			p.RentalType = ClassifyRentalType(p.Description, p.Amenities)
		}
		if p.Currency == "" {
			p.Currency = "€"
		}
		out = append(out, p)
	}
	return out
}

// truncate caps s at maxLen bytes without splitting a multi-byte rune.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	for maxLen > 0 && !utf8.RuneStart(s[maxLen]) {
		maxLen--
	}
	return s[:maxLen] + "..."
}
