package listing

import (
	"slices"
	"strings"

	"github.com/elonfeng/roomivo/pkg/rental"
)

// ClassifyRentalType guesses how a property is let from its text.
// Shared housing wins over furnishing; furnished is the default.
func ClassifyRentalType(description string, amenities []string) rental.RentalType {
	desc := strings.ToLower(description)
	lowered := make([]string, len(amenities))
	for i, a := range amenities {
		lowered[i] = strings.ToLower(strings.TrimSpace(a))
	}

	switch {
	case strings.Contains(desc, "shared"), strings.Contains(desc, "colocation"), slices.Contains(lowered, "shared"):
		return rental.RentalColocation
	case strings.Contains(desc, "unfurnished"), strings.Contains(desc, "non meublé"):
		return rental.RentalUnfurnished
	default:
		return rental.RentalFurnished
	}
}
