package listing

import (
	"regexp"
	"strconv"
	"strings"
)

const amount = `(\d{1,3}(?:[ .,\x{00A0}\x{202F}]\d{3})+|\d+)(?:[.,](\d{1,2}))?`

var (
	priceAfter  = regexp.MustCompile(`(?i)` + amount + `\s*(?:€|eur\b|euros?\b)`)
	priceBefore = regexp.MustCompile(`(?i)(?:€|\beur)\s*` + amount)
)

// ExtractPrice finds the first euro amount in text ("950 €", "€1 100", "700 EUR", "1.250,50 €").
// It returns 0 when no amount is present.
func ExtractPrice(text string) float64 {
	after := priceAfter.FindStringSubmatchIndex(text)
	before := priceBefore.FindStringSubmatchIndex(text)

	m := after
	if m == nil || (before != nil && before[0] < after[0]) {
		m = before
	}
	if m == nil {
		return 0
	}
	return parseAmount(group(text, m, 1), group(text, m, 2))
}

func group(text string, m []int, i int) string {
	if m[2*i] < 0 {
		return ""
	}
	return text[m[2*i]:m[2*i+1]]
}

func parseAmount(whole, cents string) float64 {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, whole)
	if cents != "" {
		digits += "." + cents
	}
	v, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0
	}
	return v
}
