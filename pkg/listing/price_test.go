package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractPrice(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"Studio Latin Quarter - 950 €", 950},
		{"Loft for €1 100/month", 1100},
		{"T2 Lyon 700 EUR charges comprises", 700},
		{"Appartement 45m² - 1 200 € / mois", 1200},
		{"Studio 18m2, 950 €", 950},
		{"Chambre 550 euros", 550},
		{"Duplex 1.250,50 €", 1250.50},
		{"Studio 950,5 €", 950.5},
		{"Rue de la Fleur 12, no price", 0},
		{"", 0},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.InDelta(t, tc.want, ExtractPrice(tc.in), 0.001)
		})
	}
}

func TestExtractPrice_FirstAmountWins(t *testing.T) {
	assert.Equal(t, 900.0, ExtractPrice("€900 rent + 50 € charges"))
	assert.Equal(t, 800.0, ExtractPrice("800 € rent, deposit €1 600"))
}
