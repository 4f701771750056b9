package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/elonfeng/roomivo/pkg/rental"
)

func TestFilter_Keep(t *testing.T) {
	studio := rental.Property{Name: "Studio Latin Quarter", Description: "Furnished studio", Amenities: []string{"Wi-Fi"}}
	parking := rental.Property{Name: "Parking spot", Description: "Underground parking"}

	t.Run("empty keeps everything", func(t *testing.T) {
		f := NewFilter(nil, nil)
		assert.True(t, f.Keep(studio))
		assert.True(t, f.Keep(parking))
	})

	t.Run("exclude wins", func(t *testing.T) {
		f := NewFilter([]string{"studio", "parking"}, []string{"PARKING"})
		assert.True(t, f.Keep(studio))
		assert.False(t, f.Keep(parking))
	})

	t.Run("include matches amenities", func(t *testing.T) {
		f := NewFilter([]string{"wi-fi"}, nil)
		assert.True(t, f.Keep(studio))
		assert.False(t, f.Keep(parking))
	})

	t.Run("blank keywords ignored", func(t *testing.T) {
		f := NewFilter([]string{"  "}, []string{""})
		assert.True(t, f.Keep(parking))
	})
}

func TestPrepare(t *testing.T) {
	props := []rental.Property{
		{ID: "a", Name: "Room", Price: 500, Description: "room in a shared flat"},
		{ID: "b", Name: "Free", Price: 0},
		{ID: "c", Name: "Parking", Price: 90},
		{ID: "d", Name: "Loft", Price: 900, RentalType: rental.RentalUnfurnished, Currency: "EUR"},
	}

	out := Prepare(props, NewFilter(nil, []string{"parking"}))

	if assert.Len(t, out, 2) {
		assert.Equal(t, "a", out[0].ID)
		assert.Equal(t, rental.RentalColocation, out[0].RentalType)
		assert.Equal(t, "€", out[0].Currency)
		assert.Equal(t, rental.RentalUnfurnished, out[1].RentalType)
		assert.Equal(t, "EUR", out[1].Currency)
	}
}
