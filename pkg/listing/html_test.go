package listing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elonfeng/roomivo/pkg/rental"
)

const listingPage = `<html><body>
<div class="listing">
  <h2 class="title">Studio   Vieux Port</h2>
  <span class="price">550 € / mois</span>
  <span class="city">Marseille</span>
  <p class="desc">Furnished studio with sea view.</p>
  <ul><li class="amenity">Wi-Fi</li><li class="amenity">Balcony</li></ul>
  <a class="more" href="/annonces/12">Voir</a>
</div>
<div class="listing">
  <h2 class="title">Chambre en colocation</h2>
  <span class="price">€400</span>
  <p class="desc">Room in a shared flat.</p>
  <a class="more" href="https://other.test/annonces/13">Voir</a>
</div>
<div class="listing">
  <h2 class="title">Sur demande</h2>
  <span class="price">Prix sur demande</span>
</div>
</body></html>`

func TestHTML_Collect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(listingPage))
	}))
	defer srv.Close()

	site := Site{
		Name:        "agence",
		URL:         srv.URL + "/annonces",
		Location:    "Aix-en-Provence",
		LandlordID:  "l9",
		Card:        "div.listing",
		Title:       ".title",
		Price:       ".price",
		Place:       ".city",
		Description: ".desc",
		Amenity:     ".amenity",
		Link:        "a.more",
	}
	src := NewHTML([]Site{site}, NewHostLimiter(100, 10), nil)
	assert.Equal(t, rental.SourceHTML, src.Name())

	props, err := src.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, props, 2)

	first := props[0]
	assert.Equal(t, "Studio Vieux Port", first.Name)
	assert.Equal(t, 550.0, first.Price)
	assert.Equal(t, "Marseille", first.Location)
	assert.Equal(t, []string{"Wi-Fi", "Balcony"}, first.Amenities)
	assert.Equal(t, srv.URL+"/annonces/12", first.ExternalID)
	assert.Equal(t, "html:agence:"+srv.URL+"/annonces/12", first.ID)
	assert.Equal(t, "l9", first.LandlordID)

	second := props[1]
	assert.Equal(t, 400.0, second.Price)
	assert.Equal(t, "Aix-en-Provence", second.Location)
	assert.Equal(t, "https://other.test/annonces/13", second.ExternalID)
}

func TestHTML_MissingCardSelector(t *testing.T) {
	src := NewHTML([]Site{{Name: "x", URL: "http://127.0.0.1:1"}}, nil, nil)
	props, err := src.Collect(context.Background())
	require.NoError(t, err)
	assert.Empty(t, props)
}

func TestHTML_CardsWithoutLinkKeepTheirID(t *testing.T) {
	cards := []string{
		`<div class="listing"><h2 class="title">T2 Cours Julien</h2><span class="price">820 €</span></div>`,
		`<div class="listing"><h2 class="title">Studio Castellane</h2><span class="price">610 €</span></div>`,
	}
	var reversed atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		body := cards[0] + cards[1]
		if reversed.Load() {
			body = `<div class="listing"><h2 class="title">Nouveau studio</h2><span class="price">500 €</span></div>` + cards[1] + cards[0]
		}
		_, _ = w.Write([]byte("<html><body>" + body + "</body></html>"))
	}))
	defer srv.Close()

	site := Site{Name: "agence", URL: srv.URL, Location: "Marseille", Card: "div.listing", Title: ".title", Price: ".price", Link: "a"}
	src := NewHTML([]Site{site}, nil, nil)

	byName := func(props []rental.Property) map[string]string {
		ids := make(map[string]string, len(props))
		for _, p := range props {
			ids[p.Name] = p.ID
		}
		return ids
	}

	before, err := src.Collect(context.Background())
	require.NoError(t, err)
	reversed.Store(true)
	after, err := src.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, after, 3)

	first, second := byName(before), byName(after)
	assert.NotEqual(t, first["T2 Cours Julien"], first["Studio Castellane"])
	assert.Equal(t, first["T2 Cours Julien"], second["T2 Cours Julien"])
	assert.Equal(t, first["Studio Castellane"], second["Studio Castellane"])
	assert.Len(t, second, 3)
}
