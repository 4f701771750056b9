package listing

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/elonfeng/roomivo/pkg/rental"
)

// Site describes a listing index page and the CSS selectors used to read it.
// Card selects one element per listing; the other selectors are relative to it.
type Site struct {
	Name        string
	URL         string
	Location    string
	LandlordID  string
	Card        string
	Title       string
	Price       string
	Place       string
	Description string
	Amenity     string
	Link        string
}

// HTML scrapes listing cards from agency pages.
type HTML struct {
	client  *http.Client
	sites   []Site
	limiter *HostLimiter
	logger  *zap.Logger
}

// NewHTML creates a new HTML scraper.
func NewHTML(sites []Site, limiter *HostLimiter, logger *zap.Logger) *HTML {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTML{
		client:  &http.Client{Timeout: 30 * time.Second},
		sites:   sites,
		limiter: limiter,
		logger:  logger.Named("html"),
	}
}

func (h *HTML) Name() rental.SourceType { return rental.SourceHTML }

func (h *HTML) Collect(ctx context.Context) ([]rental.Property, error) {
	var all []rental.Property
	for _, site := range h.sites {
		props, err := h.collectSite(ctx, site)
		if err != nil {
			if ctx.Err() != nil {
				return all, ctx.Err()
			}
			h.logger.Warn("site failed", zap.String("site", site.Name), zap.Error(err))
			continue
		}
		all = append(all, props...)
	}
	return all, nil
}

func (h *HTML) collectSite(ctx context.Context, site Site) ([]rental.Property, error) {
	if site.Card == "" {
		return nil, fmt.Errorf("site %s has no card selector", site.Name)
	}
	if err := h.limiter.WaitURL(ctx, site.URL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, site.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create html request %s: %w", site.Name, err)
	}
	req.Header.Set("User-Agent", "roomivo/1.0")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch html %s: %w", site.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("html %s status %d", site.Name, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse html %s: %w", site.Name, err)
	}

	base, _ := url.Parse(site.URL)
	now := time.Now().UTC()

	var props []rental.Property
	doc.Find(site.Card).Each(func(_ int, card *goquery.Selection) {
		title := text(card, site.Title)
		price := ExtractPrice(text(card, site.Price))
		if title == "" || price == 0 {
			return
		}

		location := text(card, site.Place)
		if location == "" {
			location = site.Location
		}

		var amenities []string
		if site.Amenity != "" {
			card.Find(site.Amenity).Each(func(_ int, s *goquery.Selection) {
				if a := strings.TrimSpace(s.Text()); a != "" {
					amenities = append(amenities, a)
				}
			})
		}

		ext := cardID(site, title, location, price)
		if site.Link != "" {
			if href, ok := card.Find(site.Link).First().Attr("href"); ok && href != "" {
				ext = resolve(base, href)
			}
		}

		props = append(props, rental.Property{
			ID:          PropertyID(rental.SourceHTML, site.Name, ext),
			LandlordID:  site.LandlordID,
			Name:        title,
			Price:       price,
			Location:    location,
			Description: truncate(text(card, site.Description), 1000),
			Amenities:   amenities,
			Source:      rental.SourceHTML,
			ExternalID:  ext,
			CreatedAt:   now,
		})
	})

	return props, nil
}

// cardID names a card that carries no link by its content, so the ID survives
// the page reordering its listings.
func cardID(site Site, title, location string, price float64) string {
	key := fmt.Sprintf("%s|%s|%s|%.2f", site.URL, strings.ToLower(title), strings.ToLower(location), price)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
}

func text(sel *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.Join(strings.Fields(sel.Find(selector).First().Text()), " ")
}

func resolve(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil || base == nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
