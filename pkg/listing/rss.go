package listing

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/elonfeng/roomivo/pkg/rental"
)

// RSSFeed is a named listing feed. Location and LandlordID apply to every entry.
type RSSFeed struct {
	Name       string
	URL        string
	Location   string
	LandlordID string
}

// RSS collects listings from RSS/Atom feeds. Entries without a price are skipped.
type RSS struct {
	client  *http.Client
	parser  *gofeed.Parser
	feeds   []RSSFeed
	limiter *HostLimiter
	logger  *zap.Logger
}

// NewRSS creates a new RSS collector.
func NewRSS(feeds []RSSFeed, limiter *HostLimiter, logger *zap.Logger) *RSS {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RSS{
		client:  &http.Client{Timeout: 30 * time.Second},
		parser:  gofeed.NewParser(),
		feeds:   feeds,
		limiter: limiter,
		logger:  logger.Named("rss"),
	}
}

func (r *RSS) Name() rental.SourceType { return rental.SourceRSS }

func (r *RSS) Collect(ctx context.Context) ([]rental.Property, error) {
	var all []rental.Property

	for _, feed := range r.feeds {
		props, err := r.collectFeed(ctx, feed)
		if err != nil {
			if ctx.Err() != nil {
				return all, ctx.Err()
			}
			r.logger.Warn("feed failed", zap.String("feed", feed.Name), zap.Error(err))
			continue
		}
		all = append(all, props...)
	}

	return all, nil
}

func (r *RSS) collectFeed(ctx context.Context, feed RSSFeed) ([]rental.Property, error) {
	if err := r.limiter.WaitURL(ctx, feed.URL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create rss request %s: %w", feed.Name, err)
	}
	req.Header.Set("User-Agent", "roomivo/1.0")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rss %s: %w", feed.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rss %s status %d", feed.Name, resp.StatusCode)
	}

	parsed, err := r.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse rss %s: %w", feed.Name, err)
	}

	var props []rental.Property
	for _, entry := range parsed.Items {
		price := ExtractPrice(entry.Title)
		if price == 0 {
			price = ExtractPrice(entry.Description)
		}
		if price == 0 {
			r.logger.Debug("entry without price", zap.String("feed", feed.Name), zap.String("title", entry.Title))
			continue
		}

		created := time.Now().UTC()
		if entry.PublishedParsed != nil {
			created = entry.PublishedParsed.UTC()
		} else if entry.UpdatedParsed != nil {
			created = entry.UpdatedParsed.UTC()
		}

		ext := entry.GUID
		if ext == "" {
			ext = entry.Link
		}

		var images []string
		if entry.Image != nil && entry.Image.URL != "" {
			images = []string{entry.Image.URL}
		}

		props = append(props, rental.Property{
			ID:          PropertyID(rental.SourceRSS, feed.Name, ext),
			LandlordID:  feed.LandlordID,
			Name:        entry.Title,
			Price:       price,
			Location:    feed.Location,
			Description: truncate(entry.Description, 1000),
			Amenities:   entry.Categories,
			Images:      images,
			Source:      rental.SourceRSS,
			ExternalID:  ext,
			CreatedAt:   created,
		})
	}

	return props, nil
}
