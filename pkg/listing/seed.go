package listing

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/elonfeng/roomivo/pkg/rental"
)

//go:embed data/properties.json
var builtinSeed []byte

type seedEntry struct {
	ExternalID  string   `json:"external_id"`
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	Currency    string   `json:"currency"`
	Rooms       int      `json:"rooms"`
	Location    string   `json:"location"`
	Description string   `json:"description"`
	Amenities   []string `json:"amenities"`
	Images      []string `json:"images"`
}

// Seed loads a fixed listing dataset, either the built-in one or a JSON file.
type Seed struct {
	file       string
	landlordID string
}

// NewSeed creates a seed source. An empty file uses the built-in dataset.
func NewSeed(file, landlordID string) *Seed {
	return &Seed{file: file, landlordID: landlordID}
}

func (s *Seed) Name() rental.SourceType { return rental.SourceSeed }

func (s *Seed) Collect(_ context.Context) ([]rental.Property, error) {
	data := builtinSeed
	if s.file != "" {
		b, err := os.ReadFile(s.file)
		if err != nil {
			return nil, fmt.Errorf("read seed file %s: %w", s.file, err)
		}
		data = b
	}

	var entries []seedEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse seed data: %w", err)
	}

	now := time.Now().UTC()
	props := make([]rental.Property, 0, len(entries))
	for i, e := range entries {
		ext := e.ExternalID
		if ext == "" {
			ext = fmt.Sprintf("seed-%03d", i+1)
		}
		props = append(props, rental.Property{
			ID:          PropertyID(rental.SourceSeed, ext),
			LandlordID:  s.landlordID,
			Name:        e.Name,
			Price:       e.Price,
			Currency:    e.Currency,
			Rooms:       e.Rooms,
			Location:    e.Location,
			Description: e.Description,
			Amenities:   e.Amenities,
			Images:      e.Images,
			RentalType:  ClassifyRentalType(e.Description, e.Amenities),
			Source:      rental.SourceSeed,
			ExternalID:  ext,
			CreatedAt:   now,
		})
	}
	return props, nil
}
