package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/elonfeng/roomivo/internal/store"
	"github.com/elonfeng/roomivo/pkg/listing"
	"github.com/elonfeng/roomivo/pkg/rental"
)

type propertyRequest struct {
	LandlordID  string            `json:"landlord_id"`
	Name        string            `json:"name"`
	Price       float64           `json:"price"`
	Currency    string            `json:"currency"`
	Rooms       int               `json:"rooms"`
	Location    string            `json:"location"`
	Description string            `json:"description"`
	Amenities   []string          `json:"amenities"`
	Images      []string          `json:"images"`
	RentalType  rental.RentalType `json:"rental_type"`
}

func (p propertyRequest) validate() error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return errors.New("name is required")
	case strings.TrimSpace(p.Location) == "":
		return errors.New("location is required")
	case p.Price <= 0:
		return errors.New("price must be > 0")
	case p.Rooms < 0:
		return errors.New("rooms must be >= 0")
	}
	switch p.RentalType {
	case "", rental.RentalFurnished, rental.RentalUnfurnished, rental.RentalColocation:
		return nil
	}
	return errors.New("rental_type must be furnished, unfurnished or colocation")
}

func propertyListOpts(r *http.Request, defLimit int) (store.PropertyListOpts, error) {
	var opts store.PropertyListOpts
	var err error
	if opts.MinPrice, err = queryFloat(r, "min_price"); err != nil {
		return opts, err
	}
	if opts.MaxPrice, err = queryFloat(r, "max_price"); err != nil {
		return opts, err
	}
	if opts.Limit, err = queryInt(r, "limit", defLimit); err != nil {
		return opts, err
	}
	if opts.Offset, err = queryInt(r, "offset", 0); err != nil {
		return opts, err
	}
	opts.Location = r.URL.Query().Get("location")
	opts.LandlordID = r.URL.Query().Get("landlord_id")
	return opts, nil
}

func (s *Server) handleListProperties(w http.ResponseWriter, r *http.Request) {
	opts, err := propertyListOpts(r, s.cfg.DefaultLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	props, err := s.store.ListProperties(r.Context(), opts)
	if err != nil {
		s.internalError(w, err)
		return
	}
	total, err := s.store.CountProperties(r.Context(), opts)
	if err != nil {
		s.internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  props,
		"count": len(props),
		"total": total,
	})
}

func (s *Server) handleCreateProperty(w http.ResponseWriter, r *http.Request) {
	var req propertyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	p := rental.Property{
		ID:          uuid.NewString(),
		LandlordID:  req.LandlordID,
		Name:        strings.TrimSpace(req.Name),
		Price:       req.Price,
		Currency:    req.Currency,
		Rooms:       req.Rooms,
		Location:    strings.TrimSpace(req.Location),
		Description: req.Description,
		Amenities:   req.Amenities,
		Images:      req.Images,
		RentalType:  req.RentalType,
		Source:      rental.SourceAPI,
		CreatedAt:   s.now().UTC(),
	}
	if p.RentalType == "" {
		p.RentalType = listing.ClassifyRentalType(p.Description, p.Amenities)
	}

	if err := s.store.UpsertProperty(r.Context(), &p); err != nil {
		s.internalError(w, err)
		return
	}
	s.ranker.InvalidateCatalogue(r.Context())

	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleGetProperty(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.GetProperty(r.Context(), r.PathValue("id"))
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProperty(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteProperty(r.Context(), r.PathValue("id")); err != nil {
		s.storeError(w, err)
		return
	}
	s.ranker.InvalidateCatalogue(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
