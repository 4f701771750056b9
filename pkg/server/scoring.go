package server

import (
	"errors"
	"net/http"

	"github.com/elonfeng/roomivo/pkg/rental"
	"github.com/elonfeng/roomivo/pkg/score"
)

type matchRequest struct {
	Tenant   *rental.TenantProfile `json:"tenant"`
	Property rental.Property       `json:"property"`
}

type riskRequest struct {
	Income     float64 `json:"income"`
	Profession string  `json:"profession"`
	Rent       float64 `json:"rent"`
}

// handleScoreMatch scores an ad-hoc tenant/property pair. Omitting tenant
// scores as an anonymous visitor.
func (s *Server) handleScoreMatch(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Property.Price <= 0 {
		writeError(w, http.StatusBadRequest, errors.New("property.price must be > 0"))
		return
	}
	if req.Tenant != nil {
		if err := req.Tenant.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	resp := map[string]any{"score": s.scorer.Match(req.Tenant, req.Property)}
	if ex, ok := s.scorer.(score.Explainer); ok {
		resp["breakdown"] = ex.ExplainMatch(req.Tenant, req.Property)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleScoreRisk(w http.ResponseWriter, r *http.Request) {
	var req riskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	switch {
	case req.Income < 0:
		writeError(w, http.StatusBadRequest, errors.New("income must be >= 0"))
		return
	case req.Rent <= 0:
		writeError(w, http.StatusBadRequest, errors.New("rent must be > 0"))
		return
	}

	resp := map[string]any{"score": s.scorer.Risk(req.Income, req.Profession, req.Rent)}
	if ex, ok := s.scorer.(score.Explainer); ok {
		resp["breakdown"] = ex.ExplainRisk(req.Income, req.Profession, req.Rent)
	}
	writeJSON(w, http.StatusOK, resp)
}
