package server

import (
	"errors"
	"net/http"

	"github.com/elonfeng/roomivo/pkg/rental"
)

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.GetProfile(r.Context(), r.PathValue("id"))
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	var p rental.TenantProfile
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	p.ID = r.PathValue("id")

	if err := p.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	switch p.Role {
	case "", rental.RoleTenant, rental.RoleLandlord:
	default:
		writeError(w, http.StatusBadRequest, errors.New("role must be tenant or landlord"))
		return
	}

	if err := s.store.UpsertProfile(r.Context(), &p); err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
