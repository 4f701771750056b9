package server

import (
	"net/http"

	"github.com/elonfeng/roomivo/pkg/rank"
)

func (s *Server) matchOptions(r *http.Request) (rank.Options, error) {
	var opts rank.Options
	var err error
	if opts.MinScore, err = queryInt(r, "min_score", s.cfg.MinMatchScore); err != nil {
		return opts, err
	}
	if opts.Limit, err = queryInt(r, "limit", s.cfg.DefaultLimit); err != nil {
		return opts, err
	}
	if opts.MinPrice, err = queryFloat(r, "min_price"); err != nil {
		return opts, err
	}
	if opts.MaxPrice, err = queryFloat(r, "max_price"); err != nil {
		return opts, err
	}
	opts.Location = r.URL.Query().Get("location")
	return opts, nil
}

func (s *Server) handleTenantMatches(w http.ResponseWriter, r *http.Request) {
	opts, err := s.matchOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	matches, err := s.ranker.MatchesForTenant(r.Context(), r.PathValue("id"), opts)
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeMatches(w, matches)
}

func (s *Server) handleAnonymousMatches(w http.ResponseWriter, r *http.Request) {
	opts, err := s.matchOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	matches, err := s.ranker.AnonymousMatches(r.Context(), opts)
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeMatches(w, matches)
}

func writeMatches(w http.ResponseWriter, matches []rank.PropertyMatch) {
	if matches == nil {
		matches = []rank.PropertyMatch{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":  matches,
		"count": len(matches),
	})
}
