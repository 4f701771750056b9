package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/elonfeng/roomivo/pkg/rank"
	"github.com/elonfeng/roomivo/pkg/rental"
)

type applicationRequest struct {
	PropertyID string        `json:"property_id"`
	TenantID   string        `json:"tenant_id"`
	Message    string        `json:"message"`
	Status     rental.Status `json:"status"`
}

func (s *Server) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	var req applicationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.PropertyID) == "" || strings.TrimSpace(req.TenantID) == "" {
		writeError(w, http.StatusBadRequest, errors.New("property_id and tenant_id are required"))
		return
	}
	switch req.Status {
	case "":
		req.Status = rental.StatusPending
	case rental.StatusDraft, rental.StatusPending:
	default:
		writeError(w, http.StatusBadRequest, errors.New("a new application is draft or pending"))
		return
	}

	ctx := r.Context()
	if _, err := s.store.GetProperty(ctx, req.PropertyID); err != nil {
		s.storeError(w, err)
		return
	}
	if _, err := s.store.GetProfile(ctx, req.TenantID); err != nil {
		s.storeError(w, err)
		return
	}

	now := s.now().UTC()
	a := rental.Application{
		ID:         uuid.NewString(),
		PropertyID: req.PropertyID,
		TenantID:   req.TenantID,
		Status:     req.Status,
		Message:    req.Message,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.CreateApplication(ctx, &a); err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.GetApplication(r.Context(), r.PathValue("id"))
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleUpdateApplication(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	to, err := rental.ParseStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ctx := r.Context()
	a, err := s.store.GetApplication(ctx, r.PathValue("id"))
	if err != nil {
		s.storeError(w, err)
		return
	}
	from := a.Status
	if err := a.Transition(to, s.now().UTC()); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	if err := s.store.UpdateApplicationStatus(ctx, a.ID, from, a.Status, a.UpdatedAt); err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleApplicants(w http.ResponseWriter, r *http.Request) {
	var status rental.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, err := rental.ParseStatus(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		status = st
	}

	applicants, err := s.ranker.ApplicantsForLandlord(r.Context(), r.PathValue("id"), status)
	if err != nil {
		s.internalError(w, err)
		return
	}
	if applicants == nil {
		applicants = []rank.Applicant{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":  applicants,
		"count": len(applicants),
	})
}
