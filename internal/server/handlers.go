package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/claude/repflow/internal/models"
	"github.com/claude/repflow/internal/technique"
)

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var payloads []models.ResultPayload
	if err := json.NewDecoder(r.Body).Decode(&payloads); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	result, err := s.results.Ingest(r.Context(), payloads, 1)
	if err != nil {
		s.log.Error("ingest error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// previewRequest is the body of POST /api/v1/techniques/preview.
type previewRequest struct {
	Config        technique.Config `json:"config"`
	Rationale     string           `json:"rationale,omitempty"`
	InitialWeight float64          `json:"initial_weight"`
}

// previewResponse reports how a technique would execute: the flat
// virtual-set expansion plus whether a specialized engine drives it.
type previewResponse struct {
	Technique   technique.Type         `json:"technique"`
	HasEngine   bool                   `json:"has_engine"`
	VirtualSets []technique.VirtualSet `json:"virtual_sets"`
	Rationale   string                 `json:"rationale,omitempty"`
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	sets, err := technique.Expand(req.Config, req.InitialWeight)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, technique.ErrInvalidConfig) {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, previewResponse{
		Technique:   req.Config.Type,
		HasEngine:   technique.HasEngine(req.Config.Type),
		VirtualSets: sets,
		Rationale:   req.Rationale,
	})
}

func (s *Server) handleListTechniques(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		Type      technique.Type `json:"type"`
		HasEngine bool           `json:"has_engine"`
	}
	list := make([]entry, 0, len(technique.AllTypes))
	for _, t := range technique.AllTypes {
		list = append(list, entry{Type: t, HasEngine: technique.HasEngine(t)})
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleQueryResults(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rows, err := s.db.QueryResults(r.Context(), start, end, 1,
		r.URL.Query().Get("technique"), r.URL.Query().Get("exercise"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid result id"})
		return
	}

	row, err := s.db.GetResult(r.Context(), id, 1)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if row == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "result not found"})
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	summary, err := s.db.GetTechniqueSummary(r.Context(), start, end, 1)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// parseTimeRange reads optional start/end query params (RFC 3339 or
// YYYY-MM-DD), defaulting to the last 30 days.
func parseTimeRange(r *http.Request) (time.Time, time.Time, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -30)

	if v := r.URL.Query().Get("end"); v != "" {
		t, err := parseFlexTime(v)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = t
		start = end.AddDate(0, 0, -30)
	}
	if v := r.URL.Query().Get("start"); v != "" {
		t, err := parseFlexTime(v)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start = t
	}
	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
