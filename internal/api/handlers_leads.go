package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ackwest/seoengine/internal/core"
	"github.com/ackwest/seoengine/internal/leads"
)

// captureLead is unauthenticated: client websites post their contact
// forms straight at it.
func (s *Server) captureLead(w http.ResponseWriter, r *http.Request) {
	var in leads.CaptureInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	lead, err := s.deps.Leads.Capture(r.Context(), chi.URLParam(r, "client_id"), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, lead)
}

func (s *Server) listLeads(w http.ResponseWriter, r *http.Request) {
	status := core.LeadStatus(r.URL.Query().Get("status"))
	list, err := s.deps.Leads.List(r.Context(), chi.URLParam(r, "client_id"), status, queryInt(r, "days", 0))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"leads": list, "count": len(list)})
}

func (s *Server) leadStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Leads.Stats(r.Context(), chi.URLParam(r, "client_id"), queryInt(r, "days", 0))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) leadTrend(w http.ResponseWriter, r *http.Request) {
	trend, err := s.deps.Leads.Trend(r.Context(), chi.URLParam(r, "client_id"), queryInt(r, "days", 0))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"trend": trend})
}

func (s *Server) updateLeadStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status core.LeadStatus `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	lead, err := s.deps.Leads.UpdateStatus(r.Context(), chi.URLParam(r, "lead_id"), req.Status)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (s *Server) setLeadValue(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EstimatedValue float64 `json:"estimated_value"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	lead, err := s.deps.Leads.SetValue(r.Context(), chi.URLParam(r, "lead_id"), req.EstimatedValue)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
