package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) listCalls(w http.ResponseWriter, r *http.Request) {
	if s.deps.Calls == nil {
		writeError(w, http.StatusServiceUnavailable, "call tracking not configured")
		return
	}
	records, err := s.deps.Calls.Recent(r.Context(), chi.URLParam(r, "client_id"),
		queryInt(r, "limit", 100), queryInt(r, "days", 90))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"calls": records, "count": len(records)})
}

func (s *Server) callMetrics(w http.ResponseWriter, r *http.Request) {
	if s.deps.Calls == nil {
		writeError(w, http.StatusServiceUnavailable, "call tracking not configured")
		return
	}
	m, err := s.deps.Calls.ClientMetrics(r.Context(), chi.URLParam(r, "client_id"),
		queryInt(r, "days", 30))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) callHotLeads(w http.ResponseWriter, r *http.Request) {
	if s.deps.Calls == nil {
		writeError(w, http.StatusServiceUnavailable, "call tracking not configured")
		return
	}
	records, err := s.deps.Calls.HotLeads(r.Context(), chi.URLParam(r, "client_id"),
		queryInt(r, "days", 7))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hot_leads": records, "count": len(records)})
}

func (s *Server) callRecording(w http.ResponseWriter, r *http.Request) {
	if s.deps.Calls == nil {
		writeError(w, http.StatusServiceUnavailable, "call tracking not configured")
		return
	}
	url, err := s.deps.Calls.RecordingURL(r.Context(), chi.URLParam(r, "call_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
