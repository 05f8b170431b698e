package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) checkRankings(w http.ResponseWriter, r *http.Request) {
	results, err := s.deps.Ranks.CheckClient(r.Context(), chi.URLParam(r, "client_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results, "count": len(results)})
}

func (s *Server) listRankings(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "client_id")
	latest, err := s.deps.Ranks.Latest(r.Context(), clientID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	summary, err := s.deps.Ranks.Summarize(r.Context(), clientID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rankings": latest, "summary": summary})
}

func (s *Server) rankingHistory(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("keyword")
	if keyword == "" {
		writeError(w, http.StatusBadRequest, "keyword is required")
		return
	}
	days := queryInt(r, "days", 30)
	since := s.deps.Clock.Now().AddDate(0, 0, -days)

	report, err := s.deps.Ranks.History(r.Context(), chi.URLParam(r, "client_id"), keyword, since)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) keywordOverview(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("keyword")
	if keyword == "" {
		writeError(w, http.StatusBadRequest, "keyword is required")
		return
	}
	metrics, err := s.deps.Keywords.KeywordOverview(r.Context(), keyword)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

func (s *Server) keywordVariations(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("keyword")
	if keyword == "" {
		writeError(w, http.StatusBadRequest, "keyword is required")
		return
	}
	list, err := s.deps.Keywords.KeywordVariations(r.Context(), keyword, queryInt(r, "limit", 20))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"keywords": list, "count": len(list)})
}

func (s *Server) keywordQuestions(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("keyword")
	if keyword == "" {
		writeError(w, http.StatusBadRequest, "keyword is required")
		return
	}
	list, err := s.deps.Keywords.KeywordQuestions(r.Context(), keyword, queryInt(r, "limit", 20))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": list, "count": len(list)})
}

func (s *Server) domainOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := s.deps.Keywords.DomainOverview(r.Context(), chi.URLParam(r, "domain"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (s *Server) domainCompetitors(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Keywords.Competitors(r.Context(), chi.URLParam(r, "domain"), queryInt(r, "limit", 10))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"competitors": list, "count": len(list)})
}
