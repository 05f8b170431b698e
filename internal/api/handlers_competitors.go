package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ackwest/seoengine/internal/core"
)

func (s *Server) addCompetitor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Domain string `json:"domain"`
		Name   string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Domain = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(req.Domain, "https://"), "http://"))
	req.Domain = strings.TrimSuffix(req.Domain, "/")
	if req.Domain == "" {
		writeError(w, http.StatusBadRequest, "domain is required")
		return
	}

	clientID := chi.URLParam(r, "client_id")
	if _, err := s.deps.Clients.GetClient(r.Context(), clientID); err != nil {
		writeDomainError(w, err)
		return
	}
	id, err := s.deps.IDs.NewID()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	comp := core.Competitor{
		ID:        id,
		ClientID:  clientID,
		Domain:    req.Domain,
		Name:      req.Name,
		IsActive:  true,
		CreatedAt: s.deps.Clock.Now(),
	}
	if err := s.deps.Competitors.CreateCompetitor(r.Context(), comp); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, comp)
}

func (s *Server) listCompetitors(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Competitors.ListCompetitors(r.Context(), chi.URLParam(r, "client_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"competitors": list, "count": len(list)})
}

// crawlCompetitors runs the crawl inline for every active competitor
// of the client. Failures are per-competitor so one bad site does not
// abort the rest.
func (s *Server) crawlCompetitors(w http.ResponseWriter, r *http.Request) {
	if s.deps.Crawler == nil {
		writeError(w, http.StatusServiceUnavailable, "crawler not configured")
		return
	}
	list, err := s.deps.Competitors.ListCompetitors(r.Context(), chi.URLParam(r, "client_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	crawled, failed := 0, 0
	for _, comp := range list {
		if !comp.IsActive {
			continue
		}
		if err := s.deps.Crawler.CrawlCompetitor(r.Context(), comp); err != nil {
			failed++
			s.log.Warn("competitor crawl failed",
				zap.String("competitor_id", comp.ID),
				zap.String("domain", comp.Domain),
				zap.Error(err))
			continue
		}
		crawled++
	}
	writeJSON(w, http.StatusOK, map[string]any{"crawled": crawled, "failed": failed})
}

func (s *Server) listCompetitorPages(w http.ResponseWriter, r *http.Request) {
	competitorID := chi.URLParam(r, "competitor_id")
	if _, err := s.deps.Competitors.GetCompetitor(r.Context(), competitorID); err != nil {
		writeDomainError(w, err)
		return
	}
	pages, err := s.deps.Competitors.ListPages(r.Context(), competitorID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pages": pages, "count": len(pages)})
}
