package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ackwest/seoengine/internal/reviews"
)

func (s *Server) addReview(w http.ResponseWriter, r *http.Request) {
	var in reviews.AddInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	review, err := s.deps.Reviews.Add(r.Context(), chi.URLParam(r, "client_id"), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

func (s *Server) listReviews(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Reviews.List(r.Context(), chi.URLParam(r, "client_id"), queryInt(r, "days", 0))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reviews": list, "count": len(list)})
}

func (s *Server) reviewStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Reviews.Stats(r.Context(), chi.URLParam(r, "client_id"), queryInt(r, "days", 0))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) respondToReview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Response string `json:"response"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	review, err := s.deps.Reviews.Respond(r.Context(), chi.URLParam(r, "review_id"), req.Response)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

func (s *Server) suggestReviewResponse(w http.ResponseWriter, r *http.Request) {
	review, err := s.deps.Reviews.SuggestResponse(r.Context(), chi.URLParam(r, "review_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}
