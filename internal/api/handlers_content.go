package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ackwest/seoengine/internal/content"
	"github.com/ackwest/seoengine/internal/core"
)

func (s *Server) generateBlogPost(w http.ResponseWriter, r *http.Request) {
	var in content.BlogInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	post, err := s.deps.Content.GenerateBlogPost(r.Context(), chi.URLParam(r, "client_id"), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// listContent returns both content kinds for a client. Blog posts can
// be narrowed by ?status=.
func (s *Server) listContent(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "client_id")
	status := core.ContentStatus(r.URL.Query().Get("status"))

	posts, err := s.deps.Content.ListBlogPosts(r.Context(), clientID, status)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	social, err := s.deps.Content.ListSocialPosts(r.Context(), clientID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"blog_posts":   posts,
		"social_posts": social,
	})
}

func (s *Server) generateSocialPost(w http.ResponseWriter, r *http.Request) {
	var in content.SocialInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	post, err := s.deps.Content.GenerateSocialPost(r.Context(), chi.URLParam(r, "client_id"), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

func (s *Server) getContent(w http.ResponseWriter, r *http.Request) {
	post, err := s.deps.Content.GetBlogPost(r.Context(), chi.URLParam(r, "post_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) approveContent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ApprovedBy string `json:"approved_by"`
	}
	// Body is optional; an empty approver is recorded as-is.
	_ = decodeJSON(r, &req)

	post, err := s.deps.Content.Approve(r.Context(), chi.URLParam(r, "post_id"), req.ApprovedBy)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) scheduleContent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PublishAt time.Time `json:"publish_at"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	post, err := s.deps.Content.Schedule(r.Context(), chi.URLParam(r, "post_id"), req.PublishAt)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) publishContent(w http.ResponseWriter, r *http.Request) {
	post, err := s.deps.WordPress.PublishBlogPost(r.Context(), chi.URLParam(r, "post_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) scoreContent(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.Content.Score(r.Context(), chi.URLParam(r, "post_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) approveSocialPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.deps.Content.ApproveSocial(r.Context(), chi.URLParam(r, "post_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) publishSocialPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.deps.Social.PublishSocialPost(r.Context(), chi.URLParam(r, "post_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) testWordPress(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.WordPress.TestConnection(r.Context(), chi.URLParam(r, "client_id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "connected"})
}
