package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ackwest/seoengine/internal/core"
)

// oauthAuthorize hands back the platform consent URL for the client.
// The dashboard redirects the browser there itself, so this returns
// JSON rather than a 302.
func (s *Server) oauthAuthorize(w http.ResponseWriter, r *http.Request) {
	if s.deps.OAuth == nil {
		writeError(w, http.StatusServiceUnavailable, "oauth not configured")
		return
	}
	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		writeError(w, http.StatusBadRequest, "client_id is required")
		return
	}
	url, err := s.deps.OAuth.AuthorizeURL(clientID, core.Platform(chi.URLParam(r, "platform")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"authorize_url": url})
}

func (s *Server) oauthCallback(w http.ResponseWriter, r *http.Request) {
	if s.deps.OAuth == nil {
		writeError(w, http.StatusServiceUnavailable, "oauth not configured")
		return
	}
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		writeError(w, http.StatusBadRequest, "code and state are required")
		return
	}
	integ, err := s.deps.OAuth.HandleCallback(r.Context(), core.Platform(chi.URLParam(r, "platform")), code, state)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "connected",
		"platform": integ.Platform,
	})
}

func (s *Server) oauthDisconnect(w http.ResponseWriter, r *http.Request) {
	if s.deps.OAuth == nil {
		writeError(w, http.StatusServiceUnavailable, "oauth not configured")
		return
	}
	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		writeError(w, http.StatusBadRequest, "client_id is required")
		return
	}
	err := s.deps.OAuth.Disconnect(r.Context(), clientID, core.Platform(chi.URLParam(r, "platform")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "disconnected"})
}
