package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ackwest/seoengine/internal/core"
)

type webhookRequest struct {
	ClientID       string   `json:"client_id"`
	Name           string   `json:"name"`
	URL            string   `json:"url"`
	Events         []string `json:"events"`
	IsActive       *bool    `json:"is_active"`
	TimeoutSeconds int      `json:"timeout_seconds"`
	MaxRetries     int      `json:"max_retries"`
}

func (s *Server) createWebhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	hook, err := s.deps.Webhooks.Create(r.Context(), core.Webhook{
		ClientID:       req.ClientID,
		Name:           req.Name,
		URL:            req.URL,
		Events:         req.Events,
		TimeoutSeconds: req.TimeoutSeconds,
		MaxRetries:     req.MaxRetries,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	// The signing secret is returned exactly once, at creation.
	writeJSON(w, http.StatusCreated, map[string]any{"webhook": hook, "secret": hook.Secret})
}

func (s *Server) listWebhooks(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Webhooks.List(r.Context(), r.URL.Query().Get("client_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"webhooks": list, "count": len(list)})
}

func (s *Server) updateWebhook(w http.ResponseWriter, r *http.Request) {
	existing, err := s.deps.Webhooks.Get(r.Context(), chi.URLParam(r, "webhook_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	var req webhookRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.Name != "" {
		existing.Name = req.Name
	}
	if req.URL != "" {
		existing.URL = req.URL
	}
	if req.Events != nil {
		existing.Events = req.Events
	}
	if req.IsActive != nil {
		existing.IsActive = *req.IsActive
	}
	if req.TimeoutSeconds > 0 {
		existing.TimeoutSeconds = req.TimeoutSeconds
	}
	if req.MaxRetries > 0 {
		existing.MaxRetries = req.MaxRetries
	}

	hook, err := s.deps.Webhooks.Update(r.Context(), existing)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hook)
}

func (s *Server) deleteWebhook(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Webhooks.Delete(r.Context(), chi.URLParam(r, "webhook_id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// testWebhook delivers a synthetic event inline so the caller learns
// immediately whether the endpoint is reachable.
func (s *Server) testWebhook(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.Webhooks.Test(r.Context(), chi.URLParam(r, "webhook_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) webhookStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Webhooks.GetStats(r.Context(), chi.URLParam(r, "webhook_id"), queryInt(r, "limit", 20))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
