// Package api exposes the HTTP surface of the service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ackwest/seoengine/internal/calls"
	"github.com/ackwest/seoengine/internal/config"
	"github.com/ackwest/seoengine/internal/content"
	"github.com/ackwest/seoengine/internal/core"
	"github.com/ackwest/seoengine/internal/leads"
	"github.com/ackwest/seoengine/internal/metrics"
	"github.com/ackwest/seoengine/internal/oauth"
	"github.com/ackwest/seoengine/internal/rank"
	"github.com/ackwest/seoengine/internal/reviews"
	"github.com/ackwest/seoengine/internal/scheduler"
	"github.com/ackwest/seoengine/internal/seodata"
	"github.com/ackwest/seoengine/internal/social"
	"github.com/ackwest/seoengine/internal/webhook"
	"github.com/ackwest/seoengine/internal/wordpress"
)

// KeywordData serves the keyword research endpoints. Both the live
// client and the demo source satisfy it.
type KeywordData interface {
	KeywordOverview(ctx context.Context, keyword string) (seodata.KeywordMetrics, error)
	KeywordVariations(ctx context.Context, keyword string, limit int) ([]seodata.KeywordMetrics, error)
	KeywordQuestions(ctx context.Context, keyword string, limit int) ([]seodata.KeywordMetrics, error)
	DomainOverview(ctx context.Context, domain string) (seodata.DomainOverview, error)
	Competitors(ctx context.Context, domain string, limit int) ([]seodata.CompetitorDomain, error)
}

// Crawler triggers competitor crawls from the API.
type Crawler interface {
	CrawlCompetitor(ctx context.Context, comp core.Competitor) error
}

// JobRunner exposes the scheduler to the operations endpoints.
type JobRunner interface {
	Jobs() []scheduler.Status
	RunOnce(ctx context.Context, name string) (core.JobRun, error)
}

// Deps carries the services the server fronts. Optional surfaces
// (OAuth, scheduler, crawler) may be nil; their routes then 404 or
// report unavailable.
type Deps struct {
	Clients     core.ClientStore
	Competitors core.CompetitorStore
	Content     *content.Service
	WordPress   *wordpress.Manager
	Social      *social.Service
	Leads       *leads.Service
	Reviews     *reviews.Service
	Ranks       *rank.Service
	Keywords    KeywordData
	Crawler     Crawler
	Calls       *calls.Service
	Webhooks    *webhook.Service
	OAuth       *oauth.Service
	Scheduler   JobRunner
	Events      core.EventPublisher
	Clock       core.Clock
	IDs         core.IDGenerator
}

// Server wires HTTP handlers to the domain services.
type Server struct {
	router chi.Router
	deps   Deps
	cfg    config.Config
	log    *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(deps Deps, cfg config.Config, log *zap.Logger) *Server {
	s := &Server{deps: deps, cfg: cfg, log: log.Named("api")}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(metricsMiddleware)
	r.Use(timeoutMiddleware(60 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/login", s.login)
		// Lead capture is the one write exposed to client websites.
		r.Post("/clients/{client_id}/leads", s.captureLead)
		// OAuth callbacks arrive from the platforms, not our callers.
		r.Get("/oauth/{platform}/callback", s.oauthCallback)

		r.Group(func(r chi.Router) {
			if cfg.Auth.Enabled {
				r.Use(s.authMiddleware)
			}

			r.Route("/clients", func(r chi.Router) {
				r.Post("/", s.createClient)
				r.Get("/", s.listClients)
				r.Route("/{client_id}", func(r chi.Router) {
					r.Get("/", s.getClient)
					r.Put("/", s.updateClient)
					r.Delete("/", s.deleteClient)

					r.Post("/content/blog", s.generateBlogPost)
					r.Get("/content", s.listContent)
					r.Post("/content/social", s.generateSocialPost)

					r.Get("/leads", s.listLeads)
					r.Get("/leads/stats", s.leadStats)
					r.Get("/leads/trend", s.leadTrend)

					r.Post("/reviews", s.addReview)
					r.Get("/reviews", s.listReviews)
					r.Get("/reviews/stats", s.reviewStats)

					r.Post("/rankings/check", s.checkRankings)
					r.Get("/rankings", s.listRankings)
					r.Get("/rankings/history", s.rankingHistory)

					r.Post("/competitors", s.addCompetitor)
					r.Get("/competitors", s.listCompetitors)
					r.Post("/competitors/crawl", s.crawlCompetitors)

					r.Post("/wordpress/test", s.testWordPress)

					r.Get("/calls", s.listCalls)
					r.Get("/calls/metrics", s.callMetrics)
					r.Get("/calls/hot-leads", s.callHotLeads)
				})
			})

			r.Route("/content/{post_id}", func(r chi.Router) {
				r.Get("/", s.getContent)
				r.Post("/approve", s.approveContent)
				r.Post("/schedule", s.scheduleContent)
				r.Post("/publish", s.publishContent)
				r.Get("/seo-score", s.scoreContent)
			})
			r.Post("/social/{post_id}/approve", s.approveSocialPost)
			r.Post("/social/{post_id}/publish", s.publishSocialPost)

			r.Put("/leads/{lead_id}/status", s.updateLeadStatus)
			r.Put("/leads/{lead_id}/value", s.setLeadValue)

			r.Post("/reviews/{review_id}/respond", s.respondToReview)
			r.Post("/reviews/{review_id}/suggest", s.suggestReviewResponse)

			r.Get("/keywords/overview", s.keywordOverview)
			r.Get("/keywords/variations", s.keywordVariations)
			r.Get("/keywords/questions", s.keywordQuestions)
			r.Get("/domains/{domain}/overview", s.domainOverview)
			r.Get("/domains/{domain}/competitors", s.domainCompetitors)

			r.Get("/competitors/{competitor_id}/pages", s.listCompetitorPages)

			r.Get("/calls/{call_id}/recording", s.callRecording)

			r.Route("/webhooks", func(r chi.Router) {
				r.Post("/", s.createWebhook)
				r.Get("/", s.listWebhooks)
				r.Put("/{webhook_id}", s.updateWebhook)
				r.Delete("/{webhook_id}", s.deleteWebhook)
				r.Post("/{webhook_id}/test", s.testWebhook)
				r.Get("/{webhook_id}/stats", s.webhookStats)
			})

			r.Get("/oauth/{platform}/authorize", s.oauthAuthorize)
			r.Delete("/oauth/{platform}", s.oauthDisconnect)

			r.Get("/scheduler/jobs", s.listJobs)
			r.Post("/scheduler/jobs/{name}/run", s.runJob)
		})
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	// The client store backs every request path, so probing it covers
	// the database dependency.
	if _, err := s.deps.Clients.ListClients(r.Context(), true); err != nil {
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps sentinel errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrAlreadyExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, wordpress.ErrNotConnected), errors.Is(err, social.ErrNotConnected):
		writeError(w, http.StatusPreconditionFailed, err.Error())
	case errors.Is(err, social.ErrTokenExpired):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, seodata.ErrNotConfigured), errors.Is(err, calls.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, oauth.ErrBadState), errors.Is(err, oauth.ErrUnknownPlatform):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	return dec.Decode(out)
}
