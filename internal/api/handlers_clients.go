package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ackwest/seoengine/internal/core"
)

type clientRequest struct {
	BusinessName        string             `json:"business_name"`
	Industry            string             `json:"industry"`
	Geo                 string             `json:"geo"`
	WebsiteURL          string             `json:"website_url"`
	Phone               string             `json:"phone"`
	Email               string             `json:"email"`
	PrimaryKeywords     []string           `json:"primary_keywords"`
	SecondaryKeywords   []string           `json:"secondary_keywords"`
	CompetitorDomains   []string           `json:"competitors"`
	ServiceAreas        []string           `json:"service_areas"`
	UniqueSellingPoints []string           `json:"unique_selling_points"`
	ServicePages        []core.ServicePage `json:"service_pages"`
	Tone                string             `json:"tone"`

	WordPress *core.WordPressSite `json:"wordpress"`

	SubscriptionTier    string `json:"subscription_tier"`
	MonthlyContentLimit int    `json:"monthly_content_limit"`

	LeadNotificationEmail   string `json:"lead_notification_email"`
	LeadNotificationEnabled *bool  `json:"lead_notification_enabled"`
}

// createClient onboards a new tenant and announces client.created.
func (s *Server) createClient(w http.ResponseWriter, r *http.Request) {
	var req clientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.BusinessName = strings.TrimSpace(req.BusinessName)
	if req.BusinessName == "" {
		writeError(w, http.StatusBadRequest, "business_name is required")
		return
	}
	if len(req.PrimaryKeywords) == 0 {
		writeError(w, http.StatusBadRequest, "at least one primary keyword is required")
		return
	}

	id, err := s.deps.IDs.NewID()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	now := s.deps.Clock.Now()
	client := core.Client{
		ID:                  id,
		BusinessName:        req.BusinessName,
		Industry:            req.Industry,
		Geo:                 req.Geo,
		WebsiteURL:          req.WebsiteURL,
		Phone:               req.Phone,
		Email:               req.Email,
		PrimaryKeywords:     req.PrimaryKeywords,
		SecondaryKeywords:   req.SecondaryKeywords,
		CompetitorDomains:   req.CompetitorDomains,
		ServiceAreas:        req.ServiceAreas,
		UniqueSellingPoints: req.UniqueSellingPoints,
		ServicePages:        req.ServicePages,
		Tone:                req.Tone,
		WordPress:           req.WordPress,
		SubscriptionTier:    orString(req.SubscriptionTier, "starter"),
		MonthlyContentLimit: req.MonthlyContentLimit,

		LeadNotificationEmail: req.LeadNotificationEmail,

		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.LeadNotificationEnabled != nil {
		client.LeadNotificationEnabled = *req.LeadNotificationEnabled
	}
	if client.MonthlyContentLimit <= 0 {
		client.MonthlyContentLimit = 4
	}

	if err := s.deps.Clients.CreateClient(r.Context(), client); err != nil {
		writeDomainError(w, err)
		return
	}
	s.log.Info("client onboarded",
		zap.String("client_id", client.ID),
		zap.String("business", client.BusinessName))

	if s.deps.Events != nil {
		err := s.deps.Events.Publish(r.Context(), core.Event{
			Name:      core.EventClientCreated,
			ClientID:  client.ID,
			Timestamp: now,
			Data: map[string]any{
				"business_name": client.BusinessName,
				"industry":      client.Industry,
				"geo":           client.Geo,
			},
		})
		if err != nil {
			s.log.Warn("publish client.created failed", zap.Error(err))
		}
	}
	writeJSON(w, http.StatusCreated, client)
}

func (s *Server) listClients(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	clients, err := s.deps.Clients.ListClients(r.Context(), activeOnly)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"clients": clients, "count": len(clients)})
}

func (s *Server) getClient(w http.ResponseWriter, r *http.Request) {
	client, err := s.deps.Clients.GetClient(r.Context(), chi.URLParam(r, "client_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

// updateClient merges the mutable profile fields onto the stored
// client. Integrations and timestamps are managed by the service.
func (s *Server) updateClient(w http.ResponseWriter, r *http.Request) {
	client, err := s.deps.Clients.GetClient(r.Context(), chi.URLParam(r, "client_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	var req clientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.BusinessName != "" {
		client.BusinessName = strings.TrimSpace(req.BusinessName)
	}
	if req.Industry != "" {
		client.Industry = req.Industry
	}
	if req.Geo != "" {
		client.Geo = req.Geo
	}
	if req.WebsiteURL != "" {
		client.WebsiteURL = req.WebsiteURL
	}
	if req.Phone != "" {
		client.Phone = req.Phone
	}
	if req.Email != "" {
		client.Email = req.Email
	}
	if req.PrimaryKeywords != nil {
		client.PrimaryKeywords = req.PrimaryKeywords
	}
	if req.SecondaryKeywords != nil {
		client.SecondaryKeywords = req.SecondaryKeywords
	}
	if req.CompetitorDomains != nil {
		client.CompetitorDomains = req.CompetitorDomains
	}
	if req.ServiceAreas != nil {
		client.ServiceAreas = req.ServiceAreas
	}
	if req.UniqueSellingPoints != nil {
		client.UniqueSellingPoints = req.UniqueSellingPoints
	}
	if req.ServicePages != nil {
		client.ServicePages = req.ServicePages
	}
	if req.Tone != "" {
		client.Tone = req.Tone
	}
	if req.WordPress != nil {
		client.WordPress = req.WordPress
	}
	if req.SubscriptionTier != "" {
		client.SubscriptionTier = req.SubscriptionTier
	}
	if req.MonthlyContentLimit > 0 {
		client.MonthlyContentLimit = req.MonthlyContentLimit
	}
	if req.LeadNotificationEmail != "" {
		client.LeadNotificationEmail = req.LeadNotificationEmail
	}
	if req.LeadNotificationEnabled != nil {
		client.LeadNotificationEnabled = *req.LeadNotificationEnabled
	}
	client.UpdatedAt = s.deps.Clock.Now()

	if err := s.deps.Clients.UpdateClient(r.Context(), client); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

func (s *Server) deleteClient(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Clients.DeleteClient(r.Context(), chi.URLParam(r, "client_id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func orString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
