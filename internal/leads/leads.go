// Package leads captures inbound prospects and tracks them through
// the sales funnel.
package leads

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ackwest/seoengine/internal/core"
	"github.com/ackwest/seoengine/internal/metrics"
)

// dedupeWindow bounds how far back identical submissions are treated
// as duplicates of an existing lead.
const dedupeWindow = 24 * time.Hour

// Notifier alerts the client that a lead arrived.
type Notifier interface {
	LeadCaptured(ctx context.Context, client core.Client, lead core.Lead) error
}

// CaptureInput is one inbound lead submission.
type CaptureInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
	Source  string `json:"source"`
}

// Stats summarizes a client's lead funnel over a period.
type Stats struct {
	PeriodDays          int                     `json:"period_days"`
	Total               int                     `json:"total_leads"`
	ByStatus            map[core.LeadStatus]int `json:"by_status"`
	BySource            map[string]int          `json:"by_source"`
	ConversionRate      float64                 `json:"conversion_rate"`
	TotalEstimatedValue float64                 `json:"total_estimated_value"`
	AvgLeadValue        float64                 `json:"avg_lead_value"`
}

// DailyCount is one day's lead volume for trend charts.
type DailyCount struct {
	Date      string `json:"date"`
	Count     int    `json:"count"`
	Converted int    `json:"converted"`
}

// Service captures and manages leads.
type Service struct {
	clients  core.ClientStore
	leads    core.LeadStore
	events   core.EventPublisher
	notifier Notifier
	clock    core.Clock
	ids      core.IDGenerator
	log      *zap.Logger
}

// NewService wires a lead service. notifier may be nil when email is
// not configured.
func NewService(clients core.ClientStore, leads core.LeadStore, events core.EventPublisher, notifier Notifier, clock core.Clock, ids core.IDGenerator, log *zap.Logger) *Service {
	return &Service{
		clients:  clients,
		leads:    leads,
		events:   events,
		notifier: notifier,
		clock:    clock,
		ids:      ids,
		log:      log.Named("leads"),
	}
}

// Capture validates and persists a lead, emits lead.created, and
// alerts the client. A recent identical submission returns the
// existing lead so double-posted forms stay idempotent.
func (s *Service) Capture(ctx context.Context, clientID string, in CaptureInput) (core.Lead, error) {
	client, err := s.clients.GetClient(ctx, clientID)
	if err != nil {
		return core.Lead{}, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return core.Lead{}, fmt.Errorf("lead name is required: %w", core.ErrInvalidInput)
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = NormalizePhone(in.Phone)
	if in.Email == "" && in.Phone == "" {
		return core.Lead{}, fmt.Errorf("either email or phone is required: %w", core.ErrInvalidInput)
	}
	if in.Email != "" && !strings.Contains(in.Email, "@") {
		return core.Lead{}, fmt.Errorf("invalid email %q: %w", in.Email, core.ErrInvalidInput)
	}
	if in.Source == "" {
		in.Source = "form"
	}

	now := s.clock.Now()
	if dup, ok := s.recentDuplicate(ctx, clientID, in, now); ok {
		s.log.Debug("duplicate lead submission",
			zap.String("lead_id", dup.ID), zap.String("client_id", clientID))
		return dup, nil
	}

	id, err := s.ids.NewID()
	if err != nil {
		return core.Lead{}, fmt.Errorf("new id: %w", err)
	}
	lead := core.Lead{
		ID:        id,
		ClientID:  clientID,
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		Message:   in.Message,
		Source:    in.Source,
		Status:    core.LeadStatusNew,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.leads.CreateLead(ctx, lead); err != nil {
		return core.Lead{}, fmt.Errorf("create lead: %w", err)
	}
	metrics.LeadCaptured(lead.Source)
	s.log.Info("lead captured",
		zap.String("lead_id", lead.ID),
		zap.String("client_id", clientID),
		zap.String("source", lead.Source))

	s.publish(ctx, core.Event{
		Name:      core.EventLeadCreated,
		ClientID:  clientID,
		Timestamp: now,
		Data: map[string]any{
			"lead_id": lead.ID,
			"name":    lead.Name,
			"source":  lead.Source,
		},
	})

	if s.notifier != nil && client.LeadNotificationEnabled && client.LeadNotificationEmail != "" {
		if err := s.notifier.LeadCaptured(ctx, client, lead); err != nil {
			s.log.Warn("lead notification failed",
				zap.String("lead_id", lead.ID), zap.Error(err))
		}
	}
	return lead, nil
}

// Get returns one lead.
func (s *Service) Get(ctx context.Context, id string) (core.Lead, error) {
	return s.leads.GetLead(ctx, id)
}

// List returns a client's leads, optionally filtered by status, over
// the trailing number of days.
func (s *Service) List(ctx context.Context, clientID string, status core.LeadStatus, days int) ([]core.Lead, error) {
	if days <= 0 {
		days = 30
	}
	since := s.clock.Now().AddDate(0, 0, -days)
	return s.leads.ListLeads(ctx, clientID, status, since)
}

// UpdateStatus moves a lead through the funnel and emits the matching
// event. Converting an already-converted lead is a no-op event-wise.
func (s *Service) UpdateStatus(ctx context.Context, id string, status core.LeadStatus) (core.Lead, error) {
	if !validStatus(status) {
		return core.Lead{}, fmt.Errorf("invalid lead status %q: %w", status, core.ErrInvalidInput)
	}
	lead, err := s.leads.GetLead(ctx, id)
	if err != nil {
		return core.Lead{}, err
	}
	previous := lead.Status
	lead.Status = status
	lead.UpdatedAt = s.clock.Now()
	if err := s.leads.UpdateLead(ctx, lead); err != nil {
		return core.Lead{}, fmt.Errorf("update lead: %w", err)
	}

	event := core.EventLeadUpdated
	if status == core.LeadStatusConverted && previous != core.LeadStatusConverted {
		event = core.EventLeadConverted
	}
	s.publish(ctx, core.Event{
		Name:      event,
		ClientID:  lead.ClientID,
		Timestamp: lead.UpdatedAt,
		Data: map[string]any{
			"lead_id":         lead.ID,
			"previous_status": string(previous),
			"status":          string(status),
		},
	})
	return lead, nil
}

// SetValue records the estimated deal value of a lead.
func (s *Service) SetValue(ctx context.Context, id string, value float64) (core.Lead, error) {
	if value < 0 {
		return core.Lead{}, fmt.Errorf("estimated value must not be negative: %w", core.ErrInvalidInput)
	}
	lead, err := s.leads.GetLead(ctx, id)
	if err != nil {
		return core.Lead{}, err
	}
	lead.EstimatedValue = value
	lead.UpdatedAt = s.clock.Now()
	if err := s.leads.UpdateLead(ctx, lead); err != nil {
		return core.Lead{}, fmt.Errorf("update lead: %w", err)
	}
	return lead, nil
}

// Stats aggregates a client's leads over the trailing period.
func (s *Service) Stats(ctx context.Context, clientID string, days int) (Stats, error) {
	if days <= 0 {
		days = 30
	}
	since := s.clock.Now().AddDate(0, 0, -days)
	all, err := s.leads.ListLeads(ctx, clientID, "", since)
	if err != nil {
		return Stats{}, fmt.Errorf("list leads: %w", err)
	}

	stats := Stats{
		PeriodDays: days,
		Total:      len(all),
		ByStatus:   map[core.LeadStatus]int{},
		BySource:   map[string]int{},
	}
	for _, lead := range all {
		stats.ByStatus[lead.Status]++
		stats.BySource[lead.Source]++
		stats.TotalEstimatedValue += lead.EstimatedValue
	}
	if stats.Total > 0 {
		stats.ConversionRate = round1(float64(stats.ByStatus[core.LeadStatusConverted]) / float64(stats.Total) * 100)
		stats.AvgLeadValue = round2(stats.TotalEstimatedValue / float64(stats.Total))
	}
	return stats, nil
}

// Trend returns daily lead counts with gaps filled so charts render
// a continuous series.
func (s *Service) Trend(ctx context.Context, clientID string, days int) ([]DailyCount, error) {
	if days <= 0 {
		days = 30
	}
	now := s.clock.Now()
	since := now.AddDate(0, 0, -days)
	all, err := s.leads.ListLeads(ctx, clientID, "", since)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}

	daily := map[string]*DailyCount{}
	for _, lead := range all {
		key := lead.CreatedAt.UTC().Format("2006-01-02")
		day, ok := daily[key]
		if !ok {
			day = &DailyCount{Date: key}
			daily[key] = day
		}
		day.Count++
		if lead.Status == core.LeadStatusConverted {
			day.Converted++
		}
	}

	var out []DailyCount
	for d := since; !d.After(now); d = d.AddDate(0, 0, 1) {
		key := d.UTC().Format("2006-01-02")
		if day, ok := daily[key]; ok {
			out = append(out, *day)
		} else {
			out = append(out, DailyCount{Date: key})
		}
	}
	return out, nil
}

func (s *Service) recentDuplicate(ctx context.Context, clientID string, in CaptureInput, now time.Time) (core.Lead, bool) {
	recent, err := s.leads.ListLeads(ctx, clientID, "", now.Add(-dedupeWindow))
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			s.log.Warn("duplicate check failed", zap.Error(err))
		}
		return core.Lead{}, false
	}
	for _, lead := range recent {
		if lead.Source != in.Source {
			continue
		}
		if in.Email != "" && strings.EqualFold(lead.Email, in.Email) {
			return lead, true
		}
		if in.Phone != "" && lead.Phone == in.Phone {
			return lead, true
		}
	}
	return core.Lead{}, false
}

func (s *Service) publish(ctx context.Context, event core.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.Warn("publish event failed", zap.String("event", event.Name), zap.Error(err))
	}
}

// NormalizePhone formats ten-digit US numbers as (NNN) NNN-NNNN and
// leaves anything else alone.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	switch {
	case len(d) == 10:
		return fmt.Sprintf("(%s) %s-%s", d[:3], d[3:6], d[6:])
	case len(d) == 11 && d[0] == '1':
		return fmt.Sprintf("(%s) %s-%s", d[1:4], d[4:7], d[7:])
	}
	return phone
}

func validStatus(status core.LeadStatus) bool {
	switch status {
	case core.LeadStatusNew, core.LeadStatusContacted, core.LeadStatusQualified,
		core.LeadStatusConverted, core.LeadStatusLost:
		return true
	}
	return false
}

func round1(v float64) float64 { return float64(int(v*10+0.5)) / 10 }
func round2(v float64) float64 { return float64(int(v*100+0.5)) / 100 }
