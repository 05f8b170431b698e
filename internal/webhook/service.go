// Package webhook manages outbound webhook endpoints and delivers
// signed event payloads to them.
package webhook

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/ackwest/seoengine/internal/core"
)

// ServiceConfig carries the endpoint defaults applied at creation.
type ServiceConfig struct {
	TimeoutSeconds int
	MaxRetries     int
}

func (c ServiceConfig) withDefaults() ServiceConfig {
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 10
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	return c
}

// Service owns endpoint CRUD and fans events out to the delivery
// queue. Matching follows the original scoping rule: a client event
// reaches that client's endpoints plus global ones.
type Service struct {
	cfg    ServiceConfig
	store  core.WebhookStore
	queue  core.Queue[Delivery]
	sender Sender
	clock  core.Clock
	ids    core.IDGenerator
	log    *zap.Logger
}

// Delivery is one queued webhook send.
type Delivery struct {
	WebhookID string
	Event     core.Event
}

// Sender posts one delivery inline and reports the outcome. The
// Deliverer satisfies it.
type Sender interface {
	Deliver(ctx context.Context, item Delivery) (core.WebhookDelivery, error)
}

// NewService wires a webhook service.
func NewService(cfg ServiceConfig, store core.WebhookStore, queue core.Queue[Delivery], sender Sender, clock core.Clock, ids core.IDGenerator, log *zap.Logger) *Service {
	return &Service{
		cfg:    cfg.withDefaults(),
		store:  store,
		queue:  queue,
		sender: sender,
		clock:  clock,
		ids:    ids,
		log:    log.Named("webhook"),
	}
}

// Create validates and registers an endpoint. A signing secret is
// generated when the caller does not bring one.
func (s *Service) Create(ctx context.Context, hook core.Webhook) (core.Webhook, error) {
	if err := validate(hook); err != nil {
		return core.Webhook{}, err
	}
	id, err := s.ids.NewID()
	if err != nil {
		return core.Webhook{}, fmt.Errorf("new id: %w", err)
	}
	hook.ID = id
	if hook.Secret == "" {
		secret, err := newSecret()
		if err != nil {
			return core.Webhook{}, err
		}
		hook.Secret = secret
	}
	if hook.TimeoutSeconds <= 0 {
		hook.TimeoutSeconds = s.cfg.TimeoutSeconds
	}
	if hook.MaxRetries <= 0 {
		hook.MaxRetries = s.cfg.MaxRetries
	}
	hook.IsActive = true
	now := s.clock.Now()
	hook.CreatedAt = now
	hook.UpdatedAt = now

	if err := s.store.CreateWebhook(ctx, hook); err != nil {
		return core.Webhook{}, fmt.Errorf("create webhook: %w", err)
	}
	s.log.Info("webhook registered",
		zap.String("webhook_id", hook.ID),
		zap.String("url", hook.URL),
		zap.Strings("events", hook.Events))
	return hook, nil
}

// Get returns one endpoint.
func (s *Service) Get(ctx context.Context, id string) (core.Webhook, error) {
	return s.store.GetWebhook(ctx, id)
}

// List returns endpoints visible to a client (its own plus global).
func (s *Service) List(ctx context.Context, clientID string) ([]core.Webhook, error) {
	return s.store.ListWebhooks(ctx, clientID)
}

// Update replaces an endpoint's mutable fields.
func (s *Service) Update(ctx context.Context, hook core.Webhook) (core.Webhook, error) {
	existing, err := s.store.GetWebhook(ctx, hook.ID)
	if err != nil {
		return core.Webhook{}, err
	}
	if err := validate(hook); err != nil {
		return core.Webhook{}, err
	}
	existing.Name = hook.Name
	existing.URL = hook.URL
	existing.Events = hook.Events
	existing.IsActive = hook.IsActive
	if hook.TimeoutSeconds > 0 {
		existing.TimeoutSeconds = hook.TimeoutSeconds
	}
	if hook.MaxRetries > 0 {
		existing.MaxRetries = hook.MaxRetries
	}
	existing.UpdatedAt = s.clock.Now()
	if err := s.store.UpdateWebhook(ctx, existing); err != nil {
		return core.Webhook{}, fmt.Errorf("update webhook: %w", err)
	}
	return existing, nil
}

// Delete removes an endpoint.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.DeleteWebhook(ctx, id)
}

// Trigger queues the event for every matching active endpoint and
// returns how many were queued.
func (s *Service) Trigger(ctx context.Context, event core.Event) (int, error) {
	hooks, err := s.store.ListWebhooks(ctx, event.ClientID)
	if err != nil {
		return 0, fmt.Errorf("list webhooks: %w", err)
	}
	queued := 0
	for _, hook := range hooks {
		if !hook.IsActive || !subscribed(hook, event.Name) {
			continue
		}
		err := s.queue.Enqueue(ctx, Delivery{WebhookID: hook.ID, Event: event})
		if err != nil {
			s.log.Warn("enqueue delivery failed",
				zap.String("webhook_id", hook.ID), zap.Error(err))
			continue
		}
		queued++
	}
	return queued, nil
}

// Publish lets the Service stand in as the core.EventPublisher so
// every domain event flows through webhook matching.
func (s *Service) Publish(ctx context.Context, event core.Event) error {
	_, err := s.Trigger(ctx, event)
	return err
}

// Test sends a synthetic test event at one endpoint inline, skipping
// the queue and the subscription filter, and returns the delivery
// outcome so the caller sees whether the endpoint actually accepted it.
func (s *Service) Test(ctx context.Context, id string) (core.WebhookDelivery, error) {
	hook, err := s.store.GetWebhook(ctx, id)
	if err != nil {
		return core.WebhookDelivery{}, err
	}
	return s.sender.Deliver(ctx, Delivery{
		WebhookID: hook.ID,
		Event: core.Event{
			Name:      "test",
			ClientID:  hook.ClientID,
			Timestamp: s.clock.Now(),
			Data: map[string]any{
				"message":      "This is a test webhook from SEOEngine",
				"webhook_id":   hook.ID,
				"webhook_name": hook.Name,
			},
		},
	})
}

// Stats summarizes an endpoint's delivery history.
type Stats struct {
	Webhook    core.Webhook           `json:"webhook"`
	Deliveries []core.WebhookDelivery `json:"recent_deliveries"`
}

// GetStats returns counters plus the most recent deliveries.
func (s *Service) GetStats(ctx context.Context, id string, limit int) (Stats, error) {
	hook, err := s.store.GetWebhook(ctx, id)
	if err != nil {
		return Stats{}, err
	}
	deliveries, err := s.store.ListDeliveries(ctx, id, limit)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Webhook: hook, Deliveries: deliveries}, nil
}

func validate(hook core.Webhook) error {
	u, err := url.Parse(hook.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("webhook url %q: %w", hook.URL, core.ErrInvalidInput)
	}
	if len(hook.Events) == 0 {
		return fmt.Errorf("webhook must subscribe to at least one event: %w", core.ErrInvalidInput)
	}
	for _, name := range hook.Events {
		if name == "*" {
			continue
		}
		if !core.ValidEvent(name) {
			return fmt.Errorf("unknown event %q: %w", name, core.ErrInvalidInput)
		}
	}
	return nil
}

func subscribed(hook core.Webhook, event string) bool {
	for _, name := range hook.Events {
		if name == event || name == "*" {
			return true
		}
	}
	return false
}

func newSecret() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return "whsec_" + hex.EncodeToString(raw), nil
}
