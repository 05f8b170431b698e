package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ackwest/seoengine/internal/core"
)

// WebhookStore keeps outbound webhook endpoints and delivery logs.
type WebhookStore struct {
	mu         sync.RWMutex
	hooks      map[string]core.Webhook
	deliveries map[string][]core.WebhookDelivery
}

// NewWebhookStore constructs a WebhookStore.
func NewWebhookStore() *WebhookStore {
	return &WebhookStore{
		hooks:      make(map[string]core.Webhook),
		deliveries: make(map[string][]core.WebhookDelivery),
	}
}

// CreateWebhook stores a new endpoint.
func (s *WebhookStore) CreateWebhook(_ context.Context, hook core.Webhook) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.hooks[hook.ID]; exists {
		return fmt.Errorf("webhook %s: %w", hook.ID, core.ErrAlreadyExists)
	}
	s.hooks[hook.ID] = hook
	return nil
}

// GetWebhook fetches an endpoint by ID.
func (s *WebhookStore) GetWebhook(_ context.Context, id string) (core.Webhook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hook, ok := s.hooks[id]
	if !ok {
		return core.Webhook{}, fmt.Errorf("webhook %s: %w", id, core.ErrNotFound)
	}
	return hook, nil
}

// ListWebhooks returns endpoints for a client plus global ones.
// An empty clientID returns only global endpoints.
func (s *WebhookStore) ListWebhooks(_ context.Context, clientID string) ([]core.Webhook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Webhook
	for _, h := range s.hooks {
		if h.ClientID == "" || h.ClientID == clientID {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// UpdateWebhook replaces an existing endpoint.
func (s *WebhookStore) UpdateWebhook(_ context.Context, hook core.Webhook) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hooks[hook.ID]; !ok {
		return fmt.Errorf("webhook %s: %w", hook.ID, core.ErrNotFound)
	}
	s.hooks[hook.ID] = hook
	return nil
}

// DeleteWebhook removes an endpoint.
func (s *WebhookStore) DeleteWebhook(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hooks[id]; !ok {
		return fmt.Errorf("webhook %s: %w", id, core.ErrNotFound)
	}
	delete(s.hooks, id)
	delete(s.deliveries, id)
	return nil
}

// RecordOutcome folds one delivery outcome into the endpoint's
// counters under the store lock.
func (s *WebhookStore) RecordOutcome(_ context.Context, id string, success bool, errMsg string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	hook, ok := s.hooks[id]
	if !ok {
		return fmt.Errorf("webhook %s: %w", id, core.ErrNotFound)
	}
	hook.LastFiredAt = &at
	if success {
		hook.TotalSent++
		hook.LastStatus = "success"
		hook.LastError = ""
	} else {
		hook.TotalFailed++
		hook.LastStatus = "failed"
		hook.LastError = errMsg
	}
	s.hooks[id] = hook
	return nil
}

// RecordDelivery appends a delivery log row.
func (s *WebhookStore) RecordDelivery(_ context.Context, delivery core.WebhookDelivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deliveries[delivery.WebhookID] = append(s.deliveries[delivery.WebhookID], delivery)
	return nil
}

// ListDeliveries returns the most recent delivery rows, newest first.
func (s *WebhookStore) ListDeliveries(_ context.Context, webhookID string, limit int) ([]core.WebhookDelivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.deliveries[webhookID]
	out := make([]core.WebhookDelivery, len(rows))
	copy(out, rows)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
