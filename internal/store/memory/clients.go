// Package memory provides in-memory store implementations for
// development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ackwest/seoengine/internal/core"
)

// ClientStore keeps tenant profiles in a map.
type ClientStore struct {
	mu      sync.RWMutex
	clients map[string]core.Client
}

// NewClientStore constructs a ClientStore.
func NewClientStore() *ClientStore {
	return &ClientStore{clients: make(map[string]core.Client)}
}

// CreateClient stores a new client profile.
func (s *ClientStore) CreateClient(_ context.Context, client core.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.clients[client.ID]; exists {
		return fmt.Errorf("client %s: %w", client.ID, core.ErrAlreadyExists)
	}
	s.clients[client.ID] = client
	return nil
}

// GetClient fetches a client by ID.
func (s *ClientStore) GetClient(_ context.Context, id string) (core.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	client, ok := s.clients[id]
	if !ok {
		return core.Client{}, fmt.Errorf("client %s: %w", id, core.ErrNotFound)
	}
	return client, nil
}

// ListClients returns clients ordered by creation time.
func (s *ClientStore) ListClients(_ context.Context, activeOnly bool) ([]core.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Client, 0, len(s.clients))
	for _, c := range s.clients {
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// UpdateClient replaces an existing client profile.
func (s *ClientStore) UpdateClient(_ context.Context, client core.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[client.ID]; !ok {
		return fmt.Errorf("client %s: %w", client.ID, core.ErrNotFound)
	}
	s.clients[client.ID] = client
	return nil
}

// DeleteClient removes a client profile.
func (s *ClientStore) DeleteClient(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[id]; !ok {
		return fmt.Errorf("client %s: %w", id, core.ErrNotFound)
	}
	delete(s.clients, id)
	return nil
}
