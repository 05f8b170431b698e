package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ackwest/seoengine/internal/core"
)

// LeadStore keeps captured leads in a map.
type LeadStore struct {
	mu    sync.RWMutex
	leads map[string]core.Lead
}

// NewLeadStore constructs a LeadStore.
func NewLeadStore() *LeadStore {
	return &LeadStore{leads: make(map[string]core.Lead)}
}

// CreateLead stores a new lead.
func (s *LeadStore) CreateLead(_ context.Context, lead core.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.leads[lead.ID]; exists {
		return fmt.Errorf("lead %s: %w", lead.ID, core.ErrAlreadyExists)
	}
	s.leads[lead.ID] = lead
	return nil
}

// GetLead fetches a lead by ID.
func (s *LeadStore) GetLead(_ context.Context, id string) (core.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lead, ok := s.leads[id]
	if !ok {
		return core.Lead{}, fmt.Errorf("lead %s: %w", id, core.ErrNotFound)
	}
	return lead, nil
}

// ListLeads returns a client's leads filtered by status and age, newest first.
func (s *LeadStore) ListLeads(_ context.Context, clientID string, status core.LeadStatus, since time.Time) ([]core.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Lead
	for _, l := range s.leads {
		if l.ClientID != clientID {
			continue
		}
		if status != "" && l.Status != status {
			continue
		}
		if !since.IsZero() && l.CreatedAt.Before(since) {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// UpdateLead replaces an existing lead.
func (s *LeadStore) UpdateLead(_ context.Context, lead core.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.leads[lead.ID]; !ok {
		return fmt.Errorf("lead %s: %w", lead.ID, core.ErrNotFound)
	}
	s.leads[lead.ID] = lead
	return nil
}
