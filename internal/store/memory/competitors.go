package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ackwest/seoengine/internal/core"
)

// CompetitorStore keeps monitored competitors and their pages in maps.
type CompetitorStore struct {
	mu          sync.RWMutex
	competitors map[string]core.Competitor
	pages       map[string]map[string]core.CompetitorPage // competitorID -> url -> page
}

// NewCompetitorStore constructs a CompetitorStore.
func NewCompetitorStore() *CompetitorStore {
	return &CompetitorStore{
		competitors: make(map[string]core.Competitor),
		pages:       make(map[string]map[string]core.CompetitorPage),
	}
}

// CreateCompetitor stores a new competitor.
func (s *CompetitorStore) CreateCompetitor(_ context.Context, competitor core.Competitor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.competitors[competitor.ID]; exists {
		return fmt.Errorf("competitor %s: %w", competitor.ID, core.ErrAlreadyExists)
	}
	s.competitors[competitor.ID] = competitor
	return nil
}

// GetCompetitor fetches a competitor by ID.
func (s *CompetitorStore) GetCompetitor(_ context.Context, id string) (core.Competitor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	competitor, ok := s.competitors[id]
	if !ok {
		return core.Competitor{}, fmt.Errorf("competitor %s: %w", id, core.ErrNotFound)
	}
	return competitor, nil
}

// ListCompetitors returns a client's competitors.
func (s *CompetitorStore) ListCompetitors(_ context.Context, clientID string) ([]core.Competitor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Competitor
	for _, c := range s.competitors {
		if c.ClientID == clientID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ListAllActiveCompetitors returns every active competitor across tenants,
// used by the nightly crawl job.
func (s *CompetitorStore) ListAllActiveCompetitors(_ context.Context) ([]core.Competitor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Competitor
	for _, c := range s.competitors {
		if c.IsActive {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// UpdateCompetitor replaces an existing competitor.
func (s *CompetitorStore) UpdateCompetitor(_ context.Context, competitor core.Competitor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.competitors[competitor.ID]; !ok {
		return fmt.Errorf("competitor %s: %w", competitor.ID, core.ErrNotFound)
	}
	s.competitors[competitor.ID] = competitor
	return nil
}

// UpsertPage inserts or replaces a page keyed by competitor and URL.
func (s *CompetitorStore) UpsertPage(_ context.Context, page core.CompetitorPage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byURL, ok := s.pages[page.CompetitorID]
	if !ok {
		byURL = make(map[string]core.CompetitorPage)
		s.pages[page.CompetitorID] = byURL
	}
	byURL[page.URL] = page
	return nil
}

// GetPageByURL fetches a tracked page by its URL.
func (s *CompetitorStore) GetPageByURL(_ context.Context, competitorID, url string) (core.CompetitorPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	page, ok := s.pages[competitorID][url]
	if !ok {
		return core.CompetitorPage{}, fmt.Errorf("page %s: %w", url, core.ErrNotFound)
	}
	return page, nil
}

// ListPages returns all tracked pages for a competitor.
func (s *CompetitorStore) ListPages(_ context.Context, competitorID string) ([]core.CompetitorPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.CompetitorPage
	for _, p := range s.pages[competitorID] {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out, nil
}
