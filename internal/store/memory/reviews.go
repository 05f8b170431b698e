package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ackwest/seoengine/internal/core"
)

// ReviewStore keeps customer reviews in a map.
type ReviewStore struct {
	mu      sync.RWMutex
	reviews map[string]core.Review
}

// NewReviewStore constructs a ReviewStore.
func NewReviewStore() *ReviewStore {
	return &ReviewStore{reviews: make(map[string]core.Review)}
}

// CreateReview stores a new review.
func (s *ReviewStore) CreateReview(_ context.Context, review core.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.reviews[review.ID]; exists {
		return fmt.Errorf("review %s: %w", review.ID, core.ErrAlreadyExists)
	}
	s.reviews[review.ID] = review
	return nil
}

// GetReview fetches a review by ID.
func (s *ReviewStore) GetReview(_ context.Context, id string) (core.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	review, ok := s.reviews[id]
	if !ok {
		return core.Review{}, fmt.Errorf("review %s: %w", id, core.ErrNotFound)
	}
	return review, nil
}

// ListReviews returns a client's reviews since a cutoff, newest first.
func (s *ReviewStore) ListReviews(_ context.Context, clientID string, since time.Time) ([]core.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Review
	for _, r := range s.reviews {
		if r.ClientID != clientID {
			continue
		}
		if !since.IsZero() && r.ReviewedAt.Before(since) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReviewedAt.After(out[j].ReviewedAt) })
	return out, nil
}

// UpdateReview replaces an existing review.
func (s *ReviewStore) UpdateReview(_ context.Context, review core.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reviews[review.ID]; !ok {
		return fmt.Errorf("review %s: %w", review.ID, core.ErrNotFound)
	}
	s.reviews[review.ID] = review
	return nil
}
