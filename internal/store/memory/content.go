package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ackwest/seoengine/internal/core"
)

// ContentStore keeps blog and social content in maps.
type ContentStore struct {
	mu     sync.RWMutex
	blogs  map[string]core.BlogPost
	social map[string]core.SocialPost
}

// NewContentStore constructs a ContentStore.
func NewContentStore() *ContentStore {
	return &ContentStore{
		blogs:  make(map[string]core.BlogPost),
		social: make(map[string]core.SocialPost),
	}
}

// CreateBlogPost stores a new blog post.
func (s *ContentStore) CreateBlogPost(_ context.Context, post core.BlogPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.blogs[post.ID]; exists {
		return fmt.Errorf("blog post %s: %w", post.ID, core.ErrAlreadyExists)
	}
	s.blogs[post.ID] = post
	return nil
}

// GetBlogPost fetches a blog post by ID.
func (s *ContentStore) GetBlogPost(_ context.Context, id string) (core.BlogPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	post, ok := s.blogs[id]
	if !ok {
		return core.BlogPost{}, fmt.Errorf("blog post %s: %w", id, core.ErrNotFound)
	}
	return post, nil
}

// ListBlogPosts returns a client's posts, optionally filtered by status.
func (s *ContentStore) ListBlogPosts(_ context.Context, clientID string, status core.ContentStatus) ([]core.BlogPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.BlogPost
	for _, p := range s.blogs {
		if p.ClientID != clientID {
			continue
		}
		if status != "" && p.Status != status {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// UpdateBlogPost replaces an existing blog post.
func (s *ContentStore) UpdateBlogPost(_ context.Context, post core.BlogPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blogs[post.ID]; !ok {
		return fmt.Errorf("blog post %s: %w", post.ID, core.ErrNotFound)
	}
	s.blogs[post.ID] = post
	return nil
}

// ListDueBlogPosts returns approved posts whose scheduled time has passed.
func (s *ContentStore) ListDueBlogPosts(_ context.Context, now time.Time) ([]core.BlogPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.BlogPost
	for _, p := range s.blogs {
		if p.Status != core.ContentStatusApproved || p.ScheduledFor == nil {
			continue
		}
		if !p.ScheduledFor.After(now) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledFor.Before(*out[j].ScheduledFor) })
	return out, nil
}

// CreateSocialPost stores a new social post.
func (s *ContentStore) CreateSocialPost(_ context.Context, post core.SocialPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.social[post.ID]; exists {
		return fmt.Errorf("social post %s: %w", post.ID, core.ErrAlreadyExists)
	}
	s.social[post.ID] = post
	return nil
}

// GetSocialPost fetches a social post by ID.
func (s *ContentStore) GetSocialPost(_ context.Context, id string) (core.SocialPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	post, ok := s.social[id]
	if !ok {
		return core.SocialPost{}, fmt.Errorf("social post %s: %w", id, core.ErrNotFound)
	}
	return post, nil
}

// ListSocialPosts returns a client's social posts, newest first.
func (s *ContentStore) ListSocialPosts(_ context.Context, clientID string) ([]core.SocialPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.SocialPost
	for _, p := range s.social {
		if p.ClientID == clientID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// UpdateSocialPost replaces an existing social post.
func (s *ContentStore) UpdateSocialPost(_ context.Context, post core.SocialPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.social[post.ID]; !ok {
		return fmt.Errorf("social post %s: %w", post.ID, core.ErrNotFound)
	}
	s.social[post.ID] = post
	return nil
}
