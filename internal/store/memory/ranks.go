package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ackwest/seoengine/internal/core"
)

// RankStore keeps keyword position history in memory.
type RankStore struct {
	mu    sync.RWMutex
	snaps map[string][]core.RankSnapshot // clientID -> snapshots, append order
}

// NewRankStore constructs a RankStore.
func NewRankStore() *RankStore {
	return &RankStore{snaps: make(map[string][]core.RankSnapshot)}
}

// SaveSnapshot appends one keyword position observation.
func (s *RankStore) SaveSnapshot(_ context.Context, snap core.RankSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps[snap.ClientID] = append(s.snaps[snap.ClientID], snap)
	return nil
}

// LatestSnapshot returns the most recent observation for a keyword.
func (s *RankStore) LatestSnapshot(_ context.Context, clientID, keyword string) (core.RankSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *core.RankSnapshot
	for i := range s.snaps[clientID] {
		snap := s.snaps[clientID][i]
		if snap.Keyword != keyword {
			continue
		}
		if latest == nil || snap.CheckedAt.After(latest.CheckedAt) {
			latest = &snap
		}
	}
	if latest == nil {
		return core.RankSnapshot{}, fmt.Errorf("snapshot for %q: %w", keyword, core.ErrNotFound)
	}
	return *latest, nil
}

// History returns a keyword's snapshots since a cutoff, oldest first.
func (s *RankStore) History(_ context.Context, clientID, keyword string, since time.Time) ([]core.RankSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.RankSnapshot
	for _, snap := range s.snaps[clientID] {
		if snap.Keyword != keyword {
			continue
		}
		if !since.IsZero() && snap.CheckedAt.Before(since) {
			continue
		}
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckedAt.Before(out[j].CheckedAt) })
	return out, nil
}

// LatestForClient returns the latest snapshot per keyword for a client.
func (s *RankStore) LatestForClient(_ context.Context, clientID string) ([]core.RankSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	latest := make(map[string]core.RankSnapshot)
	for _, snap := range s.snaps[clientID] {
		cur, ok := latest[snap.Keyword]
		if !ok || snap.CheckedAt.After(cur.CheckedAt) {
			latest[snap.Keyword] = snap
		}
	}
	out := make([]core.RankSnapshot, 0, len(latest))
	for _, snap := range latest {
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Keyword < out[j].Keyword })
	return out, nil
}
