package oauth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ackwest/seoengine/internal/core"
)

// ErrBadState is returned for unknown, reused, or expired state tokens.
var ErrBadState = errors.New("oauth: invalid or expired state")

const stateTTL = 10 * time.Minute

// State binds one authorization round trip to a client and platform.
type State struct {
	Token     string
	ClientID  string
	Platform  core.Platform
	ExpiresAt time.Time
}

// StateStore issues single-use CSRF state tokens for the OAuth flow.
// In-memory is fine here: a round trip lives well under the TTL and
// the flow restarts harmlessly if the process does.
type StateStore struct {
	mu     sync.Mutex
	states map[string]State
	clock  core.Clock
}

// NewStateStore builds a StateStore.
func NewStateStore(clock core.Clock) *StateStore {
	return &StateStore{states: make(map[string]State), clock: clock}
}

// Generate mints a state token for one client/platform pair.
func (s *StateStore) Generate(clientID string, platform core.Platform) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	s.states[token] = State{
		Token:     token,
		ClientID:  clientID,
		Platform:  platform,
		ExpiresAt: s.clock.Now().Add(stateTTL),
	}
	return token, nil
}

// Consume validates a state token and removes it so it cannot be
// replayed.
func (s *StateStore) Consume(token string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[token]
	if !ok {
		return State{}, ErrBadState
	}
	delete(s.states, token)
	if s.clock.Now().After(st.ExpiresAt) {
		return State{}, ErrBadState
	}
	return st, nil
}

func (s *StateStore) sweepLocked() {
	now := s.clock.Now()
	for token, st := range s.states {
		if now.After(st.ExpiresAt) {
			delete(s.states, token)
		}
	}
}
