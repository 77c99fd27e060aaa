// Package inmemory is the default single-process session store.
package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/Munger/llm-interface/internal/research"
	"github.com/Munger/llm-interface/session"
)

type entry struct {
	rc        session.ResearchContext
	expiresAt time.Time
}

// Store keeps research contexts in a map with lazy TTL expiry.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
}

// NewStore creates a store. A non-positive ttl disables expiry.
func NewStore(ttl time.Duration) *Store {
	return &Store{entries: make(map[string]entry), ttl: ttl}
}

func (s *Store) Load(_ context.Context, sessionID string) (session.ResearchContext, bool, error) {
	s.mu.RLock()
	e, ok := s.entries[sessionID]
	s.mu.RUnlock()
	if !ok {
		return session.ResearchContext{}, false, nil
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		s.mu.Lock()
		delete(s.entries, sessionID)
		s.mu.Unlock()
		return session.ResearchContext{}, false, nil
	}

	// Callers get a copy so they cannot mutate the stored sources.
	rc := e.rc
	rc.Sources = append([]research.Source(nil), e.rc.Sources...)
	return rc, true, nil
}

func (s *Store) Save(_ context.Context, rc session.ResearchContext) error {
	stored := rc
	stored.Sources = append(stored.Sources[:0:0], rc.Sources...)

	var expiresAt time.Time
	if s.ttl > 0 {
		expiresAt = time.Now().Add(s.ttl)
	}

	s.mu.Lock()
	s.entries[rc.SessionID] = entry{rc: stored, expiresAt: expiresAt}
	s.mu.Unlock()
	return nil
}

func (s *Store) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.entries, sessionID)
	s.mu.Unlock()
	return nil
}
