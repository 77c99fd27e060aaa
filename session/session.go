// Package session tracks per-session research context so later chat
// turns can refer back to what was researched and which sources backed
// the answer.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/Munger/llm-interface/internal/research"
)

// ResearchContext is the durable per-session record of past research.
// Source indices are stable for the lifetime of the session: once a URL
// has been assigned a number, later research runs never change it.
type ResearchContext struct {
	SessionID      string            `json:"session_id"`
	LastQuery      string            `json:"last_query"`
	LastResearchAt time.Time         `json:"last_research_at"`
	Sources        []research.Source `json:"sources"`
}

// Store persists research contexts. Load reports found=false for
// sessions with no recorded research.
type Store interface {
	Load(ctx context.Context, sessionID string) (ResearchContext, bool, error)
	Save(ctx context.Context, rc ResearchContext) error
	Delete(ctx context.Context, sessionID string) error
}

// Tracker layers the merge rules over a Store.
type Tracker struct {
	store Store
}

func NewTracker(store Store) *Tracker {
	return &Tracker{store: store}
}

// RecordResearch merges a finished research run into the session's
// context. Recording the same run twice is a no-op for the source list:
// URLs already present keep their numbers and are not re-added.
func (t *Tracker) RecordResearch(ctx context.Context, sessionID, query string, sources []research.Source) (ResearchContext, error) {
	rc, found, err := t.store.Load(ctx, sessionID)
	if err != nil {
		return ResearchContext{}, fmt.Errorf("loading session %s: %w", sessionID, err)
	}
	if !found {
		rc = ResearchContext{SessionID: sessionID}
	}

	rc.Sources, _ = research.Deduplicate(rc.Sources, sources)
	rc.LastQuery = query
	rc.LastResearchAt = time.Now()

	if err := t.store.Save(ctx, rc); err != nil {
		return ResearchContext{}, fmt.Errorf("saving session %s: %w", sessionID, err)
	}
	return rc, nil
}

// Context returns the session's research context, if any.
func (t *Tracker) Context(ctx context.Context, sessionID string) (ResearchContext, bool, error) {
	return t.store.Load(ctx, sessionID)
}

// Clear drops the session's research context.
func (t *Tracker) Clear(ctx context.Context, sessionID string) error {
	return t.store.Delete(ctx, sessionID)
}
