// Package chat runs conversations against the language model and folds
// web research into them: a trigger prefix starts a research run, and
// later turns that refer back to past research get reminder context
// injected so the model answers from its findings.
package chat

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Munger/llm-interface/config"
	"github.com/Munger/llm-interface/internal/prompts"
	"github.com/Munger/llm-interface/internal/research"
	"github.com/Munger/llm-interface/internal/telemetry"
	"github.com/Munger/llm-interface/provider"
	"github.com/Munger/llm-interface/session"
	"github.com/Munger/llm-interface/session/index"
	"github.com/Munger/llm-interface/tools"
)

// Service handles chat messages for many sessions. Messages within one
// session are processed strictly in order; different sessions proceed
// concurrently.
type Service struct {
	cfg       config.ResearchConfig
	logger    *log.Logger
	llm       provider.Provider
	orch      *research.Orchestrator
	prompts   *prompts.Registry
	tracker   *session.Tracker
	indexes   *index.Manager
	telemetry *telemetry.Telemetry

	mu       sync.Mutex
	sessions map[string]*sessionState
}

type sessionState struct {
	mu      sync.Mutex
	history []provider.Message
}

func NewService(cfg config.ResearchConfig, logger *log.Logger, llm provider.Provider, orch *research.Orchestrator, reg *prompts.Registry, tracker *session.Tracker, indexes *index.Manager, tel *telemetry.Telemetry) *Service {
	if logger == nil {
		logger = log.New(log.Writer(), "[CHAT] ", log.LstdFlags)
	}
	return &Service{
		cfg:       cfg,
		logger:    logger,
		llm:       llm,
		orch:      orch,
		prompts:   reg,
		tracker:   tracker,
		indexes:   indexes,
		telemetry: tel,
		sessions:  make(map[string]*sessionState),
	}
}

// Handle processes one user message and returns the assistant response.
func (s *Service) Handle(ctx context.Context, sessionID, message string) (string, error) {
	state := s.session(sessionID)
	state.mu.Lock()
	defer state.mu.Unlock()

	if query, ok := strings.CutPrefix(message, s.cfg.TriggerPrefix); ok && strings.TrimSpace(query) != "" {
		return s.handleResearch(ctx, sessionID, state, strings.TrimSpace(query))
	}
	return s.handleChat(ctx, sessionID, state, message)
}

// Research runs a research query for the session directly, without the
// trigger prefix.
func (s *Service) Research(ctx context.Context, sessionID, query string) (string, error) {
	state := s.session(sessionID)
	state.mu.Lock()
	defer state.mu.Unlock()
	return s.handleResearch(ctx, sessionID, state, strings.TrimSpace(query))
}

// Sources returns the session's accumulated research sources.
func (s *Service) Sources(ctx context.Context, sessionID string) ([]research.Source, error) {
	rc, found, err := s.tracker.Context(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return rc.Sources, nil
}

// SearchIndexed queries the session's index of fetched page content.
func (s *Service) SearchIndexed(sessionID, q string, k int) ([]index.Hit, error) {
	idx, err := s.indexes.ForSession(sessionID)
	if err != nil {
		return nil, err
	}
	return idx.Search(q, k)
}

func (s *Service) session(id string) *sessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.sessions[id]
	if !ok {
		state = &sessionState{}
		s.sessions[id] = state
	}
	return state
}

func (s *Service) handleResearch(ctx context.Context, sessionID string, state *sessionState, query string) (string, error) {
	s.telemetry.RecordChatMessage("research")
	s.logger.Printf("session %s: researching %q", sessionID, query)

	result, err := s.orch.Research(ctx, query)
	if err != nil {
		return "", err
	}
	synthesized, err := s.orch.Synthesize(ctx, result)
	if err != nil {
		return "", err
	}
	response, err := research.Assemble(s.prompts, result, synthesized)
	if err != nil {
		return "", err
	}

	if _, err := s.tracker.RecordResearch(ctx, sessionID, query, result.Sources); err != nil {
		// The response is still good; only the follow-up context suffers.
		s.logger.Printf("session %s: recording research failed: %v", sessionID, err)
	}
	s.indexPages(sessionID, result)

	systemMsg, err := s.researchSystemMessage(result)
	if err != nil {
		return "", err
	}
	state.history = append(state.history,
		provider.Message{Role: "system", Content: systemMsg},
		provider.Message{Role: "user", Content: query},
		provider.Message{Role: "assistant", Content: response},
	)
	s.trim(state)
	return response, nil
}

func (s *Service) handleChat(ctx context.Context, sessionID string, state *sessionState, message string) (string, error) {
	s.telemetry.RecordChatMessage("plain")

	msgs := append([]provider.Message(nil), state.history...)
	if reminder := s.reminder(ctx, sessionID, message); reminder != "" {
		msgs = append(msgs, provider.Message{Role: "system", Content: reminder})
	}
	msgs = append(msgs, provider.Message{Role: "user", Content: message})

	reply, err := s.llm.Complete(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	reply = strings.TrimSpace(reply)

	state.history = append(state.history,
		provider.Message{Role: "user", Content: message},
		provider.Message{Role: "assistant", Content: reply},
	)
	s.trim(state)
	return reply, nil
}

// reminder builds a transient system message when the user refers back
// to earlier research. Source questions win over general references.
func (s *Service) reminder(ctx context.Context, sessionID, message string) string {
	rc, found, err := s.tracker.Context(ctx, sessionID)
	if err != nil {
		s.logger.Printf("session %s: loading research context failed: %v", sessionID, err)
		return ""
	}
	if !found || rc.LastQuery == "" {
		return ""
	}

	lower := strings.ToLower(message)
	if containsAny(lower, s.cfg.SourceKeywords) && len(rc.Sources) > 0 {
		text, err := s.prompts.Resolve(prompts.SourceListReminder, map[string]string{
			"query":    rc.LastQuery,
			"url_list": research.FormatSourceLines(rc.Sources),
		})
		if err == nil {
			return text
		}
	}
	if containsAny(lower, s.cfg.DetectionKeywords) {
		text, err := s.prompts.Resolve(prompts.ResearchReminder, map[string]string{
			"query":        rc.LastQuery,
			"time_ago":     ElapsedDescription(time.Since(rc.LastResearchAt)),
			"source_count": strconv.Itoa(len(rc.Sources)),
		})
		if err == nil {
			return text
		}
	}
	return ""
}

func (s *Service) researchSystemMessage(result research.ResearchResult) (string, error) {
	if !result.HasResults {
		return s.prompts.Resolve(prompts.ResearchSystemNoResults, map[string]string{
			"query": result.Query,
		})
	}
	return s.prompts.Resolve(prompts.ResearchSystem, map[string]string{
		"query":    result.Query,
		"findings": research.FormatFindings(result.Findings),
		"sources":  research.FormatSources(result.Sources),
	})
}

// indexPages adds fetched page content to the session's index so later
// turns can search it without another fetch.
func (s *Service) indexPages(sessionID string, result research.ResearchResult) {
	idx, err := s.indexes.ForSession(sessionID)
	if err != nil {
		s.logger.Printf("session %s: index unavailable: %v", sessionID, err)
		return
	}
	for _, f := range result.Findings {
		for _, inv := range f.Invocations {
			page, ok := inv.Result.(tools.PageResult)
			if !ok || page.Empty() {
				continue
			}
			if err := idx.Add(page.URL, index.Doc{URL: page.URL, Title: page.Title, Text: page.Content}); err != nil {
				s.logger.Printf("session %s: indexing %s failed: %v", sessionID, page.URL, err)
			}
		}
	}
}

// trim bounds the history, dropping the oldest non-system messages first.
func (s *Service) trim(state *sessionState) {
	max := s.cfg.MaxHistory
	if max <= 0 || len(state.history) <= max {
		return
	}

	var systems, rest []provider.Message
	for _, m := range state.history {
		if m.Role == "system" {
			systems = append(systems, m)
		} else {
			rest = append(rest, m)
		}
	}
	keep := max - len(systems)
	if keep < 0 {
		keep = 0
	}
	if len(rest) > keep {
		rest = rest[len(rest)-keep:]
	}
	state.history = append(systems, rest...)
}

// ElapsedDescription renders a duration the way a person would say it.
func ElapsedDescription(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		n := int(d.Minutes())
		if n == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", n)
	case d < 24*time.Hour:
		n := int(d.Hours())
		if n == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", n)
	default:
		n := int(d.Hours() / 24)
		if n == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", n)
	}
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(haystack, strings.ToLower(n)) {
			return true
		}
	}
	return false
}
