package chat

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/Munger/llm-interface/config"
	"github.com/Munger/llm-interface/internal/prompts"
	"github.com/Munger/llm-interface/internal/research"
	"github.com/Munger/llm-interface/provider"
	"github.com/Munger/llm-interface/session"
	"github.com/Munger/llm-interface/session/index"
	"github.com/Munger/llm-interface/session/inmemory"
	"github.com/Munger/llm-interface/tools"
	searchmodels "github.com/Munger/llm-interface/tools/web_search/models"
)

// fakeLLM serves the research loop with canned replies and records the
// message history it receives for plain chat turns.
type fakeLLM struct {
	lastChatMessages []provider.Message
}

func (f *fakeLLM) Complete(_ context.Context, messages []provider.Message) (string, error) {
	prompt := messages[len(messages)-1].Content
	switch {
	case strings.Contains(prompt, "what specific information do I need"):
		return "1. capital city of France", nil
	case strings.Contains(prompt, "Which tool should I use"):
		return "Tool: web_search\nParameters: {\"query\": \"capital of France\"}", nil
	case strings.Contains(prompt, "do I have enough"):
		return "Research complete: Yes", nil
	case strings.Contains(prompt, "provide a comprehensive"):
		return "Paris is the capital of France.", nil
	default:
		f.lastChatMessages = append([]provider.Message(nil), messages...)
		return "chat reply", nil
	}
}

type stubSearch struct{}

func (s *stubSearch) Name() string        { return tools.WebSearchTool }
func (s *stubSearch) Description() string { return "stub search" }
func (s *stubSearch) Invoke(_ context.Context, _ map[string]interface{}) (tools.Result, error) {
	return tools.SearchResult{Query: "capital of France", Hits: []searchmodels.Result{
		{Title: "Paris", URL: "https://en.wikipedia.org/wiki/Paris", Snippet: "Capital of France"},
	}}, nil
}

func testService(llm provider.Provider) *Service {
	cfg := config.ResearchConfig{
		MaxIterations:     2,
		MaxNeeds:          3,
		MaxSources:        15,
		MaxConcurrent:     2,
		ToolTimeout:       time.Second,
		TriggerPrefix:     "/research ",
		MaxHistory:        20,
		DetectionKeywords: []string{"research", "you found"},
		SourceKeywords:    []string{"source", "where did you find"},
	}
	reg := tools.NewRegistry()
	reg.Register(&stubSearch{})
	templates := prompts.NewRegistry()
	logger := log.New(io.Discard, "", 0)
	orch := research.NewOrchestrator(cfg, logger, llm, reg, templates, nil)
	tracker := session.NewTracker(inmemory.NewStore(0))
	return NewService(cfg, logger, llm, orch, templates, tracker, index.NewManager(), nil)
}

func TestTriggerPrefixStartsResearch(t *testing.T) {
	llm := &fakeLLM{}
	svc := testService(llm)

	reply, err := svc.Handle(context.Background(), "s1", "/research capital of France")
	if err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if !strings.Contains(reply, "Paris is the capital of France.") {
		t.Fatalf("missing synthesized answer: %s", reply)
	}
	if !strings.Contains(reply, "https://en.wikipedia.org/wiki/Paris") {
		t.Fatalf("missing source list: %s", reply)
	}

	sources, err := svc.Sources(context.Background(), "s1")
	if err != nil {
		t.Fatalf("sources failed: %v", err)
	}
	if len(sources) != 1 || sources[0].Index != 1 {
		t.Fatalf("research was not recorded: %+v", sources)
	}
}

func TestPlainMessageIsNotResearch(t *testing.T) {
	llm := &fakeLLM{}
	svc := testService(llm)

	reply, err := svc.Handle(context.Background(), "s1", "hello there")
	if err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if reply != "chat reply" {
		t.Fatalf("unexpected reply: %s", reply)
	}
	if sources, _ := svc.Sources(context.Background(), "s1"); len(sources) != 0 {
		t.Fatalf("plain chat recorded research: %+v", sources)
	}
}

func TestSourceReminderInjection(t *testing.T) {
	llm := &fakeLLM{}
	svc := testService(llm)
	ctx := context.Background()

	if _, err := svc.Handle(ctx, "s1", "/research capital of France"); err != nil {
		t.Fatalf("research failed: %v", err)
	}
	if _, err := svc.Handle(ctx, "s1", "Where did you find that?"); err != nil {
		t.Fatalf("follow-up failed: %v", err)
	}

	var reminder string
	for _, m := range llm.lastChatMessages {
		if m.Role == "system" && strings.Contains(m.Content, "asking about sources") {
			reminder = m.Content
		}
	}
	if reminder == "" {
		t.Fatalf("no source reminder injected: %+v", llm.lastChatMessages)
	}
	if !strings.Contains(reminder, "https://en.wikipedia.org/wiki/Paris") {
		t.Fatalf("reminder missing source URLs: %s", reminder)
	}
}

func TestResearchReminderInjection(t *testing.T) {
	llm := &fakeLLM{}
	svc := testService(llm)
	ctx := context.Background()

	if _, err := svc.Handle(ctx, "s1", "/research capital of France"); err != nil {
		t.Fatalf("research failed: %v", err)
	}
	if _, err := svc.Handle(ctx, "s1", "Summarize what you found in your research"); err != nil {
		t.Fatalf("follow-up failed: %v", err)
	}

	found := false
	for _, m := range llm.lastChatMessages {
		if m.Role == "system" && strings.Contains(m.Content, "just now") {
			found = true
		}
	}
	if !found {
		t.Fatalf("no research reminder injected: %+v", llm.lastChatMessages)
	}
}

func TestNoReminderWithoutResearch(t *testing.T) {
	llm := &fakeLLM{}
	svc := testService(llm)

	if _, err := svc.Handle(context.Background(), "s1", "tell me about your sources"); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	for _, m := range llm.lastChatMessages {
		if m.Role == "system" {
			t.Fatalf("reminder injected without prior research: %s", m.Content)
		}
	}
}

func TestHistoryTrimKeepsSystemMessages(t *testing.T) {
	svc := testService(&fakeLLM{})
	state := &sessionState{}
	state.history = []provider.Message{{Role: "system", Content: "keep me"}}
	for i := 0; i < 30; i++ {
		state.history = append(state.history,
			provider.Message{Role: "user", Content: "u"},
			provider.Message{Role: "assistant", Content: "a"},
		)
	}

	svc.trim(state)
	if len(state.history) != svc.cfg.MaxHistory {
		t.Fatalf("expected %d messages, got %d", svc.cfg.MaxHistory, len(state.history))
	}
	if state.history[0].Role != "system" || state.history[0].Content != "keep me" {
		t.Fatalf("system message was trimmed: %+v", state.history[0])
	}
}

func TestResearchCancellationPropagates(t *testing.T) {
	svc := testService(&fakeLLM{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Handle(ctx, "s1", "/research capital of France")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestElapsedDescription(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "just now"},
		{time.Minute, "1 minute ago"},
		{5 * time.Minute, "5 minutes ago"},
		{time.Hour, "1 hour ago"},
		{3 * time.Hour, "3 hours ago"},
		{30 * time.Hour, "1 day ago"},
		{72 * time.Hour, "3 days ago"},
	}
	for _, c := range cases {
		if got := ElapsedDescription(c.d); got != c.want {
			t.Fatalf("ElapsedDescription(%v) = %q, want %q", c.d, got, c.want)
		}
	}
}
