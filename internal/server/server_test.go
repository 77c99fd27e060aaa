package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Munger/llm-interface/config"
	"github.com/Munger/llm-interface/internal/chat"
	"github.com/Munger/llm-interface/internal/prompts"
	"github.com/Munger/llm-interface/internal/research"
	"github.com/Munger/llm-interface/provider"
	"github.com/Munger/llm-interface/session"
	"github.com/Munger/llm-interface/session/index"
	"github.com/Munger/llm-interface/session/inmemory"
	"github.com/Munger/llm-interface/tools"
	searchmodels "github.com/Munger/llm-interface/tools/web_search/models"
)

type scriptedLLM struct{}

func (scriptedLLM) Complete(_ context.Context, messages []provider.Message) (string, error) {
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
		return "chat reply", nil
	}
}

type stubSearch struct{}

func (stubSearch) Name() string        { return tools.WebSearchTool }
func (stubSearch) Description() string { return "stub search" }
func (stubSearch) Invoke(_ context.Context, _ map[string]interface{}) (tools.Result, error) {
	return tools.SearchResult{Hits: []searchmodels.Result{
		{Title: "Paris", URL: "https://en.wikipedia.org/wiki/Paris"},
	}}, nil
}

func testHandler() *Handler {
	cfg := config.ResearchConfig{
		MaxIterations: 2,
		MaxConcurrent: 1,
		MaxSources:    15,
		ToolTimeout:   time.Second,
		TriggerPrefix: "/research ",
		MaxHistory:    20,
	}
	reg := tools.NewRegistry()
	reg.Register(stubSearch{})
	templates := prompts.NewRegistry()
	logger := log.New(io.Discard, "", 0)
	orch := research.NewOrchestrator(cfg, logger, scriptedLLM{}, reg, templates, nil)
	tracker := session.NewTracker(inmemory.NewStore(0))
	svc := chat.NewService(cfg, logger, scriptedLLM{}, orch, templates, tracker, index.NewManager(), nil)
	return &Handler{Chat: svc}
}

func newEcho() *echo.Echo {
	e := echo.New()
	testHandler().Register(e.Group("/api"))
	return e
}

func TestPostChat(t *testing.T) {
	e := newEcho()

	body, _ := json.Marshal(map[string]string{"message": "hello"})
	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var resp chatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Response != "chat reply" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.SessionID == "" {
		t.Fatalf("missing generated session id")
	}
}

func TestPostChatRequiresMessage(t *testing.T) {
	e := newEcho()

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPostResearchAndSources(t *testing.T) {
	e := newEcho()

	body, _ := json.Marshal(map[string]string{"session_id": "s1", "query": "capital of France"})
	req := httptest.NewRequest(http.MethodPost, "/api/research", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Paris is the capital of France.") {
		t.Fatalf("missing research answer: %s", rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/sessions/s1/sources", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("sources status %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "https://en.wikipedia.org/wiki/Paris") {
		t.Fatalf("missing recorded source: %s", rec.Body.String())
	}
}

func TestAuthMiddleware(t *testing.T) {
	secret := []byte("test-secret")

	e := echo.New()
	g := e.Group("/api")
	g.Use(AuthMiddleware(secret))
	g.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token should be 401, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("invalid token should be 401, got %d", rec.Code)
	}

	tok, err := SignToken("user-1", secret, time.Hour)
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid token should pass, got %d: %s", rec.Code, rec.Body.String())
	}
}
