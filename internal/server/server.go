// Package server exposes the chat and research pipeline over HTTP.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Munger/llm-interface/config"
	"github.com/Munger/llm-interface/internal/chat"
	"github.com/Munger/llm-interface/internal/prompts"
	"github.com/Munger/llm-interface/internal/research"
	"github.com/Munger/llm-interface/internal/telemetry"
	"github.com/Munger/llm-interface/provider"
	"github.com/Munger/llm-interface/session"
	"github.com/Munger/llm-interface/session/index"
	"github.com/Munger/llm-interface/session/inmemory"
	redisstore "github.com/Munger/llm-interface/session/redis"
	"github.com/Munger/llm-interface/tools"
)

// Run wires the full pipeline from config and serves until the listener
// fails.
func Run(cfg *config.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	svc, tel, err := buildService(cfg)
	if err != nil {
		return err
	}
	if cfg.Telemetry.Enabled {
		e.GET("/metrics", echo.WrapHandler(tel.Handler()))
	}

	api := e.Group("/api")
	if cfg.Server.JWTSecret != "" {
		api.Use(AuthMiddleware([]byte(cfg.Server.JWTSecret)))
	}
	(&Handler{Chat: svc}).Register(api)

	return e.Start(cfg.Server.Address)
}

// buildService performs the top-level dependency wiring.
func buildService(cfg *config.Config) (*chat.Service, *telemetry.Telemetry, error) {
	tel := telemetry.New()

	llm, err := provider.NewProvider(cfg.LLM)
	if err != nil {
		return nil, nil, err
	}
	registry, err := tools.NewDefaultRegistry(cfg.Tools)
	if err != nil {
		return nil, nil, err
	}

	templates := prompts.NewRegistry()
	if cfg.Research.PromptOverrides != "" {
		if err := templates.LoadOverrides(cfg.Research.PromptOverrides); err != nil {
			return nil, nil, err
		}
	}

	var store session.Store
	switch cfg.Session.Store {
	case "redis":
		client, err := redisstore.Conn(context.Background(), cfg.Session.Redis)
		if err != nil {
			return nil, nil, err
		}
		store = redisstore.NewStore(client, cfg.Session.TTL)
	default:
		store = inmemory.NewStore(cfg.Session.TTL)
	}

	orchLogger := log.New(log.Writer(), "[ORCH] ", log.LstdFlags)
	orch := research.NewOrchestrator(cfg.Research, orchLogger, llm, registry, templates, tel)

	chatLogger := log.New(log.Writer(), "[CHAT] ", log.LstdFlags)
	svc := chat.NewService(cfg.Research, chatLogger, llm, orch, templates, session.NewTracker(store), index.NewManager(), tel)
	return svc, tel, nil
}
