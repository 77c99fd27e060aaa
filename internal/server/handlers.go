package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Munger/llm-interface/internal/chat"
)

// Handler serves the chat and research API.
type Handler struct {
	Chat *chat.Service
}

func (h *Handler) Register(g *echo.Group) {
	g.POST("/chat", h.postChat)
	g.POST("/research", h.postResearch)
	g.GET("/sessions/:id/sources", h.getSources)
	g.GET("/sessions/:id/search", h.getSearch)
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	Response  string `json:"response"`
}

func (h *Handler) postChat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	reply, err := h.Chat.Handle(c.Request().Context(), req.SessionID, req.Message)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, chatResponse{SessionID: req.SessionID, Response: reply})
}

type researchRequest struct {
	SessionID string `json:"session_id"`
	Query     string `json:"query"`
}

func (h *Handler) postResearch(c echo.Context) error {
	var req researchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Query) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	reply, err := h.Chat.Research(c.Request().Context(), req.SessionID, req.Query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, chatResponse{SessionID: req.SessionID, Response: reply})
}

func (h *Handler) getSources(c echo.Context) error {
	sources, err := h.Chat.Sources(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"sources": sources})
}

func (h *Handler) getSearch(c echo.Context) error {
	q := c.QueryParam("q")
	if strings.TrimSpace(q) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}
	k := 5
	if raw := c.QueryParam("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "k must be a positive integer")
		}
		k = parsed
	}
	hits, err := h.Chat.SearchIndexed(c.Param("id"), q, k)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"hits": hits})
}
