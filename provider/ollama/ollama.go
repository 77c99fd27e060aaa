package ollama_provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to a locally hosted Ollama server.
type Client struct {
	host        string
	model       string
	temperature float64
	httpClient  *http.Client
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string                 `json:"model"`
	Messages []message              `json:"messages"`
	Stream   bool                   `json:"stream"`
	Options  map[string]interface{} `json:"options,omitempty"`
}

type chatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Error string `json:"error,omitempty"`
}

// NewClient creates a new Ollama client.
func NewClient(host, model string, temperature float64, timeout time.Duration) *Client {
	return &Client{
		host:        strings.TrimRight(host, "/"),
		model:       model,
		temperature: temperature,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// Chat sends the full message history and returns the model's reply.
func (c *Client) Chat(ctx context.Context, messages [][2]string) (string, error) {
	msgs := make([]message, len(messages))
	for i, m := range messages {
		msgs[i] = message{Role: m[0], Content: m[1]}
	}

	reqBody := chatRequest{
		Model:    c.model,
		Messages: msgs,
		Stream:   false,
		Options:  map[string]interface{}{"temperature": c.temperature},
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/chat", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("ollama error: %s", out.Error)
	}
	return out.Message.Content, nil
}
