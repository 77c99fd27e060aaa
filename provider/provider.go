package provider

import (
	"context"
	"errors"

	"github.com/Munger/llm-interface/config"
	ollama_provider "github.com/Munger/llm-interface/provider/ollama"
	openai_provider "github.com/Munger/llm-interface/provider/openai"
)

// Message is one turn in a conversation sent to the language model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider is the interface all LLM implementations must satisfy.
// Complete is a pure function from message history to text; callers
// bound it with the context deadline.
type Provider interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// completeFunc adapts the concrete clients, which accept role/content
// pairs, to the Provider interface.
type completeFunc func(ctx context.Context, messages [][2]string) (string, error)

type client struct{ complete completeFunc }

func (c client) Complete(ctx context.Context, messages []Message) (string, error) {
	pairs := make([][2]string, len(messages))
	for i, m := range messages {
		pairs[i] = [2]string{m.Role, m.Content}
	}
	return c.complete(ctx, pairs)
}

// NewProvider creates an LLM client from configuration.
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	switch cfg.Provider {
	case "ollama":
		c := ollama_provider.NewClient(cfg.Host, cfg.Model, cfg.Temperature, cfg.Timeout)
		return client{complete: c.Chat}, nil
	case "openai":
		c := openai_provider.NewClient(cfg.APIKey, cfg.Model, cfg.Temperature, cfg.MaxTokens, cfg.Timeout)
		return client{complete: c.Chat}, nil
	default:
		return nil, errors.New("unsupported LLM provider")
	}
}
