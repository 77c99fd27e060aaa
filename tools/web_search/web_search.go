package web_search

import (
	"context"
	"errors"

	"github.com/Munger/llm-interface/tools/web_search/brave"
	"github.com/Munger/llm-interface/tools/web_search/models"
	"github.com/Munger/llm-interface/tools/web_search/serper"
)

// WebSearcher is the search capability consumed by the research tools.
// A nil error with an empty slice means the search ran and found nothing;
// an error means the search itself failed.
type WebSearcher interface {
	Search(ctx context.Context, q string, k int) ([]models.Result, error)
}

type Provider string

const (
	SerperProvider Provider = "serper"
	BraveProvider  Provider = "brave"
)

var ErrUnsupportedProvider = errors.New("unsupported search provider")

func NewWebSearcher(provider Provider, apiKey string) (WebSearcher, error) {
	switch provider {
	case SerperProvider:
		return serper.Search{ApiKey: apiKey}, nil
	case BraveProvider:
		return brave.Search{ApiKey: apiKey}, nil
	default:
		return nil, ErrUnsupportedProvider
	}
}
