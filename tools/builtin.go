package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/Munger/llm-interface/config"
	"github.com/Munger/llm-interface/tools/list_aggregate"
	"github.com/Munger/llm-interface/tools/video_search"
	"github.com/Munger/llm-interface/tools/web_fetch"
	"github.com/Munger/llm-interface/tools/web_search"
	"github.com/Munger/llm-interface/utils"
)

// Built-in tool names.
const (
	WebSearchTool     = "web_search"
	FetchWebpageTool  = "fetch_webpage"
	SearchVideosTool  = "search_videos"
	AggregateListTool = "aggregate_list"
)

// NewDefaultRegistry builds a registry with the built-in capability set
// wired from configuration.
func NewDefaultRegistry(cfg config.ToolsConfig) (*Registry, error) {
	searcher, err := web_search.NewWebSearcher(web_search.Provider(cfg.SearchProvider), cfg.SearchAPIKey)
	if err != nil {
		return nil, fmt.Errorf("building web searcher: %w", err)
	}
	fetcher, err := web_fetch.NewWebFetcher(web_fetch.FetcherType(cfg.Fetcher), cfg.FetchTimeout, cfg.FetchMaxChars)
	if err != nil {
		return nil, fmt.Errorf("building web fetcher: %w", err)
	}

	reg := NewRegistry()
	reg.Register(&webSearch{searcher: searcher})
	reg.Register(&fetchWebpage{fetcher: fetcher})
	reg.Register(&searchVideos{
		searcher:        video_search.Searcher{Web: searcher},
		defaultPlatform: cfg.VideoPlatform,
	})
	reg.Register(&aggregateList{})
	return reg, nil
}

type webSearch struct {
	searcher web_search.WebSearcher
}

func (t *webSearch) Name() string { return WebSearchTool }
func (t *webSearch) Description() string {
	return "Search the web for information on a specific topic"
}

func (t *webSearch) Invoke(ctx context.Context, args map[string]interface{}) (Result, error) {
	query := utils.StrArg(args, "query")
	if query == "" {
		return nil, errors.New("web_search requires a non-empty query")
	}
	k := utils.IntArg(args, "max_results", 5)
	hits, err := t.searcher.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}
	return SearchResult{Query: query, Hits: hits}, nil
}

type fetchWebpage struct {
	fetcher web_fetch.WebFetcher
}

func (t *fetchWebpage) Name() string { return FetchWebpageTool }
func (t *fetchWebpage) Description() string {
	return "Fetch and extract content from a webpage"
}

func (t *fetchWebpage) Invoke(ctx context.Context, args map[string]interface{}) (Result, error) {
	url := utils.StrArg(args, "url")
	if url == "" {
		return nil, errors.New("fetch_webpage requires a url")
	}
	page, err := t.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return PageResult{URL: page.URL, Title: page.Title, Content: page.Text}, nil
}

type searchVideos struct {
	searcher        video_search.Searcher
	defaultPlatform string
}

func (t *searchVideos) Name() string { return SearchVideosTool }
func (t *searchVideos) Description() string {
	return "Search for videos on a specific topic across video platforms"
}

func (t *searchVideos) Invoke(ctx context.Context, args map[string]interface{}) (Result, error) {
	query := utils.StrArg(args, "query")
	if query == "" {
		return nil, errors.New("search_videos requires a non-empty query")
	}
	platform := utils.StrArg(args, "platform")
	if platform == "" {
		platform = t.defaultPlatform
	}
	k := utils.IntArg(args, "max_results", 10)
	videos, err := t.searcher.Search(ctx, query, platform, k)
	if err != nil {
		return nil, err
	}
	return VideoResult{Query: query, Platform: platform, Videos: videos}, nil
}

type aggregateList struct{}

func (t *aggregateList) Name() string { return AggregateListTool }
func (t *aggregateList) Description() string {
	return "Aggregate and deduplicate list items from multiple sources"
}

func (t *aggregateList) Invoke(_ context.Context, args map[string]interface{}) (Result, error) {
	raw, ok := args["items"]
	if !ok {
		return nil, errors.New("aggregate_list requires items")
	}
	items, err := coerceItems(raw)
	if err != nil {
		return nil, err
	}
	topic := utils.StrArg(args, "topic")
	target := utils.IntArg(args, "target_count", 100)
	agg := list_aggregate.Aggregate(items, target)
	return ListResult{Topic: topic, Text: agg.Text, Stats: agg.Stats, Items: agg.Items}, nil
}

func coerceItems(raw interface{}) ([]list_aggregate.Item, error) {
	switch v := raw.(type) {
	case []list_aggregate.Item:
		return v, nil
	case []interface{}:
		items := make([]list_aggregate.Item, 0, len(v))
		for _, el := range v {
			m, ok := el.(map[string]interface{})
			if !ok {
				continue
			}
			items = append(items, list_aggregate.Item{
				ID:          utils.StrArg(m, "id"),
				Title:       utils.StrArg(m, "title"),
				URL:         utils.StrArg(m, "url"),
				Description: utils.StrArg(m, "description"),
			})
		}
		return items, nil
	default:
		return nil, fmt.Errorf("aggregate_list items have unsupported type %T", raw)
	}
}
