// Package tools defines the capability-provider contract consumed by the
// research orchestrator and a registry of the built-in tools.
package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Munger/llm-interface/tools/list_aggregate"
	"github.com/Munger/llm-interface/tools/video_search"
	searchmodels "github.com/Munger/llm-interface/tools/web_search/models"
)

// ErrUnknownTool is returned when invoking a tool that is not registered.
var ErrUnknownTool = errors.New("unknown tool")

// Result is the closed set of shapes a tool invocation can produce.
// Empty distinguishes "ran and found nothing" from invocation failure,
// which is signalled by an error instead.
type Result interface {
	Empty() bool
}

// SearchResult holds web search hits.
type SearchResult struct {
	Query string                `json:"query"`
	Hits  []searchmodels.Result `json:"hits"`
}

func (r SearchResult) Empty() bool { return len(r.Hits) == 0 }

// PageResult holds extracted webpage content.
type PageResult struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (r PageResult) Empty() bool { return r.Content == "" }

// VideoResult holds video search hits.
type VideoResult struct {
	Query    string               `json:"query"`
	Platform string               `json:"platform"`
	Videos   []video_search.Video `json:"videos"`
}

func (r VideoResult) Empty() bool { return len(r.Videos) == 0 }

// ListResult holds an aggregated list rendered by the list tool itself.
type ListResult struct {
	Topic string                `json:"topic"`
	Text  string                `json:"text"`
	Stats list_aggregate.Stats  `json:"stats"`
	Items []list_aggregate.Item `json:"items"`
}

func (r ListResult) Empty() bool { return r.Text == "" }

// Tool is one registered capability.
type Tool interface {
	Name() string
	Description() string
	Invoke(ctx context.Context, args map[string]interface{}) (Result, error)
}

// Descriptor is the name/description pair shown to the reasoning model.
type Descriptor struct {
	Name        string
	Description string
}

// Registry holds the available tools. Registration happens at startup;
// lookups are concurrent-safe.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name()]; !exists {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
}

func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Invoke runs a registered tool by name.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]interface{}) (Result, error) {
	t, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return t.Invoke(ctx, args)
}

// List returns descriptors in registration order.
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		out = append(out, Descriptor{Name: t.Name(), Description: t.Description()})
	}
	return out
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
