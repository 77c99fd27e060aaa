// Package research implements the ReAct research loop: decomposing a query
// into information needs, driving tool invocations, and assembling the
// findings and deduplicated sources into a research result.
package research

import (
	"time"

	"github.com/Munger/llm-interface/tools"
)

// InformationNeed is one atomic sub-question derived from a research query.
type InformationNeed struct {
	Text      string `json:"text"`
	Satisfied bool   `json:"satisfied"`
}

// ToolInvocation records one tool call and its raw outcome. Immutable after
// creation; Error is set instead of Result when the invocation failed.
type ToolInvocation struct {
	Tool   string                 `json:"tool"`
	Args   map[string]interface{} `json:"args"`
	Result tools.Result           `json:"-"`
	Error  string                 `json:"error,omitempty"`
}

// Finding pairs an information need with the invocations that addressed it
// and the formatted text shown to the model. Indices are 1-based and
// contiguous within a ResearchResult.
type Finding struct {
	Index       int              `json:"index"`
	Need        string           `json:"need"`
	Tool        string           `json:"tool"`
	Invocations []ToolInvocation `json:"invocations"`
	Text        string           `json:"text"`
}

// Source is an external reference surfaced during research, identified by
// its exact URL string. Indices are 1-based and stable: once assigned
// within a session, a source is never renumbered.
type Source struct {
	Index   int    `json:"index"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// ResearchResult is the terminal artifact of one orchestration run.
// HasResults is true iff at least one finding produced non-empty content;
// when false, Findings and Sources are both empty.
type ResearchResult struct {
	Query       string    `json:"query"`
	Findings    []Finding `json:"findings"`
	Sources     []Source  `json:"sources"`
	HasResults  bool      `json:"has_results"`
	Iterations  int       `json:"iterations"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}
