package research

import (
	"fmt"
	"strings"

	"github.com/Munger/llm-interface/tools"
)

const snippetMaxRunes = 500

// FormatFinding renders one finding header plus a tool-specific body.
func FormatFinding(index int, need, toolName string, result tools.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Finding %d: %s\n", index, need)
	fmt.Fprintf(&b, "Tool: %s\n", toolName)

	switch r := result.(type) {
	case tools.SearchResult:
		fmt.Fprintf(&b, "Found %d results\n", len(r.Hits))
		for j, hit := range r.Hits {
			fmt.Fprintf(&b, "%d.%d %s\n", index, j+1, hit.Title)
			if hit.Snippet != "" {
				fmt.Fprintf(&b, "   %s\n", hit.Snippet)
			}
			fmt.Fprintf(&b, "   URL: %s\n", hit.URL)
		}
	case tools.PageResult:
		fmt.Fprintf(&b, "Webpage: %s\n", r.Title)
		fmt.Fprintf(&b, "URL: %s\n", r.URL)
		if r.Content != "" {
			fmt.Fprintf(&b, "Content: %s\n", trimContent(r.Content))
		}
	case tools.VideoResult:
		fmt.Fprintf(&b, "Found %d videos on %s\n", len(r.Videos), r.Platform)
		for j, v := range r.Videos {
			fmt.Fprintf(&b, "%d.%d %s\n", index, j+1, v.Title)
			if v.Description != "" {
				fmt.Fprintf(&b, "   %s\n", v.Description)
			}
			fmt.Fprintf(&b, "   URL: %s\n", v.URL)
		}
	case tools.ListResult:
		// List tools own their own formatting; render verbatim.
		b.WriteString(r.Text)
		b.WriteString("\n")
	case nil:
		// Failed invocation, nothing to render.
	default:
		fmt.Fprintf(&b, "%v\n", result)
	}

	return b.String()
}

// FormatFindings renders the full finding sequence for prompt inclusion.
func FormatFindings(findings []Finding) string {
	var b strings.Builder
	for _, f := range findings {
		b.WriteString(f.Text)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatSources renders the deduplicated, numbered source list. An empty
// sequence renders as an empty string; callers must omit the sources
// section entirely in that case rather than print a bare header.
func FormatSources(sources []Source) string {
	if len(sources) == 0 {
		return ""
	}
	var b strings.Builder
	for _, s := range sources {
		title := s.Title
		if title == "" {
			title = s.URL
		}
		fmt.Fprintf(&b, "[Source %d] %s\nURL: %s\n", s.Index, title, s.URL)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatSourceLines renders sources as plain numbered lines for the final
// user-facing response.
func FormatSourceLines(sources []Source) string {
	var b strings.Builder
	for _, s := range sources {
		title := s.Title
		if title == "" {
			title = s.URL
		}
		fmt.Fprintf(&b, "%d. %s: %s\n", s.Index, title, s.URL)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Deduplicate appends only sources whose URL is not already present,
// comparing URLs as exact strings. Existing indices are preserved and new
// entries get the next available index. Returns the merged list and the
// number of sources actually added.
func Deduplicate(existing, incoming []Source) ([]Source, int) {
	merged := make([]Source, len(existing))
	copy(merged, existing)

	seen := make(map[string]struct{}, len(merged))
	next := 0
	for _, s := range merged {
		seen[s.URL] = struct{}{}
		if s.Index > next {
			next = s.Index
		}
	}

	added := 0
	for _, s := range incoming {
		if s.URL == "" {
			continue
		}
		if _, dup := seen[s.URL]; dup {
			continue
		}
		seen[s.URL] = struct{}{}
		next++
		s.Index = next
		merged = append(merged, s)
		added++
	}
	return merged, added
}

// CollectSources extracts sources from a raw tool result. Indices are left
// unset; Deduplicate assigns them.
func CollectSources(result tools.Result) []Source {
	var out []Source
	switch r := result.(type) {
	case tools.SearchResult:
		for _, hit := range r.Hits {
			out = append(out, Source{Title: hit.Title, URL: hit.URL, Snippet: hit.Snippet})
		}
	case tools.PageResult:
		if r.URL != "" {
			out = append(out, Source{Title: r.Title, URL: r.URL})
		}
	case tools.VideoResult:
		for _, v := range r.Videos {
			out = append(out, Source{Title: v.Title, URL: v.URL, Snippet: v.Description})
		}
	case tools.ListResult:
		for _, item := range r.Items {
			if item.URL != "" {
				out = append(out, Source{Title: item.Title, URL: item.URL, Snippet: item.Description})
			}
		}
	}
	return out
}

func trimContent(s string) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= snippetMaxRunes {
		return s
	}
	return strings.TrimSpace(string(runes[:snippetMaxRunes])) + "..."
}
