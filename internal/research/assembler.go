package research

import (
	"strconv"

	"github.com/Munger/llm-interface/internal/prompts"
)

// Assemble renders the final user-facing research response. Runs with
// findings get the synthesized answer plus a numbered source list; runs
// without results get an answer that flags the missing research and
// carries no sources section at all.
func Assemble(reg *prompts.Registry, result ResearchResult, synthesized string) (string, error) {
	if !result.HasResults {
		return reg.Resolve(prompts.ResearchNotFound, map[string]string{
			"query":   result.Query,
			"content": synthesized,
		})
	}
	return reg.Resolve(prompts.ResearchFound, map[string]string{
		"query":        result.Query,
		"content":      synthesized,
		"source_count": strconv.Itoa(len(result.Sources)),
		"sources":      FormatSourceLines(result.Sources),
	})
}
