package research

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Munger/llm-interface/config"
	"github.com/Munger/llm-interface/internal/prompts"
	"github.com/Munger/llm-interface/internal/telemetry"
	"github.com/Munger/llm-interface/provider"
	"github.com/Munger/llm-interface/tools"
)

var researchTracer trace.Tracer = otel.Tracer("llm-interface/internal/research")

// Orchestrator drives the iterative research loop: decompose the query
// into information needs, pick and invoke a tool per need, evaluate
// whether the gathered findings suffice, and repeat until done or the
// iteration bound is hit. Tool failures degrade to findings; only caller
// cancellation aborts a run.
type Orchestrator struct {
	cfg       config.ResearchConfig
	logger    *log.Logger
	llm       provider.Provider
	tools     *tools.Registry
	prompts   *prompts.Registry
	telemetry *telemetry.Telemetry

	semaphore chan struct{}
}

// NewOrchestrator wires an orchestrator from its collaborators. The
// telemetry argument may be nil.
func NewOrchestrator(cfg config.ResearchConfig, logger *log.Logger, llm provider.Provider, registry *tools.Registry, templates *prompts.Registry, tel *telemetry.Telemetry) *Orchestrator {
	concurrent := cfg.MaxConcurrent
	if concurrent <= 0 {
		concurrent = 1
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[ORCH] ", log.LstdFlags)
	}
	return &Orchestrator{
		cfg:       cfg,
		logger:    logger,
		llm:       llm,
		tools:     registry,
		prompts:   templates,
		telemetry: tel,
		semaphore: make(chan struct{}, concurrent),
	}
}

// Research runs the full loop for one query. On cancellation it returns
// ctx's error and no partial result.
func (o *Orchestrator) Research(ctx context.Context, query string) (ResearchResult, error) {
	startedAt := time.Now()
	ctx, span := researchTracer.Start(ctx, "research.run",
		trace.WithAttributes(attribute.String("research.query", query)))
	defer span.End()

	result := ResearchResult{Query: query, StartedAt: startedAt}

	needs, err := o.decompose(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			o.recordRun("cancelled", startedAt, 0, 0)
			return ResearchResult{}, ctx.Err()
		}
		// A failed decomposition is not fatal: research the query as-is.
		o.logger.Printf("decomposition failed, using query as single need: %v", err)
		needs = []string{query}
	}
	o.logger.Printf("researching %q with %d information needs", query, len(needs))

	for iteration := 1; iteration <= o.cfg.MaxIterations; iteration++ {
		result.Iterations = iteration

		outcomes := o.investigateAll(ctx, query, needs)
		if ctx.Err() != nil {
			o.recordRun("cancelled", startedAt, iteration, 0)
			return ResearchResult{}, ctx.Err()
		}

		for _, out := range outcomes {
			out.finding.Index = len(result.Findings) + 1
			out.finding.Text = renderFinding(out.finding)
			result.Findings = append(result.Findings, out.finding)

			if len(result.Sources) < o.maxSources() {
				merged, _ := Deduplicate(result.Sources, out.sources)
				if len(merged) > o.maxSources() {
					merged = merged[:o.maxSources()]
				}
				result.Sources = merged
			}
		}

		if iteration == o.cfg.MaxIterations {
			break
		}
		complete, missing := o.evaluate(ctx, query, result.Findings)
		if ctx.Err() != nil {
			o.recordRun("cancelled", startedAt, iteration, len(result.Sources))
			return ResearchResult{}, ctx.Err()
		}
		if complete {
			break
		}
		if len(missing) == 0 {
			// Incomplete but nothing named: ask what to look for next.
			missing = o.nextNeeds(ctx, query, result.Findings)
			if len(missing) == 0 {
				break
			}
		}
		needs = capNeeds(missing, o.cfg.MaxNeeds)
		o.logger.Printf("iteration %d incomplete, %d needs remain", iteration, len(needs))
	}

	result.HasResults = anyContent(result.Findings)
	if !result.HasResults {
		result.Findings = nil
		result.Sources = nil
	}
	result.CompletedAt = time.Now()

	outcome := "not_found"
	if result.HasResults {
		outcome = "found"
	}
	o.recordRun(outcome, startedAt, result.Iterations, len(result.Sources))
	span.SetAttributes(
		attribute.Bool("research.has_results", result.HasResults),
		attribute.Int("research.sources", len(result.Sources)),
		attribute.Int("research.iterations", result.Iterations),
	)
	o.logger.Printf("research for %q finished: %d findings, %d sources, %d iterations",
		query, len(result.Findings), len(result.Sources), result.Iterations)
	return result, nil
}

// Synthesize asks the model to turn a research result into prose.
func (o *Orchestrator) Synthesize(ctx context.Context, result ResearchResult) (string, error) {
	ctx, span := researchTracer.Start(ctx, "research.synthesize")
	defer span.End()

	var (
		prompt string
		err    error
	)
	if result.HasResults {
		prompt, err = o.prompts.Resolve(prompts.Synthesis, map[string]string{
			"query":    result.Query,
			"findings": FormatFindings(result.Findings),
		})
	} else {
		prompt, err = o.prompts.Resolve(prompts.SynthesisNoResults, map[string]string{
			"query": result.Query,
		})
	}
	if err != nil {
		return "", err
	}
	text, err := o.llm.Complete(ctx, []provider.Message{{Role: "user", Content: prompt}})
	if err != nil {
		return "", fmt.Errorf("synthesis: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// decompose asks the model to break the query into information needs.
func (o *Orchestrator) decompose(ctx context.Context, query string) ([]string, error) {
	prompt, err := o.prompts.Resolve(prompts.Thinking, map[string]string{
		"query": query,
		"tools": o.toolList(),
	})
	if err != nil {
		return nil, err
	}
	text, err := o.llm.Complete(ctx, []provider.Message{{Role: "user", Content: prompt}})
	if err != nil {
		return nil, fmt.Errorf("decomposition: %w", err)
	}
	needs := ExtractNeeds(text)
	if len(needs) == 0 {
		needs = []string{query}
	}
	return capNeeds(needs, o.cfg.MaxNeeds), nil
}

type needOutcome struct {
	finding Finding
	sources []Source
}

// investigateAll processes the needs of one iteration concurrently,
// bounded by the configured concurrency, and returns outcomes in need
// order so finding indices stay deterministic.
func (o *Orchestrator) investigateAll(ctx context.Context, query string, needs []string) []needOutcome {
	outcomes := make([]needOutcome, len(needs))
	var wg sync.WaitGroup
	for i, need := range needs {
		wg.Add(1)
		go func(i int, need string) {
			defer wg.Done()
			select {
			case o.semaphore <- struct{}{}:
				defer func() { <-o.semaphore }()
			case <-ctx.Done():
				return
			}
			outcomes[i] = o.investigate(ctx, query, need)
		}(i, need)
	}
	wg.Wait()
	return outcomes
}

// investigate handles one information need: select a tool, invoke it,
// and fall back to a web search when the chosen tool fails or a search
// comes back empty.
func (o *Orchestrator) investigate(ctx context.Context, query, need string) needOutcome {
	ctx, span := researchTracer.Start(ctx, "research.investigate",
		trace.WithAttributes(attribute.String("research.need", need)))
	defer span.End()

	name, args := o.selectTool(ctx, need)
	finding := Finding{Need: need, Tool: name}

	result, inv := o.invoke(ctx, name, args)
	finding.Invocations = append(finding.Invocations, inv)

	if inv.Error != "" && name != tools.WebSearchTool {
		// The chosen tool failed; a plain search about the need is
		// better than nothing.
		fallbackArgs := map[string]interface{}{"query": SearchQueryFromNeed(need)}
		result, inv = o.invoke(ctx, tools.WebSearchTool, fallbackArgs)
		finding.Tool = tools.WebSearchTool
		finding.Invocations = append(finding.Invocations, inv)
	}

	if finding.Tool == tools.WebSearchTool && inv.Error == "" && result != nil && result.Empty() {
		_, finding.Invocations = o.retrySearch(ctx, need, result, finding.Invocations)
	}

	return needOutcome{finding: finding, sources: CollectSources(lastResult(finding.Invocations))}
}

// retrySearch asks for alternative search phrasings and tries a couple
// of them when the first search returned nothing.
func (o *Orchestrator) retrySearch(ctx context.Context, need string, result tools.Result, invs []ToolInvocation) (tools.Result, []ToolInvocation) {
	prompt, err := o.prompts.Resolve(prompts.SearchStrategy, map[string]string{"query": need})
	if err != nil {
		return result, invs
	}
	reply, err := o.llm.Complete(ctx, []provider.Message{{Role: "user", Content: prompt}})
	if err != nil {
		return result, invs
	}
	terms := ExtractSearchTerms(reply, need)
	if len(terms) > 2 {
		terms = terms[:2]
	}
	for _, term := range terms {
		retried, inv := o.invoke(ctx, tools.WebSearchTool, map[string]interface{}{"query": term})
		invs = append(invs, inv)
		if inv.Error == "" && retried != nil && !retried.Empty() {
			return retried, invs
		}
	}
	return result, invs
}

// selectTool asks the model which tool fits the need. Unusable replies
// fall back to a web search derived from the need text.
func (o *Orchestrator) selectTool(ctx context.Context, need string) (string, map[string]interface{}) {
	fallback := func() (string, map[string]interface{}) {
		return tools.WebSearchTool, map[string]interface{}{"query": SearchQueryFromNeed(need)}
	}

	prompt, err := o.prompts.Resolve(prompts.ToolSelection, map[string]string{
		"need":  need,
		"tools": o.toolList(),
	})
	if err != nil {
		return fallback()
	}
	reply, err := o.llm.Complete(ctx, []provider.Message{{Role: "user", Content: prompt}})
	if err != nil {
		o.logger.Printf("tool selection failed for need %q: %v", need, err)
		return fallback()
	}

	name, args := ParseToolProposal(reply)
	if _, ok := o.tools.Get(name); !ok {
		o.logger.Printf("model proposed unknown tool %q, using web search", name)
		return fallback()
	}
	if q, _ := args["query"].(string); q == "" && needsQuery(name) {
		args["query"] = SearchQueryFromNeed(need)
	}
	if needsQuery(name) {
		if _, ok := args["max_results"]; !ok && o.cfg.MaxResultsPerCall > 0 {
			args["max_results"] = o.cfg.MaxResultsPerCall
		}
	}
	return name, args
}

// invoke runs one tool call under the configured timeout and records it.
func (o *Orchestrator) invoke(ctx context.Context, name string, args map[string]interface{}) (tools.Result, ToolInvocation) {
	inv := ToolInvocation{Tool: name, Args: args}

	toolCtx := ctx
	if o.cfg.ToolTimeout > 0 {
		var cancel context.CancelFunc
		toolCtx, cancel = context.WithTimeout(ctx, o.cfg.ToolTimeout)
		defer cancel()
	}

	start := time.Now()
	result, err := o.tools.Invoke(toolCtx, name, args)
	elapsed := time.Since(start)
	if err != nil {
		inv.Error = err.Error()
		o.recordTool(name, "error", elapsed)
		o.logger.Printf("tool %s failed: %v", name, err)
		return nil, inv
	}
	inv.Result = result
	if result.Empty() {
		o.recordTool(name, "empty", elapsed)
	} else {
		o.recordTool(name, "ok", elapsed)
	}
	return result, inv
}

// nextNeeds asks the model for follow-up questions given what has been
// gathered so far.
func (o *Orchestrator) nextNeeds(ctx context.Context, query string, findings []Finding) []string {
	prompt, err := o.prompts.Resolve(prompts.IterationThinking, map[string]string{
		"query":    query,
		"findings": FormatFindings(findings),
	})
	if err != nil {
		return nil
	}
	reply, err := o.llm.Complete(ctx, []provider.Message{{Role: "user", Content: prompt}})
	if err != nil {
		return nil
	}
	return ExtractNeeds(reply)
}

// evaluate asks the model whether the findings answer the query.
func (o *Orchestrator) evaluate(ctx context.Context, query string, findings []Finding) (bool, []string) {
	prompt, err := o.prompts.Resolve(prompts.Evaluation, map[string]string{
		"query":    query,
		"findings": FormatFindings(findings),
	})
	if err != nil {
		return true, nil
	}
	reply, err := o.llm.Complete(ctx, []provider.Message{{Role: "user", Content: prompt}})
	if err != nil {
		// Without a verdict, stop rather than loop on a failing model.
		o.logger.Printf("evaluation failed, stopping: %v", err)
		return true, nil
	}
	return ParseCompletion(reply)
}

func (o *Orchestrator) toolList() string {
	descs := o.tools.List()
	infos := make([]prompts.ToolInfo, len(descs))
	for i, d := range descs {
		infos[i] = prompts.ToolInfo{Name: d.Name, Description: d.Description}
	}
	return prompts.FormatToolList(infos)
}

func (o *Orchestrator) maxSources() int {
	if o.cfg.MaxSources <= 0 {
		return 15
	}
	return o.cfg.MaxSources
}

func (o *Orchestrator) recordRun(outcome string, startedAt time.Time, iterations, sources int) {
	o.telemetry.RecordResearch(outcome, time.Since(startedAt), iterations, sources)
}

func (o *Orchestrator) recordTool(name, outcome string, elapsed time.Duration) {
	o.telemetry.RecordToolInvocation(name, outcome, elapsed)
}

// renderFinding formats a finding once its index is known. Failed
// invocations render as an error line so the model can see what was
// attempted.
func renderFinding(f Finding) string {
	last := f.Invocations[len(f.Invocations)-1]
	if last.Error != "" {
		return fmt.Sprintf("Finding %d: %s\nTool: %s\nError: %s\n", f.Index, f.Need, f.Tool, last.Error)
	}
	return FormatFinding(f.Index, f.Need, f.Tool, last.Result)
}

// anyContent reports whether at least one finding carries a non-empty
// successful result.
func anyContent(findings []Finding) bool {
	for _, f := range findings {
		if r := lastResult(f.Invocations); r != nil && !r.Empty() {
			return true
		}
	}
	return false
}

func lastResult(invs []ToolInvocation) tools.Result {
	for i := len(invs) - 1; i >= 0; i-- {
		if invs[i].Error == "" && invs[i].Result != nil {
			return invs[i].Result
		}
	}
	return nil
}

func needsQuery(tool string) bool {
	return tool == tools.WebSearchTool || tool == tools.SearchVideosTool
}

func capNeeds(needs []string, max int) []string {
	if max > 0 && len(needs) > max {
		return needs[:max]
	}
	return needs
}
