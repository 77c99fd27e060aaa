package prompts

// Template names. The texts below are defaults; users can override any of
// them through a JSON file (research.prompt_overrides in the config).
const (
	// Final user-facing response shapes.
	ResearchFound    = "research_found"
	ResearchNotFound = "research_not_found"

	// System-message injections for later chat turns.
	ResearchReminder   = "research_reminder"
	SourceListReminder = "source_list_reminder"

	// System messages recorded right after a research run.
	ResearchSystem          = "research_system"
	ResearchSystemNoResults = "research_system_no_results"

	// Queries sent to the model for final synthesis.
	EnhancedQuery  = "enhanced_query"
	NoResultsQuery = "no_results_query"

	// Reasoning-loop prompts.
	SearchStrategy     = "search_strategy"
	Thinking           = "thinking"
	IterationThinking  = "iteration_thinking"
	ToolSelection      = "tool_selection"
	Evaluation         = "evaluation"
	Synthesis          = "synthesis"
	SynthesisNoResults = "synthesis_no_results"
)

var defaultTemplates = map[string]string{
	ResearchFound: `Based on my web research about "{query}", here's what I found:

{content}

This answer draws on {source_count} sources:
{sources}`,

	ResearchNotFound: `Based on my web research about "{query}", I wasn't able to find specific information. The answer below is based on general knowledge and may not reflect current details.

{content}`,

	ResearchReminder: `Reminder: {time_ago} you performed web research on "{query}" and gathered {source_count} sources. When the user refers to that research, answer from those findings rather than claiming you cannot browse the web.`,

	SourceListReminder: `The user is asking about sources. You previously researched "{query}" and collected these sources:
{url_list}
Refer to them by their [Source N] numbers when answering.`,

	ResearchSystem: `You have just completed web research on "{query}". The findings are:

{findings}

{sources}

Use these findings when responding. Cite sources by their [Source N] numbers.`,

	ResearchSystemNoResults: `You attempted web research on "{query}" but no relevant information was found. Acknowledge this limitation when responding and do not fabricate sources.`,

	EnhancedQuery: `Using the research findings provided in the system context, give a comprehensive, well-organized answer to: {query}

When referencing information from a source, cite it by its [Source N] number. If pieces of information conflict, acknowledge the conflict and say which seems most reliable. If some aspects could not be answered by the research, say so.`,

	NoResultsQuery: `Web research on "{query}" did not yield specific information. Provide a response that acknowledges this limitation, offers what general knowledge you have on the topic, and suggests next steps the user could take to find more specific information.`,

	SearchStrategy: `I need to research: {query}

Suggest 3-5 alternative web search queries that would surface specific, concrete information about this topic. Prefer queries with distinctive keywords over generic phrasings.

Format your response as a numbered list of search queries.`,

	Thinking: `I need to research: {query}

Available tools:
{tools}

Based on this query, what specific information do I need to find out? List 3-5 specific research needs or questions that will help answer this query comprehensively.

Format your response as a numbered list (1., 2., etc.) of specific questions or information needs.`,

	IterationThinking: `I'm researching: {query}

So far, I've investigated these questions:
{findings}

Based on what I've learned, what additional information should I look for next to complete my research? List 2-3 specific new research questions that would help fill the gaps in my current knowledge.

Format your response as a numbered list of specific questions or information needs.`,

	ToolSelection: `I need to find information about: {need}

Available tools:
{tools}

Which tool should I use for this specific information need, and with what parameters? Select exactly one tool.

Format your response as follows:
Tool: [tool_name]
Parameters: {
  "param1": "value1",
  "param2": "value2"
}

IMPORTANT: for search tools you MUST provide a specific, non-empty "query" parameter with relevant keywords from the information need.`,

	Evaluation: `I'm researching: {query}

So far, I've gathered the following information:

{findings}

Based on this information, do I have enough to provide a comprehensive answer to the original query?

Format your response as follows:
Research complete: [Yes/No]
Reasoning: [Your explanation]
Missing information: [List of missing information needs, if any]`,

	Synthesis: `I've researched the question: {query}

Based on my research, I have gathered the following information:

{findings}

Using this information, provide a comprehensive, well-organized answer to the original question. When referencing information from a source, include the source URL directly in your text. If there are conflicting pieces of information, acknowledge them. If some aspects of the question couldn't be answered by the research, acknowledge those limitations.`,

	SynthesisNoResults: `I've researched the question: {query}

Unfortunately, the research didn't yield specific information about this topic. Provide a response that acknowledges the limitations of the research, offers general knowledge about the topic, and suggests next steps the user could take to find more specific information.`,
}
