package research

import (
	"reflect"
	"testing"
)

func TestExtractNeedsNumbered(t *testing.T) {
	text := `Here are the research needs:
1. What is the population of Lisbon?
2. How has the population changed over time?
3) Current growth projections`
	needs := ExtractNeeds(text)
	want := []string{
		"What is the population of Lisbon?",
		"How has the population changed over time?",
		"Current growth projections",
	}
	if !reflect.DeepEqual(needs, want) {
		t.Fatalf("got %v, want %v", needs, want)
	}
}

func TestExtractNeedsBulleted(t *testing.T) {
	text := `- first need
- second need`
	needs := ExtractNeeds(text)
	if len(needs) != 2 || needs[0] != "first need" {
		t.Fatalf("unexpected needs: %v", needs)
	}
}

func TestExtractNeedsSentenceFallback(t *testing.T) {
	text := "I should find the founding date. I should also check recent events."
	needs := ExtractNeeds(text)
	if len(needs) != 2 {
		t.Fatalf("expected 2 sentence needs, got %v", needs)
	}
}

func TestParseToolProposalJSON(t *testing.T) {
	reply := `Tool: web_search
Parameters: {
  "query": "Lisbon population 2024",
  "max_results": 5
}`
	name, args := ParseToolProposal(reply)
	if name != "web_search" {
		t.Fatalf("wrong tool: %s", name)
	}
	if args["query"] != "Lisbon population 2024" {
		t.Fatalf("wrong query: %v", args["query"])
	}
	if n, ok := args["max_results"].(float64); !ok || n != 5 {
		t.Fatalf("wrong max_results: %v", args["max_results"])
	}
}

func TestParseToolProposalLooseFormat(t *testing.T) {
	reply := `Tool: fetch_webpage
Parameters:
url: "https://x.example"`
	name, args := ParseToolProposal(reply)
	if name != "fetch_webpage" {
		t.Fatalf("wrong tool: %s", name)
	}
	// No JSON block; the loose key-value fallback should recover the url.
	if args["url"] != "https://x.example" {
		t.Fatalf("fallback did not recover url: %v", args)
	}
}

func TestParseToolProposalNoTool(t *testing.T) {
	name, args := ParseToolProposal("I am not sure which tool to use.")
	if name != "web_search" {
		t.Fatalf("expected web_search default, got %s", name)
	}
	if q, ok := args["query"].(string); !ok || q != "" {
		t.Fatalf("expected empty query default, got %v", args)
	}
}

func TestParseCompletionYes(t *testing.T) {
	complete, missing := ParseCompletion("Research complete: Yes\nReasoning: all covered")
	if !complete || missing != nil {
		t.Fatalf("expected complete with no missing, got %v %v", complete, missing)
	}
}

func TestParseCompletionNoWithMissing(t *testing.T) {
	reply := `Research complete: No
Reasoning: gaps remain
Missing information:
1. Recent census figures
2. Immigration statistics`
	complete, missing := ParseCompletion(reply)
	if complete {
		t.Fatalf("expected incomplete")
	}
	want := []string{"Recent census figures", "Immigration statistics"}
	if !reflect.DeepEqual(missing, want) {
		t.Fatalf("got missing %v, want %v", missing, want)
	}
}

func TestParseCompletionKeywordFallback(t *testing.T) {
	complete, _ := ParseCompletion("I believe the research is complete and covers everything.")
	if !complete {
		t.Fatalf("keyword fallback did not detect completion")
	}
}

func TestSearchQueryFromNeed(t *testing.T) {
	got := SearchQueryFromNeed("What is the annual population growth of Lisbon?")
	if got != "annual population growth Lisbon" {
		t.Fatalf("got %q", got)
	}

	// Quoted phrases win over keyword extraction.
	got = SearchQueryFromNeed(`Find details about "Lisbon metro expansion" plans`)
	if got != "Lisbon metro expansion" {
		t.Fatalf("got %q", got)
	}

	// Too few keywords falls back to the cleaned need.
	got = SearchQueryFromNeed("Why is it so?")
	if got != "it so" {
		t.Fatalf("got %q", got)
	}
}

func TestExtractSearchTerms(t *testing.T) {
	reply := `Try these:
1. "Lisbon population census 2024"
2. Lisbon metropolitan area demographics
3. Lisbon metropolitan area demographics`
	terms := ExtractSearchTerms(reply, "Lisbon population")
	if len(terms) != 2 {
		t.Fatalf("expected 2 unique terms, got %v", terms)
	}
	if terms[0] != "Lisbon population census 2024" {
		t.Fatalf("quotes not stripped: %q", terms[0])
	}
}
