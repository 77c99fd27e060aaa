package research

import (
	"encoding/json"
	"regexp"
	"strings"
)

// The reasoning collaborator replies in free text. These parsers are
// deliberately forgiving: malformed output degrades to a usable default
// instead of aborting the loop.

var (
	listItemRe     = regexp.MustCompile(`^\s*(?:\d+[.)]|[-*•])\s+(.+)$`)
	toolRe         = regexp.MustCompile(`Tool:\s*(\w+)`)
	quotedPairRe   = regexp.MustCompile(`"(\w+)"\s*:\s*"([^"]*)"`)
	loosePairRe    = regexp.MustCompile(`(?m)^\s*(\w+)\s*:\s*"?([^",\n]+)"?\s*$`)
	completeRe     = regexp.MustCompile(`(?i)Research complete:\s*(Yes|No)`)
	missingHeadRe  = regexp.MustCompile(`(?i)Missing information:`)
	questionLeadRe = regexp.MustCompile(`(?i)^(?:what|how|why|when|where|who|which)\s+(?:is|are|does|do|can|should|would|will|has|have)\s+`)
	quotedPhraseRe = regexp.MustCompile(`"([^"]+)"`)
	wordRe         = regexp.MustCompile(`\b\w{4,}\b`)
)

var stopWords = map[string]struct{}{
	"this": {}, "that": {}, "these": {}, "those": {}, "what": {}, "which": {},
	"when": {}, "where": {}, "who": {}, "whose": {}, "whom": {}, "how": {}, "why": {},
}

// ExtractNeeds pulls an ordered list of information needs out of a
// free-text decomposition. Numbered or bulleted items are preferred;
// failing that, paragraphs, then sentences.
func ExtractNeeds(text string) []string {
	var needs []string
	for _, line := range strings.Split(text, "\n") {
		if m := listItemRe.FindStringSubmatch(line); m != nil {
			if item := strings.TrimSpace(m[1]); item != "" {
				needs = append(needs, item)
			}
		}
	}
	if len(needs) > 0 {
		return needs
	}

	if paragraphs := strings.Split(text, "\n\n"); len(paragraphs) > 1 {
		for _, p := range paragraphs {
			if p = strings.TrimSpace(p); p != "" {
				needs = append(needs, p)
			}
		}
		if len(needs) > 0 {
			return needs
		}
	}

	for _, s := range strings.Split(text, ".") {
		if s = strings.TrimSpace(s); len(s) > 10 {
			needs = append(needs, s+".")
		}
	}
	return needs
}

// ParseToolProposal extracts the (tool, args) pair from a tool-selection
// reply. An unparseable reply defaults to web_search with an empty query,
// which the orchestrator then backfills from the information need.
func ParseToolProposal(text string) (string, map[string]interface{}) {
	m := toolRe.FindStringSubmatch(text)
	if m == nil {
		return "web_search", map[string]interface{}{"query": ""}
	}
	name := m[1]

	args := make(map[string]interface{})
	if block := parametersBlock(text); block != "" {
		if err := json.Unmarshal([]byte(block), &args); err != nil {
			for _, pair := range quotedPairRe.FindAllStringSubmatch(block, -1) {
				args[pair[1]] = pair[2]
			}
		}
	}
	if len(args) == 0 {
		for _, pair := range loosePairRe.FindAllStringSubmatch(text, -1) {
			key := strings.ToLower(pair[1])
			if key == "tool" || key == "parameters" {
				continue
			}
			args[pair[1]] = strings.TrimSpace(pair[2])
		}
	}
	return name, args
}

// parametersBlock returns the balanced brace block following "Parameters:",
// or empty when none is present.
func parametersBlock(text string) string {
	idx := strings.Index(text, "Parameters:")
	if idx < 0 {
		return ""
	}
	rest := text[idx:]
	open := strings.IndexByte(rest, '{')
	if open < 0 {
		return ""
	}
	depth := 0
	for i := open; i < len(rest); i++ {
		switch rest[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return rest[open : i+1]
			}
		}
	}
	return ""
}

// ParseCompletion extracts the completion verdict and any missing
// information needs from an evaluation reply.
func ParseCompletion(text string) (bool, []string) {
	complete := false
	if m := completeRe.FindStringSubmatch(text); m != nil {
		complete = strings.EqualFold(m[1], "yes")
	} else {
		lower := strings.ToLower(text)
		complete = strings.Contains(lower, "research is complete") ||
			strings.Contains(lower, "sufficient information")
	}
	if complete {
		return true, nil
	}

	loc := missingHeadRe.FindStringIndex(text)
	if loc == nil {
		return false, nil
	}
	section := text[loc[1]:]
	if cut := strings.Index(section, "\n\n"); cut >= 0 {
		section = section[:cut]
	}

	var missing []string
	for _, line := range strings.Split(section, "\n") {
		if m := listItemRe.FindStringSubmatch(line); m != nil {
			if item := strings.TrimSpace(m[1]); item != "" {
				missing = append(missing, item)
			}
		}
	}
	if len(missing) == 0 {
		for _, line := range strings.Split(section, "\n") {
			if line = strings.TrimSpace(line); line != "" && !strings.EqualFold(line, "none") {
				missing = append(missing, line)
			}
		}
	}
	return false, missing
}

// SearchQueryFromNeed derives a usable search query from an information
// need, for when the reasoning collaborator proposes an empty one.
func SearchQueryFromNeed(need string) string {
	query := questionLeadRe.ReplaceAllString(need, "")
	query = strings.ReplaceAll(query, "?", "")
	query = strings.TrimSpace(query)

	if phrases := quotedPhraseRe.FindAllStringSubmatch(query, -1); len(phrases) > 0 {
		parts := make([]string, len(phrases))
		for i, p := range phrases {
			parts[i] = p[1]
		}
		return strings.Join(parts, " ")
	}

	var keywords []string
	for _, word := range wordRe.FindAllString(query, -1) {
		if _, stop := stopWords[strings.ToLower(word)]; !stop {
			keywords = append(keywords, word)
		}
	}
	if len(keywords) < 3 {
		return query
	}
	return strings.Join(keywords, " ")
}

// ExtractSearchTerms pulls suggested search queries out of a free-text
// strategy reply, skipping short terms and echoes of the original query.
func ExtractSearchTerms(response, original string) []string {
	var terms []string
	for _, line := range strings.Split(response, "\n") {
		if m := listItemRe.FindStringSubmatch(line); m != nil {
			term := strings.Trim(strings.TrimSpace(m[1]), `"'`)
			if len(term) > 5 && !strings.EqualFold(term, original) {
				terms = append(terms, term)
			}
		}
	}
	if len(terms) == 0 {
		for _, m := range quotedPhraseRe.FindAllStringSubmatch(response, -1) {
			phrase := strings.TrimSpace(m[1])
			if len(phrase) > 5 && !strings.EqualFold(phrase, original) {
				terms = append(terms, phrase)
			}
		}
	}

	seen := make(map[string]struct{}, len(terms))
	unique := terms[:0]
	for _, term := range terms {
		key := strings.ToLower(term)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, term)
	}
	return unique
}
