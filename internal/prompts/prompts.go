// Package prompts holds the message and prompt templates used across the
// research pipeline and resolves them with strict placeholder substitution.
package prompts

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

// ErrUnknownTemplate is returned when a template name is not registered.
var ErrUnknownTemplate = errors.New("unknown template")

// MissingSubstitutionError reports a placeholder with no supplied value.
// Resolution is strict: a referenced placeholder must always be supplied.
type MissingSubstitutionError struct {
	Template string
	Key      string
}

func (e MissingSubstitutionError) Error() string {
	return fmt.Sprintf("template %q: missing substitution %q", e.Template, e.Key)
}

// placeholderRe matches {key} tokens. Braces enclosing anything else
// (JSON examples inside prompt text, for instance) are left untouched.
var placeholderRe = regexp.MustCompile(`\{([a-z][a-z0-9_]*)\}`)

// Registry resolves named templates. It is immutable after construction
// aside from LoadOverrides, and safe for concurrent reads.
type Registry struct {
	templates map[string]string
}

// NewRegistry returns a registry populated with the default templates.
func NewRegistry() *Registry {
	t := make(map[string]string, len(defaultTemplates))
	for name, text := range defaultTemplates {
		t[name] = text
	}
	return &Registry{templates: t}
}

// LoadOverrides merges templates from a JSON file (a flat name -> text map)
// over the defaults. Unknown names are accepted so users can add templates.
func (r *Registry) LoadOverrides(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading prompt overrides: %w", err)
	}
	var overrides map[string]string
	if err := json.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("parsing prompt overrides: %w", err)
	}
	for name, text := range overrides {
		r.templates[name] = text
	}
	return nil
}

// Has reports whether a template name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.templates[name]
	return ok
}

// Names returns the registered template names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve renders the named template with the given substitutions.
// Every placeholder referenced by the template must be supplied.
func (r *Registry) Resolve(name string, subs map[string]string) (string, error) {
	text, ok := r.templates[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}

	var missing string
	out := placeholderRe.ReplaceAllStringFunc(text, func(token string) string {
		key := token[1 : len(token)-1]
		value, ok := subs[key]
		if !ok {
			if missing == "" {
				missing = key
			}
			return token
		}
		return value
	})
	if missing != "" {
		return "", MissingSubstitutionError{Template: name, Key: missing}
	}
	return out, nil
}

// Placeholders returns the placeholder keys the named template references.
func (r *Registry) Placeholders(name string) ([]string, error) {
	text, ok := r.templates[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}
	seen := make(map[string]struct{})
	var keys []string
	for _, m := range placeholderRe.FindAllStringSubmatch(text, -1) {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		keys = append(keys, m[1])
	}
	return keys, nil
}

// ToolInfo describes one tool for inclusion in a prompt.
type ToolInfo struct {
	Name        string
	Description string
}

// FormatToolList renders a tool catalogue for inclusion in prompts.
func FormatToolList(tools []ToolInfo) string {
	var b strings.Builder
	for _, t := range tools {
		fmt.Fprintf(&b, "- %s: %s\n", t.Name, t.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}
