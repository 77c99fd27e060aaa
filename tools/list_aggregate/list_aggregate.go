// Package list_aggregate merges list items gathered from multiple sources
// into one deduplicated, completeness-ranked list.
package list_aggregate

import (
	"fmt"
	"sort"
	"strings"
)

type Item struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	URL         string `json:"url,omitempty"`
	Description string `json:"description,omitempty"`
}

type Stats struct {
	TotalInput   int     `json:"total_input_items"`
	UniqueItems  int     `json:"unique_items"`
	Returned     int     `json:"returned_items"`
	Completeness float64 `json:"completeness"`
}

type Result struct {
	Items []Item `json:"items"`
	Text  string `json:"text"`
	Stats Stats  `json:"stats"`
}

// Aggregate deduplicates items by URL (falling back to ID, then the whole
// item) and keeps the most complete version of each. Output is ranked by
// completeness and capped at target.
func Aggregate(items []Item, target int) Result {
	if target <= 0 {
		target = 100
	}

	unique := make(map[string]Item)
	var order []string
	for _, item := range items {
		key := itemKey(item)
		existing, seen := unique[key]
		if !seen {
			unique[key] = item
			order = append(order, key)
			continue
		}
		if score(item) > score(existing) {
			unique[key] = item
		}
	}

	merged := make([]Item, 0, len(unique))
	for _, key := range order {
		merged = append(merged, unique[key])
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return score(merged[i]) > score(merged[j])
	})

	if len(merged) > target {
		merged = merged[:target]
	}

	completeness := 1.0
	if target > 0 {
		completeness = float64(len(merged)) / float64(target)
		if completeness > 1.0 {
			completeness = 1.0
		}
	}

	return Result{
		Items: merged,
		Text:  render(merged),
		Stats: Stats{
			TotalInput:   len(items),
			UniqueItems:  len(unique),
			Returned:     len(merged),
			Completeness: completeness,
		},
	}
}

func itemKey(item Item) string {
	if item.URL != "" {
		return item.URL
	}
	if item.ID != "" {
		return item.ID
	}
	return item.Title + "|" + item.Description
}

func score(item Item) int {
	s := 0
	if strings.TrimSpace(item.Title) != "" {
		s++
	}
	if strings.TrimSpace(item.URL) != "" {
		s++
	}
	if strings.TrimSpace(item.Description) != "" {
		s++
	}
	return s
}

func render(items []Item) string {
	var b strings.Builder
	for i, item := range items {
		fmt.Fprintf(&b, "%d. %s", i+1, item.Title)
		if item.Description != "" {
			fmt.Fprintf(&b, " - %s", item.Description)
		}
		if item.URL != "" {
			fmt.Fprintf(&b, " (%s)", item.URL)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
