package index

import "testing"

func TestAddAndSearch(t *testing.T) {
	idx, err := New()
	if err != nil {
		t.Fatalf("creating index: %v", err)
	}
	docs := map[string]Doc{
		"https://coffee.example": {URL: "https://coffee.example", Title: "Coffee", Text: "Arabica beans grow at high altitude."},
		"https://tea.example":    {URL: "https://tea.example", Title: "Tea", Text: "Green tea is steamed shortly after picking."},
	}
	for id, d := range docs {
		if err := idx.Add(id, d); err != nil {
			t.Fatalf("adding %s: %v", id, err)
		}
	}
	if idx.Len() != 2 {
		t.Fatalf("expected 2 docs, got %d", idx.Len())
	}

	hits, err := idx.Search("arabica", 5)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if hits[0].URL != "https://coffee.example" || hits[0].Rank != 1 {
		t.Fatalf("unexpected hit: %+v", hits[0])
	}
	if hits[0].Snippet == "" {
		t.Fatalf("missing snippet")
	}
}

func TestManagerReusesSessionIndex(t *testing.T) {
	m := NewManager()
	a, err := m.ForSession("s1")
	if err != nil {
		t.Fatalf("creating session index: %v", err)
	}
	b, err := m.ForSession("s1")
	if err != nil {
		t.Fatalf("fetching session index: %v", err)
	}
	if a != b {
		t.Fatalf("same session got different indexes")
	}
	c, err := m.ForSession("s2")
	if err != nil {
		t.Fatalf("creating second session index: %v", err)
	}
	if a == c {
		t.Fatalf("different sessions share an index")
	}

	m.Drop("s1")
	d, err := m.ForSession("s1")
	if err != nil {
		t.Fatalf("recreating dropped index: %v", err)
	}
	if d == a {
		t.Fatalf("dropped index was reused")
	}
}
