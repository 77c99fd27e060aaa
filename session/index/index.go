// Package index gives each session an in-memory BM25 index over fetched
// page content, so follow-up questions can be answered from material
// already retrieved instead of hitting the web again.
package index

import (
	"fmt"
	"sync"

	"github.com/blevesearch/bleve"
)

// Doc is one indexed page.
type Doc struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Hit is one ranked search result.
type Hit struct {
	DocID   string  `json:"doc_id"`
	URL     string  `json:"url"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
	Rank    int     `json:"rank"`
}

const snippetRunes = 240

// Index is a per-session document index.
type Index struct {
	mu    sync.RWMutex
	bleve bleve.Index
	docs  map[string]Doc
}

func New() (*Index, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating index: %w", err)
	}
	return &Index{bleve: idx, docs: make(map[string]Doc)}, nil
}

// Add indexes a document, replacing any previous doc with the same id.
func (x *Index) Add(id string, doc Doc) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.docs[id] = doc
	return x.bleve.Index(id, doc)
}

// Len reports the number of indexed documents.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.docs)
}

// Search runs a BM25 query and returns up to k hits.
func (x *Index) Search(q string, k int) ([]Hit, error) {
	query := bleve.NewQueryStringQuery(q)
	searchReq := bleve.NewSearchRequestOptions(query, k*3, 0, false)
	res, err := x.bleve.Search(searchReq)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	x.mu.RLock()
	defer x.mu.RUnlock()
	var out []Hit
	for i, hit := range res.Hits {
		doc := x.docs[hit.ID]
		out = append(out, Hit{
			DocID: hit.ID, URL: doc.URL, Title: doc.Title,
			Snippet: snippet(doc.Text),
			Score:   hit.Score, Rank: i + 1,
		})
		if len(out) >= k {
			break
		}
	}
	return out, nil
}

// Manager holds one index per session.
type Manager struct {
	mu      sync.Mutex
	indexes map[string]*Index
}

func NewManager() *Manager {
	return &Manager{indexes: make(map[string]*Index)}
}

// ForSession returns the session's index, creating it on first use.
func (m *Manager) ForSession(sessionID string) (*Index, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if idx, ok := m.indexes[sessionID]; ok {
		return idx, nil
	}
	idx, err := New()
	if err != nil {
		return nil, err
	}
	m.indexes[sessionID] = idx
	return idx, nil
}

// Drop discards the session's index.
func (m *Manager) Drop(sessionID string) {
	m.mu.Lock()
	delete(m.indexes, sessionID)
	m.mu.Unlock()
}

func snippet(text string) string {
	runes := []rune(text)
	if len(runes) <= snippetRunes {
		return text
	}
	return string(runes[:snippetRunes]) + "..."
}
