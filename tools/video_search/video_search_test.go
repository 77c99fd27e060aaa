package video_search

import (
	"context"
	"testing"

	"github.com/Munger/llm-interface/tools/web_search/models"
)

type stubWeb struct {
	gotQuery string
	hits     []models.Result
}

func (s *stubWeb) Search(_ context.Context, q string, _ int) ([]models.Result, error) {
	s.gotQuery = q
	return s.hits, nil
}

func TestIsVideoURL(t *testing.T) {
	cases := []struct {
		url      string
		platform string
		want     bool
	}{
		{"https://www.youtube.com/watch?v=abc123", "youtube", true},
		{"https://youtu.be/abc123", "youtube", true},
		{"https://www.youtube.com/results?search_query=x", "youtube", false},
		{"https://vimeo.com/123456", "vimeo", true},
		{"https://vimeo.com/about", "vimeo", false},
		{"https://www.dailymotion.com/video/x7abc", "dailymotion", true},
		{"https://example.com/blog", "youtube", false},
	}
	for _, c := range cases {
		if got := IsVideoURL(c.url, c.platform); got != c.want {
			t.Fatalf("IsVideoURL(%q, %q) = %v, want %v", c.url, c.platform, got, c.want)
		}
	}
}

func TestSearchFiltersNonVideoHits(t *testing.T) {
	web := &stubWeb{hits: []models.Result{
		{Title: "Watch this", URL: "https://www.youtube.com/watch?v=ok1", Snippet: "s"},
		{Title: "Blog post", URL: "https://example.com/blog"},
		{Title: "Another", URL: "https://youtu.be/ok2"},
	}}
	s := Searcher{Web: web}

	videos, err := s.Search(context.Background(), "cooking pasta", "youtube", 5)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if web.gotQuery != "cooking pasta youtube video" {
		t.Fatalf("platform not folded into query: %q", web.gotQuery)
	}
	if len(videos) != 2 {
		t.Fatalf("expected 2 videos, got %+v", videos)
	}
	if videos[0].Platform != "youtube" || videos[0].URL != "https://www.youtube.com/watch?v=ok1" {
		t.Fatalf("unexpected first video: %+v", videos[0])
	}
}

func TestSearchCapsResults(t *testing.T) {
	web := &stubWeb{hits: []models.Result{
		{URL: "https://youtu.be/a"},
		{URL: "https://youtu.be/b"},
		{URL: "https://youtu.be/c"},
	}}
	videos, err := Searcher{Web: web}.Search(context.Background(), "q", "youtube", 2)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(videos) != 2 {
		t.Fatalf("expected cap at 2, got %d", len(videos))
	}
}
