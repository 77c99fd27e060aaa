// Package video_search finds videos by running platform-targeted web
// searches and filtering the hits with per-platform URL heuristics.
package video_search

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/Munger/llm-interface/tools/web_search"
)

type Video struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Platform    string `json:"platform"`
	Description string `json:"description"`
}

type Searcher struct {
	Web web_search.WebSearcher
}

// Search looks for videos about a query on the given platform. It requests
// extra web results because only a fraction of hits are direct video links.
func (s Searcher) Search(ctx context.Context, query, platform string, k int) ([]Video, error) {
	if platform == "" {
		platform = "youtube"
	}
	platformQuery := fmt.Sprintf("%s %s video", query, platform)

	hits, err := s.Web.Search(ctx, platformQuery, k*2)
	if err != nil {
		return nil, err
	}

	var videos []Video
	for _, hit := range hits {
		if !IsVideoURL(hit.URL, platform) {
			continue
		}
		videos = append(videos, Video{
			Title:       hit.Title,
			URL:         hit.URL,
			Platform:    platform,
			Description: hit.Snippet,
		})
		if len(videos) >= k {
			break
		}
	}
	return videos, nil
}

var vimeoVideoRe = regexp.MustCompile(`vimeo\.com/\d+`)

// IsVideoURL reports whether a URL looks like a direct video link on the
// given platform.
func IsVideoURL(url, platform string) bool {
	url = strings.ToLower(url)
	switch strings.ToLower(platform) {
	case "youtube":
		return strings.Contains(url, "youtube.com/watch") || strings.Contains(url, "youtu.be/")
	case "vimeo":
		return vimeoVideoRe.MatchString(url)
	case "dailymotion":
		return strings.Contains(url, "dailymotion.com/video")
	default:
		return strings.Contains(url, strings.ToLower(platform)) && strings.Contains(url, "video")
	}
}
