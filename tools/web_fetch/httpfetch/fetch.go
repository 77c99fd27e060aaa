package httpfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"

	"github.com/Munger/llm-interface/tools/web_fetch/models"
)

// Fetch retrieves pages with a plain HTTP client and extracts article text
// with readability. Good enough for static pages; JS-heavy sites need the
// chromedp fetcher.
type Fetch struct {
	Timeout  time.Duration
	MaxChars int
}

func (f Fetch) Fetch(ctx context.Context, rawURL string) (models.Result, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return models.Result{}, errors.New("invalid url")
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return models.Result{}, fmt.Errorf("invalid url: %q", rawURL)
	}

	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()
	t0 := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return models.Result{}, err
	}
	req.Header.Set("User-Agent", "llm-interface/1.0")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return models.Result{}, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Result{}, fmt.Errorf("fetching %s: status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return models.Result{}, fmt.Errorf("reading %s: %w", rawURL, err)
	}

	article, err := readability.FromReader(strings.NewReader(string(body)), parsed)
	if err != nil {
		return models.Result{
			URL:     rawURL,
			Status:  resp.StatusCode,
			FetchMS: int(time.Since(t0) / time.Millisecond),
		}, nil
	}

	text := strings.TrimSpace(article.TextContent)
	if len(text) > f.MaxChars {
		text = text[:f.MaxChars]
	}

	return models.Result{
		URL:     rawURL,
		Title:   strings.TrimSpace(article.Title),
		Byline:  strings.TrimSpace(article.Byline),
		Text:    text,
		Status:  resp.StatusCode,
		FetchMS: int(time.Since(t0) / time.Millisecond),
	}, nil
}
