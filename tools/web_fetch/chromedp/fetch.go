package chromedp

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/go-shiori/go-readability"

	"github.com/Munger/llm-interface/tools/web_fetch/models"
)

// Fetch renders pages in headless Chrome before extraction, for sites that
// only produce useful content after JavaScript runs.
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

	html, err := fetchHTML(ctx, rawURL)
	if err != nil {
		return models.Result{}, fmt.Errorf("rendering %s: %w", rawURL, err)
	}

	article, err := readability.FromReader(strings.NewReader(html), parsed)
	if err != nil {
		return models.Result{
			URL:     rawURL,
			Status:  200,
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
		Status:  200,
		FetchMS: int(time.Since(t0) / time.Millisecond),
	}, nil
}

func fetchHTML(ctx context.Context, url string) (string, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", err
	}
	return html, nil
}
