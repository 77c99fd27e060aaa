package web_fetch

import (
	"context"
	"errors"
	"time"

	"github.com/Munger/llm-interface/tools/web_fetch/chromedp"
	"github.com/Munger/llm-interface/tools/web_fetch/httpfetch"
	"github.com/Munger/llm-interface/tools/web_fetch/models"
)

const (
	DefaultTimeout  = 15 * time.Second
	MaxCharsDefault = 20000
)

// WebFetcher retrieves a page and extracts its readable content.
// An error means the fetch failed; a Result with empty Text means the page
// was reached but yielded no extractable content.
type WebFetcher interface {
	Fetch(ctx context.Context, url string) (models.Result, error)
}

type FetcherType string

const (
	HTTPFetcherType     FetcherType = "http"
	ChromedpFetcherType FetcherType = "chromedp"
)

var ErrUnsupportedFetcher = errors.New("unsupported fetcher type")

func NewWebFetcher(fetcherType FetcherType, timeout time.Duration, maxChars int) (WebFetcher, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxChars <= 0 {
		maxChars = MaxCharsDefault
	}

	switch fetcherType {
	case HTTPFetcherType:
		return &httpfetch.Fetch{Timeout: timeout, MaxChars: maxChars}, nil
	case ChromedpFetcherType:
		return &chromedp.Fetch{Timeout: timeout, MaxChars: maxChars}, nil
	default:
		return nil, ErrUnsupportedFetcher
	}
}
