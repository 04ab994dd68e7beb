package main

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	// FetchTimeout is the HTTP timeout for each content fetch
	FetchTimeout = 30 * time.Second

	// FetchUserAgent identifies content fetches made on a user's behalf
	FetchUserAgent = "LLM-Council-Fetcher/1.0"

	// MaxFetchedContentLength caps extracted text attached to a query
	MaxFetchedContentLength = 20000
)

var whitespacePattern = regexp.MustCompile(`\s+`)

// FetchURLContent fetches a web page and extracts its readable text so the
// caller can attach it to a council query as context. Scripts, styles, and
// navigation chrome are stripped; the result is whitespace-normalized and
// truncated to MaxFetchedContentLength.
func FetchURLContent(ctx context.Context, url string) (string, error) {
	client := &http.Client{
		Timeout: FetchTimeout,
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", FetchUserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code %d for %s", resp.StatusCode, url)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	// Drop non-content elements before extracting text
	doc.Find("script, style, noscript, nav, header, footer, iframe").Remove()

	// Prefer the page's main content region when one is marked up
	var text string
	for _, selector := range []string{"main", "article", "body"} {
		if selection := doc.Find(selector); selection.Length() > 0 {
			text = selection.First().Text()
			break
		}
	}

	text = whitespacePattern.ReplaceAllString(strings.TrimSpace(text), " ")
	if text == "" {
		return "", fmt.Errorf("no readable content found at %s", url)
	}

	// Prepend the title when the page has one
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		text = title + "\n\n" + text
	}

	if len(text) > MaxFetchedContentLength {
		text = text[:MaxFetchedContentLength]
	}

	return text, nil
}
