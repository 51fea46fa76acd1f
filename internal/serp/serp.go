// Package serp queries HTML search endpoints and turns their result pages
// into plain result stubs.
package serp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/FranksOps/sift/internal/metrics"
	"github.com/FranksOps/sift/internal/scraper"
	"github.com/FranksOps/sift/pkg/ratelimit"
)

const (
	// DefaultAttempts is how many times a provider call is tried.
	DefaultAttempts = 2

	defaultPaceMin = 1500 * time.Millisecond
	defaultPaceMax = 3500 * time.Millisecond
)

// Result is one organic search result.
type Result struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

// Listing is a parsed result page.
type Listing struct {
	Results []Result
	// TotalEstimate is the provider's own result count, or -1 if it shows none.
	TotalEstimate int
}

// Provider is a search engine that can be queried for a result page.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string) (*Listing, error)
}

// Fetcher is the HTTP surface providers need.
type Fetcher interface {
	Get(ctx context.Context, targetURL string) (*scraper.Response, error)
	PostForm(ctx context.Context, targetURL string, form url.Values) (*scraper.Response, error)
}

// StatusError is returned when a provider answers with a non-2xx status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// BlockedError is returned when a provider serves a bot challenge instead of results.
type BlockedError struct {
	By string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("challenged by %s", e.By)
}

// DefaultPacer returns the randomized 1.5-3.5s delay used between search calls.
func DefaultPacer() *ratelimit.Pacer {
	return ratelimit.NewPacer(defaultPaceMin, defaultPaceMax)
}

func checkResponse(resp *scraper.Response) error {
	if resp.Blocked {
		return &BlockedError{By: resp.BlockedBy}
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

// transient reports whether another attempt may succeed: network failures,
// rate limiting, server errors and challenge pages.
func transient(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= http.StatusInternalServerError
	}
	return true
}

// fetchWithRetry runs do up to attempts times, pausing on pacer between
// transient failures.
func fetchWithRetry(ctx context.Context, provider string, attempts int, pacer *ratelimit.Pacer, do func() (*scraper.Response, error)) (*scraper.Response, error) {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := do()
		if err == nil {
			err = checkResponse(resp)
		}
		if err == nil {
			metrics.RecordSearch(provider, true)
			return resp, nil
		}
		lastErr = err

		if ctx.Err() != nil || !transient(err) || attempt == attempts {
			break
		}
		if werr := pacer.Wait(ctx); werr != nil {
			lastErr = werr
			break
		}
	}

	metrics.RecordSearch(provider, false)
	return nil, fmt.Errorf("%s: %w", provider, lastErr)
}

// normalizeURL is the identity used for de-duplication.
func normalizeURL(u string) string {
	return strings.ToLower(strings.TrimRight(u, "/"))
}

// Dedup keeps the first result for every URL, ignoring case and trailing slashes.
func Dedup(results []Result) []Result {
	seen := make(map[string]struct{}, len(results))
	out := make([]Result, 0, len(results))
	for _, r := range results {
		key := normalizeURL(r.URL)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}

// CountDomains counts distinct hosts, without a leading "www.", among the
// first n results.
func CountDomains(results []Result, n int) int {
	if len(results) > n {
		results = results[:n]
	}
	domains := make(map[string]struct{})
	for _, r := range results {
		u, err := url.Parse(r.URL)
		if err != nil || u.Host == "" {
			continue
		}
		host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
		domains[host] = struct{}{}
	}
	return len(domains)
}

func acceptable(u, ownDomain string) bool {
	return strings.HasPrefix(u, "http") && !strings.Contains(strings.ToLower(u), ownDomain)
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
