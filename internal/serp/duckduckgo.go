package serp

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/FranksOps/sift/internal/scraper"
	"github.com/FranksOps/sift/pkg/ratelimit"
	"github.com/PuerkitoBio/goquery"
)

// DefaultDuckDuckGoEndpoint is the JavaScript-free results endpoint.
const DefaultDuckDuckGoEndpoint = "https://html.duckduckgo.com/html/"

var uddgRe = regexp.MustCompile(`uddg=([^&]+)`)

// DuckDuckGoConfig configures the DuckDuckGo provider.
type DuckDuckGoConfig struct {
	Endpoint string
	Attempts int
	// RetryPacer spaces out retries. Defaults to DefaultPacer.
	RetryPacer *ratelimit.Pacer
}

// DuckDuckGo queries the HTML results page with a form POST.
type DuckDuckGo struct {
	fetcher Fetcher
	config  DuckDuckGoConfig
}

var _ Provider = (*DuckDuckGo)(nil)

// NewDuckDuckGo creates the provider.
func NewDuckDuckGo(f Fetcher, cfg DuckDuckGoConfig) *DuckDuckGo {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultDuckDuckGoEndpoint
	}
	if cfg.RetryPacer == nil {
		cfg.RetryPacer = DefaultPacer()
	}
	return &DuckDuckGo{fetcher: f, config: cfg}
}

func (d *DuckDuckGo) Name() string { return "DuckDuckGo" }

func (d *DuckDuckGo) Search(ctx context.Context, query string) (*Listing, error) {
	form := url.Values{"q": {query}, "b": {""}}
	resp, err := fetchWithRetry(ctx, d.Name(), d.config.Attempts, d.config.RetryPacer, func() (*scraper.Response, error) {
		return d.fetcher.PostForm(ctx, d.config.Endpoint, form)
	})
	if err != nil {
		return nil, err
	}

	results, err := ParseDuckDuckGo(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.Name(), err)
	}
	return &Listing{Results: results, TotalEstimate: -1}, nil
}

// ParseDuckDuckGo extracts organic results from an HTML results page.
func ParseDuckDuckGo(body []byte) ([]Result, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse results page: %w", err)
	}

	var results []Result
	doc.Find("a.result__a").Each(func(_ int, a *goquery.Selection) {
		title := cleanText(a.Text())
		if title == "" {
			return
		}
		href, _ := a.Attr("href")
		target := resolveDuckDuckGoHref(href)
		if !acceptable(target, "duckduckgo.com") {
			return
		}

		container := a.Closest("div.result")
		if container.Length() == 0 {
			container = a.Closest("div.result__body")
		}
		snippet := cleanText(container.Find("a.result__snippet, td.result__snippet").First().Text())

		results = append(results, Result{Title: title, Snippet: snippet, URL: target})
	})
	return results, nil
}

// resolveDuckDuckGoHref unwraps the /l/?uddg= redirect links.
func resolveDuckDuckGoHref(href string) string {
	href = strings.TrimSpace(href)
	if strings.Contains(href, "uddg=") {
		m := uddgRe.FindStringSubmatch(href)
		if m == nil {
			return ""
		}
		target, err := url.QueryUnescape(m[1])
		if err != nil {
			return ""
		}
		return target
	}
	if strings.HasPrefix(href, "http") {
		return href
	}
	return ""
}
