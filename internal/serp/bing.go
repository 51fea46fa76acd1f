package serp

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/FranksOps/sift/internal/scraper"
	"github.com/FranksOps/sift/pkg/ratelimit"
	"github.com/PuerkitoBio/goquery"
)

// DefaultBingEndpoint is the web search results page.
const DefaultBingEndpoint = "https://www.bing.com/search"

var countRe = regexp.MustCompile(`[\d,]+`)

// BingConfig configures the Bing provider.
type BingConfig struct {
	Endpoint   string
	Attempts   int
	RetryPacer *ratelimit.Pacer
}

// Bing queries the results page with a GET. It is the fallback provider
// and the source of result-count estimates for competition probes.
type Bing struct {
	fetcher Fetcher
	config  BingConfig
}

var _ Provider = (*Bing)(nil)

// NewBing creates the provider.
func NewBing(f Fetcher, cfg BingConfig) *Bing {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultBingEndpoint
	}
	if cfg.RetryPacer == nil {
		cfg.RetryPacer = DefaultPacer()
	}
	return &Bing{fetcher: f, config: cfg}
}

func (b *Bing) Name() string { return "Bing" }

func (b *Bing) Search(ctx context.Context, query string) (*Listing, error) {
	target := b.config.Endpoint + "?" + url.Values{"q": {query}}.Encode()
	resp, err := fetchWithRetry(ctx, b.Name(), b.config.Attempts, b.config.RetryPacer, func() (*scraper.Response, error) {
		return b.fetcher.Get(ctx, target)
	})
	if err != nil {
		return nil, err
	}

	listing, err := ParseBing(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	return listing, nil
}

// ParseBing extracts organic results and the "About N results" estimate.
func ParseBing(body []byte) (*Listing, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse results page: %w", err)
	}

	listing := &Listing{TotalEstimate: parseCount(doc.Find("span.sb_count").First().Text())}
	doc.Find("li.b_algo").Each(func(_ int, item *goquery.Selection) {
		a := item.Find("h2").First().Find("a").First()
		if a.Length() == 0 {
			return
		}
		href, _ := a.Attr("href")
		target := resolveBingHref(href)
		if !acceptable(target, "bing.com") {
			return
		}
		listing.Results = append(listing.Results, Result{
			Title:   cleanText(a.Text()),
			Snippet: cleanText(item.Find("p").First().Text()),
			URL:     target,
		})
	})
	return listing, nil
}

func parseCount(text string) int {
	m := countRe.FindString(text)
	if m == "" {
		return -1
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m, ",", ""))
	if err != nil {
		return -1
	}
	return n
}

// resolveBingHref unwraps /ck/a click-tracking links, whose u parameter is
// "a1" followed by the unpadded base64url target.
func resolveBingHref(href string) string {
	href = strings.TrimSpace(href)
	u, err := url.Parse(href)
	if err != nil || !strings.HasSuffix(u.Hostname(), "bing.com") || u.Path != "/ck/a" {
		return href
	}
	enc := u.Query().Get("u")
	if !strings.HasPrefix(enc, "a1") {
		return href
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(enc[2:], "="))
	if err != nil {
		return href
	}
	return string(raw)
}
