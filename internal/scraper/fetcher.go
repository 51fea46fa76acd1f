package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/FranksOps/sift/internal/bypass"
	"github.com/FranksOps/sift/internal/fingerprint"
	"github.com/FranksOps/sift/internal/metrics"
	"github.com/FranksOps/sift/pkg/httpclient"
	"github.com/FranksOps/sift/pkg/proxy"
	"github.com/FranksOps/sift/pkg/useragent"
	"github.com/google/uuid"
)

// FetchConfig configures a Fetcher.
type FetchConfig struct {
	Timeout      time.Duration
	MaxRedirects int
	MaxBodyBytes int64
	UseCookieJar bool
	UAPool       *useragent.Pool
	Fingerprint  fingerprint.Profile
	// Proxies, when non-empty, routes each request through the next usable
	// proxy. Requests go direct while every proxy is benched.
	Proxies *proxy.Pool
	// InsecureSkipVerify disables certificate checks. Only meant for tests.
	InsecureSkipVerify bool
}

// Response is the captured outcome of one request.
type Response struct {
	ID         string
	URL        string
	Method     string
	StatusCode int
	Header     http.Header
	Body       []byte
	Duration   time.Duration
	Blocked    bool
	BlockedBy  string // e.g. "Cloudflare", "DuckDuckGo", "Bing"
	CreatedAt  time.Time
}

// ContentType returns the media type of the response without parameters.
func (r *Response) ContentType() string {
	ct := r.Header.Get("Content-Type")
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

// Fetcher performs single requests with a rotating User-Agent, browser-like
// headers and a fingerprinted TLS handshake.
type Fetcher struct {
	config FetchConfig
	client *httpclient.Client
}

// NewFetcher initializes a new Fetcher with the given configuration.
// The underlying client is shared across requests so connections are pooled.
func NewFetcher(cfg FetchConfig) (*Fetcher, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.UAPool == nil {
		cfg.UAPool = useragent.NewPool(nil)
	}
	if string(cfg.Fingerprint) == "" {
		cfg.Fingerprint = fingerprint.ProfileChrome
	}

	opts := fingerprint.Options{InsecureSkipVerify: cfg.InsecureSkipVerify}
	if cfg.Proxies != nil {
		opts.Proxy = proxy.FromRequest
	}
	transport, err := fingerprint.Transport(cfg.Fingerprint, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to setup transport: %w", err)
	}

	client, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRedirects: cfg.MaxRedirects,
		MaxBodyBytes: cfg.MaxBodyBytes,
		UseCookieJar: cfg.UseCookieJar,
		Transport:    transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Fetcher{
		config: cfg,
		client: client,
	}, nil
}

// Get fetches targetURL. The returned Response is never nil, so callers can
// log and measure failed attempts too.
func (f *Fetcher) Get(ctx context.Context, targetURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return newResponse(targetURL, http.MethodGet), fmt.Errorf("failed to create request: %w", err)
	}
	return f.do(ctx, req)
}

// PostForm submits form as application/x-www-form-urlencoded to targetURL.
func (f *Fetcher) PostForm(ctx context.Context, targetURL string, form url.Values) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, targetURL, strings.NewReader(form.Encode()))
	if err != nil {
		return newResponse(targetURL, http.MethodPost), fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if u, perr := url.Parse(targetURL); perr == nil {
		req.Header.Set("Origin", u.Scheme+"://"+u.Host)
		req.Header.Set("Referer", u.Scheme+"://"+u.Host+"/")
	}
	return f.do(ctx, req)
}

func newResponse(targetURL, method string) *Response {
	return &Response{
		ID:        uuid.New().String(),
		URL:       targetURL,
		Method:    method,
		Header:    http.Header{},
		CreatedAt: time.Now().UTC(),
	}
}

func (f *Fetcher) do(ctx context.Context, req *http.Request) (*Response, error) {
	result := newResponse(req.URL.String(), req.Method)
	start := time.Now()

	for k, v := range useragent.BrowserHeaders(f.config.UAPool.GetRandom()) {
		if req.Header.Get(k) == "" {
			req.Header[k] = v
		}
	}

	domain := req.URL.Hostname()

	var via *url.URL
	if f.config.Proxies != nil {
		via = f.config.Proxies.Next()
		ctx = proxy.WithURL(ctx, via)
	}

	resp, err := f.client.Do(ctx, req)
	if err != nil {
		result.Duration = time.Since(start)
		f.reportProxy(via, false)
		metrics.RecordFetch(domain, metrics.FetchOutcome{Duration: result.Duration, Failed: true})
		return result, fmt.Errorf("request failed: %w", err)
	}

	body, readErr := f.client.ReadBody(resp)

	result.StatusCode = resp.StatusCode
	result.Header = resp.Header
	result.Body = body
	result.Duration = time.Since(start)
	if resp.Request != nil && resp.Request.URL != nil {
		result.URL = resp.Request.URL.String()
	}

	result.Blocked, result.BlockedBy = bypass.Analyze(bypass.Page{
		URL:        result.URL,
		StatusCode: result.StatusCode,
		Header:     result.Header,
		Body:       result.Body,
	}, bypass.DefaultDetectors())

	metrics.RecordFetch(domain, metrics.FetchOutcome{
		StatusCode: result.StatusCode,
		Bytes:      len(result.Body),
		Duration:   result.Duration,
		BlockedBy:  result.BlockedBy,
		Failed:     readErr != nil,
	})

	f.reportProxy(via, readErr == nil && !result.Blocked)

	if readErr != nil {
		return result, fmt.Errorf("failed to read body: %w", readErr)
	}
	return result, nil
}

func (f *Fetcher) reportProxy(via *url.URL, ok bool) {
	if via != nil {
		_ = f.config.Proxies.Report(via, ok)
	}
}
