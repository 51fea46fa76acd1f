// Package proxy rotates outbound requests across a list of proxies and
// benches the ones that keep failing.
package proxy

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
)

// ErrUnknown is returned when reporting on a proxy the pool does not hold.
var ErrUnknown = errors.New("proxy: not in pool")

type entry struct {
	url       *url.URL
	failures  int
	successes int
	benchedAt time.Time
	benched   bool
}

// Stats is a point-in-time view of one proxy.
type Stats struct {
	URL       string
	Failures  int
	Successes int
	Benched   bool
}

// Config configures a Pool.
type Config struct {
	// MaxFailures is the number of consecutive failures that benches a proxy.
	MaxFailures int
	// Cooldown is how long a benched proxy sits out.
	Cooldown time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// Pool hands out proxies round-robin, skipping benched ones.
type Pool struct {
	mu      sync.Mutex
	entries []*entry
	next    int
	config  Config
}

// NewPool creates an empty pool.
func NewPool(cfg Config) *Pool {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 5 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Pool{config: cfg}
}

// LoadFile adds the proxies listed in path, one per line.
func (p *Pool) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open proxy list: %w", err)
	}
	defer f.Close()
	return p.Read(f)
}

// Read adds proxies from r. Blank lines and lines starting with '#' are
// skipped.
func (p *Pool) Read(r io.Reader) error {
	var raw []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		raw = append(raw, line)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read proxy list: %w", err)
	}
	return p.Add(raw...)
}

// Add parses and appends proxies. A missing scheme means http. Duplicates
// are ignored.
func (p *Pool) Add(raw ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, s := range raw {
		if !strings.Contains(s, "://") {
			s = "http://" + s
		}
		u, err := url.Parse(s)
		if err != nil {
			return fmt.Errorf("parse proxy %q: %w", s, err)
		}
		if u.Host == "" {
			return fmt.Errorf("parse proxy %q: missing host", s)
		}
		if p.find(u) == nil {
			p.entries = append(p.entries, &entry{url: u})
		}
	}
	return nil
}

// Len returns the number of proxies, benched or not.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Next returns the next usable proxy, or nil when the pool is empty or
// every proxy is benched.
func (p *Pool) Next() *url.URL {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.config.Now()
	for range p.entries {
		e := p.entries[p.next]
		p.next = (p.next + 1) % len(p.entries)

		if e.benched && now.Sub(e.benchedAt) >= p.config.Cooldown {
			e.benched = false
			e.failures = 0
		}
		if !e.benched {
			return e.url
		}
	}
	return nil
}

// Report records the outcome of a request sent through u. A success
// clears the failure streak.
func (p *Pool) Report(u *url.URL, ok bool) error {
	if u == nil {
		return ErrUnknown
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	e := p.find(u)
	if e == nil {
		return ErrUnknown
	}
	if ok {
		e.successes++
		e.failures = 0
		return nil
	}
	e.failures++
	if e.failures >= p.config.MaxFailures {
		e.benched = true
		e.benchedAt = p.config.Now()
	}
	return nil
}

// Stats returns a snapshot of every proxy in pool order.
func (p *Pool) Stats() []Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Stats, len(p.entries))
	for i, e := range p.entries {
		out[i] = Stats{URL: e.url.String(), Failures: e.failures, Successes: e.successes, Benched: e.benched}
	}
	return out
}

// must hold p.mu
func (p *Pool) find(u *url.URL) *entry {
	target := u.String()
	for _, e := range p.entries {
		if e.url.String() == target {
			return e
		}
	}
	return nil
}

type ctxKey struct{}

// WithURL attaches the proxy chosen for a request to ctx.
func WithURL(ctx context.Context, u *url.URL) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// FromRequest is an http.Transport Proxy func that routes through the
// proxy attached by WithURL, or connects directly when none is attached.
func FromRequest(req *http.Request) (*url.URL, error) {
	u, _ := req.Context().Value(ctxKey{}).(*url.URL)
	return u, nil
}
