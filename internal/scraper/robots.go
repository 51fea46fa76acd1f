package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// DefaultRobotsTTL is how long a site's robots.txt answer is reused.
const DefaultRobotsTTL = time.Hour

// RobotsGate decides whether a research page may be extracted, based on the
// robots.txt of the page's origin. Answers are kept per origin for a TTL so
// a long-running server picks up changes.
type RobotsGate struct {
	fetcher *Fetcher
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger

	mu    sync.Mutex
	sites map[string]siteRules
}

// siteRules is one origin's parsed robots.txt. A nil data means every path
// is open (missing file or 4xx).
type siteRules struct {
	data    *robotstxt.RobotsData
	fetched time.Time
}

// NewRobotsGate creates a gate that fetches robots.txt through fetcher.
func NewRobotsGate(fetcher *Fetcher, ttl time.Duration, logger *slog.Logger) *RobotsGate {
	if ttl <= 0 {
		ttl = DefaultRobotsTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RobotsGate{
		fetcher: fetcher,
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
		sites:   make(map[string]siteRules),
	}
}

// Allowed reports whether agent may fetch pageURL. An unreachable, blocked
// or unparsable robots.txt allows the page and is retried on the next call.
func (g *RobotsGate) Allowed(ctx context.Context, pageURL, agent string) (bool, error) {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return false, fmt.Errorf("robots: invalid page url %q", pageURL)
	}
	origin := u.Scheme + "://" + u.Host

	rules, err := g.rules(ctx, origin)
	if err != nil {
		g.logger.Debug("robots.txt unavailable, allowing page", "origin", origin, "err", err)
		return true, nil
	}
	if rules.data == nil {
		return true, nil
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return rules.data.TestAgent(path, agent), nil
}

// rules returns the cached rules for origin, fetching them when absent or
// stale. The lock is held across the fetch so one origin is fetched once.
func (g *RobotsGate) rules(ctx context.Context, origin string) (siteRules, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if r, ok := g.sites[origin]; ok && g.now().Sub(r.fetched) < g.ttl {
		return r, nil
	}

	resp, err := g.fetcher.Get(ctx, origin+"/robots.txt")
	if err != nil {
		return siteRules{}, err
	}
	if resp.Blocked {
		return siteRules{}, fmt.Errorf("robots.txt behind %s challenge", resp.BlockedBy)
	}

	r := siteRules{fetched: g.now()}
	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return siteRules{}, fmt.Errorf("robots.txt status %d", resp.StatusCode)
	case resp.StatusCode >= http.StatusBadRequest:
		// no rules
	default:
		r.data, err = robotstxt.FromBytes(resp.Body)
		if err != nil {
			return siteRules{}, fmt.Errorf("parse robots.txt: %w", err)
		}
	}
	g.sites[origin] = r
	return r, nil
}
