package serp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/FranksOps/sift/internal/analyzer"
	"github.com/FranksOps/sift/internal/runlog"
	"github.com/FranksOps/sift/pkg/ratelimit"
)

const (
	// MaxResults caps the combined, de-duplicated result set.
	MaxResults = 12
	// enoughResults is the count below which another query is attempted.
	enoughResults = 5
)

// SearcherConfig configures a Searcher.
type SearcherConfig struct {
	// Pacer spaces out successive queries. Defaults to DefaultPacer.
	Pacer *ratelimit.Pacer
	// Now supplies the year used in the primary query.
	Now func() time.Time
}

// Searcher runs the query plan for a niche: the primary provider first,
// an enriched second query when results are thin, then the fallback.
type Searcher struct {
	primary  Provider
	fallback Provider
	config   SearcherConfig
}

// NewSearcher creates a Searcher. fallback may be nil.
func NewSearcher(primary, fallback Provider, cfg SearcherConfig) *Searcher {
	if cfg.Pacer == nil {
		cfg.Pacer = DefaultPacer()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Searcher{primary: primary, fallback: fallback, config: cfg}
}

// BuildQueries returns the primary and enriched query for a niche.
func BuildQueries(niche, platform string, year int) (string, string) {
	primary := fmt.Sprintf("%s %s content strategy %d", niche, platform, year)

	if term, ok := analyzer.EnrichmentTerm(niche); ok {
		return primary, fmt.Sprintf("%s %s %s", niche, term, platform)
	}
	words := strings.Fields(niche)
	if len(words) > 3 {
		words = words[:3]
	}
	return primary, fmt.Sprintf("%s %s tips", strings.Join(words, " "), platform)
}

// Search collects up to MaxResults unique results. Provider failures are
// logged and absorbed; only context cancellation is returned as an error.
func (s *Searcher) Search(ctx context.Context, niche, platform string, log *runlog.Log) ([]Result, error) {
	primaryQ, enrichedQ := BuildQueries(niche, platform, s.config.Now().Year())

	var all []Result
	all = append(all, s.query(ctx, s.primary, primaryQ, "search", log)...)

	if len(all) < enoughResults {
		if err := s.config.Pacer.Wait(ctx); err != nil {
			return nil, err
		}
		all = append(all, s.query(ctx, s.primary, enrichedQ, "enriched", log)...)
	}

	if len(all) < enoughResults && s.fallback != nil {
		if err := s.config.Pacer.Wait(ctx); err != nil {
			return nil, err
		}
		all = append(all, s.query(ctx, s.fallback, primaryQ, "fallback", log)...)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unique := Dedup(all)
	if len(unique) == 0 {
		log.Add("No results from any search engine.")
		return nil, nil
	}
	if len(unique) > MaxResults {
		unique = unique[:MaxResults]
	}
	return unique, nil
}

func (s *Searcher) query(ctx context.Context, p Provider, q, kind string, log *runlog.Log) []Result {
	log.Add("%s %s: '%s'", p.Name(), kind, q)
	listing, err := p.Search(ctx, q)
	if err != nil {
		log.Add("%s failed: %s", p.Name(), truncate(err.Error(), 80))
		return nil
	}
	log.Add("%s returned %d results.", p.Name(), len(listing.Results))
	return listing.Results
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
