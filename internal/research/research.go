// Package research collects scored, extracted and summarized research items
// for a niche, reusing a fresh cached set when one exists.
package research

import (
	"context"
	"log/slog"
	"sort"

	"github.com/FranksOps/sift/internal/analyzer"
	"github.com/FranksOps/sift/internal/cache"
	"github.com/FranksOps/sift/internal/model"
	"github.com/FranksOps/sift/internal/runlog"
	"github.com/FranksOps/sift/internal/serp"
	"github.com/FranksOps/sift/pkg/ratelimit"
)

// DefaultExtractLimit is how many of the best-scored results get their
// page content extracted.
const DefaultExtractLimit = 5

// Searcher finds result stubs for a niche.
type Searcher interface {
	Search(ctx context.Context, niche, platform string, log *runlog.Log) ([]serp.Result, error)
}

// Extractor pulls readable text from a page; "" means unusable.
type Extractor interface {
	Extract(ctx context.Context, url string) string
}

// Summarizer condenses extracted text; "" means no summary.
type Summarizer interface {
	Summarize(ctx context.Context, title, content string) string
}

// Config configures a Researcher.
type Config struct {
	ExtractLimit int
	// Pacer spaces out page fetches. Defaults to serp.DefaultPacer.
	Pacer *ratelimit.Pacer
}

// Researcher runs the retrieval stage.
type Researcher struct {
	cache      cache.Store
	searcher   Searcher
	extractor  Extractor
	summarizer Summarizer
	config     Config
	logger     *slog.Logger
}

// New creates a Researcher. A nil store disables caching.
func New(store cache.Store, s Searcher, e Extractor, sum Summarizer, cfg Config, logger *slog.Logger) *Researcher {
	if store == nil {
		store = cache.Nop{}
	}
	if cfg.ExtractLimit <= 0 {
		cfg.ExtractLimit = DefaultExtractLimit
	}
	if cfg.Pacer == nil {
		cfg.Pacer = serp.DefaultPacer()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Researcher{
		cache:      store,
		searcher:   s,
		extractor:  e,
		summarizer: sum,
		config:     cfg,
		logger:     logger,
	}
}

// Collect returns research items for the niche, best-scored first. An
// empty result means no provider produced anything; the only error is
// context cancellation.
func (r *Researcher) Collect(ctx context.Context, niche, platform string, log *runlog.Log) ([]model.ResearchItem, error) {
	if cached := r.cache.Load(ctx, niche, platform); len(cached) > 0 {
		log.Add("Loaded %d results from cache.", len(cached))
		return cached, nil
	}

	results, err := r.searcher.Search(ctx, niche, platform, log)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	items := make([]model.ResearchItem, len(results))
	for i, res := range results {
		items[i] = model.ResearchItem{
			Title:   res.Title,
			Snippet: res.Snippet,
			URL:     res.URL,
			Score:   analyzer.Score(res.Title, res.Snippet),
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Score > items[j].Score })

	n := min(r.config.ExtractLimit, len(items))
	extracted := 0
	for i := 0; i < n; i++ {
		if content := r.extractor.Extract(ctx, items[i].URL); content != "" {
			items[i].Content = content
			extracted++
		}
		if err := r.config.Pacer.Wait(ctx); err != nil {
			return nil, err
		}
	}
	log.Add("Extracted content from %d/%d pages.", extracted, n)

	summarized := 0
	for i := range items {
		if items[i].Content == "" {
			continue
		}
		items[i].Summary = r.summarizer.Summarize(ctx, items[i].Title, items[i].Content)
		if items[i].Summary != "" {
			summarized++
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log.Add("Summarized %d pages.", summarized)

	r.cache.Save(ctx, niche, platform, items)
	r.logger.Debug("research collected", "niche", niche, "platform", platform,
		"items", len(items), "extracted", extracted, "summarized", summarized)
	return items, nil
}
