package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/FranksOps/sift/internal/cache"
	"github.com/FranksOps/sift/internal/config"
	"github.com/FranksOps/sift/internal/extract"
	"github.com/FranksOps/sift/internal/fingerprint"
	"github.com/FranksOps/sift/internal/intel"
	"github.com/FranksOps/sift/internal/llm"
	"github.com/FranksOps/sift/internal/pipeline"
	"github.com/FranksOps/sift/internal/research"
	"github.com/FranksOps/sift/internal/scraper"
	"github.com/FranksOps/sift/internal/serp"
	"github.com/FranksOps/sift/internal/storage"
	"github.com/FranksOps/sift/internal/storage/jsonbackend"
	"github.com/FranksOps/sift/internal/storage/postgres"
	"github.com/FranksOps/sift/internal/storage/sqlite"
	"github.com/FranksOps/sift/internal/strategy"
	"github.com/FranksOps/sift/pkg/proxy"
	"github.com/FranksOps/sift/pkg/ratelimit"
)

// app holds the wired components for one process.
type app struct {
	backend  *llm.Client
	pipeline *pipeline.Pipeline
	archive  storage.Backend
	closers  []func() error
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	fetcher, err := newFetcher(cfg.Search)
	if err != nil {
		return nil, err
	}

	pacer := ratelimit.NewPacer(cfg.Search.MinDelay, cfg.Search.MaxDelay)
	ddg := serp.NewDuckDuckGo(fetcher, serp.DuckDuckGoConfig{
		Endpoint:   cfg.Search.DuckDuckGoEndpoint,
		Attempts:   cfg.Search.Attempts,
		RetryPacer: pacer,
	})
	bing := serp.NewBing(fetcher, serp.BingConfig{
		Endpoint:   cfg.Search.BingEndpoint,
		Attempts:   cfg.Search.Attempts,
		RetryPacer: pacer,
	})
	searcher := serp.NewSearcher(ddg, bing, serp.SearcherConfig{Pacer: pacer})

	a.backend, err = llm.NewClient(llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		NumCtx:      cfg.LLM.NumCtx,
		PingTimeout: cfg.LLM.PingTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("llm client: %w", err)
	}

	store, err := a.openCache(ctx, cfg.Cache, logger)
	if err != nil {
		return nil, err
	}

	var robots extract.RobotsChecker
	if cfg.Extract.RespectRobots {
		robots = scraper.NewRobotsGate(fetcher, 0, logger)
	}
	extractor := extract.New(fetcher, robots, extract.Config{
		Timeout:   cfg.Extract.Timeout,
		UserAgent: cfg.Extract.UserAgent,
	}, logger)

	analyst := intel.New(a.backend, logger)
	researcher := research.New(store, searcher, extractor, analyst, research.Config{
		ExtractLimit: cfg.Extract.Limit,
		Pacer:        pacer,
	}, logger)

	a.archive, err = openArchive(ctx, cfg.Archive)
	if err != nil {
		return nil, err
	}
	if a.archive != nil {
		a.closers = append(a.closers, a.archive.Close)
	}

	a.pipeline = pipeline.New(pipeline.Deps{
		Backend:     a.backend,
		Collector:   researcher,
		Analyst:     analyst,
		Prober:      intel.NewProber(bing, ratelimit.Fixed(cfg.Search.ProbeDelay), logger),
		Synthesizer: strategy.New(a.backend, logger),
	}, pipeline.Config{Archive: a.archive}, logger)

	return a, nil
}

func newFetcher(cfg config.SearchConfig) (*scraper.Fetcher, error) {
	profile, err := fingerprint.ParseProfile(cfg.Fingerprint)
	if err != nil {
		return nil, err
	}

	var pool *proxy.Pool
	if len(cfg.Proxies) > 0 || cfg.ProxyFile != "" {
		pool = proxy.NewPool(proxy.Config{})
		if err := pool.Add(cfg.Proxies...); err != nil {
			return nil, err
		}
		if cfg.ProxyFile != "" {
			if err := pool.LoadFile(cfg.ProxyFile); err != nil {
				return nil, err
			}
		}
	}

	f, err := scraper.NewFetcher(scraper.FetchConfig{
		Timeout:     cfg.Timeout,
		Fingerprint: profile,
		Proxies:     pool,
	})
	if err != nil {
		return nil, fmt.Errorf("fetcher: %w", err)
	}
	return f, nil
}

func (a *app) openCache(ctx context.Context, cfg config.CacheConfig, logger *slog.Logger) (cache.Store, error) {
	switch cfg.Backend {
	case config.CacheNone:
		return cache.Nop{}, nil
	case config.CacheRedis:
		rs, err := cache.NewRedisStore(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
			TTL:      cfg.TTL,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		a.closers = append(a.closers, rs.Close)
		return rs, nil
	default:
		fs, err := cache.NewFileStore(cfg.Dir, cfg.TTL, logger)
		if err != nil {
			return nil, fmt.Errorf("file cache: %w", err)
		}
		return fs, nil
	}
}

// openArchive returns a nil Backend when archiving is off.
func openArchive(ctx context.Context, cfg config.ArchiveConfig) (storage.Backend, error) {
	var (
		b   storage.Backend
		err error
	)
	switch cfg.Backend {
	case config.ArchiveJSON:
		b, err = jsonbackend.New(cfg.Path)
	case config.ArchiveSQLite:
		b, err = sqlite.New(cfg.Path)
	case config.ArchivePostgres:
		b, err = postgres.New(ctx, cfg.DSN)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s archive: %w", cfg.Backend, err)
	}
	return b, nil
}
