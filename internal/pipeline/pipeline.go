// Package pipeline turns a client brief into a market-intelligence result by
// running the research, analysis and strategy stages in a fixed order.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/FranksOps/sift/internal/llm"
	"github.com/FranksOps/sift/internal/metrics"
	"github.com/FranksOps/sift/internal/model"
	"github.com/FranksOps/sift/internal/runlog"
	"github.com/FranksOps/sift/internal/storage"
	"github.com/FranksOps/sift/internal/strategy"
	"github.com/google/uuid"
)

var (
	// ErrInvalidBrief means a brief field was empty.
	ErrInvalidBrief = errors.New("pipeline: invalid brief")
	// ErrNoResearch means neither search provider produced usable results.
	ErrNoResearch = errors.New("pipeline: no research data collected")
)

const archiveTimeout = 10 * time.Second

// Backend is the availability check for the text-generation backend.
type Backend interface {
	Ping(ctx context.Context) error
	Model() string
}

// Collector gathers research items for a niche.
type Collector interface {
	Collect(ctx context.Context, niche, platform string, log *runlog.Log) ([]model.ResearchItem, error)
}

// Analyst produces the backend-driven analyses.
type Analyst interface {
	GenerateSubdomains(ctx context.Context, niche string, log *runlog.Log) []string
	ExtractInsights(ctx context.Context, items []model.ResearchItem, keywords []model.KeywordCount, log *runlog.Log) string
}

// Prober measures competitive intensity for detected gaps.
type Prober interface {
	Probe(ctx context.Context, gaps []model.GapResult, niche string, log *runlog.Log) ([]model.CompetitiveIntensity, error)
}

// Synthesizer writes the content strategy.
type Synthesizer interface {
	Synthesize(ctx context.Context, in strategy.Input, log *runlog.Log) (*strategy.Strategy, error)
}

// Deps are the collaborators a Pipeline drives.
type Deps struct {
	Backend     Backend
	Collector   Collector
	Analyst     Analyst
	Prober      Prober
	Synthesizer Synthesizer
}

// Config configures a Pipeline.
type Config struct {
	// Archive, when set, receives a record of every run, failed or not.
	Archive storage.Backend
	// Now defaults to time.Now.
	Now func() time.Time
}

// Pipeline runs the stages for one brief at a time. It holds no per-run
// state, so one Pipeline may serve concurrent runs.
type Pipeline struct {
	deps   Deps
	config Config
	logger *slog.Logger
}

// New creates a Pipeline.
func New(deps Deps, cfg Config, logger *slog.Logger) *Pipeline {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{deps: deps, config: cfg, logger: logger}
}

// Run executes every stage for the brief. progress, if non-nil, receives
// each run log line as it is written. The returned Result is never nil:
// on failure it holds whatever the completed stages produced, the log up
// to the failure and meta.error.
func (p *Pipeline) Run(ctx context.Context, brief model.Brief, progress func(string)) (*Result, error) {
	st := &State{
		Brief:   brief.Trimmed(),
		Log:     runlog.New(progress, p.logger),
		Started: p.config.Now(),
	}
	st.Result = newResult(st.Brief, uuid.NewString())

	err := p.run(ctx, st, brief)
	elapsed := p.config.Now().Sub(st.Started)
	if err != nil {
		st.Log.Add("ERROR: %s", err)
		st.Result.Meta.Error = err.Error()
		st.Result.Meta.ElapsedSeconds = round1(elapsed.Seconds())
		p.logger.Error("pipeline failed", "run_id", st.Result.Meta.RunID,
			"stage", st.Stage.String(), "type", Classify(err), "err", err)
	} else {
		p.logger.Info("pipeline complete", "run_id", st.Result.Meta.RunID,
			"niche", st.Brief.Niche, "elapsed", elapsed)
	}
	st.Result.PipelineLog = st.Log.Entries()

	metrics.RecordRun(elapsed, err == nil)
	p.archive(ctx, st.Result)
	return st.Result, err
}

func (p *Pipeline) run(ctx context.Context, st *State, brief model.Brief) error {
	if missing := brief.Missing(); len(missing) > 0 {
		return fmt.Errorf("%w: %s cannot be empty", ErrInvalidBrief, strings.Join(missing, ", "))
	}
	for s := StageBackendCheck; s <= StageAssemble; s++ {
		st.Stage = s
		if err := p.Handler(s).Run(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) archive(ctx context.Context, res *Result) {
	if p.config.Archive == nil {
		return
	}
	payload, err := json.Marshal(res)
	if err != nil {
		p.logger.Warn("encode run for archive", "run_id", res.Meta.RunID, "err", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()

	rec := &storage.RunRecord{
		ID:             res.Meta.RunID,
		Niche:          res.ClientProfile.Niche,
		Platform:       res.ClientProfile.Platform,
		Audience:       res.ClientProfile.Audience,
		Goal:           res.ClientProfile.Goal,
		Failed:         res.Failed(),
		Error:          res.Meta.Error,
		ElapsedSeconds: res.Meta.ElapsedSeconds,
		ResearchCount:  res.Meta.ResearchCount,
		GapsFound:      res.Meta.GapsFound,
		Result:         payload,
		CreatedAt:      p.config.Now().UTC(),
	}
	if err := p.config.Archive.Save(ctx, rec); err != nil {
		p.logger.Warn("archive run", "run_id", rec.ID, "err", err)
	}
}

// Error classes reported to API callers.
const (
	ErrorConnectivity = "connectivity"
	ErrorValidation   = "validation"
	ErrorNoData       = "no_data"
	ErrorStrategy     = "strategy"
	ErrorInternal     = "internal"
)

// Classify maps a Run error to one of the Error* classes. A nil error
// has no class.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, llm.ErrUnreachable), errors.Is(err, llm.ErrModelNotFound):
		return ErrorConnectivity
	case errors.Is(err, ErrInvalidBrief):
		return ErrorValidation
	case errors.Is(err, ErrNoResearch):
		return ErrorNoData
	case errors.Is(err, strategy.ErrDraftFailed):
		return ErrorStrategy
	default:
		return ErrorInternal
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
