package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/FranksOps/sift/internal/analyzer"
	"github.com/FranksOps/sift/internal/intel"
	"github.com/FranksOps/sift/internal/model"
	"github.com/FranksOps/sift/internal/runlog"
	"github.com/FranksOps/sift/internal/strategy"
)

// Stage identifies one step of a run. Stages execute in declaration order.
type Stage int

const (
	StageBackendCheck Stage = iota
	StageResearch
	StageAlignment
	StageKeywords
	StageSignal
	StageSaturation
	StageSubdomains
	StageGaps
	StageCompetitive
	StageInsights
	StageStrategy
	StageAssemble
)

var stageNames = [...]string{
	StageBackendCheck: "backend_check",
	StageResearch:     "research",
	StageAlignment:    "alignment",
	StageKeywords:     "keywords",
	StageSignal:       "signal",
	StageSaturation:   "saturation",
	StageSubdomains:   "subdomains",
	StageGaps:         "gaps",
	StageCompetitive:  "competitive",
	StageInsights:     "insights",
	StageStrategy:     "strategy",
	StageAssemble:     "assemble",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// State is the working set shared by the stages of one run.
type State struct {
	Brief   model.Brief
	Stage   Stage
	Started time.Time
	Log     *runlog.Log
	Result  *Result

	Items      []model.ResearchItem
	Keywords   []model.KeywordCount
	Subdomains []string
}

// Handler runs one stage against the run state. A returned error is fatal
// for the run.
type Handler interface {
	Run(ctx context.Context, st *State) error
}

type stageFunc func(p *Pipeline, ctx context.Context, st *State) error

type boundStage struct {
	p  *Pipeline
	fn stageFunc
}

func (b boundStage) Run(ctx context.Context, st *State) error { return b.fn(b.p, ctx, st) }

var handlers = [...]stageFunc{
	StageBackendCheck: (*Pipeline).checkBackend,
	StageResearch:     (*Pipeline).research,
	StageAlignment:    (*Pipeline).alignment,
	StageKeywords:     (*Pipeline).keywords,
	StageSignal:       (*Pipeline).signal,
	StageSaturation:   (*Pipeline).saturation,
	StageSubdomains:   (*Pipeline).subdomains,
	StageGaps:         (*Pipeline).gaps,
	StageCompetitive:  (*Pipeline).competitive,
	StageInsights:     (*Pipeline).insights,
	StageStrategy:     (*Pipeline).synthesize,
	StageAssemble:     (*Pipeline).assemble,
}

// Handler returns the handler for a stage.
func (p *Pipeline) Handler(s Stage) Handler {
	return boundStage{p: p, fn: handlers[s]}
}

func (p *Pipeline) checkBackend(ctx context.Context, st *State) error {
	st.Log.Add("Checking backend availability...")
	if err := p.deps.Backend.Ping(ctx); err != nil {
		return fmt.Errorf("backend check: %w", err)
	}
	st.Log.Add("Backend running with %s", p.deps.Backend.Model())
	return nil
}

func (p *Pipeline) research(ctx context.Context, st *State) error {
	st.Log.Add("Step 1: Research...")
	items, err := p.deps.Collector.Collect(ctx, st.Brief.Niche, st.Brief.Platform, st.Log)
	if err != nil {
		return fmt.Errorf("research: %w", err)
	}
	if len(items) == 0 {
		return fmt.Errorf("%w, try a different niche", ErrNoResearch)
	}
	st.Items = items
	st.Result.Meta.ResearchCount = len(items)
	st.Log.Add("Research complete: %d results.", len(items))
	return nil
}

func (p *Pipeline) alignment(_ context.Context, st *State) error {
	st.Log.Add("Step 2: Niche alignment check...")
	a := analyzer.CheckAlignment(st.Items, st.Brief.Niche)
	st.Result.NicheAlignment = a
	if a.DriftDetected {
		st.Log.Add("WARNING: %s", a.DriftWarning)
	}
	return nil
}

func (p *Pipeline) keywords(_ context.Context, st *State) error {
	st.Log.Add("Step 3: Keyword analysis...")
	st.Keywords = analyzer.KeywordFrequency(st.Items, analyzer.DefaultKeywordLimit)
	st.Result.KeywordAnalysis = st.Keywords
	st.Log.Add("Found %d keywords.", len(st.Keywords))
	return nil
}

func (p *Pipeline) signal(_ context.Context, st *State) error {
	st.Log.Add("Step 4: Signal assessment...")
	sig := analyzer.AssessSignal(st.Items)
	st.Result.SignalStrength = sig
	st.Result.Meta.PagesWithContent = sig.URLsWithContent
	st.Result.Meta.PagesSummarized = sig.URLsWithSummaries
	st.Log.Add("Confidence: %s", sig.Confidence)
	return nil
}

func (p *Pipeline) saturation(_ context.Context, st *State) error {
	st.Log.Add("Step 5: Saturation analysis...")
	sat := intel.AnalyzeSaturation(st.Items)
	st.Result.SaturationReport = sat
	st.Log.Add("Format: %s | Saturated: %t", sat.DominantFormat, sat.IsSaturated)
	return nil
}

func (p *Pipeline) subdomains(ctx context.Context, st *State) error {
	st.Log.Add("Step 6: Dynamic subdomain generation...")
	st.Subdomains = p.deps.Analyst.GenerateSubdomains(ctx, st.Brief.Niche, st.Log)
	st.Result.Meta.Subdomains = st.Subdomains
	st.Result.Meta.TotalSubdomains = len(st.Subdomains)
	return ctx.Err()
}

func (p *Pipeline) gaps(_ context.Context, st *State) error {
	st.Log.Add("Step 7: Gap detection...")
	results := intel.DetectGaps(st.Items, st.Subdomains, st.Log)
	found := len(intel.Gaps(results))
	st.Result.SemanticGapAnalysis = results
	st.Result.Meta.GapsFound = found
	st.Log.Add("Gaps found: %d/%d", found, len(results))
	return nil
}

func (p *Pipeline) competitive(ctx context.Context, st *State) error {
	st.Log.Add("Step 8: Competitive intensity checks...")
	out, err := p.deps.Prober.Probe(ctx, st.Result.SemanticGapAnalysis, st.Brief.Niche, st.Log)
	if out != nil {
		st.Result.CompetitiveIntensity = out
	}
	if err != nil {
		return fmt.Errorf("competitive probe: %w", err)
	}
	return nil
}

func (p *Pipeline) insights(ctx context.Context, st *State) error {
	st.Log.Add("Step 9: Intelligence extraction...")
	st.Result.ContentIntelligence = p.deps.Analyst.ExtractInsights(ctx, st.Items, st.Keywords, st.Log)
	return ctx.Err()
}

func (p *Pipeline) synthesize(ctx context.Context, st *State) error {
	st.Log.Add("Step 10: Strategy generation (2-pass)...")
	res := st.Result
	s, err := p.deps.Synthesizer.Synthesize(ctx, strategy.Input{
		Brief:       st.Brief,
		Insights:    res.ContentIntelligence,
		Keywords:    st.Keywords,
		Signal:      res.SignalStrength,
		Saturation:  res.SaturationReport,
		Gaps:        res.SemanticGapAnalysis,
		Competitive: res.CompetitiveIntensity,
	}, st.Log)
	if err != nil {
		return err
	}
	res.ContentStrategy = s.Sections
	res.Meta.StrategyRefined = s.Refined
	return nil
}

func (p *Pipeline) assemble(_ context.Context, st *State) error {
	res := st.Result
	res.ResearchSamples = samples(st.Items)
	res.Meta.ElapsedSeconds = round1(p.config.Now().Sub(st.Started).Seconds())
	st.Log.Add("Pipeline complete in %.1fs.", res.Meta.ElapsedSeconds)
	return nil
}
