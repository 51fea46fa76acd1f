// Package strategy drafts, refines and sections the content strategy.
package strategy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/FranksOps/sift/internal/analyzer"
	"github.com/FranksOps/sift/internal/intel"
	"github.com/FranksOps/sift/internal/llm"
	"github.com/FranksOps/sift/internal/model"
	"github.com/FranksOps/sift/internal/runlog"
)

const (
	minDraftChars  = 100
	draftKeywords  = 10
	promptGaps     = 5
	promptLowGaps  = 3
	draftTemp      = 0.6
	refineTemp     = 0.4
	refineMinRatio = 0.5
)

// ErrDraftFailed means the first pass produced no usable strategy.
var ErrDraftFailed = errors.New("strategy: draft generation failed")

// Input is everything the strategy prompts draw on.
type Input struct {
	Brief       model.Brief
	Insights    string
	Keywords    []model.KeywordCount
	Signal      model.SignalStrength
	Saturation  model.SaturationReport
	Gaps        []model.GapResult
	Competitive []model.CompetitiveIntensity
}

// Strategy is the synthesized plan.
type Strategy struct {
	// Sections holds the six named sections, or only FullStrategy when the
	// text could not be split.
	Sections map[string]string
	// Refined reports whether the second pass replaced the draft.
	Refined bool
}

// Synthesizer runs the two-pass generation.
type Synthesizer struct {
	gen    llm.Generator
	logger *slog.Logger
}

// New creates a Synthesizer.
func New(gen llm.Generator, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{gen: gen, logger: logger}
}

// Synthesize drafts a strategy, asks the backend to critique and rewrite
// it, keeps whichever pass is usable, and splits the result into sections.
// Only a failed draft is an error.
func (s *Synthesizer) Synthesize(ctx context.Context, in Input, log *runlog.Log) (*Strategy, error) {
	log.Add("Strategy Pass 1: Generating...")
	draft, err := s.gen.Generate(ctx, llm.Request{Prompt: DraftPrompt(in), Temperature: draftTemp})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDraftFailed, err)
	}
	if utf8.RuneCountInString(strings.TrimSpace(draft)) < minDraftChars {
		return nil, fmt.Errorf("%w: insufficient output (%d chars)", ErrDraftFailed, utf8.RuneCountInString(strings.TrimSpace(draft)))
	}
	log.Add("Pass 1: %d chars.", utf8.RuneCountInString(draft))

	log.Add("Strategy Pass 2: Critique and refine...")
	final, refined := draft, false
	out, err := s.gen.Generate(ctx, llm.Request{Prompt: RefinePrompt(draft, in), Temperature: refineTemp})
	switch {
	case err != nil:
		s.logger.Debug("refine pass failed", "err", err)
		log.Add("Pass 2 failed. Using Pass 1.")
	case float64(utf8.RuneCountInString(strings.TrimSpace(out))) > float64(utf8.RuneCountInString(draft))*refineMinRatio:
		log.Add("Pass 2: %d chars (refined).", utf8.RuneCountInString(out))
		final, refined = out, true
	default:
		log.Add("Pass 2 too short. Using Pass 1.")
	}

	return &Strategy{
		Sections: SplitSections(final),
		Refined:  refined,
	}, nil
}

// DraftPrompt builds the first-pass prompt.
func DraftPrompt(in Input) string {
	b := in.Brief

	var kw string
	if len(in.Keywords) > 0 {
		kw = "Keywords: " + intel.KeywordList(in.Keywords, draftKeywords)
	}

	var sat string
	if in.Saturation.IsSaturated {
		sat = fmt.Sprintf("\nSATURATION: %.1f%% list-based. AVOID listicle format entirely.\n", intel.MaxListPercentage(in.Saturation))
	}

	var gap string
	if names := gapNames(in.Gaps, promptGaps); len(names) > 0 {
		gap = "\nMARKET GAPS: " + strings.Join(names, ", ") + "\n"
		if low := intel.LowCompetition(in.Competitive); len(low) > 0 {
			if len(low) > promptLowGaps {
				low = low[:promptLowGaps]
			}
			gap += "LOW COMPETITION: " + strings.Join(low, ", ") + "\n"
		}
	}

	var founder string
	if analyzer.IsFounderNiche(b.Niche) {
		founder = "\nFOUNDER ALIGNMENT: Execution-oriented language. 1 operational pillar.\n"
	}

	confidence := in.Signal.Confidence
	if confidence == "" {
		confidence = "UNKNOWN"
	}

	return fmt.Sprintf(`Senior content strategist. Differentiated plan.

RULES:
1. NO fake statistics. 2. NO cliches. 3. NO filler.
4. Be SPECIFIC. 5. Each script: 1 contrarian insight.
6. Short sentences. %[1]s style.
7. Include: 1 bold positioning, 1 tension hook, 1 anti-consensus statement.
%[2]s%[3]s%[4]s

CLIENT: %[5]s | %[1]s | %[6]s | Goal: %[7]s
Confidence: %[8]s
%[9]s

INTELLIGENCE:
%[10]s

GENERATE:

## 1. STRATEGIC POSITIONING STATEMENT
3-5 sentences. What brand IS and IS NOT. Bold differentiator.

## 2. CONTENT PILLARS
3-5 pillars targeting market gaps. Specific topics.

## 3. OPTIMIZED HOOKS
10 hooks <15 words. 2 tension. 1 anti-consensus. No listicle if saturated.

## 4. SHORT-FORM CONTENT SCRIPTS
5 scripts: Hook + contrarian + body (3-5 sentences) + CTA. No fake stats.

## 5. CTA VARIATIONS
6 CTAs for "%[7]s". Triggers: urgency, social proof, curiosity, value, identity, scarcity.

## 6. 7-DAY CONTENT CALENDAR
Mon-Sun: Day, Type, Pillar, Topic, Hook, CTA, Time.`,
		b.Platform, sat, gap, founder, b.Niche, b.Audience, b.Goal, confidence, kw, in.Insights)
}

// RefinePrompt builds the critique-and-rewrite prompt for a draft.
func RefinePrompt(draft string, in Input) string {
	var checks string
	if in.Saturation.IsSaturated {
		checks += "\n- Uses listicle despite saturation?"
	}
	if names := gapNames(in.Gaps, promptGaps); len(names) > 0 {
		checks += "\n- Targets gaps: " + strings.Join(names, ", ") + "?"
	}
	lower := strings.ToLower(in.Brief.Niche)
	if strings.Contains(lower, "founder") || strings.Contains(lower, "startup") {
		checks += "\n- Drifts from founder context?"
	}

	return fmt.Sprintf(`Brutal editor. Critique and rewrite.

CHECK:
1. Generic → specific. 2. Weak differentiation → strengthen.
3. Niche drift → refocus. 4. Saturated angles → replace.
5. Cliches → plain. 6. Fake stats → remove. 7. Filler → cut.%s

Niche: %s | Platform: %s

STRATEGY:
%s

OUTPUT improved version. Same structure. Sharper.`, checks, in.Brief.Niche, in.Brief.Platform, draft)
}

func gapNames(results []model.GapResult, n int) []string {
	var names []string
	for _, g := range intel.Gaps(results) {
		if len(names) == n {
			break
		}
		names = append(names, g.Subdomain)
	}
	return names
}
