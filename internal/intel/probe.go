package intel

import (
	"context"
	"log/slog"
	"time"

	"github.com/FranksOps/sift/internal/model"
	"github.com/FranksOps/sift/internal/runlog"
	"github.com/FranksOps/sift/internal/serp"
	"github.com/FranksOps/sift/pkg/ratelimit"
)

const (
	maxProbes       = 5
	probeDomainTopN = 5
	// DefaultProbeDelay is the pause after every probe.
	DefaultProbeDelay = 2 * time.Second
)

// Prober estimates how crowded each gap is by searching for it directly.
type Prober struct {
	provider serp.Provider
	pacer    *ratelimit.Pacer
	logger   *slog.Logger
}

// NewProber creates a Prober. A nil pacer uses DefaultProbeDelay.
func NewProber(provider serp.Provider, pacer *ratelimit.Pacer, logger *slog.Logger) *Prober {
	if pacer == nil {
		pacer = ratelimit.Fixed(DefaultProbeDelay)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Prober{provider: provider, pacer: pacer, logger: logger}
}

// Probe checks up to five gaps in order. A failed search marks that gap
// UNKNOWN; only context cancellation stops the batch.
func (p *Prober) Probe(ctx context.Context, gaps []model.GapResult, niche string, log *runlog.Log) ([]model.CompetitiveIntensity, error) {
	gaps = Gaps(gaps)
	if len(gaps) == 0 {
		return []model.CompetitiveIntensity{}, nil
	}
	if len(gaps) > maxProbes {
		gaps = gaps[:maxProbes]
	}
	log.Add("Checking competitive intensity for %d gaps.", len(gaps))

	out := make([]model.CompetitiveIntensity, 0, len(gaps))
	for _, g := range gaps {
		out = append(out, p.probe(ctx, g.Subdomain, niche))
		if err := p.pacer.Wait(ctx); err != nil {
			return out, err
		}
	}
	return out, nil
}

func (p *Prober) probe(ctx context.Context, gap, niche string) model.CompetitiveIntensity {
	listing, err := p.provider.Search(ctx, `"`+gap+`" `+niche)
	if err != nil {
		p.logger.Debug("competitive probe failed", "gap", gap, "err", err)
		return model.CompetitiveIntensity{
			Gap:            gap,
			IntensityLevel: model.IntensityUnknown,
			ResultCount:    -1,
		}
	}

	domains := serp.CountDomains(listing.Results, probeDomainTopN)
	return model.CompetitiveIntensity{
		Gap:            gap,
		IntensityLevel: ClassifyIntensity(listing.TotalEstimate, len(listing.Results), domains),
		ResultCount:    listing.TotalEstimate,
		UniqueDomains:  domains,
	}
}

// ClassifyIntensity grades competition from the provider's result estimate
// (negative when unknown), the parsed result count and the distinct domains
// among the top results.
func ClassifyIntensity(estimate, parsed, domains int) string {
	if estimate < 0 {
		switch {
		case parsed < 3:
			return model.IntensityLow
		case domains <= 3:
			return model.IntensityMedium
		default:
			return model.IntensityHigh
		}
	}
	switch {
	case estimate < 10_000 && domains <= 3:
		return model.IntensityLow
	case estimate < 100_000:
		return model.IntensityMedium
	default:
		return model.IntensityHigh
	}
}

// LowCompetition returns the gap names graded LOW, in order.
func LowCompetition(results []model.CompetitiveIntensity) []string {
	var out []string
	for _, r := range results {
		if r.IntensityLevel == model.IntensityLow {
			out = append(out, r.Gap)
		}
	}
	return out
}
