package intel

import (
	"math"
	"sort"

	"github.com/FranksOps/sift/internal/analyzer"
	"github.com/FranksOps/sift/internal/model"
	"github.com/FranksOps/sift/internal/runlog"
)

const (
	// GapThreshold is the coverage below which a subdomain counts as a gap.
	GapThreshold = 0.3
	// MethodKeyword tags coverage computed by substring word matching.
	MethodKeyword = "keyword"
)

// DetectGaps measures how much of each subdomain's vocabulary appears in
// the research corpus. Gaps come first, each group by ascending coverage.
func DetectGaps(items []model.ResearchItem, subdomains []string, log *runlog.Log) []model.GapResult {
	log.Add("Using keyword-based gap detection.")

	corpus := analyzer.NewCorpus(items)
	results := make([]model.GapResult, 0, len(subdomains))
	for _, sd := range subdomains {
		_, _, ratio := corpus.Coverage(sd)
		results = append(results, model.GapResult{
			Subdomain:  sd,
			Similarity: math.Round(ratio*1000) / 1000,
			IsGap:      ratio < GapThreshold,
			Method:     MethodKeyword,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].IsGap != results[j].IsGap {
			return results[i].IsGap
		}
		return results[i].Similarity < results[j].Similarity
	})
	return results
}

// Gaps returns only the results flagged as gaps, in order.
func Gaps(results []model.GapResult) []model.GapResult {
	var out []model.GapResult
	for _, r := range results {
		if r.IsGap {
			out = append(out, r)
		}
	}
	return out
}
