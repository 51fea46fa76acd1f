package pipeline

import (
	"unicode/utf8"

	"github.com/FranksOps/sift/internal/model"
)

const sampleSnippetChars = 200

// Result is the full output of a run. Every field is always present in
// its JSON form, empty when the producing stage did not run.
type Result struct {
	ClientProfile        model.Brief                  `json:"client_profile"`
	PipelineLog          []string                     `json:"pipeline_log"`
	SignalStrength       model.SignalStrength         `json:"signal_strength"`
	NicheAlignment       model.NicheAlignment         `json:"niche_alignment"`
	KeywordAnalysis      []model.KeywordCount         `json:"keyword_analysis"`
	SaturationReport     model.SaturationReport       `json:"saturation_report"`
	SemanticGapAnalysis  []model.GapResult            `json:"semantic_gap_analysis"`
	CompetitiveIntensity []model.CompetitiveIntensity `json:"competitive_intensity"`
	ContentIntelligence  string                       `json:"content_intelligence"`
	ContentStrategy      map[string]string            `json:"content_strategy"`
	ResearchSamples      []Sample                     `json:"research_samples"`
	Meta                 Meta                         `json:"meta"`
}

// Sample is the trimmed view of one research item included in the result.
type Sample struct {
	Title      string `json:"title"`
	Snippet    string `json:"snippet"`
	URL        string `json:"url"`
	Score      int    `json:"score"`
	HasContent bool   `json:"has_content"`
	HasSummary bool   `json:"has_summary"`
}

// Meta carries run identity and counters.
type Meta struct {
	RunID            string   `json:"run_id"`
	Subdomains       []string `json:"subdomains"`
	ElapsedSeconds   float64  `json:"elapsed_seconds"`
	ResearchCount    int      `json:"research_count"`
	PagesWithContent int      `json:"pages_with_content"`
	PagesSummarized  int      `json:"pages_summarized"`
	GapsFound        int      `json:"gaps_found"`
	TotalSubdomains  int      `json:"total_subdomains"`
	StrategyRefined  bool     `json:"strategy_refined"`
	Error            string   `json:"error,omitempty"`
}

func newResult(brief model.Brief, runID string) *Result {
	return &Result{
		ClientProfile:        brief,
		PipelineLog:          []string{},
		NicheAlignment:       model.NicheAlignment{AlignmentKeywords: []string{}},
		KeywordAnalysis:      []model.KeywordCount{},
		SaturationReport:     model.SaturationReport{TopBigrams: []model.PhraseCount{}},
		SemanticGapAnalysis:  []model.GapResult{},
		CompetitiveIntensity: []model.CompetitiveIntensity{},
		ContentStrategy:      map[string]string{},
		ResearchSamples:      []Sample{},
		Meta:                 Meta{RunID: runID, Subdomains: []string{}},
	}
}

// Failed reports whether the run stopped on a fatal error.
func (r *Result) Failed() bool { return r.Meta.Error != "" }

func samples(items []model.ResearchItem) []Sample {
	out := make([]Sample, len(items))
	for i, it := range items {
		out[i] = Sample{
			Title:      it.Title,
			Snippet:    truncateRunes(it.Snippet, sampleSnippetChars),
			URL:        it.URL,
			Score:      it.Score,
			HasContent: it.HasContent(),
			HasSummary: it.HasSummary(),
		}
	}
	return out
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
