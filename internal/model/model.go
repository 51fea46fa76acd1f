// Package model holds the records shared across pipeline stages.
package model

import "strings"

// ResearchItem is one search result enriched in place by later stages.
// Field names are the persisted cache format.
type ResearchItem struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
	Content string `json:"content"`
	Score   int    `json:"score"`
	Summary string `json:"summary"`
}

// HasContent reports whether extraction produced usable text.
func (r ResearchItem) HasContent() bool { return r.Content != "" }

// HasSummary reports whether the summarizer produced output.
func (r ResearchItem) HasSummary() bool { return r.Summary != "" }

// Brief is the client profile a run is built around.
type Brief struct {
	Niche    string `json:"niche"`
	Platform string `json:"platform"`
	Audience string `json:"target_audience"`
	Goal     string `json:"business_goal"`
}

// Missing returns the JSON names of blank fields, in declaration order.
func (b Brief) Missing() []string {
	var missing []string
	for _, f := range []struct{ name, val string }{
		{"niche", b.Niche},
		{"platform", b.Platform},
		{"target_audience", b.Audience},
		{"business_goal", b.Goal},
	} {
		if strings.TrimSpace(f.val) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (b Brief) Trimmed() Brief {
	return Brief{
		Niche:    strings.TrimSpace(b.Niche),
		Platform: strings.TrimSpace(b.Platform),
		Audience: strings.TrimSpace(b.Audience),
		Goal:     strings.TrimSpace(b.Goal),
	}
}

// KeywordCount is one ranked keyword.
type KeywordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// PhraseCount is one ranked bigram.
type PhraseCount struct {
	Phrase string `json:"phrase"`
	Count  int    `json:"count"`
}

// GapResult is the coverage of one subdomain by the research corpus.
type GapResult struct {
	Subdomain  string  `json:"subdomain"`
	Similarity float64 `json:"similarity"`
	IsGap      bool    `json:"is_gap"`
	Method     string  `json:"method"`
}

// Intensity levels for competitive probes.
const (
	IntensityLow     = "LOW"
	IntensityMedium  = "MEDIUM"
	IntensityHigh    = "HIGH"
	IntensityUnknown = "UNKNOWN"
)

// CompetitiveIntensity is the outcome of probing one gap.
type CompetitiveIntensity struct {
	Gap            string `json:"gap"`
	IntensityLevel string `json:"intensity_level"`
	ResultCount    int    `json:"result_count"`
	UniqueDomains  int    `json:"unique_domains"`
}

// SaturationReport describes the format mix of the research results.
type SaturationReport struct {
	ListCount             int           `json:"list_count"`
	GuideCount            int           `json:"guide_count"`
	ComparisonCount       int           `json:"comparison_count"`
	Total                 int           `json:"total"`
	ListPercentage        float64       `json:"list_percentage"`
	ContentListCount      int           `json:"content_list_count"`
	ContentListPercentage float64       `json:"content_list_percentage"`
	DominantFormat        string        `json:"dominant_format"`
	IsSaturated           bool          `json:"is_saturated"`
	TopBigrams            []PhraseCount `json:"top_bigrams"`
}

// Confidence levels for research signal.
const (
	ConfidenceHigh   = "HIGH"
	ConfidenceMedium = "MEDIUM"
	ConfidenceLow    = "LOW"
)

// SignalStrength summarizes how much usable research was gathered.
type SignalStrength struct {
	TotalURLs         int     `json:"total_urls"`
	URLsWithContent   int     `json:"urls_with_content"`
	URLsWithSummaries int     `json:"urls_with_summaries"`
	TotalContentChars int     `json:"total_content_chars"`
	AvgHeuristicScore float64 `json:"avg_heuristic_score"`
	Confidence        string  `json:"confidence"`
}

// NicheAlignment reports whether results stayed on the requested niche.
type NicheAlignment struct {
	AlignedCount      int      `json:"aligned_count"`
	TotalCount        int      `json:"total_count"`
	AlignmentRatio    float64  `json:"alignment_ratio"`
	DriftDetected     bool     `json:"drift_detected"`
	DriftWarning      string   `json:"drift_warning"`
	AlignmentKeywords []string `json:"alignment_keywords"`
}
