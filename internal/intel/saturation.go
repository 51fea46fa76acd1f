package intel

import (
	"math"
	"regexp"

	"github.com/FranksOps/sift/internal/analyzer"
	"github.com/FranksOps/sift/internal/model"
)

// Dominant format labels.
const (
	FormatUnknown    = "Unknown"
	FormatListicle   = "Listicle saturation"
	FormatGuide      = "Guide/tutorial heavy"
	FormatComparison = "Comparison heavy"
	FormatMixed      = "Mixed formats"
)

const (
	saturationPct   = 50.0
	guideShare      = 0.4
	comparisonShare = 0.3
	topBigrams      = 10
)

var (
	listRe        = regexp.MustCompile(`(?i)\b(\d+|top|best|list|ultimate)\b`)
	guideRe       = regexp.MustCompile(`(?i)\b(guide|how[\s-]to|tutorial|step[\s-]by)\b`)
	comparisonRe  = regexp.MustCompile(`(?i)\b(vs\.?|versus|compar|alternative)\b`)
	contentListRe = regexp.MustCompile(`(?im)(^\d+\.|top\s+\d+|best\s+\d+|in\s+this\s+guide|here\s+are\s+\d+|step\s+\d+|#\d+)`)
)

// AnalyzeSaturation classifies the dominant content format from titles,
// snippets and page bodies.
func AnalyzeSaturation(items []model.ResearchItem) model.SaturationReport {
	total := len(items)
	if total == 0 {
		return model.SaturationReport{DominantFormat: FormatUnknown, TopBigrams: []model.PhraseCount{}}
	}

	var lc, gc, cc int
	texts := make([]string, 0, total)
	for _, it := range items {
		t := it.Title + " " + it.Snippet
		texts = append(texts, t)
		if listRe.MatchString(t) {
			lc++
		}
		if guideRe.MatchString(t) {
			gc++
		}
		if comparisonRe.MatchString(t) {
			cc++
		}
	}

	var clc, withText int
	for _, it := range items {
		body := it.Summary
		if body == "" {
			body = it.Content
		}
		if body == "" {
			continue
		}
		withText++
		if contentListRe.MatchString(body) {
			clc++
		}
	}

	titlePct := float64(lc) / float64(total) * 100
	var contentPct float64
	if withText > 0 {
		contentPct = float64(clc) / float64(withText) * 100
	}
	combined := math.Max(titlePct, contentPct)

	var dominant string
	switch {
	case combined >= saturationPct:
		dominant = FormatListicle
	case float64(gc) > float64(total)*guideShare:
		dominant = FormatGuide
	case float64(cc) > float64(total)*comparisonShare:
		dominant = FormatComparison
	default:
		dominant = FormatMixed
	}

	return model.SaturationReport{
		ListCount:             lc,
		GuideCount:            gc,
		ComparisonCount:       cc,
		Total:                 total,
		ListPercentage:        round1(titlePct),
		ContentListCount:      clc,
		ContentListPercentage: round1(contentPct),
		DominantFormat:        dominant,
		IsSaturated:           combined >= saturationPct,
		TopBigrams:            analyzer.Bigrams(texts, topBigrams),
	}
}

// MaxListPercentage is the larger of the title and body list shares.
func MaxListPercentage(r model.SaturationReport) float64 {
	return math.Max(r.ListPercentage, r.ContentListPercentage)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
