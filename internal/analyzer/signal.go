package analyzer

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/FranksOps/sift/internal/model"
)

const (
	driftThreshold        = 0.4
	highConfidenceChars   = 5000
	mediumConfidenceChars = 2000
)

// CheckAlignment measures how many items mention at least one of the niche's
// alignment keywords in their title, snippet or content.
func CheckAlignment(items []model.ResearchItem, niche string) model.NicheAlignment {
	kws := AlignmentKeywords(niche)
	total := len(items)

	if len(kws) == 0 {
		return model.NicheAlignment{
			AlignedCount:      total,
			TotalCount:        total,
			AlignmentRatio:    1.0,
			AlignmentKeywords: []string{},
		}
	}

	aligned := 0
	for _, it := range items {
		text := strings.ToLower(it.Title + " " + it.Snippet + " " + it.Content)
		for _, kw := range kws {
			if strings.Contains(text, kw) {
				aligned++
				break
			}
		}
	}

	ratio := 0.0
	if total > 0 {
		ratio = float64(aligned) / float64(total)
	}

	shown := kws
	if len(shown) > 5 {
		shown = shown[:5]
	}

	out := model.NicheAlignment{
		AlignedCount:      aligned,
		TotalCount:        total,
		AlignmentRatio:    round(ratio, 2),
		DriftDetected:     ratio < driftThreshold,
		AlignmentKeywords: shown,
	}
	if out.DriftDetected {
		out.DriftWarning = fmt.Sprintf("Drift: only %d/%d results match niche keywords %v.", aligned, total, shown)
	}
	return out
}

// AssessSignal summarizes how much usable material the research produced.
// Confidence follows total extracted characters: over 5000 is HIGH, over 2000
// is MEDIUM, anything else LOW.
func AssessSignal(items []model.ResearchItem) model.SignalStrength {
	s := model.SignalStrength{TotalURLs: len(items)}

	scoreSum := 0
	for _, it := range items {
		if strings.TrimSpace(it.Content) != "" {
			s.URLsWithContent++
		}
		if strings.TrimSpace(it.Summary) != "" {
			s.URLsWithSummaries++
		}
		s.TotalContentChars += utf8.RuneCountInString(it.Content)
		scoreSum += it.Score
	}
	if len(items) > 0 {
		s.AvgHeuristicScore = round(float64(scoreSum)/float64(len(items)), 1)
	}

	switch {
	case s.TotalContentChars > highConfidenceChars:
		s.Confidence = model.ConfidenceHigh
	case s.TotalContentChars > mediumConfidenceChars:
		s.Confidence = model.ConfidenceMedium
	default:
		s.Confidence = model.ConfidenceLow
	}
	return s
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
