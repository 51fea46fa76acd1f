package analyzer

import (
	"strings"
	"unicode"
)

// Score assigns the engagement heuristic to a search result: +2 for any digit,
// +1 for a question mark, +1 for a title under 12 words and +1 per power word
// found in the title or snippet. The result is never negative.
func Score(title, snippet string) int {
	combined := strings.ToLower(title + " " + snippet)
	score := 0

	if strings.IndexFunc(combined, unicode.IsDigit) >= 0 {
		score += 2
	}
	if strings.Contains(combined, "?") {
		score++
	}
	if len(strings.Fields(title)) < 12 {
		score++
	}
	for _, w := range powerWords {
		if strings.Contains(combined, w) {
			score++
		}
	}
	return score
}
