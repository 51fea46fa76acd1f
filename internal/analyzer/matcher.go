package analyzer

import (
	"strings"
	"unicode/utf8"

	"github.com/FranksOps/sift/internal/model"
)

// Corpus is the lower-cased concatenation of every text field of a research
// set, prepared once and matched against many phrases.
type Corpus struct {
	lower string
}

// NewCorpus joins title, snippet, content and summary of every item.
func NewCorpus(items []model.ResearchItem) *Corpus {
	var sb strings.Builder
	for i, it := range items {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(it.Title)
		sb.WriteByte(' ')
		sb.WriteString(it.Snippet)
		sb.WriteByte(' ')
		sb.WriteString(it.Content)
		sb.WriteByte(' ')
		sb.WriteString(it.Summary)
	}
	return &Corpus{lower: strings.ToLower(sb.String())}
}

// Coverage splits phrase into words, keeps those longer than two letters, and
// reports how many of them occur anywhere in the corpus. Matching is plain
// substring containment, so "cat" is covered by "category". ratio is 0 when
// the phrase has no qualifying words.
func (c *Corpus) Coverage(phrase string) (matched, total int, ratio float64) {
	for _, w := range strings.Fields(strings.ToLower(phrase)) {
		if utf8.RuneCountInString(w) <= 2 {
			continue
		}
		total++
		if strings.Contains(c.lower, w) {
			matched++
		}
	}
	if total == 0 {
		return 0, 0, 0
	}
	return matched, total, float64(matched) / float64(total)
}
