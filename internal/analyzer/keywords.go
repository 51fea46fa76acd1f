package analyzer

import (
	"sort"

	"github.com/FranksOps/sift/internal/model"
)

// DefaultKeywordLimit is the number of keywords reported when none is requested.
const DefaultKeywordLimit = 15

// KeywordFrequency ranks the content words of every title, snippet and
// content field. Ties keep the order in which words were first seen.
func KeywordFrequency(items []model.ResearchItem, n int) []model.KeywordCount {
	if n <= 0 {
		n = DefaultKeywordLimit
	}

	var words []string
	for _, it := range items {
		for _, field := range []string{it.Title, it.Snippet, it.Content} {
			if field == "" {
				continue
			}
			words = append(words, contentWords(Tokenize(field), stopWords)...)
		}
	}

	ranked := rank(words, n)
	out := make([]model.KeywordCount, len(ranked))
	for i, r := range ranked {
		out[i] = model.KeywordCount{Word: r.key, Count: r.count}
	}
	return out
}

// Bigrams returns the n most frequent adjacent word pairs across texts, using
// the lighter phrase stop list.
func Bigrams(texts []string, n int) []model.PhraseCount {
	var words []string
	for _, t := range texts {
		words = append(words, contentWords(Tokenize(t), phraseStopWords)...)
	}
	if len(words) < 2 {
		return []model.PhraseCount{}
	}

	pairs := make([]string, 0, len(words)-1)
	for i := 0; i+1 < len(words); i++ {
		pairs = append(pairs, words[i]+" "+words[i+1])
	}

	ranked := rank(pairs, n)
	out := make([]model.PhraseCount, len(ranked))
	for i, r := range ranked {
		out[i] = model.PhraseCount{Phrase: r.key, Count: r.count}
	}
	return out
}

type counted struct {
	key   string
	count int
}

// rank counts keys and returns the top n, ties in first-seen order.
func rank(keys []string, n int) []counted {
	index := make(map[string]int)
	var counts []counted
	for _, k := range keys {
		if i, ok := index[k]; ok {
			counts[i].count++
			continue
		}
		index[k] = len(counts)
		counts = append(counts, counted{key: k, count: 1})
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].count > counts[j].count
	})

	if len(counts) > n {
		counts = counts[:n]
	}
	return counts
}
