package intel

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/FranksOps/sift/internal/llm"
	"github.com/FranksOps/sift/internal/model"
	"github.com/FranksOps/sift/internal/runlog"
)

const (
	corpusMaxChars  = 3000
	corpusTopScored = 3
	insightKeywords = 15

	// InsufficientData marks an analysis half the backend could not produce.
	InsufficientData = "INSUFFICIENT DATA"
)

const insightPreamble = `Analyze content summaries. Use ONLY data provided. No invented statistics.
Quote at least 2 phrases. If insufficient, say "INSUFFICIENT DATA".`

const structuralFocus = `Analyze ONLY:
1. HOOK PATTERNS - opening structures, specific hooks, formulas
2. OPENING STRUCTURES - first sentence patterns
3. CTA PATTERNS - call-to-action verbs and context`

const thematicFocus = `Analyze ONLY:
1. EMOTIONAL TONE - register, example phrases
2. RECURRING THEMES - repeated topics, keyword connections
3. POSITIONING - creator positioning, authority signals`

// ExtractInsights runs the structural and thematic analyses over the
// research samples. Each half degrades independently to an
// INSUFFICIENT DATA marker, so the result always has both sections.
func (a *Analyst) ExtractInsights(ctx context.Context, items []model.ResearchItem, keywords []model.KeywordCount, log *runlog.Log) string {
	corpus := BuildCorpus(items)
	kw := KeywordLine(keywords, insightKeywords)

	log.Add("Intelligence Call 1: Hooks, structure, CTAs")
	structural := a.analyze(ctx, kw, corpus, structuralFocus, 0.2, log)

	log.Add("Intelligence Call 2: Tone, themes, positioning")
	thematic := a.analyze(ctx, kw, corpus, thematicFocus, 0.3, log)

	return fmt.Sprintf("=== STRUCTURAL ANALYSIS ===\n\n%s\n\n=== THEMATIC ANALYSIS ===\n\n%s", structural, thematic)
}

func (a *Analyst) analyze(ctx context.Context, kw, corpus, focus string, temperature float64, log *runlog.Log) string {
	prompt := insightPreamble + "\n\n" + kw + "\n\n" + corpus + "\n\n" + focus
	out, err := a.gen.Generate(ctx, llm.Request{Prompt: prompt, Temperature: temperature})
	if err != nil {
		log.Add("Intelligence call failed: %s", truncateRunes(err.Error(), 80))
		return InsufficientData + " (analysis unavailable)"
	}
	if strings.TrimSpace(out) == "" {
		return InsufficientData
	}
	return out
}

// BuildCorpus renders research items as numbered samples. When summaries
// alone exceed the budget only the three highest-scored items are used,
// and the rendered text is capped at 3000 characters.
func BuildCorpus(items []model.ResearchItem) string {
	var summaryChars int
	for _, it := range items {
		summaryChars += len([]rune(it.Summary))
	}

	working := items
	if summaryChars > corpusMaxChars {
		working = make([]model.ResearchItem, len(items))
		copy(working, items)
		sort.SliceStable(working, func(i, j int) bool { return working[i].Score > working[j].Score })
		if len(working) > corpusTopScored {
			working = working[:corpusTopScored]
		}
	}

	var b strings.Builder
	for i, it := range working {
		if i > 0 {
			b.WriteString("\n")
		}
		title := it.Title
		if title == "" {
			title = "N/A"
		}
		fmt.Fprintf(&b, "--- Sample %d ---\nTitle: %s\n", i+1, title)
		if s := strings.TrimSpace(it.Snippet); s != "" {
			fmt.Fprintf(&b, "Snippet: %s\n", truncateRunes(s, 200))
		}
		if s := strings.TrimSpace(it.Summary); s != "" {
			fmt.Fprintf(&b, "Summary: %s\n", s)
		} else if strings.TrimSpace(it.Content) != "" {
			fmt.Fprintf(&b, "Excerpt: %s\n", truncateRunes(it.Content, 300))
		}
		fmt.Fprintf(&b, "Score: %d\n", it.Score)
	}

	out := b.String()
	if len([]rune(out)) > corpusMaxChars {
		out = truncateRunes(out, corpusMaxChars) + "\n[... trimmed ...]"
	}
	return out
}

// KeywordLine formats the first n keywords for a prompt.
func KeywordLine(keywords []model.KeywordCount, n int) string {
	if len(keywords) == 0 {
		return "Keywords: none."
	}
	return "Top keywords: " + KeywordList(keywords, n)
}

// KeywordList renders up to n keywords as 'word' (Nx), comma separated.
func KeywordList(keywords []model.KeywordCount, n int) string {
	if len(keywords) > n {
		keywords = keywords[:n]
	}
	parts := make([]string, len(keywords))
	for i, k := range keywords {
		parts[i] = fmt.Sprintf("'%s' (%dx)", k.Word, k.Count)
	}
	return strings.Join(parts, ", ")
}
