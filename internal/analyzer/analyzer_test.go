package analyzer

import (
	"strings"
	"testing"

	"github.com/FranksOps/sift/internal/model"
)

func TestScore(t *testing.T) {
	cases := []struct {
		title, snippet string
		want           int
	}{
		// short title only
		{"Plain words here", "", 1},
		// digit (+2), short title (+1)
		{"7 habits", "", 3},
		// question (+1), short title (+1), "secret" and "proven" (+2)
		{"The secret?", "A proven approach", 4},
		// long title loses the brevity point
		{"one two three four five six seven eight nine ten eleven twelve", "", 0},
		// power word inside the snippet counts too
		{"Notes", "an essential breakdown", 3},
	}

	for _, c := range cases {
		if got := Score(c.title, c.snippet); got != c.want {
			t.Errorf("Score(%q, %q) = %d, want %d", c.title, c.snippet, got, c.want)
		}
	}
}

func TestScore_Deterministic(t *testing.T) {
	a := Score("The Ultimate 10-step guide?", "Proven hacks for founders")
	b := Score("The Ultimate 10-step guide?", "Proven hacks for founders")
	if a != b {
		t.Fatalf("expected identical scores, got %d and %d", a, b)
	}
	if a < 0 {
		t.Fatalf("score must be non-negative, got %d", a)
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("Founder's 2024 Playbook: ship-fast!")
	want := []string{"founder", "s", "playbook", "ship", "fast"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}

func TestKeywordFrequency(t *testing.T) {
	items := []model.ResearchItem{
		{Title: "Pricing pricing growth", Snippet: "Growth loops for founders"},
		{Title: "Retention", Content: "pricing retention the and of"},
	}

	got := KeywordFrequency(items, 0)

	if len(got) != 5 {
		t.Fatalf("expected 5 keywords, got %d: %v", len(got), got)
	}
	if got[0] != (model.KeywordCount{Word: "pricing", Count: 3}) {
		t.Errorf("expected pricing x3 first, got %v", got[0])
	}
	// growth and retention tie at 2; growth appeared first
	if got[1].Word != "growth" || got[2].Word != "retention" {
		t.Errorf("expected tie order growth, retention; got %v", got[1:3])
	}
	for _, kc := range got {
		if IsStopWord(kc.Word) || len(kc.Word) < 3 {
			t.Errorf("unexpected keyword %q", kc.Word)
		}
	}
}

func TestKeywordFrequency_Limit(t *testing.T) {
	items := []model.ResearchItem{{Content: "alpha bravo charlie delta echo foxtrot"}}
	if got := KeywordFrequency(items, 3); len(got) != 3 {
		t.Errorf("expected 3 keywords, got %d", len(got))
	}
}

func TestBigrams(t *testing.T) {
	texts := []string{
		"content strategy for founders",
		"content strategy playbook",
	}
	got := Bigrams(texts, 10)
	if len(got) == 0 || got[0].Phrase != "content strategy" || got[0].Count != 2 {
		t.Fatalf("expected 'content strategy' x2 first, got %v", got)
	}
	if got := Bigrams([]string{"solo"}, 10); len(got) != 0 {
		t.Errorf("expected no bigrams for a single word, got %v", got)
	}
}

func TestDetectCategory(t *testing.T) {
	cases := map[string]string{
		"founder productivity":  "founder",
		"Bootstrapped SaaS":     "founder",
		"venture capital":       "startup",
		"maker tools":           "indie",
		"small business":        "entrepreneur",
		"brand storytelling":    "creator",
		"growth funnels":        "marketer",
		"programming tutorials": "developer",
		"agency operations":     "freelancer",
		"sourdough baking":      "",
	}
	for niche, want := range cases {
		got := ""
		if c := detectCategory(niche); c != nil {
			got = c.name
		}
		if got != want {
			t.Errorf("detectCategory(%q) = %q, want %q", niche, got, want)
		}
	}
}

func TestEnrichmentTerm(t *testing.T) {
	term, ok := EnrichmentTerm("indie hackers")
	if !ok {
		t.Fatalf("expected enrichment for indie niche")
	}
	found := false
	for _, c := range categories {
		if c.name != "indie" {
			continue
		}
		for _, e := range c.enrichment {
			if e == term {
				found = true
			}
		}
	}
	if !found {
		t.Errorf("unexpected enrichment term %q", term)
	}

	if _, ok := EnrichmentTerm("sourdough baking"); ok {
		t.Errorf("expected no enrichment for unmatched niche")
	}
}

func TestAlignmentKeywords_Fallback(t *testing.T) {
	got := AlignmentKeywords("The art of sourdough baking")
	want := []string{"sourdough", "baking"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("AlignmentKeywords = %v, want %v", got, want)
	}
}

func TestIsFounderNiche(t *testing.T) {
	if !IsFounderNiche("Startup hiring") {
		t.Errorf("expected startup niche to be founder-aligned")
	}
	if IsFounderNiche("indie games") {
		t.Errorf("indie alone should not be founder-aligned")
	}
}

func TestCheckAlignment(t *testing.T) {
	items := []model.ResearchItem{
		{Title: "Founder habits"},
		{Title: "Cooking pasta"},
		{Title: "Gardening"},
	}
	got := CheckAlignment(items, "founder productivity")

	if got.AlignedCount != 1 || got.TotalCount != 3 {
		t.Errorf("expected 1/3 aligned, got %d/%d", got.AlignedCount, got.TotalCount)
	}
	if got.AlignmentRatio != 0.33 {
		t.Errorf("expected ratio 0.33, got %v", got.AlignmentRatio)
	}
	if !got.DriftDetected || got.DriftWarning == "" {
		t.Errorf("expected drift warning")
	}
	if len(got.AlignmentKeywords) != 5 {
		t.Errorf("expected 5 shown keywords, got %v", got.AlignmentKeywords)
	}
}

func TestCheckAlignment_NoKeywords(t *testing.T) {
	got := CheckAlignment([]model.ResearchItem{{Title: "x"}}, "a b")
	if got.AlignmentRatio != 1.0 || got.DriftDetected {
		t.Errorf("expected neutral alignment without keywords, got %+v", got)
	}
}

func TestAssessSignal(t *testing.T) {
	big := strings.Repeat("a", 3000)
	items := []model.ResearchItem{
		{Content: big, Summary: "s", Score: 3},
		{Content: big, Score: 2},
		{Score: 0},
	}
	got := AssessSignal(items)

	if got.TotalURLs != 3 || got.URLsWithContent != 2 || got.URLsWithSummaries != 1 {
		t.Errorf("unexpected counts %+v", got)
	}
	if got.TotalContentChars != 6000 {
		t.Errorf("expected 6000 chars, got %d", got.TotalContentChars)
	}
	if got.Confidence != model.ConfidenceHigh {
		t.Errorf("expected HIGH confidence, got %s", got.Confidence)
	}
	if got.AvgHeuristicScore != 1.7 {
		t.Errorf("expected avg 1.7, got %v", got.AvgHeuristicScore)
	}

	if c := AssessSignal([]model.ResearchItem{{Content: strings.Repeat("b", 2001)}}).Confidence; c != model.ConfidenceMedium {
		t.Errorf("expected MEDIUM, got %s", c)
	}
	if c := AssessSignal(nil).Confidence; c != model.ConfidenceLow {
		t.Errorf("expected LOW for empty input, got %s", c)
	}
}

func TestCorpusCoverage(t *testing.T) {
	corpus := NewCorpus([]model.ResearchItem{
		{Title: "Category design", Summary: "Audience research"},
	})

	matched, total, ratio := corpus.Coverage("cat audience building")
	if matched != 2 || total != 3 {
		t.Errorf("expected 2/3 matched, got %d/%d", matched, total)
	}
	if ratio < 0.66 || ratio > 0.67 {
		t.Errorf("unexpected ratio %v", ratio)
	}

	if _, total, ratio := corpus.Coverage("of an"); total != 0 || ratio != 0 {
		t.Errorf("expected no qualifying words, got total=%d ratio=%v", total, ratio)
	}

	if _, _, ratio := corpus.Coverage("AUDIENCE"); ratio != 1 {
		t.Errorf("expected case-insensitive coverage, got %v", ratio)
	}
}
