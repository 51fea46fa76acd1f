package analyzer

import (
	"math/rand/v2"
	"strings"
)

// nicheCategory groups the vocabulary used to recognise a niche, check that
// results stay on it, and enrich the secondary search query.
type nicheCategory struct {
	name       string
	keywords   []string
	enrichment []string
}

// categories are matched in order; the first whose keywords appear in the
// niche wins.
var categories = []nicheCategory{
	{
		name:       "founder",
		keywords:   []string{"founder", "startup", "indie", "entrepreneur", "bootstrapped", "solopreneur"},
		enrichment: []string{"founder workflow", "startup execution", "indie hacker", "startup growth"},
	},
	{
		name:       "startup",
		keywords:   []string{"startup", "founder", "venture", "mvp", "fundraising", "entrepreneur"},
		enrichment: []string{"startup operations", "early stage growth", "startup toolkit"},
	},
	{
		name:       "indie",
		keywords:   []string{"indie", "hacker", "bootstrapped", "solopreneur", "maker", "builder"},
		enrichment: []string{"indie hacker tools", "bootstrapped growth", "solo builder"},
	},
	{
		name:       "entrepreneur",
		keywords:   []string{"entrepreneur", "founder", "business", "startup", "venture"},
		enrichment: []string{"entrepreneur systems", "business automation"},
	},
	{
		name:       "creator",
		keywords:   []string{"creator", "content", "audience", "brand", "influencer"},
		enrichment: []string{"creator tools", "content workflow", "creator economy"},
	},
	{
		name:       "marketer",
		keywords:   []string{"marketer", "marketing", "growth", "funnel", "conversion"},
		enrichment: []string{"marketing automation", "growth strategy"},
	},
	{
		name:       "developer",
		keywords:   []string{"developer", "dev", "code", "programming", "software"},
		enrichment: []string{"dev tools", "developer workflow"},
	},
	{
		name:       "freelancer",
		keywords:   []string{"freelancer", "freelance", "client", "contract", "agency"},
		enrichment: []string{"freelance workflow", "client management"},
	},
}

func detectCategory(niche string) *nicheCategory {
	lower := strings.ToLower(niche)
	for i := range categories {
		for _, kw := range categories[i].keywords {
			if strings.Contains(lower, kw) {
				return &categories[i]
			}
		}
	}
	return nil
}

// EnrichmentTerm picks a random enrichment phrase for the niche's category.
// ok is false when the niche matches no category.
func EnrichmentTerm(niche string) (term string, ok bool) {
	c := detectCategory(niche)
	if c == nil || len(c.enrichment) == 0 {
		return "", false
	}
	return c.enrichment[rand.IntN(len(c.enrichment))], true
}

// AlignmentKeywords is the keyword set used to judge whether results are on
// niche: the category vocabulary, or else the niche's own significant words.
func AlignmentKeywords(niche string) []string {
	if c := detectCategory(niche); c != nil {
		out := make([]string, len(c.keywords))
		copy(out, c.keywords)
		return out
	}
	var out []string
	for _, w := range strings.Fields(strings.ToLower(niche)) {
		if len(w) > 3 && !IsStopWord(w) {
			out = append(out, w)
		}
	}
	return out
}

// IsFounderNiche reports whether the niche speaks to founders, startups or
// entrepreneurs, which switches on execution-oriented strategy language.
func IsFounderNiche(niche string) bool {
	lower := strings.ToLower(niche)
	for _, w := range []string{"founder", "startup", "entrepreneur"} {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
