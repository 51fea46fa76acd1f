package intel

import (
	"context"
	"fmt"
	"strings"

	"github.com/FranksOps/sift/internal/llm"
	"github.com/FranksOps/sift/internal/runlog"
)

const (
	maxSubdomains = 15
	minSubdomains = 5
)

var fallbackSubdomains = []string{
	"getting started", "common mistakes", "advanced strategies",
	"tools and resources", "case studies", "industry trends",
	"monetization", "audience building", "content creation",
	"community building", "automation", "analytics and metrics",
	"collaboration", "personal branding", "scaling operations",
}

// FallbackSubdomains returns the generic list used when generation falls short.
func FallbackSubdomains() []string {
	out := make([]string, len(fallbackSubdomains))
	copy(out, fallbackSubdomains)
	return out
}

// GenerateSubdomains asks the backend for the niche's main sub-topics. It
// never fails: a backend error or fewer than five usable phrases yields
// the fallback list.
func (a *Analyst) GenerateSubdomains(ctx context.Context, niche string, log *runlog.Log) []string {
	prompt := fmt.Sprintf("Given niche: %q\n"+
		"List exactly 15 major subdomains or problem areas for content creators in this niche.\n"+
		"Each item: 2-5 words. One per line. No numbers or bullets.\n"+
		"List:", niche)

	items, err := llm.GenerateList(ctx, a.gen, llm.Request{Prompt: prompt, Temperature: 0.3})
	if err != nil {
		log.Add("Subdomain generation failed: %s. Using fallback.", truncateRunes(err.Error(), 60))
		return FallbackSubdomains()
	}

	var cleaned []string
	for _, item := range items {
		item = strings.TrimSpace(item)
		words := len(strings.Fields(item))
		if item == "" || words < 2 || words > 8 || len(item) >= 100 {
			continue
		}
		cleaned = append(cleaned, strings.TrimRight(item, "."))
		if len(cleaned) == maxSubdomains {
			break
		}
	}

	if len(cleaned) < minSubdomains {
		log.Add("LLM returned few subdomains. Using fallback.")
		return FallbackSubdomains()
	}
	log.Add("Generated %d dynamic subdomains.", len(cleaned))
	return cleaned
}
