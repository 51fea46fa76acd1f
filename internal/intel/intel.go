// Package intel derives market intelligence from research items: page
// summaries, subdomain gaps, format saturation, competitive intensity and
// the pattern analysis fed into strategy generation.
package intel

import (
	"context"
	"log/slog"
	"strings"

	"github.com/FranksOps/sift/internal/llm"
)

const (
	summaryMinContent = 100
	summaryMaxContent = 800
	summaryMaxWords   = 300
)

// Analyst runs the generation-backed analyses.
type Analyst struct {
	gen    llm.Generator
	logger *slog.Logger
}

// New creates an Analyst on top of gen.
func New(gen llm.Generator, logger *slog.Logger) *Analyst {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyst{gen: gen, logger: logger}
}

// Summarize condenses a page into a short note on hook, CTA, topic and
// positioning. It returns "" for thin content or on any backend failure.
func (a *Analyst) Summarize(ctx context.Context, title, content string) string {
	if len([]rune(content)) < summaryMinContent {
		return ""
	}

	prompt := "Summarize in under 300 words. Focus ONLY on:\n" +
		"- Hook style\n- CTA style\n- Topic focus\n- Positioning angle\n\n" +
		"Title: " + title + "\n" +
		"Content: " + truncateRunes(content, summaryMaxContent) + "\n\n" +
		"Summary:"

	summary, err := a.gen.Generate(ctx, llm.Request{Prompt: prompt, Temperature: 0.2})
	if err != nil {
		a.logger.Debug("summarization failed", "title", title, "err", err)
		return ""
	}

	words := strings.Fields(summary)
	if len(words) > summaryMaxWords {
		return strings.Join(words[:summaryMaxWords], " ") + "..."
	}
	return summary
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
