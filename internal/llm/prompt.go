package llm

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"
)

const trimMarker = "\n[... trimmed ...]\n"

var (
	contentStartMarkers = []string{"=== RESEARCH", "--- Sample", "INTELLIGENCE:", "SAMPLES:"}
	contentEndMarkers   = []string{"=== END", "Based STRICTLY", "Analyze ONLY", "GENERATE:"}

	numberingRe = regexp.MustCompile(`^\d+[.)]\s*`)
	bulletRe    = regexp.MustCompile(`^[-*•]\s*`)
)

// TrimPrompt shortens prompt to about target bytes. The instruction header
// and footer around the research content are kept; only the content window
// is cut and tagged with a trim marker. A prompt already within target, or
// whose header and footer leave no room, is returned unchanged.
func TrimPrompt(prompt string, target int) string {
	if len(prompt) <= target {
		return prompt
	}

	start := runeFloor(prompt, len(prompt)/4)
	for _, m := range contentStartMarkers {
		if i := strings.Index(prompt, m); i != -1 {
			start = i
			break
		}
	}
	end := runeFloor(prompt, len(prompt)*3/4)
	for _, m := range contentEndMarkers {
		if i := strings.LastIndex(prompt, m); i != -1 {
			end = i
			break
		}
	}
	if end < start {
		end = start
	}

	header, content, footer := prompt[:start], prompt[start:end], prompt[end:]
	available := target - len(header) - len(footer) - 50
	if available > 0 && len(content) > available {
		content = content[:runeFloor(content, available)] + trimMarker
	}
	return header + content + footer
}

// runeFloor moves i back to the start of the rune it falls inside.
func runeFloor(s string, i int) int {
	for i > 0 && i < len(s) && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}

// ParseList splits a list-shaped reply into items, stripping numbering and
// bullets and keeping entries between 4 and 199 characters.
func ParseList(raw string) []string {
	var items []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = numberingRe.ReplaceAllString(line, "")
		line = strings.TrimSpace(bulletRe.ReplaceAllString(line, ""))
		if n := len([]rune(line)); n > 3 && n < 200 {
			items = append(items, line)
		}
	}
	return items
}

// GenerateList runs a generation and parses the reply with ParseList.
func GenerateList(ctx context.Context, g Generator, req Request) ([]string, error) {
	raw, err := g.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	return ParseList(raw), nil
}
