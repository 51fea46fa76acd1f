package strategy

import (
	"regexp"
	"sort"
	"strings"
)

// Section keys.
const (
	SectionPositioning = "positioning"
	SectionPillars     = "pillars"
	SectionHooks       = "hooks"
	SectionScripts     = "scripts"
	SectionCTAs        = "ctas"
	SectionCalendar    = "calendar"
	// FullStrategy holds the whole text when it could not be split.
	FullStrategy = "full_strategy"

	minSections = 3
)

// headerPrefix tolerates markdown headings, quotes, bold markers and
// numbering ("3)", "Section 1:", "Part 2 -") in front of a section name at
// the start of a line.
const headerPrefix = `(?im)^[ \t>#*_]*` +
	`(?:(?:section|part|step)[ \t]+\d+[ \t]*[-:.)]?[ \t]*|\d+[.):]?[ \t]*)?` +
	`[*_ \t]*`

// headerSuffix requires the name to end the line or be followed by a colon
// or dash, so prose that merely mentions a section is not a header.
const headerSuffix = `[*_ \t]*(?:[:\-][*_ \t]*|\r?$)`

var sectionHeaders = []struct {
	key string
	re  *regexp.Regexp
}{
	{SectionPositioning, regexp.MustCompile(headerPrefix + `STRATEGIC[ \t]+POSITIONING(?:[ \t]+STATEMENT)?` + headerSuffix)},
	{SectionPillars, regexp.MustCompile(headerPrefix + `CONTENT[ \t]+PILLARS` + headerSuffix)},
	{SectionHooks, regexp.MustCompile(headerPrefix + `OPTIMIZED[ \t]+HOOKS` + headerSuffix)},
	{SectionScripts, regexp.MustCompile(headerPrefix + `SHORT[- ]FORM[ \t]+CONTENT[ \t]+SCRIPTS` + headerSuffix)},
	{SectionCTAs, regexp.MustCompile(headerPrefix + `CTA[ \t]+VARIATIONS` + headerSuffix)},
	{SectionCalendar, regexp.MustCompile(headerPrefix + `7[- ]DAY[ \t]+CONTENT[ \t]+CALENDAR` + headerSuffix)},
}

// SplitSections cuts strategy text at the six section headers. Each
// section runs from the end of its header to the next header found. With
// fewer than three headers the text is returned whole under FullStrategy.
func SplitSections(text string) map[string]string {
	type bound struct {
		key        string
		start, end int
	}

	var bounds []bound
	for _, h := range sectionHeaders {
		if loc := h.re.FindStringIndex(text); loc != nil {
			bounds = append(bounds, bound{key: h.key, start: loc[0], end: loc[1]})
		}
	}
	if len(bounds) < minSections {
		return map[string]string{FullStrategy: text}
	}

	sort.Slice(bounds, func(i, j int) bool { return bounds[i].start < bounds[j].start })

	sections := make(map[string]string, len(bounds))
	for i, b := range bounds {
		end := len(text)
		if i+1 < len(bounds) {
			end = bounds[i+1].start
		}
		// A separator left on the header line is dropped; list dashes on
		// following lines are content.
		rest := strings.TrimLeft(text[b.end:end], " \t")
		rest = strings.TrimPrefix(rest, ":")
		rest = strings.TrimPrefix(strings.TrimLeft(rest, " \t"), "-")
		sections[b.key] = strings.TrimSpace(rest)
	}
	return sections
}
