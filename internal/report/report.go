// Package report renders pipeline results for people: a plain-text
// briefing, a standalone HTML page, or the raw JSON.
package report

import (
	"encoding/json"
	"fmt"
	htmltemplate "html/template"
	"io"
	"strings"
	"text/template"

	"github.com/FranksOps/sift/internal/model"
	"github.com/FranksOps/sift/internal/pipeline"
	"github.com/FranksOps/sift/internal/strategy"
)

const (
	maxOpportunities = 8
	maxLowTopics     = 3
	maxPillars       = 5
	angleCount       = 5
	calendarDays     = 7
	topKeywords      = 5
)

var weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

var defaultPillars = []string{
	"Share unique insights from your expertise",
	"Provide actionable, step-by-step guidance",
	"Address common pain points directly",
}

var defaultAngles = []string{
	"The surprising truth about [topic] that nobody talks about",
	"Why most advice on [topic] is wrong (and what works instead)",
	"The contrarian approach to [topic] that's getting results",
	"[Number] unconventional strategies for [outcome]",
	"What I learned from [experience] about [topic]",
}

var defaultCalendar = []string{
	"Monday: Research and outline your first piece using the gap analysis",
	"Tuesday: Write a draft around one of the content angles",
	"Wednesday: Edit and refine with personal insights and examples",
	"Thursday: Create supporting visuals or data points",
	"Friday: Publish and promote across relevant channels",
	"Saturday: Engage with audience comments and feedback",
	"Sunday: Review performance and plan next week's content",
}

var confidenceText = map[string]string{
	model.ConfidenceHigh:   "excellent data quality",
	model.ConfidenceMedium: "moderate data quality",
	model.ConfidenceLow:    "limited data available",
}

var intensityText = map[string]string{
	model.IntensityLow:     "Low Competition",
	model.IntensityMedium:  "Moderate Competition",
	model.IntensityHigh:    "High Competition",
	model.IntensityUnknown: "Competition Unknown",
}

// Opportunity is one gap with its competition label.
type Opportunity struct {
	Topic     string
	Intensity string
	Label     string
}

// Report is the reader-facing digest of a pipeline result.
type Report struct {
	RunID    string
	Niche    string
	Platform string
	Audience string
	Goal     string

	Confidence     string
	ConfidenceText string
	PagesAnalyzed  int
	ElapsedSeconds float64

	DominantFormat string
	Saturated      bool
	ListPercentage float64
	TopKeywords    []string

	GapsFound      int
	LowCompetition []string
	Opportunities  []Opportunity

	Positioning string
	Pillars     []string
	Angles      []string
	Calendar    []string
	// RawStrategy is set when the strategy could not be split into sections.
	RawStrategy string

	Error string
}

// Build condenses a result into a Report, substituting generic guidance
// wherever the strategy text did not yield enough structure.
func Build(res *pipeline.Result) Report {
	p := res.ClientProfile
	r := Report{
		RunID:          res.Meta.RunID,
		Niche:          p.Niche,
		Platform:       p.Platform,
		Audience:       p.Audience,
		Goal:           p.Goal,
		Confidence:     res.SignalStrength.Confidence,
		PagesAnalyzed:  res.SignalStrength.URLsWithContent,
		ElapsedSeconds: res.Meta.ElapsedSeconds,
		DominantFormat: res.SaturationReport.DominantFormat,
		Saturated:      res.SaturationReport.IsSaturated,
		ListPercentage: res.SaturationReport.ListPercentage,
		GapsFound:      res.Meta.GapsFound,
		Error:          res.Meta.Error,
	}
	if r.Confidence == "" {
		r.Confidence = "UNKNOWN"
	}
	r.ConfidenceText = confidenceText[r.Confidence]
	if r.ConfidenceText == "" {
		r.ConfidenceText = "varying data quality"
	}
	if r.DominantFormat == "" {
		r.DominantFormat = "Mixed formats"
	}

	for i, kw := range res.KeywordAnalysis {
		if i == topKeywords {
			break
		}
		r.TopKeywords = append(r.TopKeywords, kw.Word)
	}

	levels := make(map[string]string, len(res.CompetitiveIntensity))
	for _, c := range res.CompetitiveIntensity {
		levels[c.Gap] = c.IntensityLevel
		if c.IntensityLevel == model.IntensityLow && len(r.LowCompetition) < maxLowTopics {
			r.LowCompetition = append(r.LowCompetition, c.Gap)
		}
	}
	for _, g := range res.SemanticGapAnalysis {
		if !g.IsGap {
			continue
		}
		if len(r.Opportunities) == maxOpportunities {
			break
		}
		level, ok := levels[g.Subdomain]
		if !ok {
			level = model.IntensityMedium
		}
		r.Opportunities = append(r.Opportunities, Opportunity{
			Topic:     g.Subdomain,
			Intensity: level,
			Label:     intensityText[level],
		})
	}

	s := res.ContentStrategy
	r.RawStrategy = strings.TrimSpace(s[strategy.FullStrategy])
	r.Positioning = strings.TrimSpace(s[strategy.SectionPositioning])
	if r.Positioning == "" {
		goal := r.Goal
		if goal == "" {
			goal = "build authority"
		}
		r.Positioning = fmt.Sprintf("Position yourself as the go-to expert who helps your audience %s through practical, actionable insights.", goal)
	}
	r.Pillars = listLines(s[strategy.SectionPillars], 10, "•-*0123456789. ")
	if len(r.Pillars) == 0 {
		r.Pillars = defaultPillars
	}
	if len(r.Pillars) > maxPillars {
		r.Pillars = r.Pillars[:maxPillars]
	}
	r.Angles = listLines(s[strategy.SectionHooks], 15, "•-*0123456789. \"'")
	if len(r.Angles) < angleCount {
		r.Angles = defaultAngles
	}
	r.Angles = r.Angles[:angleCount]
	r.Calendar = calendarDaysFrom(s[strategy.SectionCalendar])
	if len(r.Calendar) < calendarDays {
		r.Calendar = defaultCalendar
	}
	r.Calendar = r.Calendar[:calendarDays]
	return r
}

// listLines returns the non-heading lines longer than minLen with list
// markers stripped.
func listLines(text string, minLen int, markers string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) <= minLen || strings.HasPrefix(line, "#") {
			continue
		}
		if cleaned := strings.TrimLeft(line, markers); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}

// calendarDaysFrom groups calendar lines under the weekday line that
// precedes them.
func calendarDaysFrom(text string) []string {
	var days []string
	var current string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case mentionsWeekday(line):
			if current != "" {
				days = append(days, current)
			}
			current = line
		case current != "" && line != "" && !strings.HasPrefix(line, "#"):
			current += "\n  " + strings.TrimLeft(line, "•-* ")
		}
	}
	if current != "" {
		days = append(days, current)
	}
	return days
}

func mentionsWeekday(line string) bool {
	lower := strings.ToLower(line)
	for _, d := range weekdays {
		if strings.Contains(lower, d) {
			return true
		}
	}
	return false
}

// WriteJSON writes the full result to the provided writer in JSON format.
func WriteJSON(w io.Writer, res *pipeline.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}

var funcs = map[string]any{
	"lower": strings.ToLower,
	"title": titleCase,
	"join":  strings.Join,
	"inc":   func(i int) int { return i + 1 },
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

const textTmpl = `===============================================================
CONTENT STRATEGY REPORT
===============================================================

Topic Focus:     {{.Niche}}
Platform:        {{.Platform}}
Target Audience: {{.Audience}}
Run:             {{.RunID}}
{{- if .Error}}

RUN FAILED: {{.Error}}
{{- end}}

---------------------------------------------------------------
EXECUTIVE SUMMARY
---------------------------------------------------------------

We analyzed {{.PagesAnalyzed}} leading content pieces in your market in {{printf "%.1f" .ElapsedSeconds}}s.
Analysis quality: {{.ConfidenceText}}, {{lower .Confidence}} confidence in these findings.

---------------------------------------------------------------
MARKET OVERVIEW
---------------------------------------------------------------
{{if .Saturated}}
MARKET SATURATION ALERT
The market is oversaturated with {{lower .DominantFormat}} ({{printf "%.1f" .ListPercentage}}% of content).
Stand out with different formats and angles.
{{- else}}
HEALTHY MARKET DIVERSITY
The market shows {{lower .DominantFormat}}, leaving room for innovation.
{{- end}}

Most discussed topics: {{if .TopKeywords}}{{join .TopKeywords ", "}}{{else}}various topics{{end}}

---------------------------------------------------------------
COMPETITIVE LANDSCAPE
---------------------------------------------------------------

Market gaps identified: {{.GapsFound}}
{{- if .LowCompetition}}
Low competition areas: {{join .LowCompetition ", "}}
{{- else}}
The market is moderately competitive. Positioning will be key.
{{- end}}

---------------------------------------------------------------
TOP OPPORTUNITY GAPS
---------------------------------------------------------------
{{range $i, $o := .Opportunities}}
{{inc $i}}. {{title $o.Topic}} ({{$o.Label}})
{{- else}}
The market is well covered. Differentiate through personal case studies,
contrarian perspectives and deeper analysis.
{{- end}}

---------------------------------------------------------------
STRATEGIC POSITIONING
---------------------------------------------------------------

{{.Positioning}}

Core content pillars:
{{- range .Pillars}}
  * {{.}}
{{- end}}

---------------------------------------------------------------
5 CONTENT ANGLES
---------------------------------------------------------------
{{range $i, $a := .Angles}}
{{inc $i}}. {{$a}}
{{- end}}

---------------------------------------------------------------
7-DAY ACTION PLAN
---------------------------------------------------------------
{{range .Calendar}}
{{.}}
{{- end}}
{{- if .RawStrategy}}

---------------------------------------------------------------
FULL STRATEGY
---------------------------------------------------------------

{{.RawStrategy}}
{{- end}}

===============================================================
END OF REPORT
===============================================================
`

// WriteText writes a human-readable briefing to the provided writer.
func WriteText(w io.Writer, res *pipeline.Result) error {
	t, err := template.New("textReport").Funcs(funcs).Parse(textTmpl)
	if err != nil {
		return fmt.Errorf("parse text template: %w", err)
	}
	if err := t.Execute(w, Build(res)); err != nil {
		return fmt.Errorf("render text report: %w", err)
	}
	return nil
}

// Text renders the briefing to a string, or an empty string if rendering fails.
func Text(res *pipeline.Result) string {
	var sb strings.Builder
	if err := WriteText(&sb, res); err != nil {
		return ""
	}
	return sb.String()
}

const htmlTmpl = `<!DOCTYPE html>
<html>
<head>
<title>Content Strategy Report: {{.Niche}}</title>
<style>
  body { font-family: sans-serif; margin: 40px; color: #333; max-width: 960px; }
  h1 { border-bottom: 2px solid #ccc; padding-bottom: 10px; }
  .stat-card { display: inline-block; padding: 20px; margin: 10px 10px 10px 0; background: #f4f4f4; border-radius: 5px; min-width: 150px; }
  .stat-val { font-size: 24px; font-weight: bold; }
  .error { color: #b00; font-weight: bold; }
  table { border-collapse: collapse; margin-top: 10px; }
  th, td { padding: 8px 12px; border: 1px solid #ccc; text-align: left; }
  th { background: #eaeaea; }
  pre { white-space: pre-wrap; background: #f9f9f9; padding: 12px; }
</style>
</head>
<body>
  <h1>Content Strategy Report</h1>
  <p><strong>Topic:</strong> {{.Niche}} &middot; <strong>Platform:</strong> {{.Platform}} &middot; <strong>Audience:</strong> {{.Audience}}</p>
  {{- if .Error}}
  <p class="error">Run failed: {{.Error}}</p>
  {{- end}}

  <div class="stat-card">
    <div>Pages Analyzed</div>
    <div class="stat-val">{{.PagesAnalyzed}}</div>
  </div>
  <div class="stat-card">
    <div>Confidence</div>
    <div class="stat-val">{{.Confidence}}</div>
  </div>
  <div class="stat-card">
    <div>Gaps Found</div>
    <div class="stat-val">{{.GapsFound}}</div>
  </div>
  <div class="stat-card">
    <div>Saturated</div>
    <div class="stat-val" style="color: {{if .Saturated}}red{{else}}green{{end}};">{{if .Saturated}}yes{{else}}no{{end}}</div>
  </div>

  <h3>Opportunity Gaps</h3>
  <table>
    <tr><th>#</th><th>Topic</th><th>Competition</th></tr>
    {{- range $i, $o := .Opportunities}}
    <tr><td>{{inc $i}}</td><td>{{title $o.Topic}}</td><td>{{$o.Label}}</td></tr>
    {{- else}}
    <tr><td colspan="3">None</td></tr>
    {{- end}}
  </table>

  <h3>Positioning</h3>
  <p>{{.Positioning}}</p>
  <ul>
    {{- range .Pillars}}
    <li>{{.}}</li>
    {{- end}}
  </ul>

  <h3>Content Angles</h3>
  <ol>
    {{- range .Angles}}
    <li>{{.}}</li>
    {{- end}}
  </ol>

  <h3>7-Day Plan</h3>
  {{- range .Calendar}}
  <pre>{{.}}</pre>
  {{- end}}
  {{- if .RawStrategy}}

  <h3>Full Strategy</h3>
  <pre>{{.RawStrategy}}</pre>
  {{- end}}
</body>
</html>
`

// WriteHTML writes a standalone HTML report to the provided writer. All
// generated text is escaped.
func WriteHTML(w io.Writer, res *pipeline.Result) error {
	t, err := htmltemplate.New("htmlReport").Funcs(funcs).Parse(htmlTmpl)
	if err != nil {
		return fmt.Errorf("parse html template: %w", err)
	}
	if err := t.Execute(w, Build(res)); err != nil {
		return fmt.Errorf("render html report: %w", err)
	}
	return nil
}
