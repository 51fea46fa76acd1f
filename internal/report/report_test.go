package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/FranksOps/sift/internal/model"
	"github.com/FranksOps/sift/internal/pipeline"
	"github.com/FranksOps/sift/internal/strategy"
)

func sampleResult() *pipeline.Result {
	return &pipeline.Result{
		ClientProfile: model.Brief{
			Niche:    "founder productivity",
			Platform: "LinkedIn",
			Audience: "seed-stage founders",
			Goal:     "book strategy calls",
		},
		SignalStrength:   model.SignalStrength{URLsWithContent: 4, Confidence: model.ConfidenceMedium},
		SaturationReport: model.SaturationReport{DominantFormat: "Listicle saturation", IsSaturated: true, ListPercentage: 58.3},
		KeywordAnalysis: []model.KeywordCount{
			{Word: "founder", Count: 9}, {Word: "calendar", Count: 7}, {Word: "focus", Count: 5},
		},
		SemanticGapAnalysis: []model.GapResult{
			{Subdomain: "investor update cadence", IsGap: true},
			{Subdomain: "board meeting preparation", IsGap: true},
			{Subdomain: "deep work routines", IsGap: false},
		},
		CompetitiveIntensity: []model.CompetitiveIntensity{
			{Gap: "investor update cadence", IntensityLevel: model.IntensityLow},
		},
		ContentStrategy: map[string]string{
			strategy.SectionPositioning: "The operator's notebook for founders who ship.",
			strategy.SectionPillars:     "- Calendar architecture for builders\n- Investor updates in ten minutes",
			strategy.SectionHooks: "1. Your calendar is lying to you today.\n" +
				"2. Stop planning your week on Sunday night.\n" +
				"3. Deep work is a scheduling problem, not a will problem.\n" +
				"4. The best founders say no before lunch.\n" +
				"5. Your investor update is a product launch.\n" +
				"6. Meetings are a tax you chose to pay.",
			strategy.SectionCalendar: "Monday: pillar one\n- 8am post\nTuesday: pillar two\nWednesday: hooks\n" +
				"Thursday: script\nFriday: CTA\nSaturday: recap\nSunday: rest",
		},
		Meta: pipeline.Meta{RunID: "run-1", GapsFound: 2, ElapsedSeconds: 84.2},
	}
}

func TestBuild(t *testing.T) {
	r := Build(sampleResult())

	if r.ConfidenceText != "moderate data quality" {
		t.Errorf("unexpected confidence text %q", r.ConfidenceText)
	}
	if len(r.TopKeywords) != 3 || r.TopKeywords[0] != "founder" {
		t.Errorf("unexpected keywords %v", r.TopKeywords)
	}
	if len(r.Opportunities) != 2 {
		t.Fatalf("expected 2 opportunities, got %v", r.Opportunities)
	}
	if r.Opportunities[0].Intensity != model.IntensityLow || r.Opportunities[1].Intensity != model.IntensityMedium {
		t.Errorf("unprobed gaps should read as medium: %+v", r.Opportunities)
	}
	if len(r.LowCompetition) != 1 || r.LowCompetition[0] != "investor update cadence" {
		t.Errorf("unexpected low competition list %v", r.LowCompetition)
	}
	if len(r.Pillars) != 2 || r.Pillars[0] != "Calendar architecture for builders" {
		t.Errorf("unexpected pillars %v", r.Pillars)
	}
	if len(r.Angles) != 5 || r.Angles[0] != "Your calendar is lying to you today." {
		t.Errorf("unexpected angles %v", r.Angles)
	}
	if len(r.Calendar) != 7 || r.Calendar[0] != "Monday: pillar one\n  8am post" {
		t.Errorf("unexpected calendar %q", r.Calendar)
	}
}

func TestBuild_Defaults(t *testing.T) {
	res := &pipeline.Result{
		ClientProfile:   model.Brief{Niche: "sourdough", Goal: "sell courses"},
		ContentStrategy: map[string]string{strategy.FullStrategy: "one unstructured blob"},
	}
	r := Build(res)

	if r.Confidence != "UNKNOWN" || r.ConfidenceText != "varying data quality" {
		t.Errorf("unexpected confidence %q / %q", r.Confidence, r.ConfidenceText)
	}
	if !strings.Contains(r.Positioning, "sell courses") {
		t.Errorf("expected goal in default positioning, got %q", r.Positioning)
	}
	if len(r.Pillars) != 3 || len(r.Angles) != 5 || len(r.Calendar) != 7 {
		t.Errorf("expected default guidance, got %d pillars, %d angles, %d days", len(r.Pillars), len(r.Angles), len(r.Calendar))
	}
	if r.RawStrategy != "one unstructured blob" {
		t.Errorf("expected the unsplit strategy to be kept, got %q", r.RawStrategy)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleResult()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	meta, ok := decoded["meta"].(map[string]any)
	if !ok || meta["run_id"] != "run-1" {
		t.Errorf("expected meta.run_id in output, got %v", decoded["meta"])
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, sampleResult()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"CONTENT STRATEGY REPORT",
		"Topic Focus:     founder productivity",
		"We analyzed 4 leading content pieces in your market in 84.2s.",
		"MARKET SATURATION ALERT",
		"listicle saturation (58.3% of content)",
		"Most discussed topics: founder, calendar, focus",
		"Low competition areas: investor update cadence",
		"1. Investor Update Cadence (Low Competition)",
		"2. Board Meeting Preparation (Moderate Competition)",
		"  * Calendar architecture for builders",
		"END OF REPORT",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected text report to contain %q", want)
		}
	}
	if strings.Contains(out, "RUN FAILED") {
		t.Errorf("successful run should not be marked failed")
	}
}

func TestText_FailedRun(t *testing.T) {
	res := sampleResult()
	res.Meta.Error = "pipeline: no research data collected"

	out := Text(res)
	if !strings.Contains(out, "RUN FAILED: pipeline: no research data collected") {
		t.Errorf("expected failure banner, got:\n%s", out)
	}
}

func TestWriteHTML(t *testing.T) {
	res := sampleResult()
	res.ContentStrategy[strategy.SectionPositioning] = "<script>alert(1)</script> Operators only."

	var buf bytes.Buffer
	if err := WriteHTML(&buf, res); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "<title>Content Strategy Report: founder productivity</title>") {
		t.Errorf("expected title in HTML report")
	}
	if !strings.Contains(out, "<td>Investor Update Cadence</td><td>Low Competition</td>") {
		t.Errorf("expected opportunity row in HTML report")
	}
	if strings.Contains(out, "<script>alert(1)</script>") {
		t.Errorf("generated text must be escaped")
	}
	if !strings.Contains(out, "&lt;script&gt;") {
		t.Errorf("expected escaped script tag")
	}
}
