package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const draft = `## 1. STRATEGIC POSITIONING STATEMENT
The field manual for bakers who sell their first loaf online.

## 2. CONTENT PILLARS
- Starter maintenance on a weekday schedule
- Pricing a loaf for the farmers market

## 3. OPTIMIZED HOOKS
1. Your starter is hungrier than you think.

## 4. SHORT-FORM CONTENT SCRIPTS
Hook: Feed at night, bake at dawn. Body: the overnight rhythm.

## 5. CTA VARIATIONS
- Join the Saturday bake-along.

## 6. 7-DAY CONTENT CALENDAR
Mon: starter basics. Tue: shaping.`

func backendHandler(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/tags":
		_, _ = w.Write([]byte(`{"models":[{"name":"qwen2.5-coder:7b"}]}`))
	case "/api/generate":
		var payload struct {
			Prompt string `json:"prompt"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		var reply string
		switch {
		case strings.HasPrefix(payload.Prompt, "Summarize"):
			reply = "A walk through an overnight sourdough schedule for busy home bakers."
		case strings.HasPrefix(payload.Prompt, "Given niche"):
			reply = "starter feeding schedules\nbanneton shaping technique\nsteam oven hacks\nflour protein comparison\nmarket stall pricing\ncottage food licensing"
		case strings.HasPrefix(payload.Prompt, "Analyze content summaries"):
			reply = "Hooks promise a crackling crust in fewer steps."
		case strings.HasPrefix(payload.Prompt, "Senior content strategist"), strings.HasPrefix(payload.Prompt, "Brutal editor"):
			reply = draft
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"response": reply, "done": true})
	default:
		http.NotFound(w, r)
	}
}

const page = `<html><head><title>Sourdough</title></head><body><main>
<p>Feed the starter at night so it peaks right when you wake up and are ready to mix the dough.</p>
<p>An overnight bulk ferment in a cool kitchen gives a more open crumb and a tangier flavour profile.</p>
<p>Shape tightly, proof in a floured banneton and bake in a preheated dutch oven for a crackling crust.</p>
<p>Sell at the market by pricing each loaf from flour cost, oven time and the hours the dough needs from you.</p>
</main></body></html>`

// fixture starts stand-ins for the search engines, the pages they link to
// and the backend, and writes a config pointing at them.
func fixture(t *testing.T) (cfgPath, archivePath string) {
	t.Helper()

	pages := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(page))
	}))
	t.Cleanup(pages.Close)

	ddg := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sb strings.Builder
		sb.WriteString("<html><body>")
		for i := 0; i < 6; i++ {
			fmt.Fprintf(&sb, `<div class="result"><a class="result__a" href="%s/loaf/%d">Sourdough schedule %d</a>
<a class="result__snippet" href="#">An overnight sourdough routine, part %d.</a></div>`, pages.URL, i, i, i)
		}
		sb.WriteString("</body></html>")
		_, _ = w.Write([]byte(sb.String()))
	}))
	t.Cleanup(ddg.Close)

	bing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><span class="sb_count">About 900 results</span><ol id="b_results"></ol></body></html>`))
	}))
	t.Cleanup(bing.Close)

	backend := httptest.NewServer(http.HandlerFunc(backendHandler))
	t.Cleanup(backend.Close)

	dir := t.TempDir()
	archivePath = filepath.Join(dir, "runs.jsonl")
	cfg := fmt.Sprintf(`
log:
  level: error
llm:
  base_url: %s
search:
  ddg_endpoint: %s
  bing_endpoint: %s
  timeout: 5s
  min_delay: 0s
  max_delay: 0s
  probe_delay: 0s
  fingerprint: go
cache:
  dir: %s
archive:
  backend: json
  path: %s
`, backend.URL, ddg.URL, bing.URL, filepath.Join(dir, "cache"), archivePath)

	cfgPath = filepath.Join(dir, "sift.yaml")
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return cfgPath, archivePath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := rootCMD()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestAnalyzeThenHistory(t *testing.T) {
	cfgPath, _ := fixture(t)
	reportPath := filepath.Join(t.TempDir(), "report.json")

	_, err := execute(t, "--config", cfgPath, "analyze",
		"--niche", "sourdough baking", "--platform", "Instagram",
		"--audience", "home bakers", "--goal", "sell a starter kit",
		"--format", "json", "--quiet", "--output", reportPath)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var res struct {
		ContentStrategy map[string]string `json:"content_strategy"`
		Meta            struct {
			RunID         string `json:"run_id"`
			ResearchCount int    `json:"research_count"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(data, &res); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if res.Meta.RunID == "" || res.Meta.ResearchCount != 6 {
		t.Errorf("unexpected meta %+v", res.Meta)
	}
	if len(res.ContentStrategy) != 6 {
		t.Errorf("expected six strategy sections, got %d", len(res.ContentStrategy))
	}

	out, err := execute(t, "--config", cfgPath, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, res.Meta.RunID) || !strings.Contains(out, "sourdough baking") {
		t.Errorf("expected the run in history, got:\n%s", out)
	}

	out, err = execute(t, "--config", cfgPath, "history", "--failed")
	if err != nil {
		t.Fatalf("history --failed: %v", err)
	}
	if strings.Contains(out, res.Meta.RunID) {
		t.Errorf("successful run listed under --failed:\n%s", out)
	}
}

func TestAnalyze_TextToStdout(t *testing.T) {
	cfgPath, _ := fixture(t)

	out, err := execute(t, "--config", cfgPath, "analyze", "-q",
		"--niche", "sourdough baking", "--platform", "Instagram",
		"--audience", "home bakers", "--goal", "sell a starter kit")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !strings.Contains(out, "CONTENT STRATEGY REPORT") || !strings.Contains(out, "field manual for bakers") {
		t.Errorf("unexpected text report:\n%s", out)
	}
}

func TestAnalyze_UnknownFormat(t *testing.T) {
	_, err := execute(t, "analyze", "--niche", "a", "--platform", "b", "--audience", "c", "--goal", "d", "--format", "pdf")
	if err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Fatalf("expected unknown format error, got %v", err)
	}
}

func TestAnalyze_RequiresBrief(t *testing.T) {
	_, err := execute(t, "analyze", "--niche", "sourdough")
	if err == nil || !strings.Contains(err.Error(), "required flag") {
		t.Fatalf("expected missing flag error, got %v", err)
	}
}

func TestHealth(t *testing.T) {
	cfgPath, _ := fixture(t)

	out, err := execute(t, "--config", cfgPath, "health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if !strings.Contains(out, "backend ok: qwen2.5-coder:7b") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestHistory_ArchiveDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sift.yaml")
	if err := os.WriteFile(path, []byte("log:\n  level: error\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := execute(t, "--config", path, "history")
	if err == nil || !strings.Contains(err.Error(), "archive is disabled") {
		t.Fatalf("expected disabled archive error, got %v", err)
	}
}
