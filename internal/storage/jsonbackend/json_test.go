package jsonbackend

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/FranksOps/sift/internal/storage"
)

func TestJSONBackend(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "runs.jsonl")

	b, err := New(filePath)
	if err != nil {
		t.Fatalf("Failed to create JSON backend: %v", err)
	}
	defer b.Close()

	ctx := context.Background()
	now := time.Now().Truncate(time.Millisecond).UTC()

	run1 := &storage.RunRecord{
		ID:             "run1",
		Niche:          "indie founders",
		Platform:       "YouTube",
		Audience:       "solo developers",
		Goal:           "grow subscribers",
		ElapsedSeconds: 42.5,
		ResearchCount:  9,
		GapsFound:      4,
		Result:         json.RawMessage(`{"meta":{"gaps_found":4}}`),
		CreatedAt:      now.Add(-2 * time.Hour),
	}

	run2 := &storage.RunRecord{
		ID:        "run2",
		Niche:     "sourdough baking",
		Platform:  "TikTok",
		Audience:  "home bakers",
		Goal:      "sell courses",
		Failed:    true,
		Error:     "no research data collected",
		CreatedAt: now.Add(-1 * time.Hour),
	}

	if err := b.Save(ctx, run1); err != nil {
		t.Fatalf("Failed to save run 1: %v", err)
	}
	if err := b.Save(ctx, run2); err != nil {
		t.Fatalf("Failed to save run 2: %v", err)
	}

	byNiche, err := b.Query(ctx, storage.Filter{Niche: "indie founders"})
	if err != nil {
		t.Fatalf("Failed to query by niche: %v", err)
	}
	if len(byNiche) != 1 {
		t.Fatalf("Expected 1 result for niche filter, got %d", len(byNiche))
	}
	got := byNiche[0]
	if got.ID != "run1" || got.GapsFound != 4 || got.ElapsedSeconds != 42.5 {
		t.Errorf("unexpected record %+v", got)
	}
	if string(got.Result) != `{"meta":{"gaps_found":4}}` {
		t.Errorf("result payload not preserved: %s", got.Result)
	}

	byPlatform, err := b.Query(ctx, storage.Filter{Platform: "TikTok"})
	if err != nil {
		t.Fatalf("Failed to query by platform: %v", err)
	}
	if len(byPlatform) != 1 || byPlatform[0].ID != "run2" {
		t.Fatalf("Expected run2 for platform filter, got %v", byPlatform)
	}
	if string(byPlatform[0].Result) != "null" {
		t.Errorf("expected null payload for failed run, got %s", byPlatform[0].Result)
	}

	failed := true
	byFailed, err := b.Query(ctx, storage.Filter{Failed: &failed})
	if err != nil {
		t.Fatalf("Failed to query by Failed: %v", err)
	}
	if len(byFailed) != 1 || byFailed[0].Error == "" {
		t.Fatalf("Expected 1 failed run with error, got %v", byFailed)
	}

	past := now.Add(-90 * time.Minute)
	bySince, err := b.Query(ctx, storage.Filter{Since: &past})
	if err != nil {
		t.Fatalf("Failed to query by Since: %v", err)
	}
	if len(bySince) != 1 || bySince[0].ID != "run2" {
		t.Fatalf("Expected run2 for Since filter, got %v", bySince)
	}

	all, err := b.Query(ctx, storage.Filter{})
	if err != nil {
		t.Fatalf("Failed to query all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(all))
	}
	if all[0].ID != "run2" {
		t.Errorf("Expected run2 first, got %s", all[0].ID)
	}

	limited, err := b.Query(ctx, storage.Filter{Limit: 1})
	if err != nil {
		t.Fatalf("Failed to query limit: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(limited))
	}

	offset, err := b.Query(ctx, storage.Filter{Offset: 1})
	if err != nil {
		t.Fatalf("Failed to query offset: %v", err)
	}
	if len(offset) != 1 || offset[0].ID != "run1" {
		t.Errorf("Expected run1 for offset 1, got %v", offset)
	}

	beyond, err := b.Query(ctx, storage.Filter{Offset: 5})
	if err != nil {
		t.Fatalf("Failed to query large offset: %v", err)
	}
	if len(beyond) != 0 {
		t.Errorf("Expected empty result past the end, got %d", len(beyond))
	}
}

func TestJSONBackend_ReopenKeepsRecords(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "runs.jsonl")
	ctx := context.Background()

	b, err := New(filePath)
	if err != nil {
		t.Fatalf("Failed to create JSON backend: %v", err)
	}
	if err := b.Save(ctx, &storage.RunRecord{ID: "first", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("save: %v", err)
	}
	_ = b.Close()

	b, err = New(filePath)
	if err != nil {
		t.Fatalf("Failed to reopen JSON backend: %v", err)
	}
	defer b.Close()
	if err := b.Save(ctx, &storage.RunRecord{ID: "second", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("save: %v", err)
	}

	all, err := b.Query(ctx, storage.Filter{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 2 || all[0].ID != "second" {
		t.Errorf("expected both records newest first, got %v", all)
	}
}
