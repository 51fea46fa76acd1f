package cache

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/FranksOps/sift/internal/model"
)

func sampleItems() []model.ResearchItem {
	return []model.ResearchItem{
		{Title: "Top 5 hooks", Snippet: "s", URL: "https://example.com/a", Content: "c", Score: 3, Summary: "sum"},
		{Title: "Guide", URL: "https://example.com/b"},
	}
}

func TestKey(t *testing.T) {
	a := Key("  Fitness ", "TikTok")
	b := Key("fitness", "tiktok")
	if a != b {
		t.Errorf("expected normalized keys to match: %s vs %s", a, b)
	}
	if len(a) != 12 {
		t.Errorf("expected 12 hex chars, got %q", a)
	}
	if Key("fitness", "youtube") == a {
		t.Errorf("expected different platforms to differ")
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	s, err := NewFileStore(t.TempDir(), 0, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	if got := s.Load(ctx, "fitness", "tiktok"); got != nil {
		t.Fatalf("expected miss on empty cache, got %v", got)
	}

	s.Save(ctx, "fitness", "tiktok", sampleItems())
	got := s.Load(ctx, "Fitness", "TikTok")
	if !reflect.DeepEqual(got, sampleItems()) {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestFileStore_Expired(t *testing.T) {
	dir := t.TempDir()
	s, _ := NewFileStore(dir, time.Hour*24, nil)
	ctx := context.Background()

	s.Save(ctx, "fitness", "tiktok", sampleItems())
	old := time.Now().Add(-25 * time.Hour)
	if err := os.Chtimes(s.path("fitness", "tiktok"), old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	if got := s.Load(ctx, "fitness", "tiktok"); got != nil {
		t.Errorf("expected expired entry to miss, got %d items", len(got))
	}
}

func TestFileStore_CorruptAndEmpty(t *testing.T) {
	dir := t.TempDir()
	s, _ := NewFileStore(dir, 0, nil)
	ctx := context.Background()

	if err := os.WriteFile(s.path("a", "b"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := s.Load(ctx, "a", "b"); got != nil {
		t.Errorf("expected corrupt entry to miss")
	}

	if err := os.WriteFile(s.path("c", "d"), []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := s.Load(ctx, "c", "d"); got != nil {
		t.Errorf("expected empty entry to miss")
	}
}

func TestFileStore_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	s, _ := NewFileStore(dir, 0, nil)
	s.Save(context.Background(), "fitness", "tiktok", sampleItems())

	matches, _ := filepath.Glob(filepath.Join(dir, "*.tmp"))
	if len(matches) != 0 {
		t.Errorf("expected no temp files, got %v", matches)
	}
}

func TestFileStore_SaveFailureSwallowed(t *testing.T) {
	dir := t.TempDir()
	s, _ := NewFileStore(dir, 0, nil)
	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}
	// Must not panic.
	s.Save(context.Background(), "fitness", "tiktok", sampleItems())
	if got := s.Load(context.Background(), "fitness", "tiktok"); got != nil {
		t.Errorf("expected miss after failed save")
	}
}

func TestNop(t *testing.T) {
	var s Store = Nop{}
	s.Save(context.Background(), "a", "b", sampleItems())
	if s.Load(context.Background(), "a", "b") != nil {
		t.Errorf("expected Nop to always miss")
	}
}
