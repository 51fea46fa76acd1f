package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/FranksOps/sift/internal/metrics"
	"github.com/FranksOps/sift/internal/model"
)

// FileStore keeps one JSON array per key in a directory. Freshness is
// judged by file modification time.
type FileStore struct {
	dir    string
	ttl    time.Duration
	logger *slog.Logger
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates the cache directory if needed.
func NewFileStore(dir string, ttl time.Duration, logger *slog.Logger) (*FileStore, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	return &FileStore{dir: dir, ttl: ttl, logger: logger}, nil
}

func (s *FileStore) path(niche, platform string) string {
	return filepath.Join(s.dir, Key(niche, platform)+".json")
}

func (s *FileStore) Load(_ context.Context, niche, platform string) []model.ResearchItem {
	items := s.load(niche, platform)
	metrics.RecordCacheLookup("file", items != nil)
	return items
}

func (s *FileStore) load(niche, platform string) []model.ResearchItem {
	path := s.path(niche, platform)
	info, err := os.Stat(path)
	if err != nil {
		return nil
	}
	if time.Since(info.ModTime()) > s.ttl {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Debug("cache read failed", "path", path, "err", err)
		return nil
	}
	var items []model.ResearchItem
	if err := json.Unmarshal(data, &items); err != nil {
		s.logger.Debug("cache entry corrupt", "path", path, "err", err)
		return nil
	}
	if len(items) == 0 {
		return nil
	}
	return items
}

// Save writes to a temp file in the same directory and renames it into
// place so concurrent readers never see a partial entry.
func (s *FileStore) Save(_ context.Context, niche, platform string, items []model.ResearchItem) {
	if err := s.save(niche, platform, items); err != nil {
		s.logger.Warn("cache save failed", "niche", niche, "platform", platform, "err", err)
	}
}

func (s *FileStore) save(niche, platform string, items []model.ResearchItem) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal items: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, Key(niche, platform)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path(niche, platform)); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
