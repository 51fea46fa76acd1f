// Package cache keeps research results per (niche, platform) for a day so
// repeated runs skip the search engines.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"

	"github.com/FranksOps/sift/internal/model"
)

// DefaultTTL is how long cached research stays fresh.
const DefaultTTL = 24 * time.Hour

// Store loads and saves research items. Load returns nil on a miss; every
// failure is treated as a miss, and Save never fails the caller.
type Store interface {
	Load(ctx context.Context, niche, platform string) []model.ResearchItem
	Save(ctx context.Context, niche, platform string, items []model.ResearchItem)
}

// Key is the first 12 hex characters of the md5 of the normalized niche
// and platform.
func Key(niche, platform string) string {
	raw := strings.ToLower(strings.TrimSpace(niche)) + "__" + strings.ToLower(strings.TrimSpace(platform))
	sum := md5.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])[:12]
}

// Nop never hits and discards writes.
type Nop struct{}

var _ Store = Nop{}

func (Nop) Load(context.Context, string, string) []model.ResearchItem { return nil }

func (Nop) Save(context.Context, string, string, []model.ResearchItem) {}
