package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/FranksOps/sift/internal/metrics"
	"github.com/FranksOps/sift/internal/model"
	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "sift:research:"

// RedisConfig configures a RedisStore.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
	// DialTimeout bounds the initial connection check.
	DialTimeout time.Duration
}

// RedisStore keeps entries as JSON strings that expire after the TTL.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects and pings the server.
func NewRedisStore(ctx context.Context, cfg RedisConfig, logger *slog.Logger) (*RedisStore, error) {
	if cfg.Prefix == "" {
		cfg.Prefix = defaultRedisPrefix
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Addr, err)
	}

	return &RedisStore{client: client, prefix: cfg.Prefix, ttl: cfg.TTL, logger: logger}, nil
}

func (s *RedisStore) key(niche, platform string) string {
	return s.prefix + Key(niche, platform)
}

func (s *RedisStore) Load(ctx context.Context, niche, platform string) []model.ResearchItem {
	items := s.load(ctx, niche, platform)
	metrics.RecordCacheLookup("redis", items != nil)
	return items
}

func (s *RedisStore) load(ctx context.Context, niche, platform string) []model.ResearchItem {
	val, err := s.client.Get(ctx, s.key(niche, platform)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Debug("redis cache get failed", "err", err)
		}
		return nil
	}
	var items []model.ResearchItem
	if err := json.Unmarshal(val, &items); err != nil || len(items) == 0 {
		return nil
	}
	return items
}

func (s *RedisStore) Save(ctx context.Context, niche, platform string, items []model.ResearchItem) {
	data, err := json.Marshal(items)
	if err != nil {
		s.logger.Warn("cache save failed", "err", err)
		return
	}
	if err := s.client.Set(ctx, s.key(niche, platform), data, s.ttl).Err(); err != nil {
		s.logger.Warn("cache save failed", "niche", niche, "platform", platform, "err", err)
	}
}

// Close releases the connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
