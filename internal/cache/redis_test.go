package cache

import (
	"context"
	"os"
	"reflect"
	"testing"
	"time"
)

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("SIFT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("Skipping Redis test: SIFT_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	s, err := NewRedisStore(ctx, RedisConfig{
		Addr:   addr,
		Prefix: "sift:test:" + time.Now().Format("150405.000") + ":",
		TTL:    time.Minute,
	}, nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer s.Close()

	if got := s.Load(ctx, "fitness", "tiktok"); got != nil {
		t.Fatalf("expected miss, got %v", got)
	}

	s.Save(ctx, "fitness", "tiktok", sampleItems())
	if got := s.Load(ctx, "Fitness", "TikTok"); !reflect.DeepEqual(got, sampleItems()) {
		t.Errorf("round trip mismatch: %+v", got)
	}

	ttl, err := s.client.TTL(ctx, s.key("fitness", "tiktok")).Result()
	if err != nil || ttl <= 0 || ttl > time.Minute {
		t.Errorf("expected TTL within a minute, got %v (%v)", ttl, err)
	}
}

func TestRedisStore_Unreachable(t *testing.T) {
	_, err := NewRedisStore(context.Background(), RedisConfig{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
	}, nil)
	if err == nil {
		t.Fatal("expected ping failure")
	}
}
