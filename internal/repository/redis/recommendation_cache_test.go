//go:build integration

package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"vidShare/business/recommender"
	"vidShare/domain"

	"github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestListRoundTripAndExpiry(t *testing.T) {
	client := newTestClient(t)
	repo := NewCacheRepository(client)
	ctx := context.Background()
	key := "reco:test:" + time.Now().Format(time.RFC3339Nano)

	if _, err := repo.GetList(ctx, key); !errors.Is(err, recommender.ErrCacheMiss) {
		t.Fatalf("GetList on empty key = %v, want ErrCacheMiss", err)
	}

	entry := domain.RecommendationCacheEntry{IDs: []uint64{3, 1, 2}, WrittenAt: time.Now().UTC(), TTLClass: domain.TTLPrecomputed}
	if err := repo.SetList(ctx, key, entry, time.Minute); err != nil {
		t.Fatalf("SetList: %v", err)
	}
	got, err := repo.GetList(ctx, key)
	if err != nil {
		t.Fatalf("GetList: %v", err)
	}
	if len(got.IDs) != 3 || got.IDs[0] != 3 || got.TTLClass != domain.TTLPrecomputed {
		t.Fatalf("got %+v", got)
	}

	ttl, err := client.TTL(ctx, key).Result()
	if err != nil || ttl <= 0 || ttl > time.Minute {
		t.Fatalf("ttl = %v, %v", ttl, err)
	}
	client.Del(ctx, key)
}

func TestVectorRoundTrip(t *testing.T) {
	repo := NewCacheRepository(newTestClient(t))
	ctx := context.Background()
	key := "embedding:test:" + time.Now().Format(time.RFC3339Nano)

	if _, err := repo.GetVector(ctx, key); err == nil {
		t.Fatal("expected a miss")
	}
	if err := repo.SetVector(ctx, key, []float32{0.5, -1}, time.Minute); err != nil {
		t.Fatalf("SetVector: %v", err)
	}
	vec, err := repo.GetVector(ctx, key)
	if err != nil || len(vec) != 2 || vec[1] != -1 {
		t.Fatalf("got %v, %v", vec, err)
	}
}
