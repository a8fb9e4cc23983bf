package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"vidShare/business/embedding"
	"vidShare/business/recommender"
	"vidShare/domain"

	"github.com/redis/go-redis/v9"
)

// CacheRepository backs the recommendation lists and the vector read-through cache.
// Values are JSON; writes are plain SET with expiry, last writer wins.
type CacheRepository struct {
	client *redis.Client
}

var (
	_ recommender.Cache     = (*CacheRepository)(nil)
	_ embedding.VectorCache = (*CacheRepository)(nil)
)

func NewCacheRepository(client *redis.Client) *CacheRepository {
	return &CacheRepository{
		client: client,
	}
}

func (r *CacheRepository) GetList(ctx context.Context, key string) (domain.RecommendationCacheEntry, error) {
	var entry domain.RecommendationCacheEntry

	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return entry, recommender.ErrCacheMiss
		}
		return entry, fmt.Errorf("failed to get %s from Redis: %w", key, err)
	}

	if err := json.Unmarshal(val, &entry); err != nil {
		return entry, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}
	return entry, nil
}

func (r *CacheRepository) SetList(ctx context.Context, key string, entry domain.RecommendationCacheEntry, ttl time.Duration) error {
	jsonData, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	if err := r.client.Set(ctx, key, jsonData, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store %s in Redis: %w", key, err)
	}
	return nil
}

// errVectorMiss is returned by GetVector for absent keys; the store treats any error as a miss.
var errVectorMiss = errors.New("vector not cached")

func (r *CacheRepository) GetVector(ctx context.Context, key string) ([]float32, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errVectorMiss
		}
		return nil, fmt.Errorf("failed to get %s from Redis: %w", key, err)
	}

	var vec []float32
	if err := json.Unmarshal(val, &vec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal vector: %w", err)
	}
	return vec, nil
}

func (r *CacheRepository) SetVector(ctx context.Context, key string, vector []float32, ttl time.Duration) error {
	jsonData, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("failed to marshal vector: %w", err)
	}

	if err := r.client.Set(ctx, key, jsonData, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store %s in Redis: %w", key, err)
	}
	return nil
}
