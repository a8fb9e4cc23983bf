package recommender

import (
	"context"
	"errors"
	"fmt"

	"vidShare/domain"
	"vidShare/pkg/logger"
	"vidShare/pkg/metrics"
)

// UserCacheKey identifies a personalised list by user and request shape.
func UserCacheKey(userID uint, count int, excludeWatched bool) string {
	return fmt.Sprintf("reco:user:%d:%d:%t", userID, count, excludeWatched)
}

// PopularCacheKey identifies the popular list of a given length.
func PopularCacheKey(count int) string {
	return fmt.Sprintf("reco:popular:%d", count)
}

// cachedList returns the cached list under key if it is younger than its TTL class and every
// id still resolves to an eligible video. A partial resolution is a miss.
func (s *Service) cachedList(ctx context.Context, key string, userID uint) ([]domain.Video, bool) {
	if s.cache == nil {
		return nil, false
	}

	entry, err := s.cache.GetList(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			logger.Warn("recommendation_cache_get_failed", "key", key, "error", err)
		}
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}

	if !entry.WrittenAt.IsZero() && s.now().Sub(entry.WrittenAt) > s.settings.ttl(entry.TTLClass) {
		logger.Debug("recommendation_cache_expired",
			"key", key,
			"written_at", entry.WrittenAt,
			"ttl_class", entry.TTLClass,
		)
		metrics.CacheLookups.WithLabelValues("stale").Inc()
		return nil, false
	}

	videos, err := s.videos.FindByIDs(ctx, entry.IDs)
	if err != nil {
		logger.Warn("recommendation_cache_resolve_failed", "key", key, "error", err)
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}

	byID := make(map[uint64]domain.Video, len(videos))
	for _, v := range videos {
		if s.eligibility.IsEligible(ctx, userID, v) {
			byID[v.ID] = v
		}
	}

	out := make([]domain.Video, 0, len(entry.IDs))
	for _, id := range entry.IDs {
		v, ok := byID[id]
		if !ok {
			logger.Debug("recommendation_cache_stale",
				"key", key,
				"cached", len(entry.IDs),
				"resolved", len(byID),
			)
			metrics.CacheLookups.WithLabelValues("stale").Inc()
			return nil, false
		}
		out = append(out, v)
	}

	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return out, true
}

func (s *Service) writeCache(ctx context.Context, key string, videos []domain.Video, class domain.CacheTTLClass) error {
	if s.cache == nil || len(videos) == 0 {
		return nil
	}

	entry := domain.RecommendationCacheEntry{
		IDs:       videoIDs(videos),
		WrittenAt: s.now(),
		TTLClass:  class,
	}
	if err := s.cache.SetList(ctx, key, entry, s.settings.ttl(class)); err != nil {
		return fmt.Errorf("write cache %s: %w", key, err)
	}
	return nil
}
