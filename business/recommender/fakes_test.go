//go:build !integration

package recommender

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"vidShare/business/bandit"
	"vidShare/domain"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func daysAgo(d int) time.Time { return testNow.AddDate(0, 0, -d) }

func published(id uint64, creator uint, views int64, created time.Time) domain.Video {
	return domain.Video{
		ID:               id,
		Title:            "video",
		CreatorID:        creator,
		Views:            views,
		IsPublished:      true,
		ModerationStatus: domain.ModerationApproved,
		CreatedAt:        created,
	}
}

// fakeCatalog is an in-memory VideoRepository and UserRepository.
type fakeCatalog struct {
	videos    map[uint64]domain.Video
	views     []domain.VideoView
	likes     map[uint][]uint64
	videoCats map[uint64][]uint64
	subs      map[uint][]uint
	users     map[uint]bool
	failLiked bool
}

func newCatalog(videos ...domain.Video) *fakeCatalog {
	c := &fakeCatalog{
		videos:    make(map[uint64]domain.Video),
		likes:     make(map[uint][]uint64),
		videoCats: make(map[uint64][]uint64),
		subs:      make(map[uint][]uint),
		users:     make(map[uint]bool),
	}
	for _, v := range videos {
		c.videos[v.ID] = v
	}
	return c
}

func (c *fakeCatalog) watch(user uint, video uint64, seconds int, at time.Time) {
	c.views = append(c.views, domain.VideoView{UserID: user, VideoID: video, ViewTime: seconds, CreatedAt: at})
}

func (c *fakeCatalog) sortedIDs() []uint64 {
	ids := make([]uint64, 0, len(c.videos))
	for id := range c.videos {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func toSet[T comparable](xs []T) map[T]bool {
	m := make(map[T]bool, len(xs))
	for _, x := range xs {
		m[x] = true
	}
	return m
}

func (c *fakeCatalog) FindByIDs(_ context.Context, ids []uint64) ([]domain.Video, error) {
	var out []domain.Video
	for _, id := range ids {
		if v, ok := c.videos[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (c *fakeCatalog) EligibleVideos(_ context.Context, q CandidateQuery) ([]domain.Video, error) {
	exclude := toSet(q.ExcludeIDs)
	only := toSet(q.CreatorIDs)
	skipCreators := toSet(q.ExcludeCreatorIDs)

	var out []domain.Video
	for _, id := range c.sortedIDs() {
		v := c.videos[id]
		switch {
		case !v.Eligible(), exclude[id]:
			continue
		case len(only) > 0 && !only[v.CreatorID]:
			continue
		case skipCreators[v.CreatorID]:
			continue
		case !q.CreatedAfter.IsZero() && !v.CreatedAt.After(q.CreatedAfter):
			continue
		case !q.CreatedBefore.IsZero() && v.CreatedAt.After(q.CreatedBefore):
			continue
		}
		out = append(out, v)
	}
	if q.Order == OrderNewest {
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (c *fakeCatalog) WatchedVideoIDs(_ context.Context, userID uint) ([]uint64, error) {
	seen := make(map[uint64]bool)
	var out []uint64
	for _, v := range c.views {
		if v.UserID == userID && !seen[v.VideoID] {
			seen[v.VideoID] = true
			out = append(out, v.VideoID)
		}
	}
	return out, nil
}

func (c *fakeCatalog) LikedVideoIDs(_ context.Context, userID uint) ([]uint64, error) {
	if c.failLiked {
		return nil, errors.New("likes table unavailable")
	}
	return c.likes[userID], nil
}

func (c *fakeCatalog) LongWatchedVideoIDs(_ context.Context, userID uint, minSeconds, limit int) ([]uint64, error) {
	total := make(map[uint64]int)
	for _, v := range c.views {
		if v.UserID == userID && v.ViewTime >= minSeconds {
			total[v.VideoID] += v.ViewTime
		}
	}
	ids := make([]uint64, 0, len(total))
	for id := range total {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if total[ids[i]] != total[ids[j]] {
			return total[ids[i]] > total[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (c *fakeCatalog) CoWatchNeighbours(ctx context.Context, userID uint, minOverlap, limit int) ([]uint, error) {
	mine, _ := c.WatchedVideoIDs(ctx, userID)
	mineSet := toSet(mine)

	overlap := make(map[uint]map[uint64]bool)
	for _, v := range c.views {
		if v.UserID == userID || !mineSet[v.VideoID] {
			continue
		}
		if overlap[v.UserID] == nil {
			overlap[v.UserID] = make(map[uint64]bool)
		}
		overlap[v.UserID][v.VideoID] = true
	}

	var out []uint
	for u, vids := range overlap {
		if len(vids) >= minOverlap {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if len(overlap[out[i]]) != len(overlap[out[j]]) {
			return len(overlap[out[i]]) > len(overlap[out[j]])
		}
		return out[i] < out[j]
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (c *fakeCatalog) WatchedByUsers(_ context.Context, userIDs []uint, excludeIDs []uint64, limit int) ([]CountedVideo, error) {
	users := toSet(userIDs)
	exclude := toSet(excludeIDs)
	watchers := make(map[uint64]map[uint]bool)
	for _, v := range c.views {
		if !users[v.UserID] || exclude[v.VideoID] {
			continue
		}
		if watchers[v.VideoID] == nil {
			watchers[v.VideoID] = make(map[uint]bool)
		}
		watchers[v.VideoID][v.UserID] = true
	}

	var out []CountedVideo
	for _, id := range c.sortedIDs() {
		v := c.videos[id]
		if w, ok := watchers[id]; ok && v.Eligible() {
			out = append(out, CountedVideo{Video: v, Count: int64(len(w))})
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (c *fakeCatalog) TopCategoryIDs(ctx context.Context, userID uint, limit int) ([]uint64, error) {
	watched, _ := c.WatchedVideoIDs(ctx, userID)
	counts := make(map[uint64]int)
	for _, id := range watched {
		for _, cat := range c.videoCats[id] {
			counts[cat]++
		}
	}
	var out []uint64
	for cat := range counts {
		out = append(out, cat)
	}
	sort.Slice(out, func(i, j int) bool {
		if counts[out[i]] != counts[out[j]] {
			return counts[out[i]] > counts[out[j]]
		}
		return out[i] < out[j]
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (c *fakeCatalog) VideosInCategories(_ context.Context, categoryIDs []uint64, excludeIDs []uint64, limit int) ([]CountedVideo, error) {
	cats := toSet(categoryIDs)
	exclude := toSet(excludeIDs)
	var out []CountedVideo
	for _, id := range c.sortedIDs() {
		v := c.videos[id]
		if !v.Eligible() || exclude[id] {
			continue
		}
		var n int64
		for _, cat := range c.videoCats[id] {
			if cats[cat] {
				n++
			}
		}
		if n > 0 {
			out = append(out, CountedVideo{Video: v, Count: n})
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (c *fakeCatalog) TrendingSince(_ context.Context, since time.Time, limit int) ([]domain.Video, error) {
	recentViews := make(map[uint64]int)
	for _, v := range c.views {
		if v.CreatedAt.After(since) {
			recentViews[v.VideoID]++
		}
	}
	var out []domain.Video
	for _, id := range c.sortedIDs() {
		v := c.videos[id]
		if v.Eligible() && v.CreatedAt.After(since) {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return recentViews[out[i].ID] > recentViews[out[j].ID] })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (c *fakeCatalog) MostViewed(_ context.Context, excludeIDs []uint64, limit int) ([]domain.Video, error) {
	exclude := toSet(excludeIDs)
	var out []domain.Video
	for _, id := range c.sortedIDs() {
		v := c.videos[id]
		if v.Eligible() && !exclude[id] {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Views > out[j].Views })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (c *fakeCatalog) UserExists(_ context.Context, userID uint) (bool, error) {
	return c.users[userID], nil
}

func (c *fakeCatalog) SubscribedCreatorIDs(_ context.Context, userID uint) ([]uint, error) {
	return c.subs[userID], nil
}

// fakeVectors serves fixed embeddings; unknown ids get nil, which scores 0.
type fakeVectors struct {
	videos map[uint64][]float32
	users  map[uint][]float32
}

func (f *fakeVectors) UserVector(_ context.Context, userID uint) []float32 {
	return f.users[userID]
}

func (f *fakeVectors) VideoVectors(_ context.Context, videos []domain.Video) map[uint64][]float32 {
	out := make(map[uint64][]float32, len(videos))
	for _, v := range videos {
		out[v.ID] = f.videos[v.ID]
	}
	return out
}

type fakeBandit struct {
	mu    sync.Mutex
	stats map[uint64]domain.BanditStats
}

func newFakeBandit() *fakeBandit {
	return &fakeBandit{stats: make(map[uint64]domain.BanditStats)}
}

func (b *fakeBandit) Stats(_ context.Context, ids []uint64) (map[uint64]domain.BanditStats, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[uint64]domain.BanditStats, len(ids))
	for _, id := range ids {
		s, ok := b.stats[id]
		if !ok {
			s = domain.BanditStats{VideoID: id}
			b.stats[id] = s
		}
		out[id] = s
	}
	return out, nil
}

func (b *fakeBandit) DebugStats(ctx context.Context, ids []uint64) (map[uint64]bandit.ScoreBreakdown, error) {
	rows, _ := b.Stats(ctx, ids)
	out := make(map[uint64]bandit.ScoreBreakdown, len(ids))
	for id, s := range rows {
		out[id] = bandit.Breakdown(s, int64(len(b.stats)))
	}
	return out, nil
}

// seen marks id as shown with the given UCB score.
func (b *fakeBandit) seen(id uint64, ucb float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stats[id] = domain.BanditStats{VideoID: id, ImpressionCount: 10, UCBScore: ucb}
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]domain.RecommendationCacheEntry
	ttls    map[string]time.Duration
	gets    int
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		entries: make(map[string]domain.RecommendationCacheEntry),
		ttls:    make(map[string]time.Duration),
	}
}

func (c *fakeCache) GetList(_ context.Context, key string) (domain.RecommendationCacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	e, ok := c.entries[key]
	if !ok {
		return domain.RecommendationCacheEntry{}, ErrCacheMiss
	}
	return e, nil
}

func (c *fakeCache) SetList(_ context.Context, key string, entry domain.RecommendationCacheEntry, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.entries[key] = entry
	c.ttls[key] = ttl
	return nil
}

type fakeConfigRepo struct {
	cfg domain.RecommenderConfig
	ok  bool
}

func (r *fakeConfigRepo) GetConfig(context.Context, string) (domain.RecommenderConfig, bool, error) {
	return r.cfg, r.ok, nil
}

func (r *fakeConfigRepo) UpsertConfig(_ context.Context, cfg domain.RecommenderConfig) error {
	r.cfg, r.ok = cfg, true
	return nil
}

func ids(videos []domain.Video) []uint64 { return videoIDs(videos) }

func equalIDs(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
