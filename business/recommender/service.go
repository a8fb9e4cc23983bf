package recommender

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"vidShare/business/similarity"
	"vidShare/domain"
	"vidShare/pkg/logger"
	"vidShare/pkg/metrics"
	"vidShare/pkg/trace"

	"golang.org/x/sync/errgroup"
)

// Branch is the outcome of the per-request exploration draw.
type Branch int

const (
	BranchExploit Branch = iota
	BranchExplore
)

func (b Branch) String() string {
	if b == BranchExplore {
		return "explore"
	}
	return "exploit"
}

type Service struct {
	videos      VideoRepository
	users       UserRepository
	vectors     VectorSource
	bandit      BanditSource
	cache       Cache
	cfgRepo     ConfigRepository
	eligibility EligibilityChecker
	settings    Settings
	gen         *generators

	rngMu sync.Mutex
	rng   *rand.Rand
	now   func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithRandom fixes the source of the exploration draw.
func WithRandom(r *rand.Rand) Option {
	return func(s *Service) { s.rng = r }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithEligibility(c EligibilityChecker) Option {
	return func(s *Service) { s.eligibility = c }
}

// NewService wires the orchestrator. cache and cfgRepo may be nil.
func NewService(
	videos VideoRepository,
	users UserRepository,
	vectors VectorSource,
	banditSrc BanditSource,
	cache Cache,
	cfgRepo ConfigRepository,
	settings Settings,
	opts ...Option,
) *Service {
	s := &Service{
		videos:      videos,
		users:       users,
		vectors:     vectors,
		bandit:      banditSrc,
		cache:       cache,
		cfgRepo:     cfgRepo,
		eligibility: PublishedChecker{},
		settings:    settings,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		now:         time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	s.gen = &generators{videos: videos, users: users, vectors: vectors, now: s.now}
	return s
}

func (s *Service) Settings() Settings { return s.settings }

// normalizeCount applies the default to non-positive counts and clamps to the maximum.
func (s *Service) normalizeCount(count int) int {
	if count <= 0 {
		count = s.settings.DefaultCount
	}
	if count > s.settings.MaxCount {
		count = s.settings.MaxCount
	}
	return count
}

func (s *Service) decideBranch(rate float64) Branch {
	s.rngMu.Lock()
	u := s.rng.Float64()
	s.rngMu.Unlock()

	if u < rate {
		return BranchExplore
	}
	return BranchExploit
}

// Recommend serves the recommendation surface. A nil userID is an anonymous caller.
func (s *Service) Recommend(ctx context.Context, userID *uint, count int) ([]domain.Video, error) {
	if userID == nil {
		return s.PopularVideos(ctx, count)
	}
	return s.RecommendForUser(ctx, *userID, count, true)
}

// RecommendForUser returns up to count videos for userID. The list is never empty when
// eligible videos exist; only a failing popularity fallback is reported as an error.
func (s *Service) RecommendForUser(ctx context.Context, userID uint, count int, excludeWatched bool) ([]domain.Video, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	count = s.normalizeCount(count)
	tid := trace.TraceIDFromContext(ctx)
	key := UserCacheKey(userID, count, excludeWatched)

	if cached, ok := s.cachedList(ctx, key, userID); ok {
		metrics.RecommendationsServed.WithLabelValues("cache").Inc()
		return cached, nil
	}

	exists, err := s.users.UserExists(ctx, userID)
	if err != nil {
		logger.Warn("recommend_user_lookup_failed", "trace_id", tid, "user_id", userID, "error", err)
	}
	if !exists {
		logger.Warn("recommend_unknown_user", "trace_id", tid, "user_id", userID)
		return s.PopularVideos(ctx, count)
	}

	cfg := s.loadSettings(ctx)
	branch := s.decideBranch(cfg.ExplorationRate)
	logger.Debug("recommend",
		"trace_id", tid,
		"user_id", userID,
		"count", count,
		"exclude_watched", excludeWatched,
		"branch", branch.String(),
	)

	if branch == BranchExplore {
		req := s.newRequest(ctx, userID, count, excludeWatched, cfg)
		out := Generator{Name: SourceExploration, Run: s.gen.exploration}.Generate(ctx, req)
		if len(out) == 0 {
			return s.PopularVideos(ctx, count)
		}
		metrics.RecommendationsServed.WithLabelValues("explore").Inc()
		return out, nil
	}

	ranked, err := s.exploit(ctx, userID, count, excludeWatched, cfg)
	if err != nil {
		logger.Warn("recommend_exploit_failed", "trace_id", tid, "user_id", userID, "error", err)
	}
	if len(ranked) == 0 {
		return s.PopularVideos(ctx, count)
	}

	videos := candidateVideos(ranked)
	if err := s.writeCache(ctx, key, videos, domain.TTLInteractive); err != nil {
		logger.Warn("recommend_cache_write_failed", "trace_id", tid, "user_id", userID, "error", err)
	}
	metrics.RecommendationsServed.WithLabelValues("exploit").Inc()
	return videos, nil
}

// Precompute runs the exploitation path for userID and caches it under the long TTL.
func (s *Service) Precompute(ctx context.Context, userID uint, count int) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	count = s.normalizeCount(count)

	ranked, err := s.exploit(ctx, userID, count, true, s.loadSettings(ctx))
	if err != nil {
		return fmt.Errorf("precompute user %d: %w", userID, err)
	}
	if len(ranked) == 0 {
		return nil
	}

	return s.writeCache(ctx, UserCacheKey(userID, count, true), candidateVideos(ranked), domain.TTLPrecomputed)
}

func (s *Service) newRequest(ctx context.Context, userID uint, count int, excludeWatched bool, cfg Settings) Request {
	req := Request{UserID: userID, N: count, ExcludeWatched: excludeWatched, Settings: cfg}
	if !excludeWatched {
		return req
	}

	watched, err := s.videos.WatchedVideoIDs(ctx, userID)
	if err != nil {
		logger.Warn("recommend_watched_lookup_failed",
			"trace_id", trace.TraceIDFromContext(ctx),
			"user_id", userID,
			"error", err,
		)
	}
	req.Watched = watched
	return req
}

// exploit runs every signal generator, merges them by priority, backfills with popular
// videos and re-ranks by UCB score adjusted for the user's affinity.
func (s *Service) exploit(ctx context.Context, userID uint, count int, excludeWatched bool, cfg Settings) ([]Candidate, error) {
	req := s.newRequest(ctx, userID, count, excludeWatched, cfg)
	gens := s.gen.signalGenerators()

	names := make([]string, len(gens))
	lists := make([][]domain.Video, len(gens))
	g, gctx := errgroup.WithContext(ctx)
	for i, gen := range gens {
		names[i] = gen.Name
		r := req
		if gen.Name == SourceContent {
			r.N = count * 2
		}
		g.Go(func() error {
			lists[i] = gen.Generate(gctx, r)
			return nil
		})
	}
	_ = g.Wait()

	merged := mergeByPriority(names, lists)
	merged = s.filterEligible(ctx, userID, merged)

	if len(merged) < count {
		popular, err := s.popularList(ctx, count)
		if err != nil {
			logger.Warn("recommend_backfill_failed",
				"trace_id", trace.TraceIDFromContext(ctx),
				"user_id", userID,
				"error", err,
			)
		}
		merged = backfill(merged, excludeIDs(popular, req.exclusions()), SourcePopular, count)
	}
	if len(merged) == 0 {
		return nil, nil
	}

	ids := make([]uint64, 0, len(merged))
	videos := make([]domain.Video, 0, len(merged))
	for _, c := range merged {
		ids = append(ids, c.Video.ID)
		videos = append(videos, c.Video)
	}

	stats, err := s.bandit.Stats(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load bandit stats: %w", err)
	}

	userVec := s.vectors.UserVector(ctx, userID)
	vectors := s.vectors.VideoVectors(ctx, videos)
	rerank(merged, stats, userVec, vectors, similarity.Cosine)

	if len(merged) > count {
		merged = merged[:count]
	}
	return merged, nil
}

func (s *Service) filterEligible(ctx context.Context, userID uint, cands []Candidate) []Candidate {
	out := cands[:0]
	for _, c := range cands {
		if s.eligibility.IsEligible(ctx, userID, c.Video) {
			out = append(out, c)
		}
	}
	return out
}

// PopularVideos returns the popularity fallback, cached per count for counts up to half the
// maximum.
func (s *Service) PopularVideos(ctx context.Context, count int) ([]domain.Video, error) {
	videos, err := s.popularList(ctx, s.normalizeCount(count))
	if err != nil {
		return nil, err
	}
	metrics.RecommendationsServed.WithLabelValues("popular").Inc()
	return videos, nil
}

func (s *Service) popularList(ctx context.Context, count int) ([]domain.Video, error) {
	cacheable := count <= s.settings.MaxCount/2
	key := PopularCacheKey(count)

	if cacheable {
		if cached, ok := s.cachedList(ctx, key, 0); ok {
			return cached, nil
		}
	}

	videos, err := s.gen.popular(ctx, count)
	if err != nil {
		return nil, fmt.Errorf("popular videos: %w", err)
	}

	if cacheable {
		if err := s.writeCache(ctx, key, videos, domain.TTLInteractive); err != nil {
			logger.Warn("popular_cache_write_failed", "count", count, "error", err)
		}
	}
	return videos, nil
}

// RefreshPopular recomputes the popular list of count videos under the long TTL.
func (s *Service) RefreshPopular(ctx context.Context, count int) error {
	count = s.normalizeCount(count)

	videos, err := s.gen.popular(ctx, count)
	if err != nil {
		return fmt.Errorf("popular videos: %w", err)
	}
	return s.writeCache(ctx, PopularCacheKey(count), videos, domain.TTLPrecomputed)
}

// DebugRecommend runs the exploitation path without caching and explains every rank.
func (s *Service) DebugRecommend(ctx context.Context, userID uint, count int) ([]domain.DebugRecommendation, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	count = s.normalizeCount(count)

	ranked, err := s.exploit(ctx, userID, count, true, s.loadSettings(ctx))
	if err != nil {
		return nil, err
	}

	ids := make([]uint64, 0, len(ranked))
	for _, c := range ranked {
		ids = append(ids, c.Video.ID)
	}
	breakdowns, err := s.bandit.DebugStats(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("bandit debug stats: %w", err)
	}

	out := make([]domain.DebugRecommendation, 0, len(ranked))
	for _, c := range ranked {
		b := breakdowns[c.Video.ID]
		rec := domain.DebugRecommendation{
			VideoID:       c.Video.ID,
			Title:         c.Video.Title,
			Source:        c.Source,
			Similarity:    c.Similarity,
			AverageReward: b.AverageReward,
			Impressions:   b.Impressions,
			NewArm:        b.NewArm,
		}
		if !b.NewArm {
			rec.UCB = c.UCB
			rec.FinalScore = c.Score
		}
		out = append(out, rec)
	}

	logger.Debug("recommend_debug",
		"trace_id", trace.TraceIDFromContext(ctx),
		"user_id", userID,
		"count", count,
		"returned", len(out),
	)
	return out, nil
}

func candidateVideos(cands []Candidate) []domain.Video {
	out := make([]domain.Video, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.Video)
	}
	return out
}

func excludeIDs(videos []domain.Video, ids []uint64) []domain.Video {
	if len(ids) == 0 {
		return videos
	}
	skip := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		skip[id] = struct{}{}
	}
	out := make([]domain.Video, 0, len(videos))
	for _, v := range videos {
		if _, ok := skip[v.ID]; !ok {
			out = append(out, v)
		}
	}
	return out
}
