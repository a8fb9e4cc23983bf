package recommender

import (
	"context"
	"math"
	"sort"
	"time"

	"vidShare/business/similarity"
	"vidShare/domain"
	"vidShare/pkg/logger"
	"vidShare/pkg/metrics"
	"vidShare/pkg/trace"
)

const (
	SourceLikedContent = "liked_content"
	SourceLongWatch    = "long_watch"
	SourceContent      = "content_similarity"
	SourceCollab       = "collaborative"
	SourceCategory     = "category_affinity"
	SourcePopular      = "popular"
	SourceExploration  = "exploration"
)

// Request is the input shared by every candidate generator.
type Request struct {
	UserID         uint
	N              int
	ExcludeWatched bool
	Watched        []uint64
	Settings       Settings
}

func (r Request) exclusions() []uint64 {
	if !r.ExcludeWatched {
		return nil
	}
	return r.Watched
}

// Generator produces an ordered candidate list for one signal.
type Generator struct {
	Name string
	Run  func(ctx context.Context, req Request) ([]domain.Video, error)
}

// Generate runs the generator, turning any failure into an empty list.
func (g Generator) Generate(ctx context.Context, req Request) []domain.Video {
	if req.N <= 0 {
		return nil
	}

	start := time.Now()
	out, err := g.Run(ctx, req)
	metrics.GeneratorLatency.WithLabelValues(g.Name).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GeneratorFailures.WithLabelValues(g.Name).Inc()
		logger.Warn("candidate_generator_failed",
			"trace_id", trace.TraceIDFromContext(ctx),
			"generator", g.Name,
			"user_id", req.UserID,
			"error", err,
		)
		return nil
	}
	if len(out) > req.N {
		out = out[:req.N]
	}
	return out
}

// generators holds the data sources every generator reads.
type generators struct {
	videos  VideoRepository
	users   UserRepository
	vectors VectorSource
	now     func() time.Time
}

// signalGenerators returns the exploitation generators in merge priority order.
func (g *generators) signalGenerators() []Generator {
	return []Generator{
		{Name: SourceLikedContent, Run: g.likedContent},
		{Name: SourceLongWatch, Run: g.longWatch},
		{Name: SourceContent, Run: g.contentSimilarity},
		{Name: SourceCollab, Run: g.collaborative},
		{Name: SourceCategory, Run: g.categoryAffinity},
	}
}

type scoredVideo struct {
	video domain.Video
	score float64
}

func rankByScore(items []scoredVideo, n int) []domain.Video {
	sort.SliceStable(items, func(i, j int) bool { return items[i].score > items[j].score })
	if len(items) > n {
		items = items[:n]
	}
	out := make([]domain.Video, 0, len(items))
	for _, it := range items {
		out = append(out, it.video)
	}
	return out
}

// PopularityScore maps views onto [0,1], saturating at 10k views.
func PopularityScore(views int64) float64 {
	return math.Min(1, float64(views)/popularityViewScale)
}

// RecencyScore decays linearly over 30 days with a floor of 0.1.
func RecencyScore(createdAt, now time.Time) float64 {
	ageDays := now.Sub(createdAt).Hours() / 24
	return math.Max(recencyFloor, 1-ageDays/recencyHorizonDays)
}

// BlendedScore mixes similarity with popularity and recency by the configured weights.
func BlendedScore(sim, pop, rec, wPop, wNov float64) float64 {
	return sim*(1-wPop-wNov) + pop*wPop + rec*wNov
}

// contentSimilarity scores a pool biased toward subscribed creators and new uploads.
func (g *generators) contentSimilarity(ctx context.Context, req Request) ([]domain.Video, error) {
	pool, err := g.subscriptionBiasedPool(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, nil
	}

	user := g.vectors.UserVector(ctx, req.UserID)
	vectors := g.vectors.VideoVectors(ctx, pool)
	now := g.now()

	items := make([]scoredVideo, 0, len(pool))
	for _, v := range pool {
		sim := similarity.Cosine(user, vectors[v.ID])
		score := BlendedScore(
			sim,
			PopularityScore(v.Views),
			RecencyScore(v.CreatedAt, now),
			req.Settings.PopularityWeight,
			req.Settings.NoveltyWeight,
		)
		items = append(items, scoredVideo{video: v, score: score})
	}
	return rankByScore(items, req.N), nil
}

func (g *generators) subscriptionBiasedPool(ctx context.Context, req Request) ([]domain.Video, error) {
	limit := req.Settings.CandidatePoolSize
	subs, err := g.users.SubscribedCreatorIDs(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	var pool []domain.Video
	if len(subs) > 0 {
		pool, err = g.videos.EligibleVideos(ctx, CandidateQuery{
			ExcludeIDs: req.exclusions(),
			CreatorIDs: subs,
			Order:      OrderNewest,
			Limit:      limit,
		})
		if err != nil {
			return nil, err
		}
	}
	if len(pool) >= limit {
		return pool, nil
	}

	rest, err := g.videos.EligibleVideos(ctx, CandidateQuery{
		ExcludeIDs:        req.exclusions(),
		ExcludeCreatorIDs: subs,
		Order:             OrderNewest,
		Limit:             limit - len(pool),
	})
	if err != nil {
		return nil, err
	}
	return append(pool, rest...), nil
}

// collaborative ranks what co-watching users watched by how many of them watched it.
func (g *generators) collaborative(ctx context.Context, req Request) ([]domain.Video, error) {
	neighbours, err := g.videos.CoWatchNeighbours(ctx, req.UserID, neighbourMinOverlap, neighbourLimit)
	if err != nil {
		return nil, err
	}
	if len(neighbours) == 0 {
		return nil, nil
	}

	counted, err := g.videos.WatchedByUsers(ctx, neighbours, req.exclusions(), req.Settings.CandidatePoolSize)
	if err != nil {
		return nil, err
	}

	items := make([]scoredVideo, 0, len(counted))
	for _, c := range counted {
		items = append(items, scoredVideo{video: c.Video, score: float64(c.Count)})
	}
	return rankByScore(items, req.N), nil
}

// CategoryScore favours category matches over raw views.
func CategoryScore(matches int64, views int64) float64 {
	return float64(matches)*categoryMatchWeight + float64(views)*categoryViewWeight
}

// categoryAffinity ranks videos from the user's most watched categories.
func (g *generators) categoryAffinity(ctx context.Context, req Request) ([]domain.Video, error) {
	cats, err := g.videos.TopCategoryIDs(ctx, req.UserID, topCategoryLimit)
	if err != nil {
		return nil, err
	}
	if len(cats) == 0 {
		return nil, nil
	}

	counted, err := g.videos.VideosInCategories(ctx, cats, req.exclusions(), req.Settings.CandidatePoolSize)
	if err != nil {
		return nil, err
	}

	items := make([]scoredVideo, 0, len(counted))
	for _, c := range counted {
		items = append(items, scoredVideo{video: c.Video, score: CategoryScore(c.Count, c.Video.Views)})
	}
	return rankByScore(items, req.N), nil
}

// likedContent ranks unliked videos by similarity to the centroid of the user's likes.
func (g *generators) likedContent(ctx context.Context, req Request) ([]domain.Video, error) {
	likedIDs, err := g.videos.LikedVideoIDs(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if len(likedIDs) == 0 {
		return nil, nil
	}

	liked, err := g.videos.FindByIDs(ctx, likedIDs)
	if err != nil {
		return nil, err
	}
	likedVecs := g.vectors.VideoVectors(ctx, liked)
	vs := make([][]float32, 0, len(likedVecs))
	for _, v := range liked {
		if vec := likedVecs[v.ID]; !similarity.IsZero(vec) {
			vs = append(vs, vec)
		}
	}
	centroid := similarity.Mean(vs)
	if centroid == nil {
		return nil, nil
	}

	// scored pool is the CandidatePoolSize newest eligible videos
	pool, err := g.videos.EligibleVideos(ctx, CandidateQuery{
		ExcludeIDs: union(likedIDs, req.exclusions()),
		Order:      OrderNewest,
		Limit:      req.Settings.CandidatePoolSize,
	})
	if err != nil {
		return nil, err
	}

	vectors := g.vectors.VideoVectors(ctx, pool)
	items := make([]scoredVideo, 0, len(pool))
	for _, v := range pool {
		items = append(items, scoredVideo{video: v, score: similarity.Cosine(centroid, vectors[v.ID])})
	}
	return rankByScore(items, req.N), nil
}

// longWatch ranks videos by their best similarity to any of the user's longest watches.
func (g *generators) longWatch(ctx context.Context, req Request) ([]domain.Video, error) {
	sourceIDs, err := g.videos.LongWatchedVideoIDs(ctx, req.UserID, longWatchMinSeconds, longWatchSourceLimit)
	if err != nil {
		return nil, err
	}
	if len(sourceIDs) == 0 {
		return nil, nil
	}

	sources, err := g.videos.FindByIDs(ctx, sourceIDs)
	if err != nil {
		return nil, err
	}
	sourceVecs := g.vectors.VideoVectors(ctx, sources)

	// same newest-first pool bound as likedContent
	pool, err := g.videos.EligibleVideos(ctx, CandidateQuery{
		ExcludeIDs: union(sourceIDs, req.exclusions()),
		Order:      OrderNewest,
		Limit:      req.Settings.CandidatePoolSize,
	})
	if err != nil {
		return nil, err
	}
	vectors := g.vectors.VideoVectors(ctx, pool)

	items := make([]scoredVideo, 0, len(pool))
	for _, v := range pool {
		best := math.Inf(-1)
		for _, src := range sources {
			if sim := similarity.Cosine(sourceVecs[src.ID], vectors[v.ID]); sim > best {
				best = sim
			}
		}
		if math.IsInf(best, -1) {
			continue
		}
		items = append(items, scoredVideo{video: v, score: best})
	}
	return rankByScore(items, req.N), nil
}

// popular returns trending videos of the last week, topped up with all-time most viewed.
func (g *generators) popular(ctx context.Context, n int) ([]domain.Video, error) {
	trending, err := g.videos.TrendingSince(ctx, g.now().Add(-trendingWindow), n)
	if err != nil {
		return nil, err
	}
	if len(trending) >= n {
		return trending[:n], nil
	}

	more, err := g.videos.MostViewed(ctx, videoIDs(trending), n-len(trending))
	if err != nil {
		return nil, err
	}
	return append(trending, more...), nil
}

// exploration samples recent videos at random, then older ones when recent are scarce.
func (g *generators) exploration(ctx context.Context, req Request) ([]domain.Video, error) {
	cutoff := g.now().AddDate(0, 0, -explorationRecentDays)

	recent, err := g.videos.EligibleVideos(ctx, CandidateQuery{
		ExcludeIDs:   req.exclusions(),
		CreatedAfter: cutoff,
		Order:        OrderRandom,
		Limit:        req.N,
	})
	if err != nil {
		return nil, err
	}
	if len(recent) >= req.N {
		return recent, nil
	}

	older, err := g.videos.EligibleVideos(ctx, CandidateQuery{
		ExcludeIDs:    union(req.exclusions(), videoIDs(recent)),
		CreatedBefore: cutoff,
		Order:         OrderRandom,
		Limit:         req.N - len(recent),
	})
	if err != nil {
		return nil, err
	}
	return append(recent, older...), nil
}

func videoIDs(videos []domain.Video) []uint64 {
	ids := make([]uint64, 0, len(videos))
	for _, v := range videos {
		ids = append(ids, v.ID)
	}
	return ids
}

func union(a, b []uint64) []uint64 {
	if len(b) == 0 {
		return a
	}
	out := make([]uint64, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
