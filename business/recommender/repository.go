package recommender

import (
	"context"
	"errors"
	"time"

	"vidShare/business/bandit"
	"vidShare/domain"
)

var (
	ErrCacheMiss     = errors.New("cache miss")
	ErrInvalidConfig = errors.New("invalid recommender config: exploration_rate must be in [0,1] and weights non-negative with sum <= 1")
)

type CandidateOrder int

const (
	OrderNewest CandidateOrder = iota
	OrderRandom
)

// CandidateQuery selects eligible videos (published and approved).
type CandidateQuery struct {
	ExcludeIDs        []uint64
	CreatorIDs        []uint
	ExcludeCreatorIDs []uint
	CreatedAfter      time.Time
	CreatedBefore     time.Time
	Order             CandidateOrder
	Limit             int
}

// CountedVideo is a video with the number of distinct users or matches that surfaced it.
type CountedVideo struct {
	Video domain.Video
	Count int64
}

// VideoRepository exposes the catalogue and interaction queries the generators need.
type VideoRepository interface {
	FindByIDs(ctx context.Context, ids []uint64) ([]domain.Video, error)
	EligibleVideos(ctx context.Context, q CandidateQuery) ([]domain.Video, error)
	WatchedVideoIDs(ctx context.Context, userID uint) ([]uint64, error)
	LikedVideoIDs(ctx context.Context, userID uint) ([]uint64, error)
	// LongWatchedVideoIDs returns the user's videos ordered by total watch time, counting only
	// views of at least minSeconds.
	LongWatchedVideoIDs(ctx context.Context, userID uint, minSeconds, limit int) ([]uint64, error)
	// CoWatchNeighbours returns other users sharing at least minOverlap watched videos with
	// userID, most overlapping first.
	CoWatchNeighbours(ctx context.Context, userID uint, minOverlap, limit int) ([]uint, error)
	// WatchedByUsers counts, per eligible video, how many of userIDs watched it.
	WatchedByUsers(ctx context.Context, userIDs []uint, excludeIDs []uint64, limit int) ([]CountedVideo, error)
	// TopCategoryIDs ranks categories by how many of the user's watched videos carry them.
	TopCategoryIDs(ctx context.Context, userID uint, limit int) ([]uint64, error)
	// VideosInCategories counts, per eligible video, how many of categoryIDs it carries.
	VideosInCategories(ctx context.Context, categoryIDs []uint64, excludeIDs []uint64, limit int) ([]CountedVideo, error)
	// TrendingSince ranks eligible videos created after since by views recorded after since.
	TrendingSince(ctx context.Context, since time.Time, limit int) ([]domain.Video, error)
	MostViewed(ctx context.Context, excludeIDs []uint64, limit int) ([]domain.Video, error)
}

type UserRepository interface {
	UserExists(ctx context.Context, userID uint) (bool, error)
	SubscribedCreatorIDs(ctx context.Context, userID uint) ([]uint, error)
}

// VectorSource provides embeddings; implementations never fail and return zero vectors
// when no signal is available.
type VectorSource interface {
	UserVector(ctx context.Context, userID uint) []float32
	VideoVectors(ctx context.Context, videos []domain.Video) map[uint64][]float32
}

type BanditSource interface {
	Stats(ctx context.Context, ids []uint64) (map[uint64]domain.BanditStats, error)
	DebugStats(ctx context.Context, ids []uint64) (map[uint64]bandit.ScoreBreakdown, error)
}

// Cache stores ranked id lists. GetList returns ErrCacheMiss when the key is absent.
type Cache interface {
	GetList(ctx context.Context, key string) (domain.RecommendationCacheEntry, error)
	SetList(ctx context.Context, key string, entry domain.RecommendationCacheEntry, ttl time.Duration) error
}
