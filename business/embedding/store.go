package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vidShare/business/similarity"
	"vidShare/domain"
	"vidShare/pkg/logger"
	"vidShare/pkg/trace"
)

var (
	// ErrEncoderUnavailable is returned by operations that must not store a fallback vector.
	ErrEncoderUnavailable = errors.New("text encoder unavailable")
	ErrEntityNotFound     = errors.New("entity not found")
)

const (
	defaultEncoderTimeout = 5 * time.Second
	userVectorFreshness   = 24 * time.Hour
	vectorCacheTTL        = 24 * time.Hour
	userTopInteractions   = 20
)

// TextEncoder turns text into a fixed-length vector.
type TextEncoder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
}

// Repository persists vectors keyed by (kind, id). Upsert is last-writer-wins.
type Repository interface {
	Get(ctx context.Context, kind domain.ContentKind, id uint64) (domain.Embedding, bool, error)
	GetMany(ctx context.Context, kind domain.ContentKind, ids []uint64) (map[uint64][]float32, error)
	Upsert(ctx context.Context, kind domain.ContentKind, id uint64, vector []float32) error
	Nearest(ctx context.Context, vector []float32, kinds []domain.ContentKind, limit int) ([]ScoredKey, error)
}

// ContentRepository reads the entities that own embeddings.
type ContentRepository interface {
	VideosByIDs(ctx context.Context, ids []uint64) ([]domain.Video, error)
	PostsByIDs(ctx context.Context, ids []uint64) ([]domain.Post, error)
	BlogsByIDs(ctx context.Context, ids []uint64) ([]domain.Blog, error)
	ListPublishedVideos(ctx context.Context, afterID uint64, limit int) ([]domain.Video, error)
	ListPosts(ctx context.Context, afterID uint64, limit int) ([]domain.Post, error)
	ListBlogs(ctx context.Context, afterID uint64, limit int) ([]domain.Blog, error)
	TopInteractions(ctx context.Context, userID uint, limit int) ([]domain.VideoInteraction, error)
}

// VectorCache is an optional read-through cache in front of Repository.
type VectorCache interface {
	GetVector(ctx context.Context, key string) ([]float32, error)
	SetVector(ctx context.Context, key string, vector []float32, ttl time.Duration) error
}

// ScoredKey is a nearest-neighbour hit before it is resolved to an entity.
type ScoredKey struct {
	Kind  domain.ContentKind
	ID    uint64
	Score float64
}

type Options struct {
	Dimension      int
	EncoderTimeout time.Duration
}

type Store struct {
	repo    Repository
	content ContentRepository
	encoder TextEncoder
	cache   VectorCache
	dim     int
	timeout time.Duration
	now     func() time.Time
}

// NewStore builds a Store. cache may be nil.
func NewStore(repo Repository, content ContentRepository, encoder TextEncoder, cache VectorCache, opts Options) *Store {
	if opts.EncoderTimeout <= 0 {
		opts.EncoderTimeout = defaultEncoderTimeout
	}
	return &Store{
		repo:    repo,
		content: content,
		encoder: encoder,
		cache:   cache,
		dim:     opts.Dimension,
		timeout: opts.EncoderTimeout,
		now:     time.Now,
	}
}

func (s *Store) Dimension() int { return s.dim }

func (s *Store) zero() []float32 { return make([]float32, s.dim) }

func cacheKey(kind domain.ContentKind, id uint64) string {
	return fmt.Sprintf("embedding:%s:%d", kind, id)
}

// encode calls the encoder under the configured timeout. ok is false when the result is the
// zero fallback rather than a real embedding.
func (s *Store) encode(ctx context.Context, text string) (vec []float32, ok bool) {
	if text == "" {
		return s.zero(), false
	}

	encCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.encoder.Encode(encCtx, text)
	if err != nil {
		logger.Warn("embedding_encode_failed",
			"trace_id", trace.TraceIDFromContext(ctx),
			"error", err,
		)
		return s.zero(), false
	}
	if len(out) != s.dim {
		logger.Warn("embedding_dimension_mismatch",
			"trace_id", trace.TraceIDFromContext(ctx),
			"want", s.dim,
			"got", len(out),
		)
		return s.zero(), false
	}
	return out, true
}

// Compute returns the embedding of entity without touching storage.
func (s *Store) Compute(ctx context.Context, entity domain.Embeddable) []float32 {
	vec, _ := s.encode(ctx, BuildText(entity))
	return vec
}

// GetOrCreate returns the stored embedding of entity, computing and storing it on a miss.
// It never fails: an unavailable encoder yields a zero vector, which is not stored.
func (s *Store) GetOrCreate(ctx context.Context, entity domain.Embeddable) []float32 {
	kind, id := entity.ContentKind(), entity.EntityID()
	key := cacheKey(kind, id)

	if s.cache != nil {
		if vec, err := s.cache.GetVector(ctx, key); err == nil && len(vec) == s.dim {
			return vec
		}
	}

	rec, found, err := s.repo.Get(ctx, kind, id)
	if err != nil {
		logger.Warn("embedding_lookup_failed", "kind", kind, "id", id, "error", err)
	}
	if found {
		vec := rec.Vector.Slice()
		s.cacheSet(ctx, key, vec)
		return vec
	}

	vec, ok := s.encode(ctx, BuildText(entity))
	if !ok {
		return vec
	}
	if err := s.repo.Upsert(ctx, kind, id, vec); err != nil {
		logger.Warn("embedding_upsert_failed", "kind", kind, "id", id, "error", err)
	}
	s.cacheSet(ctx, key, vec)
	return vec
}

// Refresh recomputes and stores the embedding of entity unconditionally.
func (s *Store) Refresh(ctx context.Context, entity domain.Embeddable) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	kind, id := entity.ContentKind(), entity.EntityID()
	vec, ok := s.encode(ctx, BuildText(entity))
	if !ok {
		return fmt.Errorf("refresh %s %d: %w", kind, id, ErrEncoderUnavailable)
	}

	if err := s.repo.Upsert(ctx, kind, id, vec); err != nil {
		return fmt.Errorf("refresh %s %d: %w", kind, id, err)
	}
	s.cacheSet(ctx, cacheKey(kind, id), vec)
	return nil
}

// RefreshByID loads the entity and refreshes its embedding. Unpublished videos are skipped.
func (s *Store) RefreshByID(ctx context.Context, kind domain.ContentKind, id uint64) error {
	entity, err := s.loadEntity(ctx, kind, id)
	if err != nil {
		return err
	}
	if v, ok := entity.(*domain.Video); ok && !v.IsPublished {
		return nil
	}
	return s.Refresh(ctx, entity)
}

func (s *Store) loadEntity(ctx context.Context, kind domain.ContentKind, id uint64) (domain.Embeddable, error) {
	ids := []uint64{id}
	switch kind {
	case domain.ContentVideo:
		rows, err := s.content.VideosByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("load video: %w", err)
		}
		if len(rows) > 0 {
			return &rows[0], nil
		}
	case domain.ContentPost:
		rows, err := s.content.PostsByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("load post: %w", err)
		}
		if len(rows) > 0 {
			return &rows[0], nil
		}
	case domain.ContentBlog:
		rows, err := s.content.BlogsByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("load blog: %w", err)
		}
		if len(rows) > 0 {
			return &rows[0], nil
		}
	default:
		return nil, fmt.Errorf("unsupported content kind %q", kind)
	}
	return nil, fmt.Errorf("%s %d: %w", kind, id, ErrEntityNotFound)
}

// VideoVectors returns embeddings for videos, reading storage once and creating misses lazily.
func (s *Store) VideoVectors(ctx context.Context, videos []domain.Video) map[uint64][]float32 {
	out := make(map[uint64][]float32, len(videos))
	if len(videos) == 0 {
		return out
	}

	ids := make([]uint64, 0, len(videos))
	for _, v := range videos {
		ids = append(ids, v.ID)
	}

	stored, err := s.repo.GetMany(ctx, domain.ContentVideo, ids)
	if err != nil {
		logger.Warn("embedding_batch_lookup_failed", "count", len(ids), "error", err)
	}

	var missing []uint64
	for _, v := range videos {
		if vec, ok := stored[v.ID]; ok {
			out[v.ID] = vec
			continue
		}
		missing = append(missing, v.ID)
	}
	if len(missing) == 0 {
		return out
	}

	// candidate queries do not load tags or categories; the text must come from the full entity
	full, err := s.content.VideosByIDs(ctx, missing)
	if err != nil {
		logger.Warn("embedding_video_reload_failed", "count", len(missing), "error", err)
	}
	byID := make(map[uint64]*domain.Video, len(full))
	for i := range full {
		byID[full[i].ID] = &full[i]
	}

	for i := range videos {
		v := &videos[i]
		if _, done := out[v.ID]; done {
			continue
		}
		if loaded, ok := byID[v.ID]; ok {
			out[v.ID] = s.GetOrCreate(ctx, loaded)
			continue
		}
		out[v.ID] = s.Compute(ctx, v)
	}
	return out
}

// UserVector returns the user's preference embedding: the interaction-weighted, normalised
// mean of the embeddings of their most engaged videos. Stored vectors are reused for a day.
// A user without interactions gets a zero vector.
func (s *Store) UserVector(ctx context.Context, userID uint) []float32 {
	id := uint64(userID)

	rec, found, err := s.repo.Get(ctx, domain.ContentUser, id)
	if err != nil {
		logger.Warn("user_embedding_lookup_failed", "user_id", userID, "error", err)
	}
	if found && s.now().Sub(rec.UpdatedAt) < userVectorFreshness {
		return rec.Vector.Slice()
	}

	interactions, err := s.content.TopInteractions(ctx, userID, userTopInteractions)
	if err != nil {
		logger.Warn("user_interactions_failed", "user_id", userID, "error", err)
		if found {
			return rec.Vector.Slice()
		}
		return s.zero()
	}
	if len(interactions) == 0 {
		return s.zero()
	}

	ids := make([]uint64, 0, len(interactions))
	for _, in := range interactions {
		ids = append(ids, in.VideoID)
	}
	videos, err := s.content.VideosByIDs(ctx, ids)
	if err != nil {
		logger.Warn("user_interaction_videos_failed", "user_id", userID, "error", err)
		return s.zero()
	}
	vectors := s.VideoVectors(ctx, videos)

	vs := make([][]float32, 0, len(interactions))
	ws := make([]float64, 0, len(interactions))
	for _, in := range interactions {
		vec, ok := vectors[in.VideoID]
		if !ok || similarity.IsZero(vec) {
			continue
		}
		vs = append(vs, vec)
		ws = append(ws, InteractionWeight(in))
	}

	pref := similarity.WeightedMean(vs, ws)
	if pref == nil {
		return s.zero()
	}

	if err := s.repo.Upsert(ctx, domain.ContentUser, id, pref); err != nil {
		logger.Warn("user_embedding_upsert_failed", "user_id", userID, "error", err)
	}
	return pref
}

// InteractionWeight scores how strongly a user engaged with a video.
func InteractionWeight(in domain.VideoInteraction) float64 {
	return (float64(in.Likes)*5 + float64(in.Comments)*3 + float64(in.WatchSeconds)/60) / 10
}

func (s *Store) cacheSet(ctx context.Context, key string, vec []float32) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetVector(ctx, key, vec, vectorCacheTTL); err != nil {
		logger.Debug("embedding_cache_set_failed", "key", key, "error", err)
	}
}
