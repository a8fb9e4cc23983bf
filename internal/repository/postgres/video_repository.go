package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vidShare/business/bandit"
	"vidShare/business/embedding"
	"vidShare/business/recommender"
	"vidShare/domain"

	"gorm.io/gorm"
)

type VideoRepository struct {
	DB *gorm.DB
}

var (
	_ recommender.VideoRepository = (*VideoRepository)(nil)
	_ embedding.ContentRepository = (*VideoRepository)(nil)
	_ bandit.VideoLookup          = (*VideoRepository)(nil)
)

func NewVideoRepository(db *gorm.DB) *VideoRepository {
	return &VideoRepository{DB: db}
}

// eligible restricts a videos query to published, approved rows.
func eligible(db *gorm.DB) *gorm.DB {
	return db.Where("videos.is_published = ? AND videos.moderation_status = ?", true, domain.ModerationApproved)
}

type videoCount struct {
	VideoID uint64 `gorm:"column:video_id"`
	Cnt     int64  `gorm:"column:cnt"`
}

func (r *VideoRepository) FindVideo(ctx context.Context, id uint64) (domain.Video, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.Video{}, false, fmt.Errorf("context error: %w", err)
	}

	var video domain.Video
	err := r.DB.WithContext(ctx).First(&video, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Video{}, false, nil
	}
	if err != nil {
		return domain.Video{}, false, fmt.Errorf("failed to find video: %w", err)
	}
	return video, true, nil
}

func (r *VideoRepository) FindByIDs(ctx context.Context, ids []uint64) ([]domain.Video, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var videos []domain.Video
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&videos).Error; err != nil {
		return nil, fmt.Errorf("failed to find videos: %w", err)
	}
	return videos, nil
}

func (r *VideoRepository) EligibleVideos(ctx context.Context, q recommender.CandidateQuery) ([]domain.Video, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	tx := r.DB.WithContext(ctx).Model(&domain.Video{}).Scopes(eligible)
	if len(q.ExcludeIDs) > 0 {
		tx = tx.Where("videos.id NOT IN ?", q.ExcludeIDs)
	}
	if len(q.CreatorIDs) > 0 {
		tx = tx.Where("videos.creator_id IN ?", q.CreatorIDs)
	}
	if len(q.ExcludeCreatorIDs) > 0 {
		tx = tx.Where("videos.creator_id NOT IN ?", q.ExcludeCreatorIDs)
	}
	if !q.CreatedAfter.IsZero() {
		tx = tx.Where("videos.created_at > ?", q.CreatedAfter)
	}
	if !q.CreatedBefore.IsZero() {
		tx = tx.Where("videos.created_at <= ?", q.CreatedBefore)
	}

	switch q.Order {
	case recommender.OrderRandom:
		tx = tx.Order("RANDOM()")
	default:
		tx = tx.Order("videos.created_at DESC, videos.id DESC")
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var videos []domain.Video
	if err := tx.Find(&videos).Error; err != nil {
		return nil, fmt.Errorf("failed to query eligible videos: %w", err)
	}
	return videos, nil
}

func (r *VideoRepository) WatchedVideoIDs(ctx context.Context, userID uint) ([]uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var ids []uint64
	err := r.DB.WithContext(ctx).Model(&domain.VideoView{}).
		Where("user_id = ?", userID).
		Distinct().
		Pluck("video_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query watched videos: %w", err)
	}
	return ids, nil
}

func (r *VideoRepository) LikedVideoIDs(ctx context.Context, userID uint) ([]uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var ids []uint64
	err := r.DB.WithContext(ctx).Model(&domain.Like{}).
		Where("user_id = ?", userID).
		Pluck("video_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query liked videos: %w", err)
	}
	return ids, nil
}

func (r *VideoRepository) LongWatchedVideoIDs(ctx context.Context, userID uint, minSeconds, limit int) ([]uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var ids []uint64
	err := r.DB.WithContext(ctx).Model(&domain.VideoView{}).
		Where("user_id = ? AND view_time >= ?", userID, minSeconds).
		Group("video_id").
		Order("SUM(view_time) DESC, video_id").
		Limit(limit).
		Pluck("video_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query long watches: %w", err)
	}
	return ids, nil
}

func (r *VideoRepository) CoWatchNeighbours(ctx context.Context, userID uint, minOverlap, limit int) ([]uint, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var ids []uint
	err := r.DB.WithContext(ctx).Table("video_views AS mine").
		Joins("JOIN video_views AS other ON other.video_id = mine.video_id AND other.user_id <> mine.user_id").
		Where("mine.user_id = ?", userID).
		Group("other.user_id").
		Having("COUNT(DISTINCT other.video_id) >= ?", minOverlap).
		Order("COUNT(DISTINCT other.video_id) DESC, other.user_id").
		Limit(limit).
		Pluck("other.user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query co-watch neighbours: %w", err)
	}
	return ids, nil
}

func (r *VideoRepository) WatchedByUsers(ctx context.Context, userIDs []uint, excludeIDs []uint64, limit int) ([]recommender.CountedVideo, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if len(userIDs) == 0 {
		return nil, nil
	}

	tx := r.DB.WithContext(ctx).Table("video_views AS vv").
		Select("vv.video_id AS video_id, COUNT(DISTINCT vv.user_id) AS cnt").
		Joins("JOIN videos ON videos.id = vv.video_id").
		Scopes(eligible).
		Where("vv.user_id IN ?", userIDs)
	if len(excludeIDs) > 0 {
		tx = tx.Where("vv.video_id NOT IN ?", excludeIDs)
	}

	var rows []videoCount
	err := tx.Group("vv.video_id").
		Order("cnt DESC, vv.video_id").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query neighbour watches: %w", err)
	}
	return r.attachVideos(ctx, rows)
}

func (r *VideoRepository) TopCategoryIDs(ctx context.Context, userID uint, limit int) ([]uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var ids []uint64
	err := r.DB.WithContext(ctx).Table("video_views AS vv").
		Joins("JOIN video_categories AS vc ON vc.video_id = vv.video_id").
		Where("vv.user_id = ?", userID).
		Group("vc.category_id").
		Order("COUNT(DISTINCT vv.video_id) DESC, vc.category_id").
		Limit(limit).
		Pluck("vc.category_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query top categories: %w", err)
	}
	return ids, nil
}

func (r *VideoRepository) VideosInCategories(ctx context.Context, categoryIDs []uint64, excludeIDs []uint64, limit int) ([]recommender.CountedVideo, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if len(categoryIDs) == 0 {
		return nil, nil
	}

	tx := r.DB.WithContext(ctx).Table("video_categories AS vc").
		Select("vc.video_id AS video_id, COUNT(*) AS cnt").
		Joins("JOIN videos ON videos.id = vc.video_id").
		Scopes(eligible).
		Where("vc.category_id IN ?", categoryIDs)
	if len(excludeIDs) > 0 {
		tx = tx.Where("vc.video_id NOT IN ?", excludeIDs)
	}

	// the pool is cut by the same score the category generator ranks with
	var rows []videoCount
	err := tx.Group("vc.video_id, videos.views").
		Order("COUNT(*) * 10 + videos.views * 0.01 DESC, vc.video_id").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query category videos: %w", err)
	}
	return r.attachVideos(ctx, rows)
}

// attachVideos loads the videos behind rows and keeps the row order.
func (r *VideoRepository) attachVideos(ctx context.Context, rows []videoCount) ([]recommender.CountedVideo, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]uint64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.VideoID)
	}
	videos, err := r.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint64]domain.Video, len(videos))
	for _, v := range videos {
		byID[v.ID] = v
	}

	out := make([]recommender.CountedVideo, 0, len(rows))
	for _, row := range rows {
		if v, ok := byID[row.VideoID]; ok {
			out = append(out, recommender.CountedVideo{Video: v, Count: row.Cnt})
		}
	}
	return out, nil
}

func (r *VideoRepository) TrendingSince(ctx context.Context, since time.Time, limit int) ([]domain.Video, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var videos []domain.Video
	err := r.DB.WithContext(ctx).Model(&domain.Video{}).
		Select("videos.*").
		Joins("LEFT JOIN video_views AS vv ON vv.video_id = videos.id AND vv.created_at > ?", since).
		Scopes(eligible).
		Where("videos.created_at > ?", since).
		Group("videos.id").
		Order("COUNT(vv.id) DESC, videos.id").
		Limit(limit).
		Find(&videos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query trending videos: %w", err)
	}
	return videos, nil
}

func (r *VideoRepository) MostViewed(ctx context.Context, excludeIDs []uint64, limit int) ([]domain.Video, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	tx := r.DB.WithContext(ctx).Model(&domain.Video{}).Scopes(eligible)
	if len(excludeIDs) > 0 {
		tx = tx.Where("videos.id NOT IN ?", excludeIDs)
	}

	var videos []domain.Video
	if err := tx.Order("videos.views DESC, videos.id").Limit(limit).Find(&videos).Error; err != nil {
		return nil, fmt.Errorf("failed to query most viewed videos: %w", err)
	}
	return videos, nil
}

// ---- Embedding content ----

func (r *VideoRepository) VideosByIDs(ctx context.Context, ids []uint64) ([]domain.Video, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var videos []domain.Video
	err := r.DB.WithContext(ctx).
		Preload("Tags").
		Preload("Categories").
		Where("id IN ?", ids).
		Find(&videos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find videos: %w", err)
	}
	return videos, nil
}

func (r *VideoRepository) PostsByIDs(ctx context.Context, ids []uint64) ([]domain.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var posts []domain.Post
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to find posts: %w", err)
	}
	return posts, nil
}

func (r *VideoRepository) BlogsByIDs(ctx context.Context, ids []uint64) ([]domain.Blog, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var blogs []domain.Blog
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&blogs).Error; err != nil {
		return nil, fmt.Errorf("failed to find blogs: %w", err)
	}
	return blogs, nil
}

func (r *VideoRepository) ListPublishedVideos(ctx context.Context, afterID uint64, limit int) ([]domain.Video, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var videos []domain.Video
	err := r.DB.WithContext(ctx).
		Preload("Tags").
		Preload("Categories").
		Where("is_published = ? AND id > ?", true, afterID).
		Order("id").
		Limit(limit).
		Find(&videos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	return videos, nil
}

func (r *VideoRepository) ListPosts(ctx context.Context, afterID uint64, limit int) ([]domain.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var posts []domain.Post
	if err := r.DB.WithContext(ctx).Where("id > ?", afterID).Order("id").Limit(limit).Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

func (r *VideoRepository) ListBlogs(ctx context.Context, afterID uint64, limit int) ([]domain.Blog, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var blogs []domain.Blog
	if err := r.DB.WithContext(ctx).Where("id > ?", afterID).Order("id").Limit(limit).Find(&blogs).Error; err != nil {
		return nil, fmt.Errorf("failed to list blogs: %w", err)
	}
	return blogs, nil
}

const topInteractionsSQL = `
WITH w AS (
	SELECT video_id, SUM(view_time) AS watch_seconds FROM video_views WHERE user_id = @user GROUP BY video_id
), l AS (
	SELECT video_id, COUNT(*) AS likes FROM likes WHERE user_id = @user GROUP BY video_id
), c AS (
	SELECT video_id, COUNT(*) AS comments FROM comments WHERE user_id = @user GROUP BY video_id
), ids AS (
	SELECT video_id FROM w UNION SELECT video_id FROM l UNION SELECT video_id FROM c
)
SELECT ids.video_id,
	COALESCE(l.likes, 0) AS likes,
	COALESCE(c.comments, 0) AS comments,
	COALESCE(w.watch_seconds, 0) AS watch_seconds
FROM ids
LEFT JOIN w USING (video_id)
LEFT JOIN l USING (video_id)
LEFT JOIN c USING (video_id)
ORDER BY COALESCE(l.likes, 0) * 5 + COALESCE(c.comments, 0) * 3 + COALESCE(w.watch_seconds, 0) / 60.0 DESC, ids.video_id
LIMIT @limit`

// TopInteractions returns the user's most engaged videos by likes, comments and watch time.
func (r *VideoRepository) TopInteractions(ctx context.Context, userID uint, limit int) ([]domain.VideoInteraction, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var rows []domain.VideoInteraction
	err := r.DB.WithContext(ctx).
		Raw(topInteractionsSQL, map[string]any{"user": userID, "limit": limit}).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	return rows, nil
}
