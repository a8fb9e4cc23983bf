package postgres

import (
	"context"
	"fmt"

	"vidShare/business/bandit"
	"vidShare/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BanditRepository struct {
	DB *gorm.DB
}

var (
	_ bandit.StatsRepository = (*BanditRepository)(nil)
	_ bandit.EventRepository = (*BanditRepository)(nil)
)

func NewBanditRepository(db *gorm.DB) *BanditRepository {
	return &BanditRepository{DB: db}
}

// ---- Events ----

func (r *BanditRepository) SaveEvent(ctx context.Context, event domain.RecommendationEvent) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Create(&event).Error; err != nil {
		return fmt.Errorf("failed to save recommendation event: %w", err)
	}

	return nil
}

// ---- Stats ----

// Update runs fn on the row of videoID under SELECT ... FOR UPDATE. The tracked-video count is
// read in the same transaction so the exploration bonus sees the live population.
func (r *BanditRepository) Update(ctx context.Context, videoID uint64, fn func(stats *domain.BanditStats, totalTracked int64)) (domain.BanditStats, error) {
	if err := ctx.Err(); err != nil {
		return domain.BanditStats{}, fmt.Errorf("context error: %w", err)
	}

	var out domain.BanditStats
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&domain.BanditStats{VideoID: videoID}).Error; err != nil {
			return fmt.Errorf("failed to init bandit_stats: %w", err)
		}

		var stats domain.BanditStats
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&stats, "video_id = ?", videoID).Error; err != nil {
			return fmt.Errorf("failed to lock bandit_stats: %w", err)
		}

		var total int64
		if err := tx.Model(&domain.BanditStats{}).Count(&total).Error; err != nil {
			return fmt.Errorf("failed to count bandit_stats: %w", err)
		}

		fn(&stats, total)

		if err := tx.Save(&stats).Error; err != nil {
			return fmt.Errorf("failed to save bandit_stats: %w", err)
		}
		out = stats
		return nil
	})
	if err != nil {
		return domain.BanditStats{}, err
	}
	return out, nil
}

func (r *BanditRepository) GetOrCreateMany(ctx context.Context, ids []uint64) (map[uint64]domain.BanditStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	out := make(map[uint64]domain.BanditStats, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	fresh := make([]domain.BanditStats, 0, len(ids))
	for _, id := range ids {
		fresh = append(fresh, domain.BanditStats{VideoID: id})
	}
	if err := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&fresh, 500).Error; err != nil {
		return nil, fmt.Errorf("failed to init bandit_stats: %w", err)
	}

	var rows []domain.BanditStats
	if err := r.DB.WithContext(ctx).Where("video_id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query bandit_stats: %w", err)
	}
	for _, row := range rows {
		out[row.VideoID] = row
	}
	return out, nil
}

func (r *BanditRepository) CountTracked(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context error: %w", err)
	}

	var n int64
	if err := r.DB.WithContext(ctx).Model(&domain.BanditStats{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count bandit_stats: %w", err)
	}
	return n, nil
}
