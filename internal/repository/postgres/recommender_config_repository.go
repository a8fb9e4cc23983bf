package postgres

import (
	"context"
	"errors"
	"fmt"

	"vidShare/business/recommender"
	"vidShare/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RecommenderConfigRepository struct {
	DB *gorm.DB
}

var _ recommender.ConfigRepository = (*RecommenderConfigRepository)(nil)

func NewRecommenderConfigRepository(db *gorm.DB) *RecommenderConfigRepository {
	return &RecommenderConfigRepository{DB: db}
}

func (r *RecommenderConfigRepository) GetConfig(ctx context.Context, name string) (domain.RecommenderConfig, bool, error) {
	var cfg domain.RecommenderConfig

	err := r.DB.WithContext(ctx).
		Where("name = ?", name).
		First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.RecommenderConfig{}, false, nil
	}
	if err != nil {
		return domain.RecommenderConfig{}, false, fmt.Errorf("failed to query recommender_config: %w", err)
	}
	return cfg, true, nil
}

func (r *RecommenderConfigRepository) UpsertConfig(ctx context.Context, cfg domain.RecommenderConfig) error {
	if cfg.Name == "" {
		cfg.Name = domain.DefaultRecommenderConfigName
	}
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"exploration_rate",
				"popularity_weight",
				"novelty_weight",
				"updated_at",
			}),
		}).
		Create(&cfg).Error
}
