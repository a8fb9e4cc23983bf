package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vidShare/business/embedding"
	"vidShare/domain"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EmbeddingRepository struct {
	DB *gorm.DB
}

var _ embedding.Repository = (*EmbeddingRepository)(nil)

func NewEmbeddingRepository(db *gorm.DB) *EmbeddingRepository {
	return &EmbeddingRepository{DB: db}
}

func (r *EmbeddingRepository) Get(ctx context.Context, kind domain.ContentKind, id uint64) (domain.Embedding, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.Embedding{}, false, fmt.Errorf("context error: %w", err)
	}

	var row domain.Embedding
	err := r.DB.WithContext(ctx).First(&row, "kind = ? AND entity_id = ?", kind, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Embedding{}, false, nil
	}
	if err != nil {
		return domain.Embedding{}, false, fmt.Errorf("failed to query embedding: %w", err)
	}
	return row, true, nil
}

func (r *EmbeddingRepository) GetMany(ctx context.Context, kind domain.ContentKind, ids []uint64) (map[uint64][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	out := make(map[uint64][]float32, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []domain.Embedding
	err := r.DB.WithContext(ctx).
		Where("kind = ? AND entity_id IN ?", kind, ids).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	for _, row := range rows {
		out[row.EntityID] = row.Vector.Slice()
	}
	return out, nil
}

func (r *EmbeddingRepository) Upsert(ctx context.Context, kind domain.ContentKind, id uint64, vector []float32) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	row := domain.Embedding{
		Kind:      kind,
		EntityID:  id,
		Vector:    pgvector.NewVector(vector),
		UpdatedAt: time.Now(),
	}
	err := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "kind"}, {Name: "entity_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"vector", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert embedding: %w", err)
	}
	return nil
}

type nearestRow struct {
	Kind     domain.ContentKind `gorm:"column:kind"`
	EntityID uint64             `gorm:"column:entity_id"`
	Distance float64            `gorm:"column:distance"`
}

// Nearest ranks stored vectors of kinds by cosine distance to vector. Score is 1 - distance.
func (r *EmbeddingRepository) Nearest(ctx context.Context, vector []float32, kinds []domain.ContentKind, limit int) ([]embedding.ScoredKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var rows []nearestRow
	err := r.DB.WithContext(ctx).Model(&domain.Embedding{}).
		Select("kind, entity_id, vector <=> ? AS distance", pgvector.NewVector(vector)).
		Where("kind IN ?", kinds).
		Order("distance").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search embeddings: %w", err)
	}

	out := make([]embedding.ScoredKey, 0, len(rows))
	for _, row := range rows {
		out = append(out, embedding.ScoredKey{Kind: row.Kind, ID: row.EntityID, Score: 1 - row.Distance})
	}
	return out, nil
}
