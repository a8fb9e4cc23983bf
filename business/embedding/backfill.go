package embedding

import (
	"context"
	"fmt"

	"vidShare/domain"
	"vidShare/pkg/logger"
)

const DefaultBatchSize = 100

// BackfillStats counts the outcome of a Backfill run for one kind.
type BackfillStats struct {
	Kind    domain.ContentKind `json:"kind"`
	Total   int                `json:"total"`
	Success int                `json:"success"`
	Failed  int                `json:"failed"`
}

// Backfill refreshes the embedding of every entity of kind, batchSize rows at a time.
// A failing entity is counted and skipped; only storage errors while listing abort the run.
func (s *Store) Backfill(ctx context.Context, kind domain.ContentKind, batchSize int) (BackfillStats, error) {
	stats := BackfillStats{Kind: kind}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	var afterID uint64
	for {
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("context error: %w", err)
		}

		batch, err := s.listBatch(ctx, kind, afterID, batchSize)
		if err != nil {
			return stats, err
		}
		if len(batch) == 0 {
			break
		}

		for _, entity := range batch {
			stats.Total++
			if err := s.Refresh(ctx, entity); err != nil {
				stats.Failed++
				logger.Warn("embedding_backfill_item_failed",
					"kind", kind,
					"id", entity.EntityID(),
					"error", err,
				)
				continue
			}
			stats.Success++
		}

		afterID = batch[len(batch)-1].EntityID()
		logger.Info("embedding_backfill_progress",
			"kind", kind,
			"processed", stats.Total,
			"success", stats.Success,
			"failed", stats.Failed,
		)

		if len(batch) < batchSize {
			break
		}
	}

	return stats, nil
}

func (s *Store) listBatch(ctx context.Context, kind domain.ContentKind, afterID uint64, limit int) ([]domain.Embeddable, error) {
	var out []domain.Embeddable

	switch kind {
	case domain.ContentVideo:
		rows, err := s.content.ListPublishedVideos(ctx, afterID, limit)
		if err != nil {
			return nil, fmt.Errorf("list videos: %w", err)
		}
		for i := range rows {
			out = append(out, &rows[i])
		}
	case domain.ContentPost:
		rows, err := s.content.ListPosts(ctx, afterID, limit)
		if err != nil {
			return nil, fmt.Errorf("list posts: %w", err)
		}
		for i := range rows {
			out = append(out, &rows[i])
		}
	case domain.ContentBlog:
		rows, err := s.content.ListBlogs(ctx, afterID, limit)
		if err != nil {
			return nil, fmt.Errorf("list blogs: %w", err)
		}
		for i := range rows {
			out = append(out, &rows[i])
		}
	default:
		return nil, fmt.Errorf("unsupported content kind %q", kind)
	}

	return out, nil
}
