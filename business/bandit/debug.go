package bandit

import (
	"context"
	"fmt"

	"vidShare/domain"
	"vidShare/pkg/logger"
	"vidShare/pkg/trace"
)

// ScoreBreakdown splits an arm's UCB1 score into its parts for inspection.
type ScoreBreakdown struct {
	Impressions   int64
	Clicks        int64
	AverageReward float64
	Bonus         float64
	UCB           float64
	NewArm        bool
}

// Breakdown explains the stored score of s against the current tracked-video count.
func Breakdown(s domain.BanditStats, totalTracked int64) ScoreBreakdown {
	b := ScoreBreakdown{
		Impressions:   s.ImpressionCount,
		Clicks:        s.ClickCount,
		AverageReward: s.AverageReward(),
		NewArm:        s.ImpressionCount == 0,
	}
	if !b.NewArm {
		b.Bonus = ExplorationBonus(s.ImpressionCount, totalTracked)
		b.UCB = b.AverageReward + b.Bonus
	}
	return b
}

// DebugStats returns score breakdowns for ids. Unknown ids come back as new arms.
func (t *Tracker) DebugStats(ctx context.Context, ids []uint64) (map[uint64]ScoreBreakdown, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	rows, err := t.Stats(ctx, ids)
	if err != nil {
		return nil, err
	}
	total, err := t.stats.CountTracked(ctx)
	if err != nil {
		return nil, fmt.Errorf("count tracked videos: %w", err)
	}

	out := make(map[uint64]ScoreBreakdown, len(ids))
	for _, id := range ids {
		out[id] = Breakdown(rows[id], total)
	}

	logger.Debug("bandit_debug_stats",
		"trace_id", trace.TraceIDFromContext(ctx),
		"videos", len(ids),
		"tracked", total,
	)
	return out, nil
}
