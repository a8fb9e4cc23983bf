package precompute

import (
	"context"
	"fmt"
	"time"

	"vidShare/pkg/logger"
	"vidShare/pkg/metrics"
	"vidShare/pkg/trace"
)

// UserSource lists the users worth precomputing for.
type UserSource interface {
	ActiveUserIDs(ctx context.Context, since time.Time) ([]uint, error)
}

// Recommender is the slice of the orchestrator the scheduler drives.
type Recommender interface {
	Precompute(ctx context.Context, userID uint, count int) error
	RefreshPopular(ctx context.Context, count int) error
}

// Result counts the outcome of one cycle.
type Result struct {
	Succeeded        int  `json:"succeeded"`
	Failed           int  `json:"failed"`
	PopularRefreshed bool `json:"popular_refreshed"`
}

type Scheduler struct {
	users       UserSource
	reco        Recommender
	count       int
	activeSince time.Duration
	now         func() time.Time
}

// NewScheduler precomputes count videos for every user seen within activeDays.
func NewScheduler(users UserSource, reco Recommender, count, activeDays int) *Scheduler {
	return &Scheduler{
		users:       users,
		reco:        reco,
		count:       count,
		activeSince: time.Duration(activeDays) * 24 * time.Hour,
		now:         time.Now,
	}
}

// RunCycle precomputes every active user, isolating per-user failures, then refreshes the
// popular list. Only a failing user listing aborts the cycle.
func (s *Scheduler) RunCycle(ctx context.Context) (Result, error) {
	tid := trace.TraceIDFromContext(ctx)
	if tid == "" {
		ctx = trace.WithTraceID(ctx, "")
		tid = trace.TraceIDFromContext(ctx)
	}
	start := s.now()

	var res Result
	userIDs, err := s.users.ActiveUserIDs(ctx, start.Add(-s.activeSince))
	if err != nil {
		return res, fmt.Errorf("list active users: %w", err)
	}
	logger.Info("precompute_cycle_started", "trace_id", tid, "users", len(userIDs))

	for _, uid := range userIDs {
		if err := ctx.Err(); err != nil {
			logger.Warn("precompute_cycle_interrupted", "trace_id", tid, "error", err)
			break
		}
		if err := s.precomputeUser(ctx, uid); err != nil {
			res.Failed++
			logger.Warn("precompute_user_failed", "trace_id", tid, "user_id", uid, "error", err)
			continue
		}
		res.Succeeded++
	}

	if err := s.reco.RefreshPopular(ctx, s.count); err != nil {
		logger.Warn("precompute_popular_failed", "trace_id", tid, "error", err)
	} else {
		res.PopularRefreshed = true
	}

	elapsed := time.Since(start)
	metrics.PrecomputeUsers.WithLabelValues("succeeded").Set(float64(res.Succeeded))
	metrics.PrecomputeUsers.WithLabelValues("failed").Set(float64(res.Failed))
	metrics.PrecomputeDuration.Set(elapsed.Seconds())

	logger.Info("precompute_cycle_finished",
		"trace_id", tid,
		"succeeded", res.Succeeded,
		"failed", res.Failed,
		"popular_refreshed", res.PopularRefreshed,
		"duration", elapsed.String(),
	)
	return res, nil
}

func (s *Scheduler) precomputeUser(ctx context.Context, uid uint) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.reco.Precompute(ctx, uid, s.count)
}

// Run executes a cycle immediately and then every interval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.RunCycle(ctx); err != nil {
			logger.Error("precompute_cycle_failed", "error", err)
		}

		select {
		case <-ctx.Done():
			logger.Info("precompute_scheduler_stopped")
			return
		case <-ticker.C:
		}
	}
}
