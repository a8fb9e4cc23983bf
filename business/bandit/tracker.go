package bandit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vidShare/domain"
	"vidShare/pkg/logger"
	"vidShare/pkg/trace"

	"gorm.io/datatypes"
)

var ErrVideoNotFound = errors.New("video not found")

// StatsRepository stores per-video UCB1 counters.
type StatsRepository interface {
	// Update locks the stats row of videoID, creating it when absent, and applies fn together
	// with the live count of tracked videos inside the same transaction.
	Update(ctx context.Context, videoID uint64, fn func(stats *domain.BanditStats, totalTracked int64)) (domain.BanditStats, error)
	// GetOrCreateMany returns the rows of ids, inserting zero rows for ids seen the first time.
	GetOrCreateMany(ctx context.Context, ids []uint64) (map[uint64]domain.BanditStats, error)
	CountTracked(ctx context.Context) (int64, error)
}

type EventRepository interface {
	SaveEvent(ctx context.Context, event domain.RecommendationEvent) error
}

type VideoLookup interface {
	FindVideo(ctx context.Context, id uint64) (domain.Video, bool, error)
}

// Event is one feedback signal on a recommended video.
type Event struct {
	VideoID   uint64
	UserID    uint
	Clicked   bool
	WatchTime time.Duration
	Context   map[string]any
}

// Tracker maintains the bandit statistics of every recommended video.
type Tracker struct {
	stats  StatsRepository
	events EventRepository
	videos VideoLookup
}

// NewTracker builds a Tracker. events may be nil to skip the event log.
func NewTracker(stats StatsRepository, events EventRepository, videos VideoLookup) *Tracker {
	return &Tracker{
		stats:  stats,
		events: events,
		videos: videos,
	}
}

// RecordEvent counts an impression and, when clicked, a click with its watch-time reward,
// atomically for the video.
func (t *Tracker) RecordEvent(ctx context.Context, ev Event) (domain.BanditStats, error) {
	if err := ctx.Err(); err != nil {
		return domain.BanditStats{}, fmt.Errorf("context error: %w", err)
	}

	video, found, err := t.videos.FindVideo(ctx, ev.VideoID)
	if err != nil {
		return domain.BanditStats{}, fmt.Errorf("load video: %w", err)
	}
	if !found {
		return domain.BanditStats{}, fmt.Errorf("video %d: %w", ev.VideoID, ErrVideoNotFound)
	}
	duration := video.WatchDuration()

	var reward float64
	stats, err := t.stats.Update(ctx, ev.VideoID, func(s *domain.BanditStats, total int64) {
		applyImpression(s, total)
		if ev.Clicked {
			before := s.RewardSum
			applyClick(s, ev.WatchTime, duration, total)
			reward = s.RewardSum - before
		}
	})
	if err != nil {
		return domain.BanditStats{}, fmt.Errorf("update bandit stats: %w", err)
	}

	eventType := "impression"
	if ev.Clicked {
		eventType = "click"
	}
	BanditFeedbackEventsTotal.WithLabelValues(eventType).Inc()
	BanditRewardTotal.Add(reward)

	logger.Debug("bandit_feedback",
		"trace_id", trace.TraceIDFromContext(ctx),
		"user_id", ev.UserID,
		"video_id", ev.VideoID,
		"event_type", eventType,
		"watch_seconds", ev.WatchTime.Seconds(),
		"reward", reward,
		"impressions", stats.ImpressionCount,
		"ucb", stats.UCBScore,
	)

	t.logEvent(ctx, ev)
	return stats, nil
}

// RecordImpression counts one showing of the video.
func (t *Tracker) RecordImpression(ctx context.Context, videoID uint64, userID uint) (domain.BanditStats, error) {
	return t.RecordEvent(ctx, Event{VideoID: videoID, UserID: userID})
}

// RecordClick credits a click without a separate impression event.
func (t *Tracker) RecordClick(ctx context.Context, videoID uint64, userID uint, watch time.Duration) (domain.BanditStats, error) {
	if err := ctx.Err(); err != nil {
		return domain.BanditStats{}, fmt.Errorf("context error: %w", err)
	}

	video, found, err := t.videos.FindVideo(ctx, videoID)
	if err != nil {
		return domain.BanditStats{}, fmt.Errorf("load video: %w", err)
	}
	if !found {
		return domain.BanditStats{}, fmt.Errorf("video %d: %w", videoID, ErrVideoNotFound)
	}
	duration := video.WatchDuration()

	stats, err := t.stats.Update(ctx, videoID, func(s *domain.BanditStats, total int64) {
		applyClick(s, watch, duration, total)
	})
	if err != nil {
		return domain.BanditStats{}, fmt.Errorf("update bandit stats: %w", err)
	}

	BanditFeedbackEventsTotal.WithLabelValues("click").Inc()
	t.logEvent(ctx, Event{VideoID: videoID, UserID: userID, Clicked: true, WatchTime: watch})
	return stats, nil
}

// Stats returns the counters of ids, creating rows for videos never seen before.
func (t *Tracker) Stats(ctx context.Context, ids []uint64) (map[uint64]domain.BanditStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if len(ids) == 0 {
		return map[uint64]domain.BanditStats{}, nil
	}

	out, err := t.stats.GetOrCreateMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load bandit stats: %w", err)
	}
	return out, nil
}

func (t *Tracker) logEvent(ctx context.Context, ev Event) {
	if t.events == nil {
		return
	}

	row := domain.RecommendationEvent{
		UserID:    ev.UserID,
		VideoID:   ev.VideoID,
		Clicked:   ev.Clicked,
		WatchTime: ev.WatchTime.Seconds(),
	}
	if len(ev.Context) > 0 {
		row.Context = datatypes.JSONMap(ev.Context)
	}

	if err := t.events.SaveEvent(ctx, row); err != nil {
		logger.Warn("bandit_event_log_failed",
			"trace_id", trace.TraceIDFromContext(ctx),
			"video_id", ev.VideoID,
			"error", err,
		)
	}
}
