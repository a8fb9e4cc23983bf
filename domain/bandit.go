package domain

import (
	"math"
	"time"

	"gorm.io/datatypes"
)

// BanditStats holds the UCB1 counters of one video. Rows are only mutated through the
// locked update in the bandit stats repository.
type BanditStats struct {
	VideoID         uint64    `gorm:"column:video_id;primaryKey" json:"video_id"`
	ImpressionCount int64     `gorm:"column:impression_count;not null;default:0" json:"impression_count"`
	ClickCount      int64     `gorm:"column:click_count;not null;default:0" json:"click_count"`
	TotalWatchTime  float64   `gorm:"column:total_watch_time;not null;default:0" json:"total_watch_time"` // seconds
	RewardSum       float64   `gorm:"column:reward_sum;not null;default:0" json:"reward_sum"`
	UCBScore        float64   `gorm:"column:ucb_score;not null;default:0" json:"ucb_score"`
	LastUpdated     time.Time `gorm:"column:last_updated;autoUpdateTime" json:"last_updated"`
}

func (BanditStats) TableName() string {
	return "bandit_stats"
}

// Score is the ranking value of the arm. A never-impressed video always wins.
func (s BanditStats) Score() float64 {
	if s.ImpressionCount == 0 {
		return math.Inf(1)
	}
	return s.UCBScore
}

// AverageReward is reward_sum / impressions, 0 for a new arm.
func (s BanditStats) AverageReward() float64 {
	if s.ImpressionCount == 0 {
		return 0
	}
	return s.RewardSum / float64(s.ImpressionCount)
}

// RecommendationEvent is the append-only log of impressions and clicks.
type RecommendationEvent struct {
	ID        uint64            `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint              `gorm:"column:user_id;index" json:"user_id"`
	VideoID   uint64            `gorm:"column:video_id;not null;index" json:"video_id"`
	Clicked   bool              `gorm:"column:clicked;not null" json:"clicked"`
	WatchTime float64           `gorm:"column:watch_time;not null;default:0" json:"watch_time"`
	Context   datatypes.JSONMap `gorm:"column:context;type:jsonb" json:"context"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (RecommendationEvent) TableName() string {
	return "recommendation_events"
}
