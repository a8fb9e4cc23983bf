package domain

import "time"

const (
	ModerationApproved = "approved"
	ModerationPending  = "pending"
	ModerationRejected = "rejected"

	// DefaultWatchDuration stands in for videos without a known duration when scoring rewards.
	DefaultWatchDuration = 300 * time.Second
)

// CREATE TABLE public.videos (
//     id                BIGSERIAL PRIMARY KEY,
//     title             TEXT,
//     description       TEXT,
//     creator_id        BIGINT,
//     views             BIGINT DEFAULT 0,
//     duration_seconds  INT,
//     is_published      BOOLEAN DEFAULT FALSE,
//     moderation_status TEXT DEFAULT 'pending',
//     created_at        TIMESTAMPTZ DEFAULT NOW()
// );

type Video struct {
	ID               uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Title            string     `gorm:"column:title;type:text" json:"title"`
	Description      string     `gorm:"column:description;type:text" json:"description"`
	CreatorID        uint       `gorm:"column:creator_id;index" json:"creator_id"`
	Views            int64      `gorm:"column:views;default:0" json:"views"`
	DurationSeconds  *int       `gorm:"column:duration_seconds" json:"duration_seconds,omitempty"`
	IsPublished      bool       `gorm:"column:is_published;default:false" json:"is_published"`
	ModerationStatus string     `gorm:"column:moderation_status;default:pending" json:"moderation_status"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	Tags             []Tag      `gorm:"many2many:video_tags;" json:"tags,omitempty"`
	Categories       []Category `gorm:"many2many:video_categories;" json:"categories,omitempty"`
}

func (Video) TableName() string { return "videos" }

func (v *Video) ContentKind() ContentKind { return ContentVideo }
func (v *Video) EntityID() uint64         { return v.ID }

// Eligible reports whether the video may be recommended.
func (v *Video) Eligible() bool {
	return v.IsPublished && v.ModerationStatus == ModerationApproved
}

// WatchDuration is the reference length a watch time is normalised against.
func (v *Video) WatchDuration() time.Duration {
	if v.DurationSeconds == nil || *v.DurationSeconds <= 0 {
		return DefaultWatchDuration
	}
	return time.Duration(*v.DurationSeconds) * time.Second
}

type Tag struct {
	ID   uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"column:name;uniqueIndex" json:"name"`
}

func (Tag) TableName() string { return "tags" }

type VideoView struct {
	ID               uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID           uint      `gorm:"column:user_id;index" json:"user_id"`
	VideoID          uint64    `gorm:"column:video_id;index" json:"video_id"`
	ViewTime         int       `gorm:"column:view_time;default:0" json:"view_time"` // seconds
	IsRecommendation bool      `gorm:"column:is_recommendation;default:false" json:"is_recommendation"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`
}

func (VideoView) TableName() string { return "video_views" }

type Like struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"column:user_id;uniqueIndex:idx_like_user_video" json:"user_id"`
	VideoID   uint64    `gorm:"column:video_id;uniqueIndex:idx_like_user_video" json:"video_id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Like) TableName() string { return "likes" }

type Comment struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"column:user_id;index" json:"user_id"`
	VideoID   uint64    `gorm:"column:video_id;index" json:"video_id"`
	Body      string    `gorm:"column:body;type:text" json:"body"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Comment) TableName() string { return "comments" }

type Subscription struct {
	SubscriberID uint      `gorm:"column:subscriber_id;primaryKey" json:"subscriber_id"`
	CreatorID    uint      `gorm:"column:creator_id;primaryKey" json:"creator_id"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Subscription) TableName() string { return "subscriptions" }

// VideoInteraction aggregates one user's signals on one video.
type VideoInteraction struct {
	VideoID      uint64
	Likes        int
	Comments     int
	WatchSeconds int
}
