package domain

// DebugRecommendation explains the rank of one video. UCB and FinalScore are 0 for a new arm,
// which always ranks first.
type DebugRecommendation struct {
	VideoID       uint64  `json:"video_id"`
	Title         string  `json:"title"`
	Source        string  `json:"source"`
	Similarity    float64 `json:"similarity"`
	AverageReward float64 `json:"average_reward"`
	Impressions   int64   `json:"impressions"`
	NewArm        bool    `json:"new_arm"`
	UCB           float64 `json:"ucb"`
	FinalScore    float64 `json:"final_score"`
}
