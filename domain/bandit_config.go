package domain

import "time"

const DefaultRecommenderConfigName = "default"

// RecommenderConfig is the runtime-tunable part of the recommender, edited through the admin API.
type RecommenderConfig struct {
	Name             string    `json:"name" gorm:"column:name;primaryKey"`
	ExplorationRate  float64   `json:"exploration_rate" gorm:"column:exploration_rate"`
	PopularityWeight float64   `json:"popularity_weight" gorm:"column:popularity_weight"`
	NoveltyWeight    float64   `json:"novelty_weight" gorm:"column:novelty_weight"`
	UpdatedAt        time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (RecommenderConfig) TableName() string {
	return "recommender_config"
}
