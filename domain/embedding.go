package domain

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// Embedding is the stored vector of one entity, unique per (kind, entity_id).
type Embedding struct {
	Kind      ContentKind     `gorm:"column:kind;primaryKey" json:"kind"`
	EntityID  uint64          `gorm:"column:entity_id;primaryKey" json:"entity_id"`
	Vector    pgvector.Vector `gorm:"column:vector" json:"-"`
	UpdatedAt time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

func (Embedding) TableName() string {
	return "embeddings"
}

// CacheTTLClass selects the expiry of a cached recommendation list.
type CacheTTLClass string

const (
	TTLInteractive CacheTTLClass = "interactive"
	TTLPrecomputed CacheTTLClass = "precomputed"
)

// RecommendationCacheEntry is the cached form of a ranked list.
type RecommendationCacheEntry struct {
	IDs       []uint64      `json:"ids"`
	WrittenAt time.Time     `json:"written_at"`
	TTLClass  CacheTTLClass `json:"ttl_class"`
}
