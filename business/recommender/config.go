package recommender

import (
	"context"
	"time"

	"vidShare/domain"
	"vidShare/pkg/config"
	"vidShare/pkg/logger"
)

const (
	defaultCount             = 100
	defaultMaxCount          = 1000
	defaultExplorationRate   = 0.1
	defaultPopularityWeight  = 0.3
	defaultNoveltyWeight     = 0.2
	defaultCacheTTL          = 600 * time.Second
	defaultPrecomputeFactor  = 6
	defaultCandidatePoolSize = 1000

	popularityViewScale   = 10000.0
	recencyHorizonDays    = 30.0
	recencyFloor          = 0.1
	neighbourLimit        = 20
	neighbourMinOverlap   = 2
	topCategoryLimit      = 5
	categoryMatchWeight   = 10.0
	categoryViewWeight    = 0.01
	longWatchSourceLimit  = 10
	longWatchMinSeconds   = 60
	trendingWindow        = 7 * 24 * time.Hour
	explorationRecentDays = 30
)

// Settings are the static recommender knobs, read from the environment at start-up.
type Settings struct {
	DefaultCount      int
	MaxCount          int
	ExplorationRate   float64
	PopularityWeight  float64
	NoveltyWeight     float64
	CacheTTL          time.Duration
	PrecomputeFactor  int
	CandidatePoolSize int
}

func DefaultSettings() Settings {
	return Settings{
		DefaultCount:      defaultCount,
		MaxCount:          defaultMaxCount,
		ExplorationRate:   defaultExplorationRate,
		PopularityWeight:  defaultPopularityWeight,
		NoveltyWeight:     defaultNoveltyWeight,
		CacheTTL:          defaultCacheTTL,
		PrecomputeFactor:  defaultPrecomputeFactor,
		CandidatePoolSize: defaultCandidatePoolSize,
	}
}

// SettingsFromConfig overlays the environment configuration on the defaults.
func SettingsFromConfig(c config.RecommenderConfig) Settings {
	s := DefaultSettings()
	if c.DefaultCount > 0 {
		s.DefaultCount = c.DefaultCount
	}
	if c.MaxCount > 0 {
		s.MaxCount = c.MaxCount
	}
	if c.ExplorationRate >= 0 && c.ExplorationRate <= 1 {
		s.ExplorationRate = c.ExplorationRate
	}
	if c.CacheTTL > 0 {
		s.CacheTTL = c.CacheTTL
	}
	if c.PrecomputeFactor > 0 {
		s.PrecomputeFactor = c.PrecomputeFactor
	}
	if c.CandidatePoolSize > 0 {
		s.CandidatePoolSize = c.CandidatePoolSize
	}
	return s
}

// PrecomputeTTL is the expiry of entries written by the background scheduler.
func (s Settings) PrecomputeTTL() time.Duration {
	return s.CacheTTL * time.Duration(s.PrecomputeFactor)
}

func (s Settings) ttl(class domain.CacheTTLClass) time.Duration {
	if class == domain.TTLPrecomputed {
		return s.PrecomputeTTL()
	}
	return s.CacheTTL
}

// ConfigRepository stores the runtime-tunable recommender config.
type ConfigRepository interface {
	GetConfig(ctx context.Context, name string) (domain.RecommenderConfig, bool, error)
	UpsertConfig(ctx context.Context, cfg domain.RecommenderConfig) error
}

// loadSettings overlays the stored runtime config on the static settings. Missing or invalid
// rows leave the static values in place.
func (s *Service) loadSettings(ctx context.Context) Settings {
	cfg := s.settings
	if s.cfgRepo == nil {
		return cfg
	}

	row, ok, err := s.cfgRepo.GetConfig(ctx, domain.DefaultRecommenderConfigName)
	if err != nil {
		logger.Warn("recommender_config_load_failed", "error", err)
		return cfg
	}
	if !ok {
		return cfg
	}

	if row.ExplorationRate >= 0 && row.ExplorationRate <= 1 {
		cfg.ExplorationRate = row.ExplorationRate
	}
	if validWeights(row.PopularityWeight, row.NoveltyWeight) {
		cfg.PopularityWeight = row.PopularityWeight
		cfg.NoveltyWeight = row.NoveltyWeight
	}
	return cfg
}

// ValidateConfig checks a runtime config before it is stored.
func ValidateConfig(cfg domain.RecommenderConfig) error {
	if cfg.ExplorationRate < 0 || cfg.ExplorationRate > 1 {
		return ErrInvalidConfig
	}
	if !validWeights(cfg.PopularityWeight, cfg.NoveltyWeight) {
		return ErrInvalidConfig
	}
	return nil
}

func validWeights(pop, nov float64) bool {
	return pop >= 0 && nov >= 0 && pop+nov <= 1
}
