// Package wiring builds the repositories and services shared by the binaries.
package wiring

import (
	"context"
	"fmt"

	"vidShare/business/bandit"
	"vidShare/business/embedding"
	"vidShare/business/precompute"
	"vidShare/business/recommender"
	"vidShare/internal/repository/encoder"
	psqlRepo "vidShare/internal/repository/postgres"
	redisRepo "vidShare/internal/repository/redis"
	"vidShare/pkg/config"
	"vidShare/pkg/database"
	redisdb "vidShare/pkg/database/redis"
	"vidShare/pkg/logger"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Components struct {
	DB    *gorm.DB
	Redis *redis.Client

	ConfigRepo  *psqlRepo.RecommenderConfigRepository
	Settings    recommender.Settings
	Embeddings  *embedding.Store
	Tracker     *bandit.Tracker
	Recommender *recommender.Service
	Scheduler   *precompute.Scheduler
}

// Build connects to postgres and redis and wires every service. A redis outage is not
// fatal: the services run without a cache. The returned func releases the connections.
func Build(ctx context.Context, cfg *config.Config) (*Components, func(), error) {
	db, err := database.InitPostgres(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	logger.Info("Database connected successfully")

	if err := database.Migrate(db, cfg.Encoder.Dimension); err != nil {
		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}

	var (
		listCache recommender.Cache
		vecCache  embedding.VectorCache
	)
	rdb, err := redisdb.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Warn("Redis unavailable, running without cache", "error", err)
	} else {
		cache := redisRepo.NewCacheRepository(rdb)
		listCache, vecCache = cache, cache
	}

	// Init repo
	videoRepo := psqlRepo.NewVideoRepository(db)
	userRepo := psqlRepo.NewUserRepository(db)
	banditRepo := psqlRepo.NewBanditRepository(db)
	embeddingRepo := psqlRepo.NewEmbeddingRepository(db)
	cfgRepo := psqlRepo.NewRecommenderConfigRepository(db)

	textEncoder := encoder.NewHTTPEncoder(encoder.Config{
		BaseURL:           cfg.Encoder.BaseURL,
		BasicAuthUsername: cfg.Encoder.BasicAuthUsername,
		BasicAuthPassword: cfg.Encoder.BasicAuthPassword,
		Timeout:           cfg.Encoder.Timeout,
	})

	// Init service
	settings := recommender.SettingsFromConfig(cfg.Recommender)
	store := embedding.NewStore(embeddingRepo, videoRepo, textEncoder, vecCache, embedding.Options{
		Dimension:      cfg.Encoder.Dimension,
		EncoderTimeout: cfg.Encoder.Timeout,
	})
	tracker := bandit.NewTracker(banditRepo, banditRepo, videoRepo)
	recoService := recommender.NewService(videoRepo, userRepo, store, tracker, listCache, cfgRepo, settings)
	scheduler := precompute.NewScheduler(userRepo, recoService, settings.DefaultCount, cfg.Precompute.ActiveWithinDays)

	cleanup := func() {
		if err := redisdb.CloseRedisClient(rdb); err != nil {
			logger.Warn("Redis close error", "error", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	return &Components{
		DB:          db,
		Redis:       rdb,
		ConfigRepo:  cfgRepo,
		Settings:    settings,
		Embeddings:  store,
		Tracker:     tracker,
		Recommender: recoService,
		Scheduler:   scheduler,
	}, cleanup, nil
}
