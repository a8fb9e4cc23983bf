package database

import (
	"fmt"
	"time"

	"vidShare/domain"
	"vidShare/pkg/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func InitPostgres(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)

	logLevel := gormlogger.Warn
	if cfg.App.Environment == "development" {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

// Migrate creates the pgvector extension and the tables the recommender reads and writes.
func Migrate(db *gorm.DB, dim int) error {
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	err := db.AutoMigrate(
		&domain.User{},
		&domain.Subscription{},
		&domain.Category{},
		&domain.Tag{},
		&domain.Video{},
		&domain.VideoView{},
		&domain.Like{},
		&domain.Comment{},
		&domain.Post{},
		&domain.Blog{},
		&domain.BanditStats{},
		&domain.RecommendationEvent{},
		&domain.RecommenderConfig{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}

	// vector width is configured at runtime, so the embeddings table is created by hand
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS embeddings (
		kind       TEXT        NOT NULL,
		entity_id  BIGINT      NOT NULL,
		vector     vector(%d)  NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (kind, entity_id)
	)`, dim)
	if err := db.Exec(stmt).Error; err != nil {
		return fmt.Errorf("failed to create embeddings table: %w", err)
	}

	return nil
}
