package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App         AppConfig
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Redis       RedisConfig
	Encoder     EncoderConfig
	Recommender RecommenderConfig
	Precompute  PrecomputeConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type JWTConfig struct {
	SecretKey string
}

type RedisConfig struct {
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
}

// EncoderConfig points at the external text-embedding service.
type EncoderConfig struct {
	BaseURL           string
	BasicAuthUsername string
	BasicAuthPassword string
	Timeout           time.Duration
	Dimension         int
}

type RecommenderConfig struct {
	DefaultCount      int
	MaxCount          int
	ExplorationRate   float64
	CacheTTL          time.Duration
	PrecomputeFactor  int
	CandidatePoolSize int
}

type PrecomputeConfig struct {
	Interval         time.Duration
	ActiveWithinDays int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "vidShare"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "vidshare"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", ""),
		},
		Redis: RedisConfig{
			RedisHost:     getEnv("REDIS_HOST", "localhost"),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("REDIS_DB", 0),
		},
		Encoder: EncoderConfig{
			BaseURL:           getEnv("ENCODER_URL", "http://localhost:8081"),
			BasicAuthUsername: getEnv("ENCODER_BASIC_AUTH_USERNAME", ""),
			BasicAuthPassword: getEnv("ENCODER_BASIC_AUTH_PASSWORD", ""),
			Timeout:           getEnvSeconds("ENCODER_TIMEOUT", 5),
			Dimension:         getEnvInt("EMBEDDING_DIM", 384),
		},
		Recommender: RecommenderConfig{
			DefaultCount:      getEnvInt("RECO_DEFAULT_COUNT", 100),
			MaxCount:          getEnvInt("RECO_MAX_COUNT", 1000),
			ExplorationRate:   getEnvFloat("RECO_EXPLORATION_RATE", 0.1),
			CacheTTL:          getEnvSeconds("RECO_CACHE_TTL", 600),
			PrecomputeFactor:  getEnvInt("RECO_PRECOMPUTE_TTL_FACTOR", 6),
			CandidatePoolSize: getEnvInt("RECO_CANDIDATE_POOL", 1000),
		},
		Precompute: PrecomputeConfig{
			Interval:         getEnvSeconds("PRECOMPUTE_INTERVAL", 3600),
			ActiveWithinDays: getEnvInt("PRECOMPUTE_ACTIVE_DAYS", 30),
		},
	}

	if cfg.JWT.SecretKey == "" {
		return nil, errors.New("missing jwt secret")
	}

	if cfg.Database.Password == "" {
		return nil, errors.New("missing database password")
	}

	if cfg.Encoder.Dimension <= 0 {
		return nil, errors.New("embedding dimension must be positive")
	}

	if cfg.Recommender.ExplorationRate < 0 || cfg.Recommender.ExplorationRate > 1 {
		return nil, errors.New("exploration rate must be within [0,1]")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}

	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}

	return defaultVal
}

// getEnvSeconds reads a whole number of seconds.
func getEnvSeconds(key string, defaultVal int) time.Duration {
	return time.Duration(getEnvInt(key, defaultVal)) * time.Second
}
