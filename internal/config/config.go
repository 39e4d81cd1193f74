package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	SinkMongo    = "mongo"
	SinkPostgres = "postgres"
)

type Config struct {
	SinkType         string
	MongoURI         string
	MongoDatabase    string
	DatabaseURL      string
	Collection       string
	GridSize         int
	ChunkSize        int
	SkipLimit        int
	ProgressInterval int
	MetricsAddr      string
	LogLevel         string
}

func New() (*Config, error) {
	cfg := &Config{
		SinkType:         getEnv("SINK_TYPE", SinkMongo),
		MongoURI:         getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:    getEnv("MONGO_DATABASE", "payments_db"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		Collection:       getEnv("COLLECTION", "payments"),
		GridSize:         4,
		ChunkSize:        5000,
		SkipLimit:        0,
		ProgressInterval: 1_000_000,
		MetricsAddr:      os.Getenv("METRICS_ADDR"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}

	var err error
	cfg.GridSize, err = getEnvAsInt("GRID_SIZE", cfg.GridSize)
	if err != nil {
		return nil, err
	}

	cfg.ChunkSize, err = getEnvAsInt("CHUNK_SIZE", cfg.ChunkSize)
	if err != nil {
		return nil, err
	}

	cfg.SkipLimit, err = getEnvAsInt("SKIP_LIMIT", cfg.SkipLimit)
	if err != nil {
		return nil, err
	}

	cfg.ProgressInterval, err = getEnvAsInt("PROGRESS_INTERVAL", cfg.ProgressInterval)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate is also called after command line flags have overridden env values.
func (c *Config) Validate() error {
	if c.GridSize < 1 {
		return fmt.Errorf("grid size must be at least 1, got %d", c.GridSize)
	}
	if c.ChunkSize < 1 {
		return fmt.Errorf("chunk size must be at least 1, got %d", c.ChunkSize)
	}
	if c.SkipLimit < 0 {
		return fmt.Errorf("skip limit must not be negative, got %d", c.SkipLimit)
	}
	if c.ProgressInterval < 1 {
		return fmt.Errorf("progress interval must be at least 1, got %d", c.ProgressInterval)
	}

	switch c.SinkType {
	case SinkMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI environment variable is not set")
		}
	case SinkPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL environment variable is not set")
		}
	default:
		return fmt.Errorf("unknown SINK_TYPE '%s': expected %s or %s", c.SinkType, SinkMongo, SinkPostgres)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: expected an integer, got '%s'", key, valueStr)
	}

	return value, nil
}
