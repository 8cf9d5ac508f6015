package config

import (
	"os"
	"strconv"
)

type Config struct {
	// HTTP
	HTTPPort string

	// TimescaleDB archive
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBMaxConns int32

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Pipeline channels
	ArchiveChannelSize int
	StateChannelSize   int

	// Archive writer tuning
	ArchiveBatchSize       int
	ArchiveFlushIntervalMS int

	// Worker counts
	ArchiveWriters int
	StateWriters   int

	// Demo feed
	Scenario  string // "normal" | "pilferage" | "both"
	SimTickMS int
}

func Load() *Config {
	return &Config{
		HTTPPort:               getEnv("HTTP_PORT", "8002"),
		DBHost:                 getEnv("DB_HOST", "localhost"),
		DBPort:                 getEnv("DB_PORT", "5432"),
		DBUser:                 getEnv("DB_USER", "transit_user"),
		DBPassword:             getEnv("DB_PASSWORD", "transit_password"),
		DBName:                 getEnv("DB_NAME", "transit_guard"),
		DBMaxConns:             int32(getEnvInt("DB_MAX_CONNS", 10)),
		RedisAddr:              getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:          getEnv("REDIS_PASSWORD", ""),
		RedisDB:                getEnvInt("REDIS_DB", 0),
		ArchiveChannelSize:     getEnvInt("ARCHIVE_CHANNEL_SIZE", 10000),
		StateChannelSize:       getEnvInt("STATE_CHANNEL_SIZE", 10000),
		ArchiveBatchSize:       getEnvInt("ARCHIVE_BATCH_SIZE", 500),
		ArchiveFlushIntervalMS: getEnvInt("ARCHIVE_FLUSH_INTERVAL_MS", 100),
		ArchiveWriters:         getEnvInt("ARCHIVE_WRITERS", 2),
		StateWriters:           getEnvInt("STATE_WRITERS", 2),
		Scenario:               getEnv("SCENARIO", "both"),
		SimTickMS:              getEnvInt("SIM_TICK_MS", 250),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
