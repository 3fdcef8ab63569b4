// Package config loads application configuration from environment variables
// and constructs the shared structured logger.
package config

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nexuslabs/nexus/internal/engine"
)

const (
	defaultListenAddr = ":8080"
	defaultDBPath     = "nexus.db"

	envListenAddr     = "NEXUS_LISTEN_ADDR"
	envDBPath         = "NEXUS_DB_PATH"
	envLogLevel       = "NEXUS_LOG_LEVEL"
	envWorkers        = "NEXUS_WORKERS"
	envQueueCapacity  = "NEXUS_QUEUE_CAPACITY"
	envBatchSize      = "NEXUS_BATCH_SIZE"
	envTaskTimeout    = "NEXUS_TASK_TIMEOUT"
	envMetricsEnabled = "NEXUS_METRICS_ENABLED"
	envSampleCapacity = "NEXUS_SAMPLE_CAPACITY"
	envBlockSize      = "NEXUS_BLOCK_SIZE"
	envBlockCount     = "NEXUS_BLOCK_COUNT"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	ListenAddr string
	DBPath     string
	LogLevel   slog.Level
	Engine     engine.Config
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	cfg := Config{
		ListenAddr: defaultListenAddr,
		DBPath:     defaultDBPath,
		LogLevel:   slog.LevelInfo,
		Engine:     engine.DefaultConfig(),
	}

	if v := os.Getenv(envListenAddr); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv(envDBPath); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(envLogLevel); v != "" {
		cfg.LogLevel = parseLogLevel(v)
	}

	cfg.Engine.Workers = intEnv(envWorkers, cfg.Engine.Workers)
	cfg.Engine.QueueCapacity = intEnv(envQueueCapacity, cfg.Engine.QueueCapacity)
	cfg.Engine.BatchSize = intEnv(envBatchSize, cfg.Engine.BatchSize)
	cfg.Engine.SampleCapacity = intEnv(envSampleCapacity, cfg.Engine.SampleCapacity)
	cfg.Engine.BlockSize = intEnv(envBlockSize, cfg.Engine.BlockSize)
	cfg.Engine.BlockCount = intEnv(envBlockCount, cfg.Engine.BlockCount)

	if v := os.Getenv(envTaskTimeout); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Engine.TaskTimeout = d
		}
	}
	if v := os.Getenv(envMetricsEnabled); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Engine.MetricsEnabled = b
		}
	}

	return cfg
}

func intEnv(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a structured JSON logger writing to w at the configured level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}
