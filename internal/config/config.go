package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Tabular track sources, in append order.
	SourcePaths    []string
	SourceEncoding string
	RowLimit       int // 0 means the full file
	ForceSchema    bool

	// Gridded wind field (NetCDF). Empty disables fusion.
	GridPath string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Schema-inference LLM endpoint (OpenAI-compatible chat API).
	LLMAPIKey    string
	LLMModel     string
	LLMBaseURL   string
	LLMTimeout   time.Duration
	LLMCacheSize int

	// When true, fusion copies the interpolated 10m wind into each point's
	// wind-state scalars, overwriting whatever the source columns carried.
	AdoptSurfaceWind bool

	// Optional fused-point export sink. Empty brokers disables it.
	KafkaBrokers   []string
	KafkaSinkTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDurationEnv("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	llmTimeout, err := parseDurationEnv("LLM_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	rowLimit, err := parseIntEnv("SOURCE_ROW_LIMIT", 0)
	if err != nil {
		return nil, err
	}

	cacheSize, err := parseIntEnv("LLM_CACHE_SIZE", 100)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		SourcePaths:    splitList(os.Getenv("SOURCE_PATHS")),
		SourceEncoding: envOrDefault("SOURCE_ENCODING", "utf-8"),
		RowLimit:       rowLimit,
		ForceSchema:    envBool("SCHEMA_FORCE_REGEN"),

		GridPath: os.Getenv("GRID_PATH"),

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		LLMAPIKey:    os.Getenv("LLM_API_KEY"),
		LLMModel:     envOrDefault("LLM_MODEL", "deepseek-chat"),
		LLMBaseURL:   envOrDefault("LLM_BASE_URL", "https://api.deepseek.com"),
		LLMTimeout:   llmTimeout,
		LLMCacheSize: cacheSize,

		AdoptSurfaceWind: envBool("WIND_ADOPT_SURFACE"),

		KafkaBrokers:   splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaSinkTopic: envOrDefault("KAFKA_SINK_TOPIC", "fused-track-points"),
	}

	if len(cfg.SourcePaths) == 0 {
		return nil, errors.New("SOURCE_PATHS is required")
	}
	if cfg.RowLimit < 0 {
		return nil, errors.New("SOURCE_ROW_LIMIT must be non-negative")
	}
	if cfg.LLMCacheSize <= 0 {
		return nil, errors.New("LLM_CACHE_SIZE must be positive")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_BROKERS is set but KAFKA_SINK_TOPIC is empty")
	}

	return cfg, nil
}

// envOrDefault returns the environment value for key, or def when unset.
func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string) bool {
	return os.Getenv(key) == "true"
}

func parseDurationEnv(key, def string) (time.Duration, error) {
	s := envOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseIntEnv(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}

// splitList splits a comma-separated list, trimming whitespace and dropping empties.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
