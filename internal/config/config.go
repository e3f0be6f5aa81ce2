package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the companion service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string
	APIKey           string

	AllowAnyOrigin bool

	CompletionMode        string
	CompletionBaseURL     string
	CompletionAPIKey      string
	CompletionModel       string
	CompletionTimeout     time.Duration
	CompletionMaxTokens   int
	CompletionTemperature float64

	MemoryCap           int
	MemoryTTL           time.Duration
	MemorySweepInterval time.Duration

	VoiceProvider string

	DatabaseURL string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "echobrain"),
		APIKey:           trimmedEnv("API_KEY"),
		AllowAnyOrigin:   false,
		CompletionMode:   envOrDefault("COMPLETION_MODE", "auto"),
		// Groq's OpenAI-compatible endpoint is the observed default provider.
		CompletionBaseURL:     envOrDefault("COMPLETION_BASE_URL", "https://api.groq.com/openai/v1"),
		CompletionAPIKey:      trimmedEnv("COMPLETION_API_KEY"),
		CompletionModel:       envOrDefault("COMPLETION_MODEL", "llama3-8b-8192"),
		CompletionTimeout:     30 * time.Second,
		CompletionMaxTokens:   150,
		CompletionTemperature: 0.7,
		MemoryCap:             10,
		MemoryTTL:             24 * time.Hour,
		MemorySweepInterval:   10 * time.Minute,
		VoiceProvider:         envOrDefault("VOICE_PROVIDER", "none"),
		DatabaseURL:           trimmedEnv("DATABASE_URL"),
		ShutdownTimeout:       15 * time.Second,
	}
	if cfg.CompletionAPIKey == "" {
		cfg.CompletionAPIKey = trimmedEnv("GROQ_API_KEY")
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.CompletionTimeout, err = durationFromEnv("COMPLETION_TIMEOUT", cfg.CompletionTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.MemoryTTL, err = durationFromEnv("MEMORY_TTL", cfg.MemoryTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.MemorySweepInterval, err = durationFromEnv("MEMORY_SWEEP_INTERVAL", cfg.MemorySweepInterval)
	if err != nil {
		return Config{}, err
	}
	cfg.MemoryCap, err = intFromEnv("MEMORY_CAP", cfg.MemoryCap)
	if err != nil {
		return Config{}, err
	}
	cfg.CompletionMaxTokens, err = intFromEnv("COMPLETION_MAX_TOKENS", cfg.CompletionMaxTokens)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	if cfg.CompletionTimeout < time.Second {
		return Config{}, fmt.Errorf("COMPLETION_TIMEOUT must be at least 1s")
	}
	if cfg.MemoryCap <= 0 {
		return Config{}, fmt.Errorf("MEMORY_CAP must be positive")
	}
	if cfg.MemoryTTL < time.Minute {
		return Config{}, fmt.Errorf("MEMORY_TTL must be at least 1m")
	}
	if cfg.MemorySweepInterval <= 0 {
		return Config{}, fmt.Errorf("MEMORY_SWEEP_INTERVAL must be positive")
	}
	if cfg.CompletionMaxTokens <= 0 {
		return Config{}, fmt.Errorf("COMPLETION_MAX_TOKENS must be positive")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func trimmedEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(trimmedEnv(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
