package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all server settings in correct types
type Config struct {
	Port              string
	MaxConcurrentJobs int
	JobQueueCapacity  int
	DownloadDir       string
	HistoryLimit      int
	SubscriberBuffer  int
	SSEKeepalive      time.Duration
	SweepInterval     time.Duration
	RedisAddr         string
	AllowedOrigins    string
	RateLimitRPS      float64
	RateLimitBurst    int
}

// Load: The only way to get config in the app
func Load() *Config {
	cfg := &Config{
		Port:              getEnv("PORT", ":5000"),
		MaxConcurrentJobs: getEnvAsInt("MAX_CONCURRENT_JOBS", 5),
		JobQueueCapacity:  getEnvAsInt("JOB_QUEUE_CAPACITY", 100),
		DownloadDir:       getEnv("DOWNLOAD_DIR", defaultDownloadDir()),
		HistoryLimit:      getEnvAsInt("HISTORY_LIMIT", 50),
		SubscriberBuffer:  getEnvAsInt("SUBSCRIBER_BUFFER", 100),
		SSEKeepalive:      time.Duration(getEnvAsInt("SSE_KEEPALIVE_SECONDS", 30)) * time.Second,
		SweepInterval:     time.Duration(getEnvAsInt("SWEEP_INTERVAL_MINUTES", 15)) * time.Minute,
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		AllowedOrigins:    getEnv("ALLOWED_ORIGINS", "*"),
		RateLimitRPS:      float64(getEnvAsInt("RATE_LIMIT_RPS", 100)),
		RateLimitBurst:    getEnvAsInt("RATE_LIMIT_BURST", 200),
	}

	validate(cfg)

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	str := getEnv(key, "")
	if val, err := strconv.Atoi(str); err == nil {
		return val
	}
	return fallback
}

func defaultDownloadDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "downloads"
	}
	return filepath.Join(home, "Downloads", "VideoDownloader")
}

// validate ensures the server won't crash due to misconfiguration
func validate(cfg *Config) {
	if cfg.MaxConcurrentJobs < 1 {
		slog.Warn("MAX_CONCURRENT_JOBS must be at least 1, resetting", "value", cfg.MaxConcurrentJobs, "default", 5)
		cfg.MaxConcurrentJobs = 5
	}
	if cfg.JobQueueCapacity < 1 {
		cfg.JobQueueCapacity = 100
	}
	if cfg.HistoryLimit < 1 {
		cfg.HistoryLimit = 50
	}
	if cfg.SubscriberBuffer < 1 {
		cfg.SubscriberBuffer = 100
	}
	if cfg.SSEKeepalive <= 0 {
		cfg.SSEKeepalive = 30 * time.Second
	}
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 100
	}
	if cfg.RateLimitBurst < 1 {
		cfg.RateLimitBurst = 200
	}
}
