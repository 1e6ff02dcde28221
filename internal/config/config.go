package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Environment string
	LogLevel    string

	DatabaseURL string
	RedisURL    string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool
	MinIORegion    string

	// MediaBaseURL is the public URL prefix for uploaded artifacts. When
	// empty, presigned URLs are handed out instead.
	MediaBaseURL string

	WorkerConcurrency int
	JobTimeout        time.Duration
	TempRoot          string

	// Generative providers
	ImageGenEndpoint  string
	ImageGenAPIKey    string
	ImageGenModel     string
	VideoGenEndpoint  string
	VideoGenAPIKey    string
	VideoGenModel     string
	VideoPollInterval time.Duration
	VideoPollTimeout  time.Duration

	FFmpegPath  string
	FFprobePath string

	TracingEnabled    bool
	OTLPEndpoint      string
	TracingSampleRate float64
}

func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	cfg.RedisURL = os.Getenv("REDIS_URL")
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	cfg.MinIOEndpoint = os.Getenv("MINIO_ENDPOINT")
	if cfg.MinIOEndpoint == "" {
		return nil, fmt.Errorf("MINIO_ENDPOINT is required")
	}

	cfg.MinIOAccessKey = os.Getenv("MINIO_ACCESS_KEY")
	if cfg.MinIOAccessKey == "" {
		return nil, fmt.Errorf("MINIO_ACCESS_KEY is required")
	}

	cfg.MinIOSecretKey = os.Getenv("MINIO_SECRET_KEY")
	if cfg.MinIOSecretKey == "" {
		return nil, fmt.Errorf("MINIO_SECRET_KEY is required")
	}

	cfg.MinIOBucket = getEnvString("MINIO_BUCKET", "media")
	cfg.MinIOUseSSL = getEnvBool("MINIO_USE_SSL", false)
	cfg.MinIORegion = getEnvString("MINIO_REGION", "us-east-1")
	cfg.MediaBaseURL = os.Getenv("MEDIA_BASE_URL")

	cfg.WorkerConcurrency = getEnvInt("WORKER_CONCURRENCY", 4)
	cfg.JobTimeout, err = getEnvDuration("JOB_TIMEOUT", "45m")
	if err != nil {
		return nil, fmt.Errorf("invalid JOB_TIMEOUT: %w", err)
	}
	cfg.TempRoot = getEnvString("TEMP_ROOT", os.TempDir())

	cfg.ImageGenEndpoint = os.Getenv("IMAGEGEN_ENDPOINT")
	cfg.ImageGenAPIKey = os.Getenv("IMAGEGEN_API_KEY")
	cfg.ImageGenModel = getEnvString("IMAGEGEN_MODEL", "imagen-3")
	cfg.VideoGenEndpoint = os.Getenv("VIDEOGEN_ENDPOINT")
	cfg.VideoGenAPIKey = os.Getenv("VIDEOGEN_API_KEY")
	cfg.VideoGenModel = getEnvString("VIDEOGEN_MODEL", "veo-2")

	cfg.VideoPollInterval, err = getEnvDuration("VIDEO_POLL_INTERVAL", "15s")
	if err != nil {
		return nil, fmt.Errorf("invalid VIDEO_POLL_INTERVAL: %w", err)
	}
	cfg.VideoPollTimeout, err = getEnvDuration("VIDEO_POLL_TIMEOUT", "5m")
	if err != nil {
		return nil, fmt.Errorf("invalid VIDEO_POLL_TIMEOUT: %w", err)
	}

	cfg.FFmpegPath = getEnvString("FFMPEG_PATH", "ffmpeg")
	cfg.FFprobePath = getEnvString("FFPROBE_PATH", "ffprobe")

	cfg.TracingEnabled = getEnvBool("TRACING_ENABLED", false)
	cfg.OTLPEndpoint = getEnvString("OTLP_ENDPOINT", "localhost:4317")
	cfg.TracingSampleRate = getEnvFloat("TRACING_SAMPLE_RATE", 1.0)

	cfg.Environment = getEnvString("ENVIRONMENT", "development")
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")

	return cfg, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key, defaultValue string) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		value = defaultValue
	}
	return time.ParseDuration(value)
}

func (c *Config) Validate() error {
	if c.WorkerConcurrency < 1 {
		return fmt.Errorf("invalid worker concurrency: %d", c.WorkerConcurrency)
	}

	if c.VideoPollInterval <= 0 {
		return fmt.Errorf("invalid video poll interval: %s", c.VideoPollInterval)
	}

	if c.VideoPollTimeout <= c.VideoPollInterval {
		return fmt.Errorf("video poll timeout %s must exceed poll interval %s", c.VideoPollTimeout, c.VideoPollInterval)
	}

	if c.ImageGenEndpoint == "" {
		return fmt.Errorf("IMAGEGEN_ENDPOINT is required")
	}

	if c.VideoGenEndpoint == "" {
		return fmt.Errorf("VIDEOGEN_ENDPOINT is required")
	}

	return nil
}
