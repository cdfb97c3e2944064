package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ModelImageEffects = "image-effects"
	ModelVideoEffects = "video-effects"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	APIBaseURL       string
	ContentBaseURL   string
	UserID           string
	EffectID         string
	ModelType        string
	PollInterval     time.Duration
	MaxPolls         int
	RequestTimeout   time.Duration
	DownloadDir      string
	DownloadPrefix   string
	DatabaseURL      string
	S3Bucket         string
	S3Prefix         string
	AWSRegion        string
	LogFile          string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// IsVideo reports whether the configured job type targets the video endpoints.
func (c *Config) IsVideo() bool {
	return c.ModelType == ModelVideoEffects
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	// Missing env files are not an error.
	_ = godotenv.Load(".env", ".env.local")

	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		APIBaseURL:       strings.TrimRight(getEnv("CHROMA_API_BASE_URL", "https://api.chromastudio.ai"), "/"),
		ContentBaseURL:   strings.TrimRight(getEnv("CHROMA_CONTENT_BASE_URL", "https://contents.maxstudio.ai"), "/"),
		UserID:           getEnv("CHROMA_USER_ID", "DObRu1vyStbUynoQmTcHBlhs55z2"),
		EffectID:         getEnv("CHROMA_EFFECT_ID", "stencilMaker"),
		ModelType:        getEnv("CHROMA_MODEL_TYPE", ModelImageEffects),
		PollInterval:     getEnvDuration("POLL_INTERVAL", 2*time.Second),
		MaxPolls:         getEnvInt("MAX_POLLS", 60),
		RequestTimeout:   getEnvDuration("REQUEST_TIMEOUT", 60*time.Second),
		DownloadDir:      getEnv("DOWNLOAD_DIR", "./downloads"),
		DownloadPrefix:   getEnv("DOWNLOAD_PREFIX", "stencil_result_"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		S3Bucket:         os.Getenv("S3_BUCKET"),
		S3Prefix:         getEnv("S3_PREFIX", "stencils/"),
		AWSRegion:        os.Getenv("AWS_REGION"),
		LogFile:          getEnv("LOG_FILE", "stencil.log"),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 180)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	switch cfg.ModelType {
	case ModelImageEffects, ModelVideoEffects:
	default:
		return nil, fmt.Errorf("CHROMA_MODEL_TYPE must be %q or %q, got %q", ModelImageEffects, ModelVideoEffects, cfg.ModelType)
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL must be positive")
	}
	if cfg.MaxPolls <= 0 {
		return nil, fmt.Errorf("MAX_POLLS must be positive")
	}
	if cfg.UserID == "" || cfg.EffectID == "" {
		return nil, fmt.Errorf("CHROMA_USER_ID and CHROMA_EFFECT_ID are required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
