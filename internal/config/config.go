package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ernissmal/image-generator-app/pkg/domain"
)

type Config struct {
	GeminiAPIKey string
	GeminiModel  string

	TemplateDir    string
	TemplateSchema string

	Port          string
	UploadDir     string
	GeneratedDir  string
	ReferencesDir string

	LogLevel string

	RequestTimeout   time.Duration
	MaxPerWindow     int
	RateWindow       time.Duration
	MaxRetries       int
	SuccessThreshold float64
}

func Load() (Config, error) {
	cfg := Config{
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.5-flash-image-preview"),
		TemplateDir:      getEnv("TEMPLATE_DIR", "prompts/angle-generation"),
		TemplateSchema:   getEnv("TEMPLATE_SCHEMA", "prompts/template-schema.json"),
		Port:             getEnv("PORT", "3000"),
		UploadDir:        getEnv("UPLOAD_DIR", "uploads"),
		GeneratedDir:     getEnv("GENERATED_DIR", "generated"),
		ReferencesDir:    getEnv("REFERENCES_DIR", "references/products"),
		LogLevel:         strings.ToLower(getEnv("LOG_LEVEL", "info")),
		RequestTimeout:   time.Duration(getEnvInt("REQUEST_TIMEOUT_MS", 60000)) * time.Millisecond,
		MaxPerWindow:     getEnvInt("MAX_REQUESTS_PER_WINDOW", 15),
		RateWindow:       time.Duration(getEnvInt("RATE_WINDOW_MS", 60000)) * time.Millisecond,
		MaxRetries:       getEnvInt("MAX_RETRIES", 3),
		SuccessThreshold: getEnvFloat("SUCCESS_THRESHOLD", 0.70),
	}

	cfg.GeminiAPIKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	if cfg.GeminiAPIKey == "" {
		return Config{}, &domain.ConfigError{Msg: "GEMINI_API_KEY is required"}
	}

	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	if cfg.MaxPerWindow < 1 {
		cfg.MaxPerWindow = 1
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = time.Minute
	}
	if cfg.SuccessThreshold < 0 || cfg.SuccessThreshold > 1 {
		cfg.SuccessThreshold = 0.70
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
