package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI    string
	DBName      string
	Port        string
	GinMode     string
	CORSOrigins []string

	// Upload limits
	MaxFileSize       int64
	AllowedExtensions []string

	// Summarizer (optional capability; empty key disables it)
	GeminiAPIKey           string
	GeminiModel            string
	SummaryMinWords        int
	SummaryMaxWords        int
	SummaryInputTokenLimit int

	// Language model
	LexiconDir       string
	InferenceWorkers int

	// Rate limiting
	RateLimitReqs   int
	RateLimitWindow int

	// Result cache
	CacheSize int

	// Async processing
	RedisURL       string
	RedisPassword  string
	RedisDB        int
	FileStorageDir string

	// Retention sweep in the worker
	RetentionDays int
}

func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017/grantmatcher"),
		DBName:      getEnv("DB_NAME", "grantmatcher"),
		Port:        getEnv("PORT", "4001"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),

		MaxFileSize:       getEnvInt64("MAX_FILE_SIZE", 52428800), // 50MB
		AllowedExtensions: strings.Split(getEnv("ALLOWED_EXTENSIONS", ".pdf,.ppt,.pptx"), ","),

		GeminiAPIKey:           getEnv("GEMINI_API_KEY", ""),
		GeminiModel:            getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		SummaryMinWords:        getEnvInt("SUMMARY_MIN_WORDS", 30),
		SummaryMaxWords:        getEnvInt("SUMMARY_MAX_WORDS", 130),
		SummaryInputTokenLimit: getEnvInt("SUMMARY_INPUT_TOKEN_LIMIT", 2048),

		LexiconDir:       getEnv("LEXICON_DIR", "./lexicons"),
		InferenceWorkers: getEnvInt("INFERENCE_WORKERS", 4),

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		CacheSize: getEnvInt("CACHE_SIZE", 256),

		RedisURL:       getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		FileStorageDir: getEnv("FILE_STORAGE_DIR", "./storage"),

		RetentionDays: getEnvInt("RETENTION_DAYS", 0), // 0 disables the sweep
	}

	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGO_URI is required")
	}

	if cfg.InferenceWorkers < 1 {
		return nil, fmt.Errorf("INFERENCE_WORKERS must be at least 1")
	}

	return cfg, nil
}

// SummarizerEnabled reports whether the optional summarization capability is
// configured. The pipeline runs end-to-end without it.
func (c *Config) SummarizerEnabled() bool {
	return c.GeminiAPIKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
