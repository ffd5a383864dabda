package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken string
	Env           string
	Port          string

	StagingRoot   string
	StagingMaxAge time.Duration
	MaxFileSize   int64

	OCRProvider    string // "gosseract" or "cli"
	TesseractPath  string
	DefaultOCRLang string

	WorkerConcurrency int
	JobQueueSize      int
	JobTimeout        time.Duration
}

func LoadConfig() Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("⚠️  .env file not found, using system environment variables")
	}

	return Config{
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		Env:           getEnv("ENV", "development"),
		Port:          getEnv("PORT", "8080"),

		StagingRoot:   getEnv("STAGING_ROOT", filepath.Join(os.TempDir(), "textract-bot")),
		StagingMaxAge: getDuration("STAGING_MAX_AGE", 24*time.Hour),
		MaxFileSize:   getInt64("MAX_FILE_SIZE", 10*1024*1024),

		OCRProvider:    getEnv("OCR_PROVIDER", "gosseract"),
		TesseractPath:  getEnv("TESSERACT_PATH", "tesseract"),
		DefaultOCRLang: getEnv("DEFAULT_OCR_LANG", "ukr"),

		WorkerConcurrency: getInt("WORKER_CONCURRENCY", 4),
		JobQueueSize:      getInt("JOB_QUEUE_SIZE", 64),
		JobTimeout:        getDuration("JOB_TIMEOUT", 5*time.Minute),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("⚠️  invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Printf("⚠️  invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("⚠️  invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}
