package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/jominki354/hotstinder/rating"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int

	// MMRKFactor — величина K для расчёта дельт рейтинга.
	MMRKFactor float64
	// MatchStaleAfter — сколько идущий матч может висеть без завершения,
	// прежде чем супервизор отменит его с причиной "timeout".
	MatchStaleAfter time.Duration

	// Cloudflare R2 — хранилище файлов реплеев.
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	portStr := os.Getenv("SERVER_PORT")
	if portStr == "" {
		portStr = "8080" // Порт по умолчанию
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	kFactor := rating.DefaultKFactor
	if kStr := os.Getenv("MMR_K_FACTOR"); kStr != "" {
		kFactor, err = strconv.ParseFloat(kStr, 64)
		if err != nil || kFactor <= 0 {
			return nil, fmt.Errorf("MMR_K_FACTOR must be a positive number, got %q", kStr)
		}
	}

	staleAfter := 3 * time.Hour
	if staleStr := os.Getenv("MATCH_STALE_AFTER"); staleStr != "" {
		staleAfter, err = time.ParseDuration(staleStr)
		if err != nil || staleAfter <= 0 {
			return nil, fmt.Errorf("MATCH_STALE_AFTER must be a positive duration, got %q", staleStr)
		}
	}

	cfg := &Config{
		DatabaseURL:     dbURL,
		JWTSecretKey:    jwtKey,
		ServerPort:      port,
		MMRKFactor:      kFactor,
		MatchStaleAfter: staleAfter,

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
	}

	return cfg, nil
}

// ReplayStorageConfigured сообщает, заданы ли все поля R2.
// Без них сервер стартует, но загрузка реплеев отключена.
func (c *Config) ReplayStorageConfigured() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" &&
		c.R2SecretAccessKey != "" && c.R2BucketName != "" && c.R2PublicBaseURL != ""
}
