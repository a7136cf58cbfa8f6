package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// App認証（クライアントアプリが持つ共有Bearerトークン）
	AppBearerToken string

	// アクセスコード
	ContractorAccessCode string
	ElevatedAccessCode   string

	// Session
	SessionTTL       time.Duration
	SessionGrace     time.Duration
	AuthFailureDelay time.Duration

	// Bcrypt
	BcryptCost int

	// Rate Limit
	RateLimitGeneral int
	RateLimitAuth    int

	// Logging / 保持期間
	LogRetentionDays int

	// Server
	ServerPort string

	// Worker
	CleanupInterval time.Duration

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.AppBearerToken = os.Getenv("APP_BEARER_TOKEN")
	if cfg.AppBearerToken == "" {
		missing = append(missing, "APP_BEARER_TOKEN")
	}

	cfg.ContractorAccessCode = os.Getenv("CONTRACTOR_ACCESS_CODE")
	if cfg.ContractorAccessCode == "" {
		missing = append(missing, "CONTRACTOR_ACCESS_CODE")
	}

	cfg.ElevatedAccessCode = os.Getenv("ELEVATED_ACCESS_CODE")
	if cfg.ElevatedAccessCode == "" {
		missing = append(missing, "ELEVATED_ACCESS_CODE")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.SessionTTL = getEnvDuration("SESSION_TTL", 30*24*time.Hour)
	cfg.SessionGrace = getEnvDuration("SESSION_GRACE", 24*time.Hour)
	cfg.AuthFailureDelay = getEnvDuration("AUTH_FAIL_DELAY", time.Second)
	cfg.BcryptCost = getEnvInt("BCRYPT_COST", 10)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitAuth = getEnvInt("RATE_LIMIT_AUTH", 10)
	cfg.LogRetentionDays = getEnvInt("LOG_RETENTION_DAYS", 90)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CleanupInterval = getEnvDuration("CLEANUP_INTERVAL", 24*time.Hour)
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
