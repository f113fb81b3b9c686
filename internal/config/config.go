package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// regionBaseURLs 리전 코드별 제출 API 베이스 URL
var regionBaseURLs = map[string]string{
	"eu": "https://api.fliplet.com",
	"us": "https://us.api.fliplet.com",
	"ca": "https://ca.api.fliplet.com",
}

type Config struct {
	// Server
	Port     string
	Env      string
	LogLevel string

	// 원격 제출 API
	Region     string
	APIBaseURL string // 비어 있으면 Region으로 결정
	APIToken   string
	APITimeout time.Duration

	// Redis (세션 캐시 / 뮤테이션 락; 비어 있으면 인메모리 폴백)
	RedisURL string

	// JWT (대시보드가 제시하는 플랫폼 발급 토큰 검증용)
	JWTSecret string

	// 에셋 스테이징
	StoragePath string

	// 빌드 모니터 폴링
	PollInitialInterval time.Duration
	PollMaxInterval     time.Duration

	// CORS
	CORSAllowedOrigins []string
}

func Load() (*Config, error) {
	// .env 파일 로드 (있는 경우)
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		Env:                 getEnv("ENV", "development"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		Region:              getEnv("REGION", "eu"),
		APIBaseURL:          getEnv("API_BASE_URL", ""),
		APIToken:            getEnv("API_TOKEN", ""),
		APITimeout:          parseDuration(getEnv("API_TIMEOUT", "30s"), 30*time.Second),
		RedisURL:            getEnv("REDIS_URL", ""),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		StoragePath:         getEnv("STORAGE_PATH", "./storage"),
		PollInitialInterval: parseDuration(getEnv("POLL_INITIAL_INTERVAL", "5s"), 5*time.Second),
		PollMaxInterval:     parseDuration(getEnv("POLL_MAX_INTERVAL", "60s"), 60*time.Second),
		CORSAllowedOrigins:  splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
	}

	if cfg.APIBaseURL == "" {
		base, ok := regionBaseURLs[cfg.Region]
		if !ok {
			return nil, fmt.Errorf("unknown region %q", cfg.Region)
		}
		cfg.APIBaseURL = base
	}

	if cfg.APIToken == "" {
		return nil, fmt.Errorf("API_TOKEN is required")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
