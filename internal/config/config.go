package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr        string
	RedisURL    string
	DatabaseURL string
	JWTSecret   string
	AccessTTL   time.Duration
	CORSOrigin  string
	// Ledger audit log (git) - disabled if dir is empty
	LedgerRepoDir string
	// Meilisearch - optional, verification directory search
	MeiliURL       string
	MeiliMasterKey string
	// MinIO - optional, studio artifact uploads
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
}

func Load() Config {
	return Config{
		Addr:           getenv("API_ADDR", ":8686"),
		RedisURL:       getenv("REDIS_URL", "redis://localhost:6379/0"),
		DatabaseURL:    getenv("DATABASE_URL", ""),
		JWTSecret:      getenv("SKILLFORGE_JWT_SECRET", "skillforge-dev-secret"),
		AccessTTL:      time.Duration(getenvInt("SKILLFORGE_ACCESS_TTL_SECONDS", 86400)) * time.Second,
		CORSOrigin:     getenv("SKILLFORGE_CORS_ORIGIN", "*"),
		LedgerRepoDir:  getenv("SKILLFORGE_LEDGER_REPO_DIR", ""),
		MeiliURL:       getenv("MEILI_URL", ""),
		MeiliMasterKey: getenv("MEILI_MASTER_KEY", ""),
		MinioEndpoint:  getenv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getenv("MINIO_BUCKET", "skillforge-artifacts"),
		MinioUseSSL:    getenv("MINIO_USE_SSL", "false") == "true",
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
