package config

import (
	"os"
	"strconv"
	"strings"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port         string
	Environment  string
	ReadTimeout  int
	WriteTimeout int
	BodyLimitMB  int
	CORSOrigins  []string

	// Auth service
	AuthDBPath     string
	AuthMigrations string

	// Studio service
	StudioDataDir string

	// Upstreams used by the gateway and by the studio for token checks
	AuthURL   string
	StudioURL string
}

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "3000"),
		Environment:    getEnv("ENV", "development"),
		ReadTimeout:    getEnvAsInt("READ_TIMEOUT", 10),
		WriteTimeout:   getEnvAsInt("WRITE_TIMEOUT", 10),
		BodyLimitMB:    getEnvAsInt("BODY_LIMIT_MB", 64),
		CORSOrigins:    getEnvAsList("CORS_ORIGINS", []string{"*"}),
		AuthDBPath:     getEnv("AUTH_DB_PATH", "data/db/auth.db"),
		AuthMigrations: getEnv("AUTH_MIGRATIONS", "migrations/001_init_users.sql"),
		StudioDataDir:  getEnv("STUDIO_DATA_DIR", "data/studio"),
		AuthURL:        getEnv("AUTH_URL", "http://localhost:3002"),
		StudioURL:      getEnv("STUDIO_URL", "http://localhost:3001"),
	}
}

// BodyLimit returns the request body limit in bytes.
func (c *Config) BodyLimit() int {
	return c.BodyLimitMB * 1024 * 1024
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsList(key string, defaultVal []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
