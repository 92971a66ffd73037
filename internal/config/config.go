package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultMinInstructions is the minimum instructions length applied when
// RECIPE_MIN_INSTRUCTIONS is unset.
const DefaultMinInstructions = 50

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port                  string
	PostgresDSN           string
	RedisAddr             string
	RedisPassword         string
	AllowedOrigins        []string
	RecipeMinInstructions int
}

func Load() *Config {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	return &Config{
		Port:                  getenv("PORT", "8080"),
		PostgresDSN:           getenv("POSTGRES_DSN", ""),
		RedisAddr:             getenv("REDIS_ADDR", "redis:6379"),
		RedisPassword:         getenv("REDIS_PASSWORD", ""),
		AllowedOrigins:        splitList(getenv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		RecipeMinInstructions: getenvInt("RECIPE_MIN_INSTRUCTIONS", DefaultMinInstructions),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
