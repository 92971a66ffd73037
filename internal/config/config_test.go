package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, DefaultMinInstructions, cfg.RecipeMinInstructions)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, cfg.AllowedOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("POSTGRES_DSN", "postgres://app@db/recipes")
	t.Setenv("RECIPE_MIN_INSTRUCTIONS", "80")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg := Load()

	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, "postgres://app@db/recipes", cfg.PostgresDSN)
	assert.Equal(t, 80, cfg.RecipeMinInstructions)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoadBadMinInstructionsFallsBack(t *testing.T) {
	t.Setenv("RECIPE_MIN_INSTRUCTIONS", "not-a-number")

	cfg := Load()
	assert.Equal(t, DefaultMinInstructions, cfg.RecipeMinInstructions)
}
