package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvAsIntOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		envValue   string
		defaultVal int
		expected   int
	}{
		{"parses integer", "42", 10, 42},
		{"uses default for empty", "", 10, 10},
		{"uses default for non-numeric", "abc", 10, 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("TEST_INT", tc.envValue)
			assert.Equal(t, tc.expected, getEnvAsIntOrDefault("TEST_INT", tc.defaultVal))
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"http://a", "http://b"}, splitList(" http://a, ,http://b "))
}

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"DB_DSN", "AI_PROVIDER", "NAMING_MODE", "REDIS_ADDR", "WORKER_CONCURRENCY", "JWT_TTL_MINUTES", "OLLAMA_BASE_URL"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, "ollama", cfg.AIProvider)
	assert.Equal(t, "http://localhost:11434", cfg.OllamaBaseURL)
	assert.Equal(t, NamingInline, cfg.NamingMode)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, 2, cfg.WorkerConcurrency)
	assert.Equal(t, time.Hour, cfg.JWTTTL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("NAMING_MODE", "QUEUE")
	t.Setenv("WORKER_CONCURRENCY", "500")
	t.Setenv("DB_DSN", "sqlite:test.db")

	cfg := Load()
	assert.Equal(t, NamingQueue, cfg.NamingMode)
	assert.Equal(t, 50, cfg.WorkerConcurrency)
	assert.Equal(t, "sqlite:test.db", cfg.DBDSN)

	t.Setenv("NAMING_MODE", "bogus")
	assert.Equal(t, NamingInline, Load().NamingMode)
}
