package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("JWT_SECRET", "dev-secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.True(t, cfg.Auth.AllowStaffSignup)
	assert.True(t, cfg.Lifecycle.Strict)
	assert.Equal(t, 20*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 10, cfg.Redis.IssueDailyLimit)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOrigins)
	assert.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "mongo")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "dev-secret")
	t.Setenv("LIFECYCLE_STRICT", "false")
	t.Setenv("CORS_ORIGINS", "https://a.example.org,https://b.example.org")
	t.Setenv("AI_TIMEOUT", "5s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Lifecycle.Strict)
	assert.Equal(t, []string{"https://a.example.org", "https://b.example.org"}, cfg.CORSOrigins)
	assert.Equal(t, 5*time.Second, cfg.AI.Timeout)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URI)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Env:          "development",
			StoreBackend: BackendMemory,
			Auth:         AuthConfig{JWTSecret: "s", TokenTTL: time.Hour},
			AI:           AIConfig{Timeout: time.Second},
			Redis:        RedisConfig{IssueDailyLimit: 1},
			Log:          LogConfig{Format: "json"},
		}
	}

	cfg := valid()
	assert.NoError(t, cfg.Validate())

	tests := map[string]func(*Config){
		"missing mongo uri":  func(c *Config) { c.StoreBackend = BackendMongo },
		"unknown backend":    func(c *Config) { c.StoreBackend = "sqlite" },
		"missing secret":     func(c *Config) { c.Auth.JWTSecret = "" },
		"short prod secret":  func(c *Config) { c.Env = "production" },
		"zero ttl":           func(c *Config) { c.Auth.TokenTTL = 0 },
		"zero limit":         func(c *Config) { c.Redis.IssueDailyLimit = 0 },
		"unknown log format": func(c *Config) { c.Log.Format = "xml" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestNewLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	log := newLogger(&buf, LogConfig{Level: "warn", Format: "json"})
	log.Info("hidden")
	log.Warn("shown", slog.String("issue_id", "abc"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "abc", entry["issue_id"])
	assert.Equal(t, "WARN", entry["level"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}
