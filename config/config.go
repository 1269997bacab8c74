package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

type Config struct {
	Env    string `env:"GO_ENV" env-default:"development"`
	Port   string `env:"PORT" env-default:"8080"`
	Domain string `env:"DOMAIN"`

	StoreBackend string `env:"STORE_BACKEND" env-default:"mongo"`

	Mongo     MongoConfig
	Redis     RedisConfig
	Auth      AuthConfig
	AI        AIConfig
	Log       LogConfig
	Lifecycle LifecycleConfig

	CORSOrigins []string `env:"CORS_ORIGINS" env-separator:"," env-default:"http://localhost:5173"`
	SentryDSN   string   `env:"SENTRY_DSN"`
}

type MongoConfig struct {
	URI      string        `env:"MONGODB_URI"`
	Database string        `env:"MONGODB_DATABASE" env-default:"samadhan"`
	Timeout  time.Duration `env:"MONGODB_CONNECT_TIMEOUT" env-default:"10s"`
}

type RedisConfig struct {
	Address          string `env:"REDIS_ADDRESS"`
	Password         string `env:"REDIS_PASSWORD"`
	IssueQueuePrefix string `env:"REDIS_QUEUE_FOR_ISSUE_LIMIT" env-default:"issue-limit"`
	IssueDailyLimit  int    `env:"ISSUE_DAILY_LIMIT" env-default:"10"`
}

type AuthConfig struct {
	JWTSecret        string        `env:"JWT_SECRET"`
	TokenTTL         time.Duration `env:"JWT_TTL" env-default:"24h"`
	AllowStaffSignup bool          `env:"ALLOW_STAFF_SIGNUP" env-default:"true"`
}

type AIConfig struct {
	APIKey  string        `env:"ANTHROPIC_API_KEY"`
	Model   string        `env:"AI_MODEL"`
	Timeout time.Duration `env:"AI_TIMEOUT" env-default:"20s"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" env-default:"info"`
	Format string `env:"LOG_FORMAT" env-default:"text"`
}

type LifecycleConfig struct {
	Strict bool `env:"LIFECYCLE_STRICT" env-default:"true"`
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.StoreBackend {
	case BackendMongo:
		if c.Mongo.URI == "" {
			errs = append(errs, errors.New("MONGODB_URI is required when STORE_BACKEND=mongo"))
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendMongo, BackendMemory, c.StoreBackend))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if c.IsProduction() && len(c.Auth.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 characters in production"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.AI.Timeout <= 0 {
		errs = append(errs, errors.New("AI_TIMEOUT must be positive"))
	}
	if c.Redis.IssueDailyLimit < 1 {
		errs = append(errs, errors.New("ISSUE_DAILY_LIMIT must be at least 1"))
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
