package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds the application settings, read from the environment (with an
// optional .env file) and overridable by flags.
type Config struct {
	Addr          string        `env:"RUN_ADDRESS" env-default:":8080"`
	DatabasePath  string        `env:"DATABASE_PATH" env-default:"lending.db"`
	RedisAddr     string        `env:"REDIS_ADDR"`
	OpenAIKey     string        `env:"OPENAI_API_KEY"`
	JWTSecret     string        `env:"JWT_SECRET" env-default:"dev-secret-change-me"`
	TokenExpiry   time.Duration `env:"TOKEN_EXPIRY" env-default:"24h"`
	AdminUser     string        `env:"ADMIN_USER" env-default:"admin"`
	AdminPassword string        `env:"ADMIN_PASSWORD" env-default:"admin"`
}

// Load reads the configuration. Flag values win over environment variables;
// a missing .env file is fine.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("couldn't read environment variables: %w", err)
	}

	flag.StringVar(&cfg.Addr, "a", cfg.Addr, "HTTP listen address")
	flag.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "SQLite database path")
	flag.StringVar(&cfg.RedisAddr, "r", cfg.RedisAddr, "Redis address for the assistant cache (empty = in-memory)")
	flag.Parse()

	return cfg, nil
}
