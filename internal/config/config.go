package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr       string        `env:"LISTEN_ADDR"       envDefault:":8080"`
	DBPath           string        `env:"DB_PATH"           envDefault:"db.sqlite"`
	GeminiBaseURL    string        `env:"GEMINI_BASE_URL"   envDefault:"https://generativelanguage.googleapis.com/v1beta/openai/"`
	GeminiModel      string        `env:"GEMINI_MODEL"      envDefault:"gemini-2.5-flash"`
	MaxUploadMB      int64         `env:"MAX_UPLOAD_MB"     envDefault:"20"`
	SessionTTL       time.Duration `env:"SESSION_TTL"       envDefault:"2h"`
	JournalRetention time.Duration `env:"JOURNAL_RETENTION" envDefault:"720h"`
	LogLevel         slog.Level    `env:"LOG_LEVEL"         envDefault:"info"`
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.MaxUploadMB <= 0 {
		return Config{}, fmt.Errorf("MAX_UPLOAD_MB must be positive (got %d)", cfg.MaxUploadMB)
	}

	return cfg, nil
}

func (c Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}
