package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

type Config struct {
	DBPath       string
	ServerPort   string
	LogLevel     string
	StoreBackend string
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		DBPath:       getEnv("DB_PATH", "leaderboard.db"),
		ServerPort:   getEnv("SERVER_PORT", "8080"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		StoreBackend: getEnv("STORE_BACKEND", BackendSQLite),
	}

	if cfg.StoreBackend != BackendSQLite && cfg.StoreBackend != BackendMemory {
		return nil, fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendSQLite, BackendMemory, cfg.StoreBackend)
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Str("store_backend", cfg.StoreBackend).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var Module = fx.Provide(Load)
