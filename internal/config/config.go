// Package config loads server configuration from the environment, with an
// optional .env file for development.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Side holds the default upstream for one color. Client requests may
// override any field per game.
type Side struct {
	APIURL string
	APIKey string
	Model  string
}

// Config is the server's environment-derived configuration.
type Config struct {
	Port     string
	LogLevel string

	White Side
	Black Side

	MaxRetries     int
	BypassPassword string
	LLMLogPath     string
}

// Load reads the environment. A missing .env file is normal and only
// noted; explicit environment variables always win because godotenv does
// not overwrite them.
func Load(logger *zap.Logger) Config {
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", zap.Error(err))
	}

	return Config{
		Port:     getenv("PORT", "8080"),
		LogLevel: getenv("LOG_LEVEL", "info"),
		White: Side{
			APIURL: os.Getenv("WHITE_API_URL"),
			APIKey: os.Getenv("WHITE_API_KEY"),
			Model:  os.Getenv("WHITE_MODEL"),
		},
		Black: Side{
			APIURL: os.Getenv("BLACK_API_URL"),
			APIKey: os.Getenv("BLACK_API_KEY"),
			Model:  os.Getenv("BLACK_MODEL"),
		},
		MaxRetries:     getenvInt("MAX_RETRIES", 3),
		BypassPassword: os.Getenv("COOLDOWN_BYPASS_PASSWORD"),
		LLMLogPath:     getenv("LLM_LOG_PATH", "llm_log.jsonl"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
