package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	// Core
	BotName       string `env:"BOT_NAME,required"`
	PlatformURL   string `env:"PLATFORM_URL,required"`
	PlatformToken string `env:"PLATFORM_TOKEN,required"`
	BotID         string `env:"BOT_ID,required"`
	AppURL        string `env:"APP_URL"`
	Timezone      string `env:"TIMEZONE" envDefault:"America/Denver"`
	BotParamsFile string `env:"BOT_PARAMS_FILE" envDefault:"bots.yaml"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`

	// Coordination
	LedgerDSN  string `env:"LEDGER_DSN"`
	RedisURL   string `env:"REDIS_URL"`
	StatusAddr string `env:"STATUS_ADDR"`

	// Telegram logging
	TelegramBotToken  string `env:"TELEGRAM_BOT_TOKEN"`
	LogTelegramChatID int64  `env:"LOG_TELEGRAM_CHAT_ID"`
	LogTopicError     int    `env:"LOG_TOPIC_ERROR"`
	LogTopicReward    int    `env:"LOG_TOPIC_REWARD"`
	LogTopicActivity  int    `env:"LOG_TOPIC_ACTIVITY"`

	// Text generation for the story bot
	OpenRouterKey   string `env:"OPENROUTER_API_KEY"`
	OpenRouterModel string `env:"OPENROUTER_MODEL" envDefault:"meta-llama/llama-3.1-8b-instruct"`
	TextgenScript   string `env:"TEXTGEN_SCRIPT"`
	TextgenPython   string `env:"TEXTGEN_PYTHON" envDefault:"python3"`
	TextgenModel    string `env:"TEXTGEN_MODEL" envDefault:"774M"`
}

// Load reads .env when present and parses the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return parse(env.Options{})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.BotName = strings.ToLower(strings.TrimSpace(cfg.BotName))
	return cfg, nil
}

// SlogLevel maps LOG_LEVEL to a slog level; unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.LogTelegramChatID != 0
}
