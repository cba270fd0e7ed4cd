package config

import (
	"os"
	"strconv"
	"time"
)

const (
	DefaultStoreDSN        = "./data/todoapp.db"
	DefaultPort            = "8000"
	DefaultAPIURL          = "http://localhost:8000"
	DefaultShutdownTimeout = 10 * time.Second
)

type Config struct {
	// StoreDSN: STORE_DSN, иначе MONGO_URI, иначе локальный файл SQLite
	StoreDSN        string
	HTTPPort        string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Для клиентов (CLI, Telegram-бот)
	APIURL        string
	TelegramToken string
	BotDebug      bool
}

// New читает конфигурацию из окружения
func New() Config {
	return FromLookup(os.LookupEnv)
}

// FromLookup нужен тестам, чтобы не трогать настоящее окружение
func FromLookup(lookup func(string) (string, bool)) Config {
	get := func(key, fallback string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return fallback
	}

	cfg := Config{
		StoreDSN:        get("STORE_DSN", get("MONGO_URI", DefaultStoreDSN)),
		HTTPPort:        get("PORT", DefaultPort),
		LogLevel:        get("LOG_LEVEL", "info"),
		ShutdownTimeout: DefaultShutdownTimeout,
		APIURL:          get("API_URL", DefaultAPIURL),
		TelegramToken:   get("TELEGRAM_TOKEN", ""),
	}

	if d, err := time.ParseDuration(get("SHUTDOWN_TIMEOUT", "")); err == nil && d > 0 {
		cfg.ShutdownTimeout = d
	}
	if b, err := strconv.ParseBool(get("BOT_DEBUG", "false")); err == nil {
		cfg.BotDebug = b
	}

	return cfg
}

// Addr - адрес для http.Server
func (c Config) Addr() string {
	return ":" + c.HTTPPort
}
