package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"telegram_booking_bot/pkg/errors"

	"github.com/joho/godotenv"
)

// Режимы получения обновлений от Telegram
const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

// Config содержит всю конфигурацию приложения
type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Booking  BookingConfig  `json:"booking"`
	Log      LogConfig      `json:"log"`
}

// TelegramConfig содержит настройки Telegram бота
type TelegramConfig struct {
	Token         string `json:"token"`
	Mode          string `json:"mode"`
	WebhookURL    string `json:"webhook_url"`
	WebhookSecret string `json:"-"`
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port         string        `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
	RateLimit    int           `json:"rate_limit"`
}

// DatabaseConfig содержит настройки базы данных
type DatabaseConfig struct {
	Path        string        `json:"path"`
	ConnTimeout time.Duration `json:"conn_timeout"`
}

// BookingConfig содержит настройки сценария записи
type BookingConfig struct {
	AdminChatID         int64         `json:"admin_chat_id"`
	WebAppURL           string        `json:"webapp_url"`
	ShopName            string        `json:"shop_name"`
	StartDedupTTL       time.Duration `json:"start_dedup_ttl"`
	SubmissionsPerMin   int           `json:"submissions_per_min"`
	HistoryLimit        int           `json:"history_limit"`
	MaintenanceSchedule string        `json:"maintenance_schedule"`
}

// LogConfig содержит настройки логирования
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// Load загружает конфигурацию из .env (если есть) и переменных окружения
func Load() (*Config, error) {
	// Отсутствие .env не ошибка: в проде переменные задаются окружением
	_ = godotenv.Load()

	return FromEnv()
}

// FromEnv собирает конфигурацию только из переменных окружения
func FromEnv() (*Config, error) {
	cfg := &Config{
		Telegram: TelegramConfig{
			Token:         os.Getenv("TELEGRAM_TOKEN"),
			Mode:          strings.ToLower(getEnv("TELEGRAM_MODE", ModePolling)),
			WebhookURL:    os.Getenv("WEBHOOK_URL"),
			WebhookSecret: os.Getenv("WEBHOOK_SECRET"),
		},
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			RateLimit:    getEnvAsInt("RATE_LIMIT_PER_MINUTE", 120),
		},
		Database: DatabaseConfig{
			Path:        getEnv("DB_FILE", "data.sqlite"),
			ConnTimeout: getEnvAsDuration("DB_CONN_TIMEOUT", 5*time.Second),
		},
		Booking: BookingConfig{
			AdminChatID:         getEnvAsInt64("ADMIN_CHAT_ID", 0),
			WebAppURL:           getEnv("WEBAPP_URL", "https://tahirovdd-lang.github.io/TheKINGS/?v=1"),
			ShopName:            getEnv("SHOP_NAME", "THE KINGS BARBERSHOP"),
			StartDedupTTL:       getEnvAsDuration("START_DEDUP_TTL", 2*time.Second),
			SubmissionsPerMin:   getEnvAsInt("SUBMISSIONS_PER_MINUTE", 10),
			HistoryLimit:        getEnvAsInt("HISTORY_LIMIT", 5),
			MaintenanceSchedule: getEnv("MAINTENANCE_SCHEDULE", "@every 1m"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "json")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return invalid("TELEGRAM_TOKEN is required")
	}

	switch c.Telegram.Mode {
	case ModePolling:
	case ModeWebhook:
		if c.Telegram.WebhookURL == "" {
			return invalid("WEBHOOK_URL is required in webhook mode")
		}
	default:
		return invalid("invalid TELEGRAM_MODE %q (expected polling or webhook)", c.Telegram.Mode)
	}

	if c.Booking.AdminChatID == 0 {
		return invalid("ADMIN_CHAT_ID is required")
	}
	if c.Booking.WebAppURL == "" {
		return invalid("WEBAPP_URL must not be empty")
	}
	if c.Booking.StartDedupTTL < 0 {
		return invalid("START_DEDUP_TTL must be non-negative")
	}
	if c.Booking.SubmissionsPerMin <= 0 {
		return invalid("SUBMISSIONS_PER_MINUTE must be positive")
	}
	if c.Server.RateLimit <= 0 {
		return invalid("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.Database.Path == "" {
		return invalid("DB_FILE must not be empty")
	}

	return nil
}

// invalid оборачивает описание проблемы в ErrConfigurationInvalid
func invalid(format string, args ...interface{}) error {
	return errors.ErrConfigurationInvalid.WithError(fmt.Errorf(format, args...))
}

// IsWebhook сообщает, нужно ли принимать обновления через webhook
func (c *Config) IsWebhook() bool {
	return c.Telegram.Mode == ModeWebhook
}

// getEnv получает переменную окружения или возвращает значение по умолчанию
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvAsInt получает переменную окружения как число
func getEnvAsInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return fallback
}

// getEnvAsInt64 получает переменную окружения как int64
func getEnvAsInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

// getEnvAsDuration получает переменную окружения как duration
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
